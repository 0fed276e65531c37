package rpc

import (
	"context"
	"io"
)

// processRWC adapts a child process's stdin/stdout pipes into the single
// io.ReadWriteCloser a jsonrpc2.Dialer must produce. Reads come from the
// process's stdout, writes go to its stdin; Close closes both sides so a
// blocked Read unblocks the way wharflab-tally's stdioRWC unblocks a pending
// read on the client side of a pipe.
type processRWC struct {
	stdout io.ReadCloser
	stdin  io.WriteCloser
}

func newProcessRWC(stdout io.ReadCloser, stdin io.WriteCloser) *processRWC {
	return &processRWC{stdout: stdout, stdin: stdin}
}

// NewProcessRWC adapts a child process's stdout/stdin pipes into the single
// io.ReadWriteCloser Engine.New dials over.
func NewProcessRWC(stdout io.ReadCloser, stdin io.WriteCloser) io.ReadWriteCloser {
	return newProcessRWC(stdout, stdin)
}

func (p *processRWC) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p *processRWC) Write(b []byte) (int, error) { return p.stdin.Write(b) }

func (p *processRWC) Close() error {
	werr := p.stdin.Close()
	rerr := p.stdout.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// staticDialer hands back a single, already-open io.ReadWriteCloser. The
// Process Host owns spawning; by the time the Engine dials, stdin/stdout are
// already piped, so there is nothing left for Dial to do but return them.
type staticDialer struct {
	rwc io.ReadWriteCloser
}

func (d staticDialer) Dial(_ context.Context) (io.ReadWriteCloser, error) {
	return d.rwc, nil
}
