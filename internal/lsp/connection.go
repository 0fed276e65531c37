// Package lsp implements the ServerConnection state machine (spec.md §3,
// §4.4): Spawned -> Initializing -> Ready -> ShuttingDown -> Exited, with a
// terminal Crashed state. A Connection owns its Process Host, JSON-RPC
// Engine, and Document Session exclusively; the Sync Facade holds a shared
// reference and may call into it from many goroutines at once.
//
// Adapted from the teacher's client.go: the same single-struct-owns-the-
// whole-connection shape and debug-gated logging, with an atomic lifecycle
// state; request ids are allocated by jsonrpc2. It now drives
// golang.org/x/exp/jsonrpc2 through internal/rpc instead of a
// hand-rolled transport/methods pair.
package lsp

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thanhtunguet/serena/internal/ignore"
	"github.com/thanhtunguet/serena/internal/lsperr"
	"github.com/thanhtunguet/serena/internal/procost"
	"github.com/thanhtunguet/serena/internal/profile"
	"github.com/thanhtunguet/serena/internal/protocol"
	"github.com/thanhtunguet/serena/internal/rpc"
	"github.com/thanhtunguet/serena/internal/session"
)

// State is a ServerConnection lifecycle state.
type State int32

const (
	StateSpawned State = iota
	StateInitializing
	StateReady
	StateShuttingDown
	StateExited
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateSpawned:
		return "spawned"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting_down"
	case StateExited:
		return "exited"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Connection is a single child process + its transport + its JSON-RPC
// engine + its Document Session (spec.md's ServerConnection).
type Connection struct {
	Root    string
	Profile profile.Profile

	host   *procost.Host
	engine *rpc.Engine
	Docs   *session.Session
	Ignore *ignore.Spec
	Walker *ignore.Walker

	debug bool

	state   atomic.Int32
	ready   chan struct{}
	readyMu sync.Once
}

// Start spawns the child process, performs the initialize/initialized
// handshake, and blocks until Ready or the handshake fails. On failure the
// connection transitions to Crashed and Start returns
// ErrServerStartupFailed wrapping the underlying cause.
func Start(ctx context.Context, root string, prof profile.Profile, ignoredPaths []string) (*Connection, error) {
	spec, err := ignore.New(root, prof.AllIgnoredDirnames(), ignoredPaths)
	if err != nil {
		return nil, fmt.Errorf("lsp: build ignore spec: %w", err)
	}

	c := &Connection{
		Root:    root,
		Profile: prof,
		Ignore:  spec,
		Walker:  ignore.NewWalker(spec),
		debug:   os.Getenv("SERENA_LSP_DEBUG") == "true",
		ready:   make(chan struct{}),
	}
	c.setState(StateSpawned)

	host, err := procost.Spawn(procost.LaunchInfo{Command: prof.LaunchCommand, Dir: root})
	if err != nil {
		c.setState(StateCrashed)
		return nil, fmt.Errorf("%w: %v", lsperr.ErrServerStartupFailed, err)
	}
	c.host = host

	engine, err := rpc.New(ctx, rpc.NewProcessRWC(host.Stdout, host.Stdin))
	if err != nil {
		c.setState(StateCrashed)
		return nil, fmt.Errorf("%w: %v", lsperr.ErrServerStartupFailed, err)
	}
	c.engine = engine
	c.Docs = session.New(engine, root)

	c.registerServerHandlers()

	c.setState(StateInitializing)
	if err := c.initialize(ctx); err != nil {
		c.setState(StateCrashed)
		_ = host.Kill()
		return nil, fmt.Errorf("%w: %v", lsperr.ErrServerStartupFailed, err)
	}

	c.setState(StateReady)
	c.readyMu.Do(func() { close(c.ready) })

	go c.watchProcessExit()

	return c, nil
}

func (c *Connection) initialize(ctx context.Context) error {
	pid := os.Getpid()
	rootURI := "file://" + c.Root
	var result protocol.InitializeResult
	if err := c.engine.Call(ctx, "initialize", protocol.InitializeParams{
		ProcessID:             &pid,
		RootURI:               &rootURI,
		WorkspaceFolders:      []protocol.WorkspaceFolder{{URI: rootURI, Name: c.Root}},
		Capabilities:          c.Profile.ClientCapabilities,
		InitializationOptions: c.Profile.InitializationOptions,
		Trace:                 "off",
	}, &result); err != nil {
		return err
	}
	return c.engine.Notify(ctx, "initialized", struct{}{})
}

func (c *Connection) watchProcessExit() {
	<-c.host.Exited()
	prev := c.State()
	if prev == StateShuttingDown || prev == StateExited {
		c.setState(StateExited)
		return
	}
	c.setState(StateCrashed)
}

// State returns the connection's current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

func (c *Connection) setState(s State) {
	c.state.Store(int32(s))
}

// WaitReady blocks until the connection reaches Ready or ctx is done.
func (c *Connection) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		if c.State() == StateCrashed {
			return lsperr.ErrServerCrashed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Engine exposes the underlying JSON-RPC engine for service packages
// (symbols, refs, diagnostics) that need to issue typed calls.
func (c *Connection) Engine() *rpc.Engine {
	return c.engine
}

// IsRunning reports whether the connection is usable for new API calls.
func (c *Connection) IsRunning() bool {
	switch c.State() {
	case StateReady, StateInitializing, StateSpawned:
		return true
	default:
		return false
	}
}

// CheckHealthy fails fast with ServerCrashed/NoLanguageServer before any
// wire traffic if the connection cannot serve a request.
func (c *Connection) CheckHealthy() error {
	switch c.State() {
	case StateCrashed:
		return lsperr.ErrServerCrashed
	case StateExited, StateShuttingDown:
		return lsperr.ErrNoLanguageServer
	default:
		return nil
	}
}

// Shutdown sends shutdown, waits for the response, sends exit, and joins the
// process. On timeout it kills the process and marks Exited regardless.
func (c *Connection) Shutdown(timeout time.Duration) error {
	if c.State() == StateCrashed || c.State() == StateExited {
		return nil
	}
	c.setState(StateShuttingDown)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c.Docs.CloseAll(ctx)

	var result any
	shutdownErr := c.engine.Call(ctx, "shutdown", nil, &result)
	_ = c.engine.Notify(ctx, "exit", nil)

	err := c.host.WaitContext(ctx)
	if err == context.DeadlineExceeded {
		_ = c.host.Kill()
	}

	_ = c.engine.Close()
	c.setState(StateExited)

	if shutdownErr != nil && c.debug {
		log.Printf("lsp: shutdown request error (proceeding to exit anyway): %v", shutdownErr)
	}
	return nil
}
