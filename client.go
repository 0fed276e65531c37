// Package serena exposes a uniform, synchronous, workspace-level LSP
// client: spawn a configured per-language server, then query symbols,
// references, definitions, and diagnostics without touching JSON-RPC,
// framing, or process lifecycle directly. This is the Sync Facade (C10):
// every call waits for the readiness latch, issues one Engine future, and
// blocks on it with a per-method timeout, so async colors never leak into
// the public API.
package serena

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/thanhtunguet/serena/internal/diagnostics"
	"github.com/thanhtunguet/serena/internal/lsp"
	"github.com/thanhtunguet/serena/internal/lsperr"
	"github.com/thanhtunguet/serena/internal/profile"
	"github.com/thanhtunguet/serena/internal/protocol"
	"github.com/thanhtunguet/serena/internal/refs"
	"github.com/thanhtunguet/serena/internal/symbols"
)

// Config configures a Client before it is started.
type Config struct {
	// RootPath is the workspace root the language server analyzes.
	RootPath string
	// Profile describes the language server to spawn. Use
	// profile.BuiltinTable()["go"] (etc.) as a starting point and override
	// LaunchCommand with a located binary and flags.
	Profile profile.Profile
	// IgnoredPaths are caller-supplied exact dirnames or doublestar globs,
	// merged with the Profile's defaults and any workspace .gitignore.
	IgnoredPaths []string
	// StartupTimeout bounds the spawn+initialize handshake. Zero means 30s.
	StartupTimeout time.Duration
}

// Client is a single configured connection to a language server (the
// public binding of spec.md's create/start/stop/request_* API surface).
type Client struct {
	cfg  Config
	conn *lsp.Connection

	symbols     *symbols.Service
	refs        *refs.Service
	diagnostics *diagnostics.Service
}

// New validates cfg and returns an unstarted Client. Call Start to spawn the
// language server.
func New(cfg Config) (*Client, error) {
	if cfg.RootPath == "" {
		return nil, fmt.Errorf("serena: RootPath is required")
	}
	root, err := filepath.Abs(cfg.RootPath)
	if err != nil {
		return nil, fmt.Errorf("serena: resolve root path: %w", err)
	}
	cfg.RootPath = root
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = 30 * time.Second
	}
	return &Client{cfg: cfg}, nil
}

// Start spawns the configured language server and blocks until it reports
// Ready or the startup timeout elapses.
func (c *Client) Start(ctx context.Context) error {
	startCtx, cancel := context.WithTimeout(ctx, c.cfg.StartupTimeout)
	defer cancel()

	conn, err := lsp.Start(startCtx, c.cfg.RootPath, c.cfg.Profile, c.cfg.IgnoredPaths)
	if err != nil {
		return err
	}
	c.conn = conn

	c.diagnostics = diagnostics.New(conn.Engine(), conn.Docs, c.cfg.RootPath)
	conn.Engine().Handle("textDocument/publishDiagnostics", func(_ context.Context, params json.RawMessage) (any, error) {
		var p protocol.PublishDiagnosticsParams
		if err := json.Unmarshal(params, &p); err == nil {
			c.diagnostics.OnPublishDiagnostics(p)
		}
		return nil, nil
	})

	c.symbols = symbols.New(conn.Engine(), conn.Docs, c.cfg.RootPath, conn.Walker)
	c.refs = refs.New(conn.Engine(), conn.Docs, c.cfg.RootPath, conn.Walker, c.cfg.Profile.WaitDuration())

	return nil
}

// Stop sends shutdown/exit and joins the process, per spec.md's
// stop(timeout).
func (c *Client) Stop(timeout time.Duration) error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Shutdown(timeout)
}

// IsRunning reports whether the connection can currently serve requests.
func (c *Client) IsRunning() bool {
	return c.conn != nil && c.conn.IsRunning()
}

// IsIgnoredDirname reports whether name is pruned by this client's Ignore
// Filter (language defaults, caller-supplied patterns, and workspace
// .gitignore).
func (c *Client) IsIgnoredDirname(name string) bool {
	if c.conn == nil {
		return false
	}
	return c.conn.Ignore.IsIgnoredDirname(name)
}

func (c *Client) ready(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("serena: %w", lsperr.ErrNoLanguageServer)
	}
	if err := c.conn.WaitReady(ctx); err != nil {
		return err
	}
	return c.conn.CheckHealthy()
}

// RequestDocumentSymbols returns every node in path's symbol forest and the
// top-level root nodes, with each node's source body attached.
func (c *Client) RequestDocumentSymbols(ctx context.Context, path string) (all, roots []*symbols.Node, err error) {
	if err := c.ready(ctx); err != nil {
		return nil, nil, err
	}
	return c.symbols.DocumentSymbols(ctx, path, true)
}

// RequestFullSymbolTree walks the workspace and returns the directory/file/
// symbol forest, honoring the Ignore Filter.
func (c *Client) RequestFullSymbolTree(ctx context.Context) ([]*symbols.Node, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	return c.symbols.FullTree(ctx)
}

// RequestDocumentOverview returns path's top-level symbols only.
func (c *Client) RequestDocumentOverview(ctx context.Context, path string) ([]*symbols.Node, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	return c.symbols.DocumentOverview(ctx, path)
}

// RequestDirOverview returns a map from file path to its top-level symbols
// for every non-ignored file under relDir.
func (c *Client) RequestDirOverview(ctx context.Context, relDir string) (map[string][]*symbols.Node, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	return c.symbols.DirOverview(ctx, relDir)
}

// RequestContainingSymbol returns the innermost symbol containing (line,
// col) in path, or nil if unsupported or nothing matches.
func (c *Client) RequestContainingSymbol(ctx context.Context, path string, line, col int) (*symbols.Node, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	return c.symbols.ContainingSymbol(ctx, path, line, col)
}

// RequestReferences returns every reference to the symbol at (line, col) in
// path, post-filtered by the Ignore Filter.
func (c *Client) RequestReferences(ctx context.Context, path string, line, col int) ([]protocol.Location, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	return c.refs.References(ctx, path, line, col)
}

// RequestDefinition returns the definition location(s) of the symbol at
// (line, col) in path.
func (c *Client) RequestDefinition(ctx context.Context, path string, line, col int) ([]protocol.Location, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	return c.refs.Definition(ctx, path, line, col)
}

// RequestDeclaration returns the declaration location(s) of the symbol at
// (line, col) in path.
func (c *Client) RequestDeclaration(ctx context.Context, path string, line, col int) ([]protocol.Location, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	return c.refs.Declaration(ctx, path, line, col)
}

// RequestTextDocumentDiagnostics returns the normalized diagnostics for
// path. Path validation (exists, is a file, inside the workspace) happens
// before any wire traffic.
func (c *Client) RequestTextDocumentDiagnostics(ctx context.Context, path string) ([]diagnostics.Diagnostic, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	return c.diagnostics.Diagnostics(ctx, path)
}
