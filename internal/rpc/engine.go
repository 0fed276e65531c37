// Package rpc implements the framed JSON-RPC transport and request engine
// that sits between a spawned language-server process and the rest of the
// client runtime. Framing and request/response correlation are delegated to
// golang.org/x/exp/jsonrpc2; Engine layers per-method timeouts, explicit
// cancellation, and a method-keyed inbound handler registry on top, since
// raw jsonrpc2.Connection enforces neither.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/exp/jsonrpc2"

	"github.com/thanhtunguet/serena/internal/lsperr"
)

// DefaultTimeout is applied to any method with no explicit override.
const DefaultTimeout = 30 * time.Second

// HandlerFunc computes a result for an inbound server->client request, or
// performs a side effect for an inbound notification (result is ignored).
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Engine multiplexes one connection's requests and notifications. It is safe
// for concurrent use by many callers, matching spec.md's requirement that the
// Sync Facade support parallel callers over a single connection.
type Engine struct {
	conn *jsonrpc2.Connection

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	timeouts map[string]time.Duration

	queuesMu sync.Mutex
	queues   map[string]chan func()

	closed chan struct{}
}

// New dials a jsonrpc2 connection over rwc using Content-Length framing and
// returns an Engine ready to issue calls. The returned Engine owns rwc's
// lifecycle through conn.Close/conn.Wait.
func New(ctx context.Context, rwc io.ReadWriteCloser) (*Engine, error) {
	e := &Engine{
		handlers: make(map[string]HandlerFunc),
		timeouts: make(map[string]time.Duration),
		queues:   make(map[string]chan func()),
		closed:   make(chan struct{}),
	}
	conn, err := jsonrpc2.Dial(ctx, staticDialer{rwc: rwc}, bindFunc(e.bind))
	if err != nil {
		return nil, fmt.Errorf("dial jsonrpc2 connection: %w", err)
	}
	e.conn = conn
	go func() {
		_ = conn.Wait()
		close(e.closed)
	}()
	return e, nil
}

// bindFunc adapts a plain function to the jsonrpc2.Binder interface.
type bindFunc func(ctx context.Context, conn *jsonrpc2.Connection) (jsonrpc2.ConnectionOptions, error)

func (f bindFunc) Bind(ctx context.Context, conn *jsonrpc2.Connection) (jsonrpc2.ConnectionOptions, error) {
	return f(ctx, conn)
}

func (e *Engine) bind(_ context.Context, conn *jsonrpc2.Connection) (jsonrpc2.ConnectionOptions, error) {
	return jsonrpc2.ConnectionOptions{
		Framer:  jsonrpc2.HeaderFramer(),
		Handler: jsonrpc2.HandlerFunc(e.dispatch),
	}, nil
}

// SetTimeout overrides the per-call timeout for method. Call with zero to
// fall back to DefaultTimeout.
func (e *Engine) SetTimeout(method string, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d <= 0 {
		delete(e.timeouts, method)
		return
	}
	e.timeouts[method] = d
}

func (e *Engine) timeoutFor(method string) time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if d, ok := e.timeouts[method]; ok {
		return d
	}
	return DefaultTimeout
}

// Handle registers fn for inbound server->client requests and notifications
// named method, replacing the spec's map<method,handler> registry on the
// engine rather than as scattered ad-hoc callbacks.
func (e *Engine) Handle(method string, fn HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[method] = fn
}

func (e *Engine) handlerFor(method string) (HandlerFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, ok := e.handlers[method]
	return fn, ok
}

// dispatch is the single jsonrpc2.Handler for the connection. Calls (inbound
// requests with an id) are answered synchronously on the reader path, since
// LSP server->client requests are rare and cheap (configuration, registerCapability,
// workDoneProgress/create). Notifications are queued per-method so slow
// handlers cannot reorder same-method delivery; the reader blocks only
// when 64 notifications of one method are already waiting.
func (e *Engine) dispatch(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	fn, ok := e.handlerFor(req.Method)
	if req.IsCall() {
		if !ok {
			return nil, jsonrpc2.NewError(int64(methodNotFound), "no handler for "+req.Method)
		}
		return fn(ctx, req.Params)
	}
	if ok {
		e.enqueueNotification(req.Method, req.Params, fn)
	}
	return nil, nil
}

const methodNotFound = -32601

func (e *Engine) enqueueNotification(method string, params json.RawMessage, fn HandlerFunc) {
	e.queuesMu.Lock()
	q, ok := e.queues[method]
	if !ok {
		q = make(chan func(), 64)
		e.queues[method] = q
		go func() {
			for job := range q {
				job()
			}
		}()
	}
	e.queuesMu.Unlock()
	q <- func() { _, _ = fn(context.Background(), params) }
}

// Call issues a request and blocks for its result, honoring a per-method
// timeout and propagating ctx cancellation as an LSP $/cancelRequest.
func (e *Engine) Call(ctx context.Context, method string, params, result any) error {
	timeout := e.timeoutFor(method)
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	call := e.conn.Call(callCtx, method, params)
	err := call.Await(callCtx, result)
	if err == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		e.sendCancel(call.ID())
		return lsperr.ErrCancelled
	default:
	}
	if callCtx.Err() != nil {
		e.sendCancel(call.ID())
		return lsperr.ErrTimeout
	}

	// jsonrpc2's wire-error concrete type is unexported (wireError in
	// wire.go), so a peer-reported JSON-RPC error can't be type-asserted
	// back to its structured code/message fields from here. Surface it as
	// a ServerError anyway, carrying only the formatted message, so callers
	// can still errors.As for *lsperr.ServerError instead of an opaque wrap.
	return lsperr.NewServerError(0, err.Error())
}

func (e *Engine) sendCancel(id jsonrpc2.ID) {
	_ = e.conn.Notify(context.Background(), "$/cancelRequest", map[string]any{"id": rawID(id)})
}

// rawID extracts the underlying numeric/string value of a jsonrpc2.ID for
// embedding in a $/cancelRequest notification.
func rawID(id jsonrpc2.ID) any {
	return id.Raw()
}

// Notify sends a fire-and-forget notification; it never resolves a pending
// request and never blocks on a response.
func (e *Engine) Notify(ctx context.Context, method string, params any) error {
	return e.conn.Notify(ctx, method, params)
}

// Close closes the underlying transport, failing every outstanding call with
// a transport-closed style error from jsonrpc2.
func (e *Engine) Close() error {
	return e.conn.Close()
}

// Done is closed once the connection's read/dispatch loop has exited,
// whether due to a clean Close or the remote end going away.
func (e *Engine) Done() <-chan struct{} {
	return e.closed
}
