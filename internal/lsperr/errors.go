// Package lsperr defines the sentinel error kinds surfaced by the serena
// LSP client runtime. Callers should compare with errors.Is against the
// sentinels below, or errors.As against ServerError for structured LSP
// error responses.
package lsperr

import "fmt"

var (
	// ErrServerStartupFailed means spawn or the initialize handshake failed.
	// Fatal for the connection that produced it.
	ErrServerStartupFailed = fmt.Errorf("language server startup failed")

	// ErrServerCrashed means the child process exited after reaching Ready.
	// The owning connection is poisoned once this is observed.
	ErrServerCrashed = fmt.Errorf("language server crashed")

	// ErrTransportClosed means the framed stdio transport ended unexpectedly.
	ErrTransportClosed = fmt.Errorf("transport closed")

	// ErrTimeout means a per-request deadline elapsed before a response.
	ErrTimeout = fmt.Errorf("request timed out")

	// ErrCancelled means the caller cancelled a pending request.
	ErrCancelled = fmt.Errorf("request cancelled")

	// ErrProtocol means a malformed frame or JSON-RPC envelope was observed.
	ErrProtocol = fmt.Errorf("protocol error")

	// ErrFileNotFound means a requested path does not exist in the workspace.
	ErrFileNotFound = fmt.Errorf("file not found")

	// ErrExpectedFile means a requested path exists but is not a regular file.
	ErrExpectedFile = fmt.Errorf("expected a file")

	// ErrNoLanguageServer means the API was used against a connection that
	// has no server configured or has not been started.
	ErrNoLanguageServer = fmt.Errorf("no language server configured")
)

// ServerError wraps a structured LSP error response (JSON-RPC error object).
// Non-fatal: it is surfaced to the caller that issued the request.
type ServerError struct {
	Code    int64
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("language server error %d: %s", e.Code, e.Message)
}

// NewServerError builds a ServerError from a JSON-RPC error code/message pair.
func NewServerError(code int64, message string) *ServerError {
	return &ServerError{Code: code, Message: message}
}

// NotFound reports a file-missing condition with the path folded into the
// message, matching the wording the diagnostic path-validation scenario
// expects callers to see.
func NotFound(path string) error {
	return fmt.Errorf("file %s does not exist in the project: %w", path, ErrFileNotFound)
}

// NotAFile reports that path resolves to something other than a regular file.
func NotAFile(path string) error {
	return fmt.Errorf("path %s is not a file: %w", path, ErrExpectedFile)
}
