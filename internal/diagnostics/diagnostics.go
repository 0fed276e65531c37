// Package diagnostics implements the pull-style diagnostic operation
// (spec.md §4.9): fail-fast path validation, textDocument/diagnostic (or a
// cached publishDiagnostics fallback for servers that only push), and
// severity normalization. Built on the teacher's diagnostics.go
// cache-then-poll pattern: push notifications populate a cache that the
// pull path consults when a server never answers textDocument/diagnostic.
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/thanhtunguet/serena/internal/lsperr"
	"github.com/thanhtunguet/serena/internal/protocol"
)

// Caller is the subset of the JSON-RPC engine the diagnostic service needs.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
}

// Opener is the subset of the document session the diagnostic service needs.
type Opener interface {
	EnsureOpen(ctx context.Context, path string) error
	URIFor(path string) string
}

// Diagnostic is the normalized, language-agnostic diagnostic shape returned
// to callers, per spec.md §4.9's exact field set.
type Diagnostic struct {
	Severity     int    // 0 when absent
	SeverityName string // error|warning|information|hint|unknown|unknown(<n>)
	Message      string
	Code         string
	Source       string
	Range        protocol.Range
}

// Service implements Diagnostics(path).
type Service struct {
	engine Caller
	docs   Opener
	root   string

	mu    sync.Mutex
	cache map[string]cacheEntry // keyed by absolute path
}

type cacheEntry struct {
	diagnostics []protocol.Diagnostic
	at          time.Time
}

// New builds a Service rooted at root.
func New(engine Caller, docs Opener, root string) *Service {
	return &Service{engine: engine, docs: docs, root: root, cache: make(map[string]cacheEntry)}
}

// OnPublishDiagnostics is registered against the engine's
// textDocument/publishDiagnostics notification handler and populates the
// push-diagnostics cache consulted as a fallback by Diagnostics.
func (s *Service) OnPublishDiagnostics(params protocol.PublishDiagnosticsParams) {
	path := strings.TrimPrefix(params.URI, "file://")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[path] = cacheEntry{diagnostics: params.Diagnostics, at: time.Now()}
}

// Diagnostics validates path, then asks the server for diagnostics. It
// fails fast before any wire traffic for a missing, non-file, or
// outside-workspace path.
func (s *Service) Diagnostics(ctx context.Context, path string) ([]Diagnostic, error) {
	if err := s.validate(path); err != nil {
		return nil, err
	}

	if err := s.docs.EnsureOpen(ctx, path); err != nil {
		return nil, err
	}

	var report protocol.FullDocumentDiagnosticReport
	err := s.engine.Call(ctx, "textDocument/diagnostic", protocol.DocumentDiagnosticParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: s.docs.URIFor(path)},
	}, &report)
	if err == nil && len(report.Items) > 0 {
		return normalize(report.Items), nil
	}
	if err != nil {
		if cached, ok := s.cached(path); ok {
			return normalize(cached), nil
		}
		return nil, fmt.Errorf("diagnostics: textDocument/diagnostic %s: %w", path, err)
	}

	if cached, ok := s.cached(path); ok {
		return normalize(cached), nil
	}
	return []Diagnostic{}, nil
}

func (s *Service) cached(path string) ([]protocol.Diagnostic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[path]
	return e.diagnostics, ok
}

func (s *Service) validate(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("diagnostics: %w", lsperr.NotFound(path))
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return lsperr.NotFound(path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return lsperr.NotFound(path)
	}
	if info.IsDir() {
		return lsperr.NotAFile(path)
	}
	return nil
}

func normalize(items []protocol.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(items))
	for i, d := range items {
		sev := 0
		if d.Severity != nil {
			sev = int(*d.Severity)
		}
		source := ""
		if d.Source != nil {
			source = *d.Source
		}
		code := ""
		if len(d.Code) > 0 {
			code = strings.Trim(string(d.Code), `"`)
		}
		out[i] = Diagnostic{
			Severity:     sev,
			SeverityName: severityName(sev),
			Message:      d.Message,
			Code:         code,
			Source:       source,
			Range:        d.Range,
		}
	}
	return out
}

// severityName maps the LSP severity integer to its normalized name,
// exactly per spec.md's table including the unknown(<n>) case.
func severityName(sev int) string {
	switch sev {
	case 0:
		return "unknown"
	case int(protocol.SeverityError):
		return "error"
	case int(protocol.SeverityWarning):
		return "warning"
	case int(protocol.SeverityInformation):
		return "information"
	case int(protocol.SeverityHint):
		return "hint"
	default:
		return fmt.Sprintf("unknown(%d)", sev)
	}
}
