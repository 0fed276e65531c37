// Package refs implements the references, definition, and declaration
// operations (spec.md §4.8): ensure the queried file is open, wait out a
// per-connection cross-file indexing latch on the first query, issue the
// request, and post-filter results through the shared Ignore Filter.
package refs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/thanhtunguet/serena/internal/ignore"
	"github.com/thanhtunguet/serena/internal/protocol"
)

// Caller is the subset of the JSON-RPC engine the reference service needs.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
}

// Opener is the subset of the document session the reference service needs.
type Opener interface {
	EnsureOpen(ctx context.Context, path string) error
	URIFor(path string) string
}

// Service implements References, Definition, and Declaration.
type Service struct {
	engine Caller
	docs   Opener
	root   string
	walker *ignore.Walker

	waitOnce sync.Once
	wait     time.Duration
}

// New builds a Service. wait is the cross-file indexing latch duration
// (Profile.CrossFileWaitSeconds), applied once per Service instance on the
// first reference/definition query, not per call.
func New(engine Caller, docs Opener, root string, walker *ignore.Walker, wait time.Duration) *Service {
	return &Service{engine: engine, docs: docs, root: root, walker: walker, wait: wait}
}

func (s *Service) latch(ctx context.Context) {
	s.waitOnce.Do(func() {
		if s.wait <= 0 {
			return
		}
		timer := time.NewTimer(s.wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	})
}

func (s *Service) filterLocations(locs []protocol.Location) []protocol.Location {
	out := make([]protocol.Location, 0, len(locs))
	for _, loc := range locs {
		rel := s.relativePath(loc.URI)
		if rel == "" {
			out = append(out, loc)
			continue
		}
		if !s.walker.IsIgnoredPath(rel) {
			out = append(out, loc)
		}
	}
	return out
}

func (s *Service) relativePath(uri string) string {
	const prefix = "file://"
	if len(uri) <= len(prefix) || uri[:len(prefix)] != prefix {
		return ""
	}
	path := uri[len(prefix):]
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

// References returns every location referencing the symbol at (line, col)
// in path, post-filtered by the Ignore Filter.
func (s *Service) References(ctx context.Context, path string, line, col int) ([]protocol.Location, error) {
	if err := s.docs.EnsureOpen(ctx, path); err != nil {
		return nil, err
	}
	s.latch(ctx)

	var result []protocol.Location
	if err := s.engine.Call(ctx, "textDocument/references", protocol.ReferenceParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: s.docs.URIFor(path)},
		Position:     protocol.Position{Line: line, Character: col},
		Context:      protocol.ReferenceContext{IncludeDeclaration: false},
	}, &result); err != nil {
		return nil, fmt.Errorf("refs: references %s:%d:%d: %w", path, line, col, err)
	}
	return s.filterLocations(result), nil
}

// Definition returns the definition location(s) of the symbol at (line,
// col) in path, post-filtered by the Ignore Filter.
func (s *Service) Definition(ctx context.Context, path string, line, col int) ([]protocol.Location, error) {
	if err := s.docs.EnsureOpen(ctx, path); err != nil {
		return nil, err
	}
	s.latch(ctx)

	var result []protocol.Location
	if err := s.engine.Call(ctx, "textDocument/definition", protocol.DefinitionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: s.docs.URIFor(path)},
		Position:     protocol.Position{Line: line, Character: col},
	}, &result); err != nil {
		return nil, fmt.Errorf("refs: definition %s:%d:%d: %w", path, line, col, err)
	}
	return s.filterLocations(result), nil
}

// Declaration returns the declaration location(s) of the symbol at (line,
// col) in path. Not every server distinguishes declaration from definition;
// servers that don't implement it return an empty result, not an error.
func (s *Service) Declaration(ctx context.Context, path string, line, col int) ([]protocol.Location, error) {
	if err := s.docs.EnsureOpen(ctx, path); err != nil {
		return nil, err
	}
	s.latch(ctx)

	var result []protocol.Location
	if err := s.engine.Call(ctx, "textDocument/declaration", protocol.DeclarationParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: s.docs.URIFor(path)},
		Position:     protocol.Position{Line: line, Character: col},
	}, &result); err != nil {
		return nil, fmt.Errorf("refs: declaration %s:%d:%d: %w", path, line, col, err)
	}
	return s.filterLocations(result), nil
}
