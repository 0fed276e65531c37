// Package session tracks the set of documents a connection has opened with
// the language server: per-path version counters and the didOpen/didChange/
// didClose state machine. Grounded in the teacher's client.go openFiles map
// (keyed by URI, guarded by a mutex), generalized with a per-path lock so a
// single file's lifecycle calls never interleave, per spec.md §5.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/thanhtunguet/serena/internal/protocol"
)

// Notifier is the subset of the JSON-RPC engine the session needs to emit
// document-sync notifications. Implemented by *rpc.Engine; kept as an
// interface here so session has no import-cycle dependency on rpc.
type Notifier interface {
	Notify(ctx context.Context, method string, params any) error
}

// document is the per-path tracked state; Go binding of spec.md's
// DocumentState.
type document struct {
	uri        string
	languageID string
	version    int32
	open       bool
}

// Session owns one connection's open-document set.
type Session struct {
	engine Notifier
	root   string

	mu    sync.Mutex
	docs  map[string]*document
	locks map[string]*sync.Mutex
}

// New builds a Session that emits document-sync notifications through engine.
func New(engine Notifier, root string) *Session {
	return &Session{
		engine: engine,
		root:   root,
		docs:   make(map[string]*document),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Session) lockFor(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

func pathToURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

// LanguageIDFor derives the LSP languageId from a path's extension. Kept
// small and table-driven; unknown extensions fall back to "plaintext" since
// servers generally tolerate a best-effort languageId.
func LanguageIDFor(path string) string {
	ext := ""
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			ext = path[i+1:]
			break
		}
		if path[i] == '/' {
			break
		}
	}
	switch ext {
	case "py":
		return "python"
	case "go":
		return "go"
	case "rs":
		return "rust"
	case "fs", "fsx", "fsi":
		return "fsharp"
	case "ex", "exs":
		return "elixir"
	case "ps1", "psm1", "psd1":
		return "powershell"
	case "toml":
		return "toml"
	case "clj", "cljs", "cljc":
		return "clojure"
	case "java":
		return "java"
	default:
		return "plaintext"
	}
}

// EnsureOpen opens path if not already open: reads its contents, sends
// textDocument/didOpen with version 1, and marks it open. Idempotent: a
// second call on an already-open path sends nothing.
func (s *Session) EnsureOpen(ctx context.Context, path string) error {
	lock := s.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	doc, exists := s.docs[path]
	s.mu.Unlock()
	if exists && doc.open {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("session: read %s: %w", path, err)
	}

	uri := pathToURI(path)
	lang := LanguageIDFor(path)
	if err := s.engine.Notify(ctx, "textDocument/didOpen", protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: lang,
			Version:    1,
			Text:       string(data),
		},
	}); err != nil {
		return fmt.Errorf("session: didOpen %s: %w", path, err)
	}

	s.mu.Lock()
	s.docs[path] = &document{uri: uri, languageID: lang, version: 1, open: true}
	s.mu.Unlock()
	return nil
}

// NotifyChange increments path's version and sends a full-document
// didChange. path must already be open.
func (s *Session) NotifyChange(ctx context.Context, path, newText string) error {
	lock := s.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	doc, ok := s.docs[path]
	s.mu.Unlock()
	if !ok || !doc.open {
		return fmt.Errorf("session: notify_change on unopened path %s", path)
	}

	doc.version++
	return s.engine.Notify(ctx, "textDocument/didChange", protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{URI: doc.uri, Version: doc.version},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Text: newText},
		},
	})
}

// Close sends didClose and drops path's state.
func (s *Session) Close(ctx context.Context, path string) error {
	lock := s.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	doc, ok := s.docs[path]
	if ok {
		delete(s.docs, path)
	}
	s.mu.Unlock()
	if !ok || !doc.open {
		return nil
	}
	return s.engine.Notify(ctx, "textDocument/didClose", protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: doc.uri},
	})
}

// CloseAll closes every currently open document, mirroring the teacher's
// CloseAllFiles cleanup on shutdown.
func (s *Session) CloseAll(ctx context.Context) {
	s.mu.Lock()
	paths := make([]string, 0, len(s.docs))
	for p := range s.docs {
		paths = append(paths, p)
	}
	s.mu.Unlock()
	for _, p := range paths {
		_ = s.Close(ctx, p)
	}
}

// IsOpen reports whether path is currently open.
func (s *Session) IsOpen(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	return ok && doc.open
}

// URIFor returns the file:// URI for path, matching what EnsureOpen sends.
func (s *Session) URIFor(path string) string {
	return pathToURI(path)
}
