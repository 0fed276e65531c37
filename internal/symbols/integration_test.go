package symbols

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/thanhtunguet/serena/internal/ignore"
)

type fakeCaller struct {
	byMethod map[string]json.RawMessage
	err      error
}

func (f *fakeCaller) Call(ctx context.Context, method string, params, result any) error {
	if f.err != nil {
		return f.err
	}
	raw, ok := f.byMethod[method]
	if !ok {
		raw = json.RawMessage("null")
	}
	return json.Unmarshal(raw, result)
}

type fakeOpener struct{}

func (fakeOpener) EnsureOpen(ctx context.Context, path string) error { return nil }
func (fakeOpener) URIFor(path string) string                        { return "file://" + path }

func TestContainingSymbol_UnsupportedServerReturnsNilNotError(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "main.go")
	if err := os.WriteFile(f, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	caller := &fakeCaller{byMethod: map[string]json.RawMessage{
		"textDocument/documentSymbol": json.RawMessage("null"),
	}}
	spec, _ := ignore.New(root, nil, nil)
	svc := New(caller, fakeOpener{}, root, ignore.NewWalker(spec))

	node, err := svc.ContainingSymbol(context.Background(), f, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node != nil {
		t.Errorf("expected nil for an unsupported server, got %+v", node)
	}
}

func TestFullTree_PrunesIgnoredFilesAndStripsExtensions(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "pkg"))
	mustMkdirAll(t, filepath.Join(root, "vendor"))
	mustWrite(t, filepath.Join(root, "pkg", "a.go"), "package pkg")
	mustWrite(t, filepath.Join(root, "vendor", "dep.go"), "package dep")

	caller := &fakeCaller{byMethod: map[string]json.RawMessage{
		"textDocument/documentSymbol": json.RawMessage(`[{"name":"Foo","kind":12,
			"range":{"start":{"line":0,"character":0},"end":{"line":1,"character":0}},
			"selectionRange":{"start":{"line":0,"character":0},"end":{"line":0,"character":3}}}]`),
	}}
	spec, _ := ignore.New(root, []string{"vendor"}, nil)
	svc := New(caller, fakeOpener{}, root, ignore.NewWalker(spec))

	tree, err := svc.FullTree(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var pkgDir *Node
	for _, n := range tree {
		if n.Name == "pkg" {
			pkgDir = n
		}
		if n.Name == "vendor" {
			t.Errorf("expected vendor directory to be pruned from the tree")
		}
	}
	if pkgDir == nil {
		t.Fatal("expected a pkg directory node")
	}
	if len(pkgDir.Children) != 1 || pkgDir.Children[0].Name != "a" {
		t.Fatalf("expected one extension-stripped file node named 'a', got %+v", pkgDir.Children)
	}
}

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustWrite(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}
