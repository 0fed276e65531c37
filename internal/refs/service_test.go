package refs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/thanhtunguet/serena/internal/ignore"
	"github.com/thanhtunguet/serena/internal/protocol"
)

type fakeCaller struct {
	lastMethod string
	lastParams any
	result     []protocol.Location
	err        error
}

func (f *fakeCaller) Call(ctx context.Context, method string, params, result any) error {
	f.lastMethod = method
	f.lastParams = params
	if f.err != nil {
		return f.err
	}
	raw, _ := json.Marshal(f.result)
	return json.Unmarshal(raw, result)
}

type fakeOpener struct {
	opened []string
	root   string
}

func (f *fakeOpener) EnsureOpen(ctx context.Context, path string) error {
	f.opened = append(f.opened, path)
	return nil
}

func (f *fakeOpener) URIFor(path string) string {
	return "file://" + path
}

func TestReferences_FiltersIgnoredLocations(t *testing.T) {
	root := t.TempDir()
	spec, err := ignore.New(root, []string{"vendor"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	walker := ignore.NewWalker(spec)

	caller := &fakeCaller{result: []protocol.Location{
		{URI: "file://" + root + "/main.go", Range: protocol.Range{}},
		{URI: "file://" + root + "/vendor/dep/dep.go", Range: protocol.Range{}},
	}}
	opener := &fakeOpener{root: root}
	svc := New(caller, opener, root, walker, 0)

	locs, err := svc.References(context.Background(), root+"/main.go", 3, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 1 {
		t.Fatalf("expected the vendored location to be filtered out, got %+v", locs)
	}
	if caller.lastMethod != "textDocument/references" {
		t.Errorf("got method %q, want textDocument/references", caller.lastMethod)
	}
	if len(opener.opened) != 1 || opener.opened[0] != root+"/main.go" {
		t.Errorf("expected the queried file to be opened first, got %v", opener.opened)
	}
}

func TestDefinition_PassesThroughNonIgnoredLocations(t *testing.T) {
	root := t.TempDir()
	spec, err := ignore.New(root, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	walker := ignore.NewWalker(spec)

	caller := &fakeCaller{result: []protocol.Location{
		{URI: "file://" + root + "/lib.go"},
	}}
	opener := &fakeOpener{root: root}
	svc := New(caller, opener, root, walker, 0)

	locs, err := svc.Definition(context.Background(), root+"/main.go", 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 1 {
		t.Errorf("expected one location to survive, got %d", len(locs))
	}
}

func TestDeclaration_UnsupportedByServerReturnsEmptyNotError(t *testing.T) {
	root := t.TempDir()
	spec, _ := ignore.New(root, nil, nil)
	walker := ignore.NewWalker(spec)

	caller := &fakeCaller{result: nil}
	opener := &fakeOpener{root: root}
	svc := New(caller, opener, root, walker, 0)

	locs, err := svc.Declaration(context.Background(), root+"/main.go", 0, 0)
	if err != nil {
		t.Fatalf("expected no error for an unsupported declaration request, got %v", err)
	}
	if len(locs) != 0 {
		t.Errorf("expected an empty result, got %+v", locs)
	}
}

func TestLatch_WaitsOnceOnlyAcrossMultipleCalls(t *testing.T) {
	root := t.TempDir()
	spec, _ := ignore.New(root, nil, nil)
	walker := ignore.NewWalker(spec)

	caller := &fakeCaller{}
	opener := &fakeOpener{root: root}
	svc := New(caller, opener, root, walker, 30*time.Millisecond)

	start := time.Now()
	if _, err := svc.References(context.Background(), root+"/a.go", 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := time.Since(start)

	start = time.Now()
	if _, err := svc.References(context.Background(), root+"/a.go", 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := time.Since(start)

	if first < 30*time.Millisecond {
		t.Errorf("expected the first call to wait out the latch, took %v", first)
	}
	if second > 20*time.Millisecond {
		t.Errorf("expected the second call to skip the latch, took %v", second)
	}
}
