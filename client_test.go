package serena

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thanhtunguet/serena/internal/lsperr"
)

func TestNew_RequiresRootPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected an error when RootPath is empty")
	}
}

func TestNew_DefaultsStartupTimeout(t *testing.T) {
	c, err := New(Config{RootPath: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.cfg.StartupTimeout != 30*time.Second {
		t.Errorf("got %v, want 30s", c.cfg.StartupTimeout)
	}
}

func TestNew_ResolvesRootPathToAbsolute(t *testing.T) {
	c, err := New(Config{RootPath: "."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isAbsolutePath(c.cfg.RootPath) {
		t.Errorf("expected an absolute root path, got %q", c.cfg.RootPath)
	}
}

func isAbsolutePath(p string) bool {
	return len(p) > 0 && p[0] == '/'
}

func TestClient_UnstartedRejectsRequestsWithErrNoLanguageServer(t *testing.T) {
	c, err := New(Config{RootPath: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, refErr := c.RequestReferences(context.Background(), "main.go", 0, 0)
	if !errors.Is(refErr, lsperr.ErrNoLanguageServer) {
		t.Errorf("expected ErrNoLanguageServer, got %v", refErr)
	}
}

func TestClient_UnstartedIsNotRunningAndIgnoresNothing(t *testing.T) {
	c, err := New(Config{RootPath: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.IsRunning() {
		t.Error("expected an unstarted client to report not running")
	}
	if c.IsIgnoredDirname("node_modules") {
		t.Error("expected an unstarted client with no connection to ignore nothing")
	}
}
