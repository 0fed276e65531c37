package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/thanhtunguet/serena/internal/lsperr"
	"github.com/thanhtunguet/serena/internal/protocol"
)

func TestSeverityName(t *testing.T) {
	cases := []struct {
		sev  int
		want string
	}{
		{0, "unknown"},
		{int(protocol.SeverityError), "error"},
		{int(protocol.SeverityWarning), "warning"},
		{int(protocol.SeverityInformation), "information"},
		{int(protocol.SeverityHint), "hint"},
		{99, "unknown(99)"},
	}
	for _, tc := range cases {
		if got := severityName(tc.sev); got != tc.want {
			t.Errorf("severityName(%d) = %q, want %q", tc.sev, got, tc.want)
		}
	}
}

func TestValidate_MissingFile(t *testing.T) {
	root := t.TempDir()
	svc := New(nil, nil, root)

	err := svc.validate(filepath.Join(root, "missing.ext"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !errors.Is(err, lsperr.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestValidate_Directory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "subdir")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	svc := New(nil, nil, root)

	err := svc.validate(sub)
	if !errors.Is(err, lsperr.ErrExpectedFile) {
		t.Errorf("expected ErrExpectedFile, got %v", err)
	}
}

func TestValidate_OK(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "main.go")
	if err := os.WriteFile(f, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := New(nil, nil, root)

	if err := svc.validate(f); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
