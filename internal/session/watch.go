package session

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// IgnoreChecker reports whether a directory name should be pruned, letting
// WatchWorkspace reuse the connection's Ignore Filter instead of watching
// everything under root.
type IgnoreChecker interface {
	IsIgnoredDirname(name string) bool
}

// WatchWorkspace starts a best-effort fsnotify watch over root and calls
// NotifyChange for any currently-open file that changes on disk outside the
// API. It is optional and never required for correctness: EnsureOpen and
// NotifyChange remain the source of truth for document state. Generalizes
// the teacher's own workspace file watcher dependency to Profile-driven
// ignore rules instead of a fixed directory list.
func (s *Session) WatchWorkspace(ctx context.Context, root string, ignore IgnoreChecker) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := addTree(watcher, root, ignore); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.handleFSEvent(ctx, event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("session: watch error: %v", err)
			}
		}
	}()

	return nil
}

func (s *Session) handleFSEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !s.IsOpen(event.Name) {
		return
	}
	data, err := readFile(event.Name)
	if err != nil {
		return
	}
	_ = s.NotifyChange(ctx, event.Name, data)
}

func addTree(watcher *fsnotify.Watcher, root string, ignore IgnoreChecker) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignore != nil && ignore.IsIgnoredDirname(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
