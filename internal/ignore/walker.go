package ignore

import (
	"io/fs"
	"path/filepath"
)

// Walker walks a workspace directory tree, pruning any directory the Spec
// rejects, so that the filesystem walk (full symbol tree, directory
// overview) and response post-filtering (references, symbol tree) share one
// predicate instead of each re-implementing pruning, per the "single shared
// pruning predicate" design note.
type Walker struct {
	spec *Spec
}

// NewWalker builds a Walker over spec.
func NewWalker(spec *Spec) *Walker {
	return &Walker{spec: spec}
}

// Walk invokes fn for every regular file under root not pruned by the Spec.
// Directories matching the Spec are skipped entirely (not descended into).
func (w *Walker) Walk(root string, fn func(path string, d fs.DirEntry) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if w.spec.IsIgnoredDirname(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.spec.IsIgnoredPath(rel) {
			return nil
		}
		return fn(path, d)
	})
}

// IsIgnoredPath reports whether rel (relative to the Spec's root) is
// matched by the Spec, for post-filtering a single path at a time.
func (w *Walker) IsIgnoredPath(rel string) bool {
	return w.spec.IsIgnoredPath(rel)
}

// FilterPaths returns the subset of relPaths not matched by the Spec,
// preserving order. Used to post-filter response payloads that carry
// relative file paths (references, symbol tree nodes).
func (w *Walker) FilterPaths(relPaths []string) []string {
	out := make([]string, 0, len(relPaths))
	for _, p := range relPaths {
		if !w.spec.IsIgnoredPath(p) {
			out = append(out, p)
		}
	}
	return out
}
