// Package ignore combines per-language default ignores, caller-supplied
// exact names or globs, and .gitignore-style patterns into the single
// pruning predicate used both to walk the workspace filesystem and to
// post-filter server responses that carry file paths. Gitignore-style
// anchoring/negation/trailing-slash semantics are delegated to
// github.com/moby/patternmatcher rather than hand-rolled, and glob matching
// for caller patterns to github.com/bmatcuk/doublestar/v4, both grounded in
// wharflab-tally's .dockerignore loading and path-exclusion filter.
package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
)

// gitignoreNames are the ignore-file basenames looked up at the workspace
// root, in order; the first that exists wins, mirroring the
// .dockerignore/.containerignore precedence wharflab-tally applies.
var gitignoreNames = []string{".gitignore"}

// Spec is an ordered, immutable pruning predicate for one workspace root.
// It is stable for the lifetime of a connection, per spec.md's IgnoreSpec.
type Spec struct {
	root        string
	dirnames    map[string]bool
	globs       []string
	matcher     *patternmatcher.PatternMatcher
}

// New builds a Spec from language defaults, caller-supplied ignored paths
// (exact dirname or doublestar glob), and a .gitignore at root if present.
func New(root string, languageDefaults, callerPatterns []string) (*Spec, error) {
	s := &Spec{
		root:     root,
		dirnames: make(map[string]bool),
	}

	for _, p := range languageDefaults {
		s.classify(p)
	}
	for _, p := range callerPatterns {
		s.classify(p)
	}

	patterns, err := loadGitignore(root)
	if err != nil {
		return nil, fmt.Errorf("ignore: load .gitignore: %w", err)
	}
	all := append(append([]string{}, s.globs...), patterns...)
	if len(all) > 0 {
		m, err := patternmatcher.New(all)
		if err != nil {
			return nil, fmt.Errorf("ignore: compile patterns: %w", err)
		}
		s.matcher = m
	}
	s.globs = all

	return s, nil
}

// classify adds p to the exact-dirname set if it contains no glob
// metacharacters; every p, exact or not, is also added to the glob pattern
// list.
func (s *Spec) classify(p string) {
	if !containsGlobChars(p) {
		s.dirnames[p] = true
	}
	s.globs = append(s.globs, p)
}

func containsGlobChars(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

func loadGitignore(root string) ([]string, error) {
	for _, name := range gitignoreNames {
		f, err := os.Open(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		defer f.Close()
		return ignorefile.ReadAll(f)
	}
	return nil, nil
}

// IsIgnoredDirname reports whether name (a single path component, not a
// path) should prune a directory: exact-name match, the hidden-dir rule, or
// a directory-oriented glob match.
func (s *Spec) IsIgnoredDirname(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if s.dirnames[name] {
		return true
	}
	for _, g := range s.globs {
		if ok, _ := doublestar.Match(g, name); ok {
			return true
		}
	}
	return false
}

// IsIgnoredPath applies full gitignore-style semantics (anchoring, negation,
// trailing-slash directory matching) to a path relative to root.
func (s *Spec) IsIgnoredPath(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, part := range strings.Split(relPath, "/") {
		if s.IsIgnoredDirname(part) {
			return true
		}
	}
	if s.matcher == nil {
		return false
	}
	ignored, err := s.matcher.MatchesOrParentMatches(relPath)
	if err != nil {
		return false
	}
	return ignored
}

// Root returns the workspace root this Spec was built for.
func (s *Spec) Root() string {
	return s.root
}
