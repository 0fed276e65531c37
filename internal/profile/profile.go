// Package profile holds the per-language capability/init data consulted
// once at spawn time by a connection: launch command, LSP language id,
// default ignored directory names, initialization options, client
// capabilities, and the cross-file indexing wait tuning. Modeled as a value
// (data), not a subclass, per the redesign from the original per-language
// class hierarchy to a single generic connection consulting a Profile.
package profile

import (
	"time"

	"github.com/thanhtunguet/serena/internal/protocol"
)

// DefaultCrossFileWaitSeconds is used by any Profile that does not override
// CrossFileWaitSeconds.
const DefaultCrossFileWaitSeconds = 5

// DefaultIgnoredDirnames apply to every language in addition to its own
// Profile.IgnoredDirnames and the always-on hidden-directory rule.
var DefaultIgnoredDirnames = []string{
	"target", ".cargo", "_build", "deps", "bin", "obj", "node_modules",
}

// Profile is the data bundle for one language server.
type Profile struct {
	// LaunchCommand is a pre-split argv; never a shell string. Producing it
	// from a located binary and flags is the job of an external
	// runtime-dependency adapter, out of scope here.
	LaunchCommand []string

	LanguageID            string
	IgnoredDirnames        []string
	InitializationOptions  any
	ClientCapabilities     protocol.ClientCapabilities
	CrossFileWaitSeconds   int
}

// WaitDuration returns the cross-file indexing wait as a time.Duration,
// applying DefaultCrossFileWaitSeconds when unset.
func (p Profile) WaitDuration() time.Duration {
	secs := p.CrossFileWaitSeconds
	if secs <= 0 {
		secs = DefaultCrossFileWaitSeconds
	}
	return time.Duration(secs) * time.Second
}

// AllIgnoredDirnames returns the language defaults plus the global defaults,
// deduplicated, for use by the Ignore Filter.
func (p Profile) AllIgnoredDirnames() []string {
	seen := make(map[string]bool, len(p.IgnoredDirnames)+len(DefaultIgnoredDirnames))
	out := make([]string, 0, len(p.IgnoredDirnames)+len(DefaultIgnoredDirnames))
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(DefaultIgnoredDirnames)
	add(p.IgnoredDirnames)
	return out
}

// baseCapabilities is the standard LSP client capability envelope shared
// across languages, overridable per Profile. Grounded in the teacher's
// InitializeLSPClient capability construction.
func baseCapabilities() protocol.ClientCapabilities {
	return protocol.ClientCapabilities{
		Workspace: &protocol.WorkspaceClientCapabilities{
			Configuration:    true,
			WorkspaceFolders: true,
			Symbol:           &protocol.WorkspaceSymbolClientCapabilities{DynamicRegistration: false},
		},
		TextDocument: &protocol.TextDocumentClientCapabilities{
			DocumentSymbol: &protocol.DocumentSymbolClientCapabilities{
				HierarchicalDocumentSymbolSupport: true,
			},
		},
		Window: &protocol.WindowClientCapabilities{WorkDoneProgress: true},
	}
}

// Table is a per-language Profile registry.
type Table map[string]Profile

// BuiltinTable returns the built-in Profile set for the languages this
// runtime targets out of the box. Launch commands are left empty: wiring a
// concrete binary path is the external runtime-dependency adapter's job.
func BuiltinTable() Table {
	caps := baseCapabilities()
	t := Table{
		"python": {
			LanguageID:           "python",
			ClientCapabilities:   caps,
			CrossFileWaitSeconds: DefaultCrossFileWaitSeconds,
		},
		"go": {
			LanguageID:           "go",
			IgnoredDirnames:      []string{"vendor"},
			ClientCapabilities:   caps,
			CrossFileWaitSeconds: DefaultCrossFileWaitSeconds,
		},
		"rust": {
			LanguageID:           "rust",
			IgnoredDirnames:      []string{"target"},
			ClientCapabilities:   caps,
			CrossFileWaitSeconds: DefaultCrossFileWaitSeconds,
		},
		// F# project graphs load slowly; the original implementation waits
		// 15s before trusting cross-file reference results.
		"fsharp": {
			LanguageID: "fsharp",
			IgnoredDirnames: []string{
				"bin", "obj", "packages", ".paket", "paket-files", ".fake", ".ionide",
			},
			ClientCapabilities:   caps,
			CrossFileWaitSeconds: 15,
		},
		"elixir": {
			LanguageID:           "elixir",
			IgnoredDirnames:      []string{"_build", "deps"},
			ClientCapabilities:   caps,
			CrossFileWaitSeconds: DefaultCrossFileWaitSeconds,
		},
		"powershell": {
			LanguageID:           "powershell",
			ClientCapabilities:   caps,
			CrossFileWaitSeconds: DefaultCrossFileWaitSeconds,
		},
		"toml": {
			LanguageID:           "toml",
			ClientCapabilities:   caps,
			CrossFileWaitSeconds: DefaultCrossFileWaitSeconds,
		},
		"clojure": {
			LanguageID:           "clojure",
			ClientCapabilities:   caps,
			CrossFileWaitSeconds: DefaultCrossFileWaitSeconds,
		},
		"java": {
			LanguageID:           "java",
			ClientCapabilities:   caps,
			CrossFileWaitSeconds: DefaultCrossFileWaitSeconds,
		},
	}
	return t
}

// Get returns the named Profile and whether it was found.
func (t Table) Get(name string) (Profile, bool) {
	p, ok := t[name]
	return p, ok
}
