package profile

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Overlay is an optional, additive on-disk customization of the built-in
// Profile table. A project may ship a .serenalsp.toml at its root; fields
// left unset never override a built-in default.
type Overlay struct {
	Languages map[string]OverlayLanguage `toml:"languages"`
}

// OverlayLanguage mirrors the subset of Profile a project is allowed to
// customize without recompiling the runtime.
type OverlayLanguage struct {
	IgnoredPaths          []string       `toml:"ignored_paths"`
	InitializationOptions map[string]any `toml:"initialization_options"`
	CrossFileWaitSeconds  int            `toml:"cross_file_wait_seconds"`
}

// LoadOverlay reads and parses path as a .serenalsp.toml overlay. A missing
// file is not an error: overlays are always optional.
func LoadOverlay(path string) (Overlay, error) {
	var ov Overlay
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Overlay{}, nil
		}
		return Overlay{}, fmt.Errorf("profile: read overlay %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &ov); err != nil {
		return Overlay{}, fmt.Errorf("profile: parse overlay %s: %w", path, err)
	}
	return ov, nil
}

// Apply merges overlay entries on top of t, returning a new Table. Only
// IgnoredDirnames growth, InitializationOptions replacement, and
// CrossFileWaitSeconds override are supported; launch commands and
// capabilities remain runtime-controlled.
func (t Table) Apply(ov Overlay) Table {
	if len(ov.Languages) == 0 {
		return t
	}
	merged := make(Table, len(t))
	for k, v := range t {
		merged[k] = v
	}
	for name, lang := range ov.Languages {
		p, ok := merged[name]
		if !ok {
			continue
		}
		if len(lang.IgnoredPaths) > 0 {
			p.IgnoredDirnames = append(append([]string{}, p.IgnoredDirnames...), lang.IgnoredPaths...)
		}
		if lang.InitializationOptions != nil {
			p.InitializationOptions = lang.InitializationOptions
		}
		if lang.CrossFileWaitSeconds > 0 {
			p.CrossFileWaitSeconds = lang.CrossFileWaitSeconds
		}
		merged[name] = p
	}
	return merged
}
