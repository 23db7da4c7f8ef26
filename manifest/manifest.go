// Package manifest handles bfi.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/bfi/compiler"
	"github.com/chazu/bfi/vm"
)

// FileName is the configuration file FindAndLoad looks for.
const FileName = "bfi.toml"

// Manifest represents a bfi.toml configuration.
type Manifest struct {
	Engine Engine `toml:"engine"`
	Log    Log    `toml:"log"`
	Cache  Cache  `toml:"cache"`

	// Dir is the directory containing the bfi.toml file (set at load time).
	// Empty for Default.
	Dir string `toml:"-"`
}

// Engine selects and sizes the interpreter.
type Engine struct {
	Mode         string `toml:"mode"`
	TapeSize     int    `toml:"tape-size"`
	TreeTapeSize int    `toml:"tree-tape-size"`
	EOF          string `toml:"eof"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// Cache configures the compiled-program cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration used when no bfi.toml exists.
func Default() *Manifest {
	return &Manifest{
		Engine: Engine{
			Mode:         "flat",
			TapeSize:     vm.DefaultFlatTapeSize,
			TreeTapeSize: vm.DefaultTreeTapeSize,
			EOF:          "zero",
		},
		Cache: Cache{
			Path: filepath.Join(".bfi", "cache.db"),
		},
	}
}

// Load parses the bfi.toml file in the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses a configuration file at an explicit path. Keys the file
// leaves out keep their Default values.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a bfi.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks the engine and log settings.
func (m *Manifest) Validate() error {
	if _, err := compiler.ParseMode(m.Engine.Mode); err != nil {
		return fmt.Errorf("engine.mode: %w", err)
	}
	if _, err := vm.ParseEOFPolicy(m.Engine.EOF); err != nil {
		return fmt.Errorf("engine.eof: %w", err)
	}
	if m.Engine.TapeSize < 0 || m.Engine.TapeSize > vm.MaxTapeCells {
		return fmt.Errorf("engine.tape-size: want 0..%d, got %d", vm.MaxTapeCells, m.Engine.TapeSize)
	}
	if m.Engine.TreeTapeSize < 0 || m.Engine.TreeTapeSize > vm.MaxTapeCells {
		return fmt.Errorf("engine.tree-tape-size: want 0..%d, got %d", vm.MaxTapeCells, m.Engine.TreeTapeSize)
	}
	if m.Log.Verbosity < -4 || m.Log.Verbosity > 2 {
		return fmt.Errorf("log.verbosity: want -4..2, got %d", m.Log.Verbosity)
	}
	return nil
}

// EngineMode returns the configured engine. Call Validate first for
// hand-built manifests; unknown names fall back to flat.
func (m *Manifest) EngineMode() compiler.Mode {
	mode, _ := compiler.ParseMode(m.Engine.Mode)
	return mode
}

// VMOptions returns interpreter options for the given engine.
func (m *Manifest) VMOptions(mode compiler.Mode) vm.Options {
	eof, _ := vm.ParseEOFPolicy(m.Engine.EOF)
	size := m.Engine.TapeSize
	if mode == compiler.ModeTree {
		size = m.Engine.TreeTapeSize
	}
	return vm.Options{TapeSize: size, EOF: eof}
}

// CachePath returns the cache database path, resolved against Dir when
// relative.
func (m *Manifest) CachePath() string {
	if m.Cache.Path == "" || filepath.IsAbs(m.Cache.Path) || m.Dir == "" {
		return m.Cache.Path
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}

// LogPath returns the log file path, or nil for stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.Path == "" {
		return nil
	}
	path := m.Log.Path
	if !filepath.IsAbs(path) && m.Dir != "" {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}
