// Package manifest handles lox.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "lox.toml"

// Defaults applied to fields left unset in lox.toml.
const (
	DefaultServerAddr = "localhost:4567"
	DefaultImageExt   = ".loxc"
	DefaultCacheSize  = 1024
)

// Manifest represents a lox.toml configuration.
type Manifest struct {
	Project Project      `toml:"project"`
	Run     RunConfig    `toml:"run"`
	Log     LogConfig    `toml:"log"`
	Server  ServerConfig `toml:"server"`
	Journal Journal      `toml:"journal"`

	// Dir is the directory containing the lox.toml file (set at load time).
	// Empty for the built-in defaults.
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// RunConfig controls how programs are executed.
type RunConfig struct {
	Trace       bool `toml:"trace"`       // print the VM execution trace
	Disassemble bool `toml:"disassemble"` // print each chunk before running it
	CacheSize   int  `toml:"cache-size"`  // compiled chunks kept per store
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// ServerConfig configures the evaluation service.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Journal configures the evaluation journal. An empty Path disables it.
type Journal struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no lox.toml is found.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses a lox.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the configuration file at path. Relative paths in the
// file resolve against its directory.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes lox.toml content and applies defaults.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	meta, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a lox.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
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

func (m *Manifest) applyDefaults() {
	if m.Server.Addr == "" {
		m.Server.Addr = DefaultServerAddr
	}
	if m.Run.CacheSize == 0 {
		m.Run.CacheSize = DefaultCacheSize
	}
}

// JournalPath returns the journal database path resolved against the
// manifest directory, or "" when the journal is disabled.
func (m *Manifest) JournalPath() string {
	if m.Journal.Path == "" {
		return ""
	}
	if m.Journal.Path == ":memory:" || filepath.IsAbs(m.Journal.Path) || m.Dir == "" {
		return m.Journal.Path
	}
	return filepath.Join(m.Dir, m.Journal.Path)
}

// LogFile returns the log file path resolved like JournalPath, or "" for
// stderr.
func (m *Manifest) LogFile() string {
	if m.Log.File == "" {
		return ""
	}
	if filepath.IsAbs(m.Log.File) || m.Dir == "" {
		return m.Log.File
	}
	return filepath.Join(m.Dir, m.Log.File)
}
