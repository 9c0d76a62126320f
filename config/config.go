// Package config handles classkit.toml tool configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/dhamidi/classkit/classfile"
)

// FileName is the name of the configuration file looked up by FindAndLoad.
const FileName = "classkit.toml"

// Config represents a classkit.toml file.
type Config struct {
	Log    Log    `toml:"log"`
	Decode Decode `toml:"decode"`
	Output Output `toml:"output"`
	Run    Run    `toml:"run"`

	// Dir is the directory containing the classkit.toml file (set at load time).
	Dir string `toml:"-"`
}

// Log configures diagnostics logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Decode configures decode sessions. Version, when set, is frozen into the
// session's version gate; Threshold lets newer files override it.
type Decode struct {
	Version   string `toml:"version"`
	Threshold string `toml:"threshold"`
	Strict    bool   `toml:"strict"`
}

// Output configures listings.
type Output struct {
	Format string `toml:"format"`
	Dir    string `toml:"dir"`
}

// Run configures how many files are processed at once.
type Run struct {
	Workers int `toml:"workers"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Output.Format == "" {
		c.Output.Format = "line"
	}
	if c.Run.Workers <= 0 {
		c.Run.Workers = 4
	}
}

// Load parses a classkit.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	c.applyDefaults()

	if _, err := c.VersionGate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a classkit.toml file and
// loads it. Returns the defaults if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// VersionGate builds a fresh gate from the [decode] section. Each decode
// session needs its own gate.
func (c *Config) VersionGate() (*classfile.VersionGate, error) {
	gate := classfile.NewVersionGate()
	if c.Decode.Version != "" {
		v, err := classfile.ParseVersion(c.Decode.Version)
		if err != nil {
			return nil, fmt.Errorf("decode.version: %w", err)
		}
		gate.SetVersion(v)
		gate.Freeze()
	}
	if c.Decode.Threshold != "" {
		v, err := classfile.ParseVersion(c.Decode.Threshold)
		if err != nil {
			return nil, fmt.Errorf("decode.threshold: %w", err)
		}
		gate.SetThreshold(v)
	}
	return gate, nil
}

// DecodeOptions returns the classfile options the [decode] section asks for.
func (c *Config) DecodeOptions() ([]classfile.Option, error) {
	gate, err := c.VersionGate()
	if err != nil {
		return nil, err
	}
	return []classfile.Option{
		classfile.WithVersionGate(gate),
		classfile.WithStrict(c.Decode.Strict),
	}, nil
}

// LogPath returns the log file path, resolved against Dir, or nil for
// standard error.
func (c *Config) LogPath() *string {
	if c.Log.File == "" {
		return nil
	}
	path := c.Log.File
	if !filepath.IsAbs(path) && c.Dir != "" {
		path = filepath.Join(c.Dir, path)
	}
	return &path
}
