// Package config loads vectorcheck settings from vectorcheck.yaml and the
// VECTOR_MODE environment variable.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "vectorcheck.yaml"

// ErrConfiguration marks errors caused by invalid settings rather than by
// a fixture or the codec.
var ErrConfiguration = errors.New("configuration error")

// Config holds corpus-wide settings. Zero fields fall back to Default.
type Config struct {
	// Root is the directory searched for fixtures.
	Root string `yaml:"root"`

	// Extension selects fixture files, e.g. ".edn".
	Extension string `yaml:"extension"`

	// SnapshotExtension replaces Extension to name the binary snapshot.
	SnapshotExtension string `yaml:"snapshot_extension"`

	// Filter is a glob applied to fixture names.
	Filter string `yaml:"filter,omitempty"`

	// Database is an optional SQLite path for run history.
	Database string `yaml:"database,omitempty"`

	// EncodeOptions and DecodeOptions sit underneath every document's own
	// options.
	EncodeOptions map[string]any `yaml:"encode_options,omitempty"`
	DecodeOptions map[string]any `yaml:"decode_options,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Root:              "vectors",
		Extension:         ".edn",
		SnapshotExtension: ".cbor",
	}
}

// Load reads a configuration file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, cfg.Validate()
		}
		return nil, errors.Mark(errors.Wrapf(err, "failed to parse %s", filepath.Base(path)), ErrConfiguration)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDir loads FileName from dir when present and returns Default
// otherwise.
func LoadDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrap(err, "failed to stat config file")
	}
	return Load(path)
}

// Validate checks extensions and the filter pattern.
func (c *Config) Validate() error {
	if c.Root == "" {
		return configErrorf("root must not be empty")
	}
	if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
		return configErrorf("extension %q must start with a dot", c.Extension)
	}
	if !strings.HasPrefix(c.SnapshotExtension, ".") || len(c.SnapshotExtension) < 2 {
		return configErrorf("snapshot_extension %q must start with a dot", c.SnapshotExtension)
	}
	if c.Extension == c.SnapshotExtension {
		return configErrorf("extension and snapshot_extension must differ")
	}
	if c.Filter != "" {
		if _, err := filepath.Match(c.Filter, ""); err != nil {
			return configErrorf("invalid filter pattern %q", c.Filter)
		}
	}
	return nil
}

func configErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfiguration)
}
