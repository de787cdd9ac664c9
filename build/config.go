package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/dsljs/dsl/internal"
	"github.com/dsljs/dsl/internal/resolver"
	"github.com/dsljs/dsl/macro"
	"gopkg.in/yaml.v3"
)

// Version is the toolchain version checked against Config.Requires.
const Version = "0.4.0"

// DefaultConfigFile is the project configuration written by "dsl init".
const DefaultConfigFile = ".dsl.yaml"

// Format is a configuration file syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// Duration is a time.Duration written as "100ms" in configuration files.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config is the project configuration.
type Config struct {
	Name        string   `yaml:"name" toml:"name"`
	Marker      string   `yaml:"marker" toml:"marker"`
	MaxPasses   int      `yaml:"max_passes" toml:"max_passes"`
	SourceExt   string   `yaml:"source_ext" toml:"source_ext"`
	OutputExt   string   `yaml:"output_ext" toml:"output_ext"`
	ModuleExt   string   `yaml:"module_ext" toml:"module_ext"`
	Interpreter []string `yaml:"interpreter" toml:"interpreter"`
	// CacheDir enables the compile cache. Relative paths are resolved
	// against the configuration file.
	CacheDir  string   `yaml:"cache_dir,omitempty" toml:"cache_dir,omitempty"`
	Libraries []string `yaml:"libraries,omitempty" toml:"libraries,omitempty"`
	// Requires is a semver constraint on Version, e.g. ">= 0.4, < 1".
	Requires string `yaml:"requires,omitempty" toml:"requires,omitempty"`
	// Workers bounds batch builds; zero means one per CPU.
	Workers  int      `yaml:"workers,omitempty" toml:"workers,omitempty"`
	Debounce Duration `yaml:"debounce" toml:"debounce"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Name:        "dsl",
		Marker:      macro.DefaultMarker,
		MaxPasses:   macro.DefaultMaxPasses,
		SourceExt:   internal.DefaultSourceExt,
		OutputExt:   internal.DefaultOutputExt,
		ModuleExt:   resolver.DefaultModuleExt,
		Interpreter: []string{"node"},
		Debounce:    Duration{internal.DefaultDebounce},
	}
}

func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// LoadConfig reads the configuration at path over the defaults. A missing
// file yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}

	switch detectFormat(path) {
	case FormatTOML:
		if _, err := toml.Decode(string(content), &config); err != nil {
			return config, fmt.Errorf("TOML parse error in %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(content, &config); err != nil {
			return config, fmt.Errorf("YAML parse error in %s: %w", path, err)
		}
	}

	config.resolvePaths(filepath.Dir(path))
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func (c *Config) resolvePaths(base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.CacheDir = resolve(c.CacheDir)
	for i, lib := range c.Libraries {
		c.Libraries[i] = resolve(lib)
	}
}

// Validate checks field ranges and the version constraint.
func (c Config) Validate() error {
	if c.MaxPasses < 0 {
		return fmt.Errorf("max_passes must not be negative, got %d", c.MaxPasses)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.SourceExt == "" || c.OutputExt == "" {
		return errors.New("source_ext and output_ext must be set")
	}
	if c.SourceExt == c.OutputExt {
		return fmt.Errorf("source_ext and output_ext are both %q", c.SourceExt)
	}
	if len(c.Interpreter) == 0 {
		return errors.New("interpreter must name a program")
	}
	if c.Requires == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.Requires)
	if err != nil {
		return fmt.Errorf("invalid requires constraint: %w", err)
	}
	if !constraint.Check(semver.MustParse(Version)) {
		return fmt.Errorf("requires %s, running %s", c.Requires, Version)
	}
	return nil
}

// EngineConfig extracts the engine settings.
func (c Config) EngineConfig() internal.EngineConfig {
	return internal.EngineConfig{
		Marker:    c.Marker,
		MaxPasses: c.MaxPasses,
		SourceExt: c.SourceExt,
		OutputExt: c.OutputExt,
		Libraries: c.Libraries,
		CacheDir:  c.CacheDir,
	}
}

// WriteDefault writes the default configuration to path in the format
// matching its extension.
func WriteDefault(path string) error {
	if path == "" {
		path = DefaultConfigFile
	}

	config := DefaultConfig()
	var (
		data []byte
		err  error
	)
	switch detectFormat(path) {
	case FormatTOML:
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(config)
		data = []byte(sb.String())
	default:
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
