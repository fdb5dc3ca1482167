package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is read from joosc.yaml. Every field has a default, so an empty file is valid.
type Config struct {
	// RootPackage is imported on demand by every compilation unit.
	RootPackage string `yaml:"root_package,omitempty"`

	// RootObject is the universal super type. Classes without an explicit superclass extend it.
	RootObject string `yaml:"root_object,omitempty"`

	StringType string `yaml:"string_type,omitempty"`

	// EntryMarker is the method name (with implementation suffix) the entry routine calls.
	EntryMarker string `yaml:"entry_marker,omitempty"`

	Runtime Runtime `yaml:"runtime,omitempty"`

	OutputDir string `yaml:"output_dir,omitempty"`

	// SymbolsDB, when set, is the sqlite file resolved symbols are exported to.
	SymbolsDB string `yaml:"symbols_db,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`

	Color string `yaml:"color,omitempty"`
}

// Runtime names the routines generated code calls into.
type Runtime struct {
	Malloc     string `yaml:"malloc,omitempty"`
	Exit       string `yaml:"exit,omitempty"`
	Exception  string `yaml:"exception,omitempty"`
	Concat     string `yaml:"concat,omitempty"`
	InstanceOf string `yaml:"instanceof,omitempty"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Find looks for joosc.yaml (or joosc.yml) in dir and its parents. It returns "" when there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range []string{"joosc.yaml", "joosc.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) setDefaults() {
	setDefault(&c.RootPackage, "java.lang")
	setDefault(&c.RootObject, "java.lang.Object")
	setDefault(&c.StringType, "java.lang.String")
	setDefault(&c.EntryMarker, "test$$implementation")
	setDefault(&c.Runtime.Malloc, "__malloc")
	setDefault(&c.Runtime.Exit, "__debexit")
	setDefault(&c.Runtime.Exception, "__exception")
	setDefault(&c.Runtime.Concat, "__concat")
	setDefault(&c.Runtime.InstanceOf, "__instanceof")
	setDefault(&c.OutputDir, "output")
	setDefault(&c.LogLevel, "info")
	setDefault(&c.Color, "auto")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (c *Config) validate(path string) error {
	if !strings.HasPrefix(c.RootObject, c.RootPackage+".") {
		return fmt.Errorf("%s: root_object %q is not in root_package %q", path, c.RootObject, c.RootPackage)
	}
	if !strings.HasSuffix(c.EntryMarker, "$$implementation") {
		return fmt.Errorf("%s: entry_marker %q must end with $$implementation", path, c.EntryMarker)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%s: color must be auto, always or never, got %q", path, c.Color)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
