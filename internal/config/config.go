package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// Config represents a copperhead.yaml project configuration.
type Config struct {
	// Quiet suppresses the partial-AST dump printed when a pass fails.
	Quiet bool `yaml:"quiet,omitempty"`

	// Verbose logs every completed pass.
	Verbose bool `yaml:"verbose,omitempty"`

	// Trace is the path of a SQLite database receiving one row per pass.
	// Relative paths are resolved against the config file's directory.
	Trace string `yaml:"trace,omitempty"`

	// Library lists extra names that are marked as user identifiers even
	// though they carry no syntax tree.
	Library []string `yaml:"library,omitempty"`

	// Globals adds typed names or Copperhead-visible helper sources.
	Globals []GlobalSpec `yaml:"globals,omitempty"`

	// Entry designates the procedure to compile and its argument types.
	Entry *EntrySpec `yaml:"entry,omitempty"`
}

// GlobalSpec describes one extra global binding.
type GlobalSpec struct {
	// Name is the identifier as written in source.
	Name string `yaml:"name"`

	// Type is a signature such as "ForAll a: (a, [a]) -> [a]".
	Type string `yaml:"type,omitempty"`

	// Source is the text of a helper procedure. The helper is gathered
	// into any program that references Name.
	Source string `yaml:"source,omitempty"`
}

// EntrySpec names an entry point procedure and its caller-supplied types.
type EntrySpec struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args,omitempty"`
}

// LoadConfig reads and parses a copperhead.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses copperhead.yaml content from bytes.
// The path argument is used for error messages and to resolve Trace.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	if cfg.Trace != "" && !filepath.IsAbs(cfg.Trace) && path != "" {
		cfg.Trace = filepath.Join(filepath.Dir(path), cfg.Trace)
	}
	return &cfg, nil
}

// FindConfig searches for copperhead.yaml starting from dir and walking up
// to parent directories. Returns an empty path and nil error if none exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
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

// ApplyEnv overrides fields from COPPERHEAD_* environment variables.
// The environment is re-read on every call.
func (c *Config) ApplyEnv() {
	env.Load()
	if env.Has("COPPERHEAD_QUIET") {
		c.Quiet = env.Bool("COPPERHEAD_QUIET")
	}
	if env.Has("COPPERHEAD_VERBOSE") {
		c.Verbose = env.Bool("COPPERHEAD_VERBOSE")
	}
	c.Trace = env.Str("COPPERHEAD_TRACE", c.Trace)
}

func (c *Config) validate(path string) error {
	seen := make(map[string]int)
	for i, g := range c.Globals {
		if g.Name == "" {
			return fmt.Errorf("%s: globals[%d]: name is required", path, i)
		}
		if g.Type == "" && g.Source == "" {
			return fmt.Errorf("%s: globals[%d] (%s): one of type or source is required", path, i, g.Name)
		}
		if g.Source != "" && !strings.Contains(g.Source, "def "+g.Name) {
			return fmt.Errorf("%s: globals[%d] (%s): source does not define %s", path, i, g.Name, g.Name)
		}
		if prev, dup := seen[g.Name]; dup {
			return fmt.Errorf("%s: globals[%d] (%s): duplicate of globals[%d]", path, i, g.Name, prev)
		}
		seen[g.Name] = i
	}
	for i, name := range c.Library {
		if name == "" {
			return fmt.Errorf("%s: library[%d]: empty name", path, i)
		}
	}
	if c.Entry != nil && c.Entry.Name == "" {
		return fmt.Errorf("%s: entry: name is required", path)
	}
	return nil
}
