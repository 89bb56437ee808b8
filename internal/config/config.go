package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth    = 100
	DefaultHeight   = 24
	DefaultLogLevel = "info"

	SourceSQL = "sql"
	SourceCSV = "csv"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the top-level dialogs file.
type Config struct {
	Database string   `yaml:"database"`
	LogFile  string   `yaml:"log_file"`
	LogLevel string   `yaml:"log_level"`
	Dialogs  []Dialog `yaml:"dialogs"`
}

// Dialog describes one table dialog.
type Dialog struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Width   int      `yaml:"width,omitempty"`
	Height  int      `yaml:"height,omitempty"`
	Headers []string `yaml:"headers"`
	Refresh Duration `yaml:"refresh,omitempty"`
	Source  Source   `yaml:"source"`
}

// Source says where a dialog's rows come from.
type Source struct {
	Kind       string `yaml:"kind"`
	Query      string `yaml:"query,omitempty"`
	Path       string `yaml:"path,omitempty"`
	SkipHeader bool   `yaml:"skip_header,omitempty"`
	Comma      string `yaml:"comma,omitempty"`
	Watch      bool   `yaml:"watch,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	if d == 0 {
		return "", nil
	}
	return time.Duration(d).String(), nil
}

// Load reads, defaults and validates the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a config. Relative paths inside it resolve against baseDir.
func Parse(data []byte, baseDir string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults(baseDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults(baseDir string) {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Database = resolvePath(c.Database, baseDir)
	c.LogFile = resolvePath(c.LogFile, baseDir)
	for i := range c.Dialogs {
		d := &c.Dialogs[i]
		if d.Title == "" {
			d.Title = d.ID
		}
		if d.Width <= 0 {
			d.Width = DefaultWidth
		}
		if d.Height <= 0 {
			d.Height = DefaultHeight
		}
		d.Source.Kind = strings.ToLower(strings.TrimSpace(d.Source.Kind))
		if d.Source.Kind == SourceCSV {
			d.Source.Path = resolvePath(d.Source.Path, baseDir)
		}
	}
}

// Validate checks the dialogs for problems that would break them at runtime.
func (c *Config) Validate() error {
	if len(c.Dialogs) == 0 {
		return fmt.Errorf("%w: no dialogs defined", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Dialogs))
	for i, d := range c.Dialogs {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("%w: dialog %d has no id", ErrInvalid, i)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: duplicate dialog id %q", ErrInvalid, d.ID)
		}
		seen[d.ID] = true
		if len(d.Headers) == 0 {
			return fmt.Errorf("%w: dialog %q has no headers", ErrInvalid, d.ID)
		}
		if d.Refresh < 0 {
			return fmt.Errorf("%w: dialog %q has a negative refresh", ErrInvalid, d.ID)
		}
		switch d.Source.Kind {
		case SourceSQL:
			if d.Source.Watch {
				return fmt.Errorf("%w: dialog %q: only csv sources can be watched", ErrInvalid, d.ID)
			}
			if strings.TrimSpace(d.Source.Query) == "" {
				return fmt.Errorf("%w: dialog %q: sql source needs a query", ErrInvalid, d.ID)
			}
			if c.Database == "" {
				return fmt.Errorf("%w: dialog %q: sql source needs a database", ErrInvalid, d.ID)
			}
		case SourceCSV:
			if d.Source.Path == "" {
				return fmt.Errorf("%w: dialog %q: csv source needs a path", ErrInvalid, d.ID)
			}
			if len([]rune(d.Source.Comma)) > 1 {
				return fmt.Errorf("%w: dialog %q: comma must be a single character", ErrInvalid, d.ID)
			}
		default:
			return fmt.Errorf("%w: dialog %q: unknown source kind %q", ErrInvalid, d.ID, d.Source.Kind)
		}
	}
	return nil
}

// Dialog returns the dialog with the given id.
func (c *Config) Dialog(id string) (Dialog, bool) {
	for _, d := range c.Dialogs {
		if d.ID == id {
			return d, true
		}
	}
	return Dialog{}, false
}

// Write encodes cfg as YAML to path.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func resolvePath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	path = ExpandHome(path)
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
