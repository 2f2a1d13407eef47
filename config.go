package filediffs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	goconfig "github.com/kayac/go-config"
)

// Config represents the filediffs settings file.
type Config struct {
	// Cmd is an external diff command. Tokens may contain $file1, $file2,
	// $caption1 and $caption2. When empty, diffs are rendered in process.
	Cmd       []string `yaml:"cmd"`
	Algorithm string   `yaml:"algorithm,omitempty"`
	Context   *int     `yaml:"context,omitempty"`
}

// ContextLines returns the configured number of context lines, or DefaultContext.
func (c *Config) ContextLines() int {
	if c.Context == nil {
		return DefaultContext
	}
	return *c.Context
}

// DefaultConfigPath returns <user config dir>/filediffs/config.yml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "filediffs", "config.yml"), nil
}

// LoadConfig reads and validates the YAML config file. Values may reference
// environment variables with {{ env "NAME" }} and {{ must_env "NAME" }}.
//
// If path is empty the default path is used, and a missing default file
// yields an empty config.
func LoadConfig(path string) (cfg *Config, err error) {
	explicit := path != ""
	if !explicit {
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// go-config panics on must_env with undefined variables.
	defer func() {
		if r := recover(); r != nil {
			cfg = nil
			err = fmt.Errorf("failed to parse config: %v", r)
		}
	}()

	var c Config
	if err := goconfig.LoadWithEnv(&c, path); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the config values.
func (c *Config) Validate() error {
	if _, err := matcherFor(c.Algorithm); err != nil {
		return fmt.Errorf("invalid algorithm in config: %w", err)
	}
	if c.Context != nil && *c.Context < 0 {
		return fmt.Errorf("context must not be negative, got %d", *c.Context)
	}
	if len(c.Cmd) > 0 && c.Cmd[0] == "" {
		return fmt.Errorf("cmd must start with a program name")
	}
	return nil
}
