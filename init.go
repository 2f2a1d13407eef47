package filediffs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// InitOption holds options for the init command.
type InitOption struct {
	Path  string
	Cmd   []string
	Force bool
}

// Init writes a starter config file.
func Init(opt InitOption) (string, error) {
	path := opt.Path
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", err
		}
	}
	if !opt.Force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to check %s: %w", path, err)
		}
	}

	context := DefaultContext
	cfg := Config{
		Cmd:       opt.Cmd,
		Algorithm: AlgorithmDifflib,
		Context:   &context,
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
