// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedPlatform is returned when no config location convention is known for the OS.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable expansion.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// LoadIfExists loads filename when it exists and leaves target untouched
// otherwise. It reports whether a file was read.
func LoadIfExists[T any](filename string, target *T) (bool, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		if validator, ok := any(target).(Validator); ok {
			if err := validator.Validate(); err != nil {
				return false, fmt.Errorf("config validation failed: %w", err)
			}
		}
		return false, nil
	}
	return true, Load(filename, target)
}

// Write marshals v as YAML into filename, creating parent directories.
// The file is private to the user since it may hold credentials.
func Write(filename string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return nil
}

// Locator finds a config file following platform conventions.
type Locator struct {
	Name   string // file name, e.g. "casefile.yaml"
	AppDir string // macOS Application Support folder name
	GOOS   string
	Getenv func(string) string
	Home   string
	Cwd    string
}

// NewLocator returns a Locator for the running process.
func NewLocator(name, appDir string) (*Locator, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working dir: %w", err)
	}
	return &Locator{
		Name:   name,
		AppDir: appDir,
		GOOS:   runtime.GOOS,
		Getenv: os.Getenv,
		Home:   home,
		Cwd:    cwd,
	}, nil
}

// Find returns the most likely config path. A file of the same name in the
// working directory wins; otherwise $XDG_CONFIG_HOME, then ~/.config if it
// exists, then ~/.<name> on Linux and the BSDs, then Application Support on
// macOS. The returned file need not exist yet.
func (l *Locator) Find() (string, error) {
	if local := filepath.Join(l.Cwd, l.Name); fileExists(local) {
		return local, nil
	}
	if xdg := l.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, l.Name), nil
	}
	if dotConfig := filepath.Join(l.Home, ".config"); fileExists(dotConfig) {
		return filepath.Join(dotConfig, l.Name), nil
	}
	switch {
	case l.GOOS == "linux" || strings.HasSuffix(l.GOOS, "bsd"):
		return filepath.Join(l.Home, "."+l.Name), nil
	case l.GOOS == "darwin":
		return filepath.Join(l.Home, "Library", "Application Support", l.AppDir, l.Name), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, l.GOOS)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
