// Package config provides the configuration loader for lathe.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration.
//
// A directory path (or an empty path, meaning the working directory) is searched
// upward for lathe.yaml. When no file exists the defaults are returned.
func (l *Loader) Load(path string) (domain.Config, error) {
	configPath, err := l.findConfiguration(path)
	if err != nil {
		return domain.Config{}, err
	}
	if configPath == "" {
		l.Logger.Debug("no configuration file found, using defaults", "path", path)
		return domain.DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // path is provided by user
	if err != nil {
		return domain.Config{}, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", configPath)
	}

	cfg, err := Parse(data)
	if err != nil {
		return domain.Config{}, zerr.With(err, "path", configPath)
	}
	l.Logger.Debug("loaded configuration", "path", configPath)
	return cfg, nil
}

// findConfiguration resolves path to a config file, or "" when there is none.
func (l *Loader) findConfiguration(path string) (string, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", zerr.Wrap(err, "failed to get working directory")
		}
		path = cwd
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", path)
	case !info.IsDir():
		return path, nil
	}

	currentDir := path
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			return "", nil
		}
		currentDir = parentDir
	}
}

// Parse decodes YAML configuration over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (domain.Config, error) {
	var file Lathefile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return domain.Config{}, zerr.Wrap(domain.ErrConfigParseFailed, err.Error())
	}

	cfg := domain.DefaultConfig()
	applyFile(&cfg, &file)

	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *domain.Config, file *Lathefile) {
	if file.PreferSandbox != nil {
		cfg.PreferSandbox = *file.PreferSandbox
	}
	if file.TimeoutMs != nil {
		cfg.Timeout = time.Duration(*file.TimeoutMs) * time.Millisecond
	}
	if file.MaxCacheEntries != nil {
		cfg.MaxCacheEntries = *file.MaxCacheEntries
	}
	if file.NegativeCacheTTLMs != nil {
		cfg.NegativeCacheTTL = time.Duration(*file.NegativeCacheTTLMs) * time.Millisecond
	}
	if file.FallbackEnabled != nil {
		cfg.FallbackEnabled = *file.FallbackEnabled
	}
	if file.Fallback != nil {
		cfg.Fallbacks = file.Fallback
	}
	if file.Kernel.Version != "" {
		cfg.Kernel.Version = file.Kernel.Version
	}
	if file.Kernel.Command != nil {
		cfg.Kernel.Command = file.Kernel.Command
	}
	if file.Kernel.ParamFlag != nil {
		cfg.Kernel.ParamFlag = *file.Kernel.ParamFlag
	}
	if file.Kernel.MaxProcesses != nil {
		cfg.Kernel.MaxProcesses = *file.Kernel.MaxProcesses
	}
	if file.Sandbox.URL != "" {
		cfg.Sandbox.URL = file.Sandbox.URL
	}
	if file.LogLevel != "" {
		cfg.LogLevel = domain.ParseLogLevel(file.LogLevel)
	}
}
