package domain

import (
	"slices"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// Config is the static configuration of a render session.
type Config struct {
	PreferSandbox    bool
	Timeout          time.Duration
	MaxCacheEntries  int
	NegativeCacheTTL time.Duration
	FallbackEnabled  bool
	Fallbacks        []string
	Kernel           KernelConfig
	Sandbox          SandboxConfig
	LogLevel         LogLevel
}

// KernelConfig describes the native kernel command line.
type KernelConfig struct {
	// Version is folded into every fingerprint so a kernel upgrade never serves stale meshes.
	Version string
	// Command is the argv template. {input} and {output} are substituted.
	Command []string
	// ParamFlag precedes each name=value parameter argument.
	ParamFlag string
	// MaxProcesses bounds concurrently running kernel processes.
	MaxProcesses int
}

// SandboxConfig describes the host channel to the sandboxed kernel.
type SandboxConfig struct {
	URL string
}

// ConfigFileName is the configuration file discovered from the working directory.
const ConfigFileName = "lathe.yaml"

// Placeholders recognized in KernelConfig.Command.
const (
	InputPlaceholder  = "{input}"
	OutputPlaceholder = "{output}"
)

// Known fallback producer names.
const (
	FallbackBoundingBox = "bbox"
	FallbackPlaceholder = "placeholder"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		PreferSandbox:    false,
		Timeout:          30 * time.Second,
		MaxCacheEntries:  256,
		NegativeCacheTTL: time.Minute,
		FallbackEnabled:  true,
		Fallbacks:        []string{FallbackBoundingBox, FallbackPlaceholder},
		Kernel: KernelConfig{
			Version:      "openscad",
			Command:      []string{"openscad", "-o", OutputPlaceholder, InputPlaceholder},
			ParamFlag:    "-D",
			MaxProcesses: 2,
		},
		LogLevel: LogLevelInfo,
	}
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "timeout must be positive"), "key", "timeoutMs")
	}
	if c.MaxCacheEntries < 0 {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "cache capacity must not be negative"), "key", "maxCacheEntries")
	}
	if c.NegativeCacheTTL < 0 {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "negative cache ttl must not be negative"), "key", "negativeCacheTtlMs")
	}
	for _, name := range c.Fallbacks {
		if name != FallbackBoundingBox && name != FallbackPlaceholder {
			return zerr.With(zerr.Wrap(ErrUnknownFallback, "invalid fallback chain"), "fallback", name)
		}
	}
	if len(c.Kernel.Command) > 0 && !slices.ContainsFunc(c.Kernel.Command, func(arg string) bool {
		return strings.Contains(arg, InputPlaceholder)
	}) {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "kernel command must reference {input}"), "key", "kernel.command")
	}
	if c.Kernel.MaxProcesses < 0 {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "max processes must not be negative"), "key", "kernel.maxProcesses")
	}
	return nil
}
