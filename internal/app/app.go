// Package app implements the application layer for lathe.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"go.trai.ch/lathe/internal/adapters/fallback"    //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/fingerprint" //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/hostchannel" //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/native"      //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/sandbox"     //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/watcher"     //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/engine/cache"
	"go.trai.ch/lathe/internal/engine/coordinator"
	"go.trai.ch/zerr"
)

// Dialer opens the host channel to the sandboxed kernel.
type Dialer func(ctx context.Context, url string, logger ports.Logger) (ports.Channel, error)

// WatcherFactory creates the file watcher used by Watch.
type WatcherFactory func(logger ports.Logger) (ports.Watcher, error)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	telemetry    ports.Telemetry
	codec        ports.MeshCodec
	dial         Dialer
	newWatcher   WatcherFactory

	outMu sync.Mutex
	out   io.Writer
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, logger ports.Logger, telemetry ports.Telemetry, codec ports.MeshCodec) *App {
	return &App{
		configLoader: loader,
		logger:       logger,
		telemetry:    telemetry,
		codec:        codec,
		dial:         dialWebSocket,
		newWatcher:   newFileWatcher,
		out:          os.Stdout,
	}
}

// WithOutput sets the writer that receives per-file render summaries.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// WithDialer replaces the host channel dialer.
func (a *App) WithDialer(d Dialer) *App {
	a.dial = d
	return a
}

// WithWatcher replaces the file watcher factory.
func (a *App) WithWatcher(f WatcherFactory) *App {
	a.newWatcher = f
	return a
}

func newFileWatcher(logger ports.Logger) (ports.Watcher, error) {
	w, err := watcher.New(watcher.DefaultWindow, logger)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func dialWebSocket(ctx context.Context, url string, logger ports.Logger) (ports.Channel, error) {
	ws, err := hostchannel.Dial(ctx, url, logger)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

type levelSetter interface {
	SetLevel(level domain.LogLevel)
}

// LoadConfig reads the configuration at path and applies its log level.
func (a *App) LoadConfig(path string) (domain.Config, error) {
	cfg, err := a.configLoader.Load(path)
	if err != nil {
		return domain.Config{}, zerr.Wrap(err, "failed to load configuration")
	}
	if l, ok := a.logger.(levelSetter); ok {
		l.SetLevel(cfg.LogLevel)
	}
	return cfg, nil
}

// Open loads the configuration and builds a render session from it.
func (a *App) Open(ctx context.Context, configPath string) (*Session, error) {
	cfg, err := a.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return a.NewSession(ctx, cfg)
}

// NewSession builds the cache, executors and coordinator for cfg.
// An unreachable sandbox host is logged and left out of the executor list.
func (a *App) NewSession(ctx context.Context, cfg domain.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fallbacks, err := fallback.FromNames(cfg.Fallbacks)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		logger: a.logger,
		cache: cache.New(cache.Options{
			MaxEntries:  cfg.MaxCacheEntries,
			NegativeTTL: cfg.NegativeCacheTTL,
			Logger:      a.logger,
		}),
		fingerprinter: fingerprint.NewHasher(cfg.Kernel.Version),
	}

	var nativeExec, sandboxExec ports.Executor
	if len(cfg.Kernel.Command) > 0 {
		nativeExec = native.NewExecutor(native.Options{
			Command:      cfg.Kernel.Command,
			ParamFlag:    cfg.Kernel.ParamFlag,
			MaxProcesses: cfg.Kernel.MaxProcesses,
		}, a.codec, a.logger)
	}
	if cfg.Sandbox.URL != "" {
		ch, err := a.dial(ctx, cfg.Sandbox.URL, a.logger)
		if err != nil {
			a.logger.Warn("sandbox host unreachable", "url", cfg.Sandbox.URL, "error", err)
		} else {
			s.channel = ch
			s.sandbox = sandbox.NewExecutor(ch, s.fingerprinter, a.codec, a.logger)
			sandboxExec = s.sandbox
		}
	}

	executors := coordinator.Order(cfg.PreferSandbox, nativeExec, sandboxExec)
	if len(executors) == 0 {
		a.logger.Warn("no kernel executor configured, renders use the fallback chain")
	}
	s.coordinator = coordinator.New(coordinator.Options{
		Timeout:         cfg.Timeout,
		FallbackEnabled: cfg.FallbackEnabled,
	}, s.cache, s.fingerprinter, executors, fallbacks, a.logger, a.telemetry)
	return s, nil
}

// Fingerprint returns the fingerprint of a geometry file under the configuration at configPath.
func (a *App) Fingerprint(file string, opts RenderOptions) (domain.Fingerprint, error) {
	cfg, err := a.LoadConfig(opts.ConfigPath)
	if err != nil {
		return domain.Fingerprint{}, err
	}
	g, err := LoadGeometry(file, opts.Params)
	if err != nil {
		return domain.Fingerprint{}, err
	}
	return fingerprint.NewHasher(cfg.Kernel.Version).Fingerprint(g), nil
}

// LoadGeometry reads a kernel program from file and attaches params.
func LoadGeometry(file string, params map[string]domain.Param) (domain.Geometry, error) {
	src, err := os.ReadFile(file) //nolint:gosec // Path is user input by design
	if err != nil {
		return domain.Geometry{}, zerr.With(zerr.Wrap(domain.ErrGeometryReadFailed, err.Error()), "file", file)
	}
	g, err := domain.NewGeometry(string(src), params)
	if err != nil {
		return domain.Geometry{}, zerr.With(err, "file", file)
	}
	return g, nil
}
