package app

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/lathe/internal/adapters/sandbox" //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/engine/cache"
	"go.trai.ch/lathe/internal/engine/coordinator"
)

// Session is one configured render pipeline. It is safe for concurrent use.
type Session struct {
	cfg           domain.Config
	logger        ports.Logger
	cache         *cache.Cache
	fingerprinter ports.Fingerprinter
	coordinator   *coordinator.Coordinator
	sandbox       *sandbox.Executor
	channel       ports.Channel

	closeOnce sync.Once
	closeErr  error
}

// Config returns the configuration the session was built from.
func (s *Session) Config() domain.Config { return s.cfg }

// Render renders g through the cache, executors and fallback chain.
func (s *Session) Render(ctx context.Context, g domain.Geometry) (*coordinator.Result, error) {
	return s.coordinator.Render(ctx, g)
}

// Fingerprint returns the cache key of g.
func (s *Session) Fingerprint(g domain.Geometry) domain.Fingerprint {
	return s.fingerprinter.Fingerprint(g)
}

// Stats returns the render cache counters.
func (s *Session) Stats() cache.Stats { return s.cache.Stats() }

// SandboxConnected reports whether the session reaches a sandboxed kernel.
func (s *Session) SandboxConnected() bool {
	return s.channel != nil && s.channel.Connected()
}

// Close cancels in-flight renders and releases the host channel.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cache.Close()
		s.coordinator.Wait()

		var errs []error
		if s.sandbox != nil {
			errs = append(errs, s.sandbox.Close())
		}
		if s.channel != nil {
			errs = append(errs, s.channel.Close())
		}
		s.closeErr = errors.Join(errs...)

		stats := s.cache.Stats()
		s.logger.Debug("render session closed",
			"hits", stats.Hits,
			"misses", stats.Misses,
			"coalesced", stats.Coalesced,
			"evictions", stats.Evictions,
		)
	})
	return s.closeErr
}
