// Package coordinator drives a render from cache lookup through the executor
// preference list and the fallback chain.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/engine/cache"
	"go.trai.ch/zerr"
)

const (
	// DefaultCompletionGrace is added to the render timeout to bound a caller's wait.
	DefaultCompletionGrace = 250 * time.Millisecond

	// maxJoins bounds how often a caller re-joins after the computation it waited on was abandoned.
	maxJoins = 3

	fallbackPrefix = "fallback:"
)

// Options configures a Coordinator.
type Options struct {
	// Timeout is the deadline of one shared computation.
	Timeout time.Duration
	// CompletionGrace extends each caller's wait beyond Timeout. Zero means DefaultCompletionGrace.
	CompletionGrace time.Duration
	// FallbackEnabled runs the fallback chain after every executor failed.
	FallbackEnabled bool
}

// Result is what a caller receives for a render that produced a mesh.
type Result struct {
	Fingerprint domain.Fingerprint
	Mesh        *domain.Mesh
	// Degraded is set when a fallback producer supplied the mesh.
	Degraded bool
	// Source names the executor or fallback producer that built the mesh.
	Source string
	// Cached is set when the outcome was already terminal in the cache.
	Cached bool
	// Cause is the attempt chain of a degraded render.
	Cause error
}

// Status returns the telemetry status of the result.
func (r *Result) Status() domain.RenderStatus {
	return domain.StatusOf(domain.Outcome{Mesh: r.Mesh, Degraded: r.Degraded}, r.Cached)
}

// Coordinator renders geometry through the cache, executors and fallbacks.
type Coordinator struct {
	opts          Options
	cache         *cache.Cache
	fingerprinter ports.Fingerprinter
	executors     []ports.Executor
	fallbacks     []ports.FallbackProducer
	logger        ports.Logger
	telemetry     ports.Telemetry

	wg sync.WaitGroup
}

// New creates a Coordinator. executors are tried in order.
func New(
	opts Options,
	c *cache.Cache,
	fingerprinter ports.Fingerprinter,
	executors []ports.Executor,
	fallbacks []ports.FallbackProducer,
	logger ports.Logger,
	telemetry ports.Telemetry,
) *Coordinator {
	if opts.CompletionGrace <= 0 {
		opts.CompletionGrace = DefaultCompletionGrace
	}
	return &Coordinator{
		opts:          opts,
		cache:         c,
		fingerprinter: fingerprinter,
		executors:     executors,
		fallbacks:     fallbacks,
		logger:        logger,
		telemetry:     telemetry,
	}
}

// Order returns the executor preference list. Nil executors are skipped.
func Order(preferSandbox bool, native, sandbox ports.Executor) []ports.Executor {
	ordered := []ports.Executor{native, sandbox}
	if preferSandbox {
		ordered = []ports.Executor{sandbox, native}
	}
	out := ordered[:0]
	for _, e := range ordered {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Render returns the mesh for g. The error is non-nil only when no mesh exists:
// either a *domain.ChainError describing every attempt, a cache error, or the
// caller's own context error. Cancelling ctx detaches this caller only.
func (c *Coordinator) Render(ctx context.Context, g domain.Geometry) (*Result, error) {
	fp := c.fingerprinter.Fingerprint(g)

	for joins := 0; ; joins++ {
		h, err := c.cache.GetOrCreate(fp)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "render cache lookup failed"), "fingerprint", fp.String())
		}
		if h.Owner() {
			c.start(ctx, h, g)
		} else if h.Hit() {
			c.recordHit(ctx, fp)
		}

		outcome, err := c.wait(ctx, h)
		if errors.Is(err, domain.ErrAbandoned) && joins < maxJoins {
			c.logger.Debug("rejoining abandoned render", "fingerprint", fp.String())
			continue
		}
		if err != nil {
			return nil, c.waitError(ctx, fp, err)
		}
		return c.result(fp, outcome, h.Hit())
	}
}

func (c *Coordinator) wait(ctx context.Context, h *cache.Handle) (domain.Outcome, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout+c.opts.CompletionGrace)
	defer cancel()
	return h.Wait(waitCtx)
}

func (c *Coordinator) waitError(ctx context.Context, fp domain.Fingerprint, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ChainError{
			Fingerprint: fp,
			Attempts: []domain.Attempt{{
				Executor: "coordinator",
				Kind:     domain.KindTimeout,
				Err:      zerr.With(zerr.Wrap(domain.ErrTimeout, "no completion within grace"), "timeout", c.opts.Timeout.String()),
			}},
		}
	}
	return zerr.With(zerr.Wrap(err, "render wait failed"), "fingerprint", fp.String())
}

func (c *Coordinator) result(fp domain.Fingerprint, o domain.Outcome, cached bool) (*Result, error) {
	if !o.HasMesh() {
		var chain *domain.ChainError
		if errors.As(o.Err, &chain) {
			return nil, chain
		}
		return nil, &domain.ChainError{
			Fingerprint: fp,
			Attempts:    []domain.Attempt{{Executor: o.Source, Kind: domain.KindOf(o.Err), Err: o.Err}},
		}
	}
	return &Result{
		Fingerprint: fp,
		Mesh:        o.Mesh,
		Degraded:    o.Degraded,
		Source:      o.Source,
		Cached:      cached,
		Cause:       o.Err,
	}, nil
}

// start launches the shared computation for an owned entry. It outlives the
// caller's cancellation and is cancelled only when every waiter detaches.
func (c *Coordinator) start(ctx context.Context, h *cache.Handle, g domain.Geometry) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
	h.OnAbandon(cancel)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.produce(pctx, h.Fingerprint(), g)
	}()
}

func (c *Coordinator) produce(ctx context.Context, fp domain.Fingerprint, g domain.Geometry) {
	start := time.Now()
	ctx, vertex := c.telemetry.Record(ctx, "render "+fp.Short())

	outcome := c.run(ctx, fp, g)
	if !outcome.HasMesh() && errors.Is(ctx.Err(), context.Canceled) {
		c.logger.Debug("render abandoned", "fingerprint", fp.String())
		c.cache.Abandon(fp)
		vertex.Complete(domain.ErrAbandoned)
		return
	}

	if err := c.cache.Complete(fp, outcome); err != nil {
		c.logger.Warn("render completion rejected", "fingerprint", fp.String(), "error", err)
	}

	status := domain.StatusOf(outcome, false)
	c.logger.Debug("render finished",
		"fingerprint", fp.String(),
		"status", string(status),
		"source", outcome.Source,
		"duration", time.Since(start),
	)
	if status == domain.RenderStatusDegraded {
		vertex.Log(domain.LogLevelWarn, "degraded mesh from "+outcome.Source+": "+outcome.Err.Error())
		vertex.Complete(nil)
		return
	}
	vertex.Complete(outcome.Err)
}

// run tries each executor, moving on only when one is unavailable, then the
// fallback chain.
func (c *Coordinator) run(ctx context.Context, fp domain.Fingerprint, g domain.Geometry) domain.Outcome {
	chain := &domain.ChainError{Fingerprint: fp}

	for _, ex := range c.executors {
		mesh, err := ex.Execute(ctx, g)
		if err == nil && mesh == nil {
			err = domain.NewRenderError(domain.KindDecode, ex.Name(), domain.ErrInvalidGeometry)
		}
		if err == nil {
			return domain.Outcome{Mesh: mesh, Source: ex.Name()}
		}

		kind := domain.KindOf(err)
		chain.Attempts = append(chain.Attempts, domain.Attempt{Executor: ex.Name(), Kind: kind, Err: err})
		c.logger.Debug("executor failed",
			"fingerprint", fp.String(),
			"executor", ex.Name(),
			"kind", kind.String(),
			"error", err,
		)
		if !kind.Retryable() || ctx.Err() != nil {
			break
		}
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return domain.Outcome{Err: chain}
	}
	return c.fallback(g, chain)
}

func (c *Coordinator) fallback(g domain.Geometry, chain *domain.ChainError) domain.Outcome {
	if !c.opts.FallbackEnabled {
		return domain.Outcome{Err: chain}
	}
	for _, p := range c.fallbacks {
		mesh, err := p.Produce(g)
		if err == nil && mesh == nil {
			err = domain.ErrInvalidGeometry
		}
		if err == nil {
			err = mesh.Validate()
		}
		if err == nil {
			return domain.Outcome{Mesh: mesh, Degraded: true, Source: p.Name(), Err: chain}
		}
		c.logger.Debug("fallback failed", "producer", p.Name(), "error", err)
		chain.Attempts = append(chain.Attempts, domain.Attempt{
			Executor: fallbackPrefix + p.Name(),
			Kind:     domain.KindOf(err),
			Err:      err,
		})
	}
	return domain.Outcome{Err: chain}
}

func (c *Coordinator) recordHit(ctx context.Context, fp domain.Fingerprint) {
	_, vertex := c.telemetry.Record(ctx, "render "+fp.Short())
	vertex.Cached()
	vertex.Complete(nil)
}

// Wait blocks until every computation started by this coordinator has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
