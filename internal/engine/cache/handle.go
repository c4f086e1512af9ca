package cache

import (
	"context"

	"go.trai.ch/lathe/internal/core/domain"
)

// Handle is one caller's attachment to a cache entry.
type Handle struct {
	cache    *Cache
	entry    *entry
	owner    bool
	hit      bool
	detached bool // guarded by cache.mu
}

// Owner reports whether this handle created the entry and must produce its outcome.
func (h *Handle) Owner() bool { return h.owner }

// Hit reports whether the entry was already terminal when the handle was issued.
func (h *Handle) Hit() bool { return h.hit }

// Fingerprint returns the entry's fingerprint.
func (h *Handle) Fingerprint() domain.Fingerprint { return h.entry.fp }

// State returns the entry state.
func (h *Handle) State() State {
	h.cache.mu.Lock()
	defer h.cache.mu.Unlock()
	return h.entry.state
}

// Wait blocks until the entry is terminal or ctx is done. On ctx expiry the handle
// detaches; the computation continues for other waiters.
func (h *Handle) Wait(ctx context.Context) (domain.Outcome, error) {
	select {
	case <-h.entry.done:
		return h.result()
	default:
	}

	select {
	case <-h.entry.done:
		return h.result()
	case <-ctx.Done():
		h.Detach()
		return domain.Outcome{}, ctx.Err()
	}
}

func (h *Handle) result() (domain.Outcome, error) {
	switch {
	case h.entry.closed:
		return domain.Outcome{}, domain.ErrCacheClosed
	case h.entry.abandoned:
		return domain.Outcome{}, domain.ErrAbandoned
	default:
		return h.entry.outcome, nil
	}
}

// OnAbandon registers the function that cancels the computation once every waiter
// has detached. It runs immediately if that already happened.
func (h *Handle) OnAbandon(cancel context.CancelFunc) {
	h.cache.mu.Lock()
	e := h.entry
	if e.state != StatePending || e.abandoned || e.closed {
		h.cache.mu.Unlock()
		return
	}
	if e.waiters > 0 {
		e.cancel = cancel
		h.cache.mu.Unlock()
		return
	}
	h.cache.mu.Unlock()
	cancel()
}

// Detach removes this handle from the entry's waiters. When the last waiter of a
// pending entry detaches, the registered cancel function runs.
func (h *Handle) Detach() {
	h.cache.mu.Lock()
	if h.detached {
		h.cache.mu.Unlock()
		return
	}
	h.detached = true
	e := h.entry
	if e.state != StatePending || e.abandoned || e.closed {
		h.cache.mu.Unlock()
		return
	}
	e.waiters--
	var cancel context.CancelFunc
	if e.waiters == 0 {
		cancel = e.cancel
	}
	h.cache.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
