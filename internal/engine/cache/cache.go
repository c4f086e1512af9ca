// Package cache implements the render cache: at most one producer per fingerprint,
// waiters coalesced onto pending computations, negative caching of failures and LRU
// eviction of terminal entries.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

// State is the lifecycle state of a cache entry.
type State uint8

const (
	// StatePending means a producer owns the computation and waiters may attach.
	StatePending State = iota
	// StateReady means a real mesh was produced.
	StateReady
	// StateFailed means every executor failed. The outcome may carry a degraded mesh.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures a Cache.
type Options struct {
	// MaxEntries bounds retained terminal entries. Zero retains none.
	MaxEntries int
	// NegativeTTL is how long Failed entries are served before recomputation.
	NegativeTTL time.Duration
	Logger      ports.Logger
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Coalesced uint64
	Evictions uint64
}

type entry struct {
	fp      domain.Fingerprint
	state   State
	outcome domain.Outcome
	done    chan struct{}

	// Set before done is closed when the entry ends without an outcome.
	abandoned bool
	closed    bool

	waiters    int
	cancel     context.CancelFunc
	lastAccess time.Time
	elem       *list.Element
}

// Cache maps fingerprints to pending or terminal render outcomes.
// All state is guarded by a single mutex.
type Cache struct {
	opts Options

	mu      sync.Mutex
	entries map[domain.Fingerprint]*entry
	lru     *list.List // terminal entries, most recently used at the front
	stats   Stats
	closed  bool
}

// New creates an empty Cache.
func New(opts Options) *Cache {
	return &Cache{
		opts:    opts,
		entries: make(map[domain.Fingerprint]*entry),
		lru:     list.New(),
	}
}

// GetOrCreate returns a handle on the entry for fp.
//
// A terminal entry is returned as is. A pending entry gains a waiter. A missing or
// expired failed entry is replaced by a new pending entry whose handle is the owner:
// the caller must eventually Complete or Abandon it.
func (c *Cache) GetOrCreate(fp domain.Fingerprint) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, domain.ErrCacheClosed
	}

	now := time.Now()
	if e, ok := c.entries[fp]; ok {
		if e.state == StateFailed && c.expired(e, now) {
			c.removeLocked(e)
			c.stats.Evictions++
		} else {
			if e.state == StatePending {
				e.waiters++
				c.stats.Coalesced++
			} else {
				e.lastAccess = now
				c.lru.MoveToFront(e.elem)
				c.stats.Hits++
			}
			return &Handle{cache: c, entry: e, hit: e.state != StatePending}, nil
		}
	}

	e := &entry{
		fp:         fp,
		state:      StatePending,
		done:       make(chan struct{}),
		waiters:    1,
		lastAccess: now,
	}
	c.entries[fp] = e
	c.stats.Misses++
	return &Handle{cache: c, entry: e, owner: true}, nil
}

// Complete stores the terminal outcome for a pending fingerprint and wakes its waiters.
// Outcomes with an error become Failed entries. Completing a terminal entry leaves it
// untouched and returns ErrDoubleComplete.
func (c *Cache) Complete(fp domain.Fingerprint, outcome domain.Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrCacheClosed
	}
	e, ok := c.entries[fp]
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrUnknownFingerprint, "complete"), "fingerprint", fp.String())
	}
	if e.state != StatePending {
		c.logAnomaly(e, outcome)
		return zerr.With(zerr.Wrap(domain.ErrDoubleComplete, "complete"), "fingerprint", fp.String())
	}

	now := time.Now()
	if outcome.ProducedAt.IsZero() {
		outcome.ProducedAt = now
	}
	e.outcome = outcome
	e.state = StateReady
	if outcome.Err != nil {
		e.state = StateFailed
	}
	e.lastAccess = now
	e.cancel = nil
	e.elem = c.lru.PushFront(e)
	close(e.done)

	c.evictLocked(now)
	return nil
}

func (c *Cache) logAnomaly(e *entry, outcome domain.Outcome) {
	if c.opts.Logger == nil {
		return
	}
	args := []any{"fingerprint", e.fp.String(), "state", e.state.String()}
	if e.outcome.Mesh != nil && outcome.Mesh != nil {
		args = append(args, "checksum_match", e.outcome.Mesh.Checksum() == outcome.Mesh.Checksum())
	}
	c.opts.Logger.Warn("discarding duplicate render completion", args...)
}

// Abandon drops a pending entry whose computation was cancelled. Waiters that
// attached after the cancellation observe ErrAbandoned.
func (c *Cache) Abandon(fp domain.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fp]
	if !ok || e.state != StatePending {
		return
	}
	e.abandoned = true
	delete(c.entries, fp)
	close(e.done)
}

// Evict removes expired Failed entries, then least recently used terminal entries
// beyond MaxEntries. Pending entries are never evicted. It returns the number removed.
func (c *Cache) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictLocked(time.Now())
}

func (c *Cache) evictLocked(now time.Time) int {
	removed := 0
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if e := el.Value.(*entry); e.state == StateFailed && c.expired(e, now) {
			c.removeLocked(e)
			removed++
		}
		el = prev
	}
	for c.lru.Len() > max(c.opts.MaxEntries, 0) {
		c.removeLocked(c.lru.Back().Value.(*entry))
		removed++
	}
	c.stats.Evictions += uint64(removed)
	return removed
}

func (c *Cache) expired(e *entry, now time.Time) bool {
	return now.Sub(e.outcome.ProducedAt) >= c.opts.NegativeTTL
}

// removeLocked drops a terminal entry.
func (c *Cache) removeLocked(e *entry) {
	if e.elem != nil {
		c.lru.Remove(e.elem)
		e.elem = nil
	}
	if c.entries[e.fp] == e {
		delete(c.entries, e.fp)
	}
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of entries, pending included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close wakes every waiter with ErrCacheClosed and cancels in-flight computations.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var cancels []context.CancelFunc
	for _, e := range c.entries {
		if e.state != StatePending {
			continue
		}
		e.closed = true
		close(e.done)
		if e.cancel != nil {
			cancels = append(cancels, e.cancel)
		}
	}
	c.entries = make(map[domain.Fingerprint]*entry)
	c.lru.Init()
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
