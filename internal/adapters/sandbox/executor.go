// Package sandbox renders geometry through a kernel running in a sandbox reached over
// a host channel.
package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Name identifies the sandbox executor in attempt chains.
const Name = "sandbox"

var _ ports.Executor = (*Executor)(nil)

// waiter is one outstanding request. resp has capacity one so delivery never blocks.
type waiter struct {
	id   string
	fp   domain.Fingerprint
	resp chan domain.RenderResponse
}

// Executor implements ports.Executor over a ports.Channel.
type Executor struct {
	channel       ports.Channel
	fingerprinter ports.Fingerprinter
	decoder       ports.MeshDecoder
	logger        ports.Logger

	mu      sync.Mutex
	waiters map[string]*waiter
	// byFingerprint lists waiter ids per fingerprint in send order, for hosts that
	// only echo the fingerprint.
	byFingerprint map[domain.Fingerprint][]string

	done      chan struct{}
	lost      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewExecutor creates a sandbox Executor and starts routing responses from channel.
func NewExecutor(
	channel ports.Channel,
	fingerprinter ports.Fingerprinter,
	decoder ports.MeshDecoder,
	logger ports.Logger,
) *Executor {
	e := &Executor{
		channel:       channel,
		fingerprinter: fingerprinter,
		decoder:       decoder,
		logger:        logger,
		waiters:       make(map[string]*waiter),
		byFingerprint: make(map[domain.Fingerprint][]string),
		done:          make(chan struct{}),
		lost:          make(chan struct{}),
	}
	e.wg.Add(1)
	go e.dispatch()
	return e
}

// Name implements ports.Executor.
func (e *Executor) Name() string { return Name }

// Execute sends the geometry to the sandbox and waits for the matching response.
func (e *Executor) Execute(ctx context.Context, g domain.Geometry) (*domain.Mesh, error) {
	if !e.channel.Connected() {
		return nil, e.fail(domain.KindUnavailable, zerr.Wrap(domain.ErrUnavailable, "host channel not connected"))
	}

	description, err := json.Marshal(g)
	if err != nil {
		return nil, e.fail(domain.KindUnavailable, zerr.Wrap(err, "failed to encode geometry description"))
	}

	w := &waiter{
		id:   uuid.NewString(),
		fp:   e.fingerprinter.Fingerprint(g),
		resp: make(chan domain.RenderResponse, 1),
	}
	e.register(w)
	defer e.remove(w.id)

	req := domain.RenderRequest{CorrelationID: w.id, Fingerprint: w.fp, Description: description}
	if err := e.channel.Send(ctx, req); err != nil {
		if ctx.Err() != nil {
			return nil, e.contextErr(ctx)
		}
		return nil, e.fail(domain.KindUnavailable,
			zerr.With(zerr.Wrap(errors.Join(domain.ErrUnavailable, err), "failed to send render request"), "correlation_id", w.id))
	}

	select {
	case resp := <-w.resp:
		return e.handle(w, resp)
	case <-ctx.Done():
		return nil, e.contextErr(ctx)
	case <-e.lost:
		return nil, e.fail(domain.KindUnavailable, zerr.Wrap(domain.ErrChannelClosed, "host channel closed while waiting"))
	case <-e.done:
		return nil, e.fail(domain.KindUnavailable, zerr.Wrap(domain.ErrChannelClosed, "sandbox executor closed"))
	}
}

func (e *Executor) handle(w *waiter, resp domain.RenderResponse) (*domain.Mesh, error) {
	if resp.Status != domain.StatusSuccess {
		err := zerr.Wrap(domain.ErrKernelRejected, "sandbox kernel reported failure")
		err = zerr.With(err, "correlation_id", w.id)
		err = zerr.With(err, "detail", resp.ErrorDetail)
		return nil, e.fail(domain.KindKernelRejected, err)
	}
	mesh, err := e.decoder.Decode(resp.Payload)
	if err != nil {
		return nil, e.fail(domain.KindDecode, zerr.With(err, "correlation_id", w.id))
	}
	return mesh, nil
}

func (e *Executor) contextErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return e.fail(domain.KindTimeout, zerr.Wrap(domain.ErrTimeout, "no sandbox response before deadline"))
	}
	return e.fail(domain.KindTimeout, zerr.Wrap(ctx.Err(), "render cancelled"))
}

func (e *Executor) fail(kind domain.ErrorKind, err error) error {
	return domain.NewRenderError(kind, Name, err)
}

// Pending returns the number of outstanding requests.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.waiters)
}

// Close stops routing responses. Outstanding requests fail as unavailable.
func (e *Executor) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
	})
	e.wg.Wait()
	return nil
}

func (e *Executor) register(w *waiter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.waiters[w.id] = w
	e.byFingerprint[w.fp] = append(e.byFingerprint[w.fp], w.id)
}

// remove drops a waiter. It is a no-op for ids already removed.
func (e *Executor) remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(id)
}

func (e *Executor) removeLocked(id string) {
	w, ok := e.waiters[id]
	if !ok {
		return
	}
	delete(e.waiters, id)
	ids := e.byFingerprint[w.fp]
	for i, other := range ids {
		if other == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(e.byFingerprint, w.fp)
	} else {
		e.byFingerprint[w.fp] = ids
	}
}

func (e *Executor) dispatch() {
	defer e.wg.Done()
	responses := e.channel.Responses()
	for {
		select {
		case <-e.done:
			return
		case resp, ok := <-responses:
			if !ok {
				close(e.lost)
				return
			}
			e.route(resp)
		}
	}
}

// route delivers resp to its waiter. Each waiter receives at most one response.
func (e *Executor) route(resp domain.RenderResponse) {
	e.mu.Lock()
	w := e.match(resp)
	if w != nil {
		e.removeLocked(w.id)
	}
	e.mu.Unlock()

	if w == nil {
		e.logger.Warn("dropping unmatched sandbox response",
			"correlation_id", resp.CorrelationID,
			"fingerprint", resp.Fingerprint.String(),
			"status", string(resp.Status))
		return
	}
	w.resp <- resp
}

func (e *Executor) match(resp domain.RenderResponse) *waiter {
	if resp.CorrelationID != "" {
		return e.waiters[resp.CorrelationID]
	}
	if !resp.Fingerprint.IsZero() {
		if ids := e.byFingerprint[resp.Fingerprint]; len(ids) > 0 {
			return e.waiters[ids[0]]
		}
		return nil
	}
	// Bare payloads are only attributable when exactly one request is outstanding.
	if len(e.waiters) == 1 {
		for _, w := range e.waiters {
			return w
		}
	}
	return nil
}
