package coordinator_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"math"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/core/ports/mocks"
	"go.trai.ch/lathe/internal/engine/cache"
	"go.trai.ch/lathe/internal/engine/coordinator"
	"go.uber.org/mock/gomock"
)

type harness struct {
	ctrl      *gomock.Controller
	cache     *cache.Cache
	logger    *mocks.MockLogger
	telemetry *mocks.MockTelemetry
	vertex    *mocks.MockVertex
	hasher    *mocks.MockFingerprinter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	h := &harness{
		ctrl:      ctrl,
		cache:     cache.New(cache.Options{MaxEntries: 16, NegativeTTL: time.Minute}),
		logger:    mocks.NewMockLogger(ctrl),
		telemetry: mocks.NewMockTelemetry(ctrl),
		vertex:    mocks.NewMockVertex(ctrl),
		hasher:    mocks.NewMockFingerprinter(ctrl),
	}
	h.logger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	h.telemetry.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
			return ctx, h.vertex
		}).AnyTimes()
	h.vertex.EXPECT().Complete(gomock.Any()).AnyTimes()
	h.vertex.EXPECT().Log(gomock.Any(), gomock.Any()).AnyTimes()
	h.hasher.EXPECT().Fingerprint(gomock.Any()).DoAndReturn(func(g domain.Geometry) domain.Fingerprint {
		return domain.Fingerprint(sha256.Sum256([]byte(g.Source())))
	}).AnyTimes()
	return h
}

func (h *harness) coordinator(
	opts coordinator.Options,
	executors []ports.Executor,
	fallbacks ...ports.FallbackProducer,
) *coordinator.Coordinator {
	return coordinator.New(opts, h.cache, h.hasher, executors, fallbacks, h.logger, h.telemetry)
}

func (h *harness) executor(name string) *mocks.MockExecutor {
	e := mocks.NewMockExecutor(h.ctrl)
	e.EXPECT().Name().Return(name).AnyTimes()
	return e
}

func (h *harness) placeholder() *mocks.MockFallbackProducer {
	p := mocks.NewMockFallbackProducer(h.ctrl)
	p.EXPECT().Name().Return("placeholder").AnyTimes()
	p.EXPECT().Produce(gomock.Any()).Return(meshOf(8), nil).AnyTimes()
	return p
}

func meshOf(n int) *domain.Mesh {
	m := &domain.Mesh{Triangles: make([]domain.Triangle, n)}
	for i := range m.Triangles {
		m.Triangles[i].Vertices = [3]domain.Vec3{{0, 0, float32(i)}, {1, 0, 0}, {0, 1, 0}}
	}
	return m
}

func unavailable(name string) error {
	return domain.NewRenderError(domain.KindUnavailable, name, domain.ErrUnavailable)
}

func waitForCancel(name string) func(context.Context, domain.Geometry) (*domain.Mesh, error) {
	return func(ctx context.Context, _ domain.Geometry) (*domain.Mesh, error) {
		<-ctx.Done()
		return nil, domain.NewRenderError(domain.KindTimeout, name, errors.Join(domain.ErrTimeout, ctx.Err()))
	}
}

var opts = coordinator.Options{Timeout: 5 * time.Second, FallbackEnabled: true}

func TestRender_CubeIsCached(t *testing.T) {
	h := newHarness(t)
	native := h.executor("native")
	native.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(meshOf(12), nil).Times(1)
	h.vertex.EXPECT().Cached().Times(1)

	c := h.coordinator(opts, []ports.Executor{native})
	g := domain.MustGeometry("cube(10);", nil)

	first, err := c.Render(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, 12, first.Mesh.Len())
	assert.Equal(t, "native", first.Source)
	assert.False(t, first.Cached)
	assert.False(t, first.Degraded)
	assert.Equal(t, domain.RenderStatusRendered, first.Status())

	second, err := c.Render(context.Background(), g)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Same(t, first.Mesh, second.Mesh)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, domain.RenderStatusCached, second.Status())
	c.Wait()
}

func TestRender_TruncatedOutputDegrades(t *testing.T) {
	h := newHarness(t)
	native := h.executor("native")
	sandbox := h.executor("sandbox")
	native.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil,
		domain.NewRenderError(domain.KindDecode, "native", domain.ErrTruncatedInput)).Times(1)
	h.vertex.EXPECT().Cached().Times(1)

	c := h.coordinator(opts, []ports.Executor{native, sandbox}, h.placeholder())
	g := domain.MustGeometry("broken();", nil)

	res, err := c.Render(context.Background(), g)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, "placeholder", res.Source)
	assert.Equal(t, 8, res.Mesh.Len())
	assert.ErrorIs(t, res.Cause, domain.ErrTruncatedInput)
	assert.Equal(t, domain.RenderStatusDegraded, res.Status())

	var chain *domain.ChainError
	require.ErrorAs(t, res.Cause, &chain)
	require.Len(t, chain.Attempts, 1, "decode errors must not move to the next executor")
	assert.Equal(t, domain.KindDecode, chain.Attempts[0].Kind)

	// Known-bad renders are served from the negative cache.
	again, err := c.Render(context.Background(), g)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.True(t, again.Degraded)
	c.Wait()
}

func TestRender_FallbackGuarantee(t *testing.T) {
	h := newHarness(t)
	sandbox := h.executor("sandbox")
	native := h.executor("native")
	gomock.InOrder(
		sandbox.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, unavailable("sandbox")),
		native.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, unavailable("native")),
	)

	c := h.coordinator(opts, coordinator.Order(true, native, sandbox), h.placeholder())

	res, err := c.Render(context.Background(), domain.MustGeometry("sphere(2);", nil))
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.NotNil(t, res.Mesh)

	var chain *domain.ChainError
	require.ErrorAs(t, res.Cause, &chain)
	require.Len(t, chain.Attempts, 2)
	assert.Equal(t, "sandbox", chain.Attempts[0].Executor)
	assert.Equal(t, "native", chain.Attempts[1].Executor)
	assert.ErrorIs(t, res.Cause, domain.ErrUnavailable)
	c.Wait()
}

func TestRender_RejectionIsTerminalForChain(t *testing.T) {
	h := newHarness(t)
	native := h.executor("native")
	sandbox := h.executor("sandbox")
	native.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil,
		domain.NewRenderError(domain.KindKernelRejected, "native", errors.New("syntax error, line 1")))
	sandbox.EXPECT().Execute(gomock.Any(), gomock.Any()).Times(0)

	c := h.coordinator(coordinator.Options{Timeout: time.Second}, []ports.Executor{native, sandbox})

	res, err := c.Render(context.Background(), domain.MustGeometry("cube(", nil))
	require.Error(t, err)
	assert.Nil(t, res)

	var chain *domain.ChainError
	require.ErrorAs(t, err, &chain)
	require.Len(t, chain.Attempts, 1)
	assert.Equal(t, domain.KindKernelRejected, chain.Attempts[0].Kind)
	assert.Contains(t, err.Error(), "native kernel rejected")
	assert.Contains(t, err.Error(), "syntax error")
	c.Wait()
}

func TestRender_NoExecutors(t *testing.T) {
	h := newHarness(t)
	c := h.coordinator(coordinator.Options{Timeout: time.Second}, nil)

	_, err := c.Render(context.Background(), domain.MustGeometry("cube(1);", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrNoExecutors.Error())
	c.Wait()
}

func TestRender_FailingFallbackIsRecorded(t *testing.T) {
	h := newHarness(t)
	native := h.executor("native")
	native.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, unavailable("native"))
	broken := mocks.NewMockFallbackProducer(h.ctrl)
	broken.EXPECT().Name().Return("bbox").AnyTimes()
	broken.EXPECT().Produce(gomock.Any()).Return(nil, errors.New("no bounds"))

	c := h.coordinator(opts, []ports.Executor{native}, broken, h.placeholder())

	res, err := c.Render(context.Background(), domain.MustGeometry("cube(1);", nil))
	require.NoError(t, err)
	assert.Equal(t, "placeholder", res.Source)

	var chain *domain.ChainError
	require.ErrorAs(t, res.Cause, &chain)
	require.Len(t, chain.Attempts, 2)
	assert.Equal(t, "fallback:bbox", chain.Attempts[1].Executor)
	c.Wait()
}

func TestRender_NonFiniteFallbackMeshIsSkipped(t *testing.T) {
	h := newHarness(t)
	native := h.executor("native")
	native.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, unavailable("native"))
	inf := float32(math.Inf(1))
	broken := mocks.NewMockFallbackProducer(h.ctrl)
	broken.EXPECT().Name().Return("bbox").AnyTimes()
	broken.EXPECT().Produce(gomock.Any()).Return(&domain.Mesh{Triangles: []domain.Triangle{
		{Vertices: [3]domain.Vec3{{0, 0, 0}, {inf, 0, 0}, {0, inf, 0}}},
	}}, nil)

	c := h.coordinator(opts, []ports.Executor{native}, broken, h.placeholder())

	res, err := c.Render(context.Background(), domain.MustGeometry("cube(1e40);", nil))
	require.NoError(t, err)
	assert.Equal(t, "placeholder", res.Source)
	require.NoError(t, res.Mesh.Validate())

	var chain *domain.ChainError
	require.ErrorAs(t, res.Cause, &chain)
	require.Len(t, chain.Attempts, 2)
	assert.Equal(t, "fallback:bbox", chain.Attempts[1].Executor)
	assert.Equal(t, domain.KindDecode, chain.Attempts[1].Kind)
	assert.ErrorIs(t, chain.Attempts[1].Err, domain.ErrInvalidGeometry)
	c.Wait()
}

func TestRender_Coalescing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		native := h.executor("native")
		native.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, domain.Geometry) (*domain.Mesh, error) {
				time.Sleep(2 * time.Second)
				return meshOf(12), nil
			}).Times(1)

		c := h.coordinator(opts, []ports.Executor{native})
		g := domain.MustGeometry("cube(10);", map[string]domain.Param{"size": domain.Number(10)})

		const callers = 10
		var wg sync.WaitGroup
		meshes := make(chan *domain.Mesh, callers)
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := c.Render(context.Background(), g)
				if assert.NoError(t, err) {
					meshes <- res.Mesh
				}
			}()
		}
		wg.Wait()
		close(meshes)

		var first *domain.Mesh
		for m := range meshes {
			if first == nil {
				first = m
			}
			assert.Same(t, first, m)
		}
		assert.Equal(t, uint64(callers-1), h.cache.Stats().Coalesced)
		c.Wait()
	})
}

func TestRender_CallerCancelDetachesOnlyCaller(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		native := h.executor("native")
		native.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ domain.Geometry) (*domain.Mesh, error) {
				time.Sleep(3 * time.Second)
				if err := ctx.Err(); err != nil {
					return nil, domain.NewRenderError(domain.KindTimeout, "native", err)
				}
				return meshOf(12), nil
			}).Times(1)

		c := h.coordinator(opts, []ports.Executor{native})
		g := domain.MustGeometry("cube(10);", nil)

		ctxA, cancelA := context.WithCancel(context.Background())
		errA := make(chan error, 1)
		go func() {
			_, err := c.Render(ctxA, g)
			errA <- err
		}()
		synctest.Wait()

		resB := make(chan *coordinator.Result, 1)
		go func() {
			res, err := c.Render(context.Background(), g)
			assert.NoError(t, err)
			resB <- res
		}()
		synctest.Wait()

		time.Sleep(time.Second)
		cancelA()
		require.ErrorIs(t, <-errA, context.Canceled)

		res := <-resB
		require.NotNil(t, res)
		assert.Equal(t, 12, res.Mesh.Len())
		assert.False(t, res.Degraded)
		c.Wait()
	})
}

func TestRender_AbandonedWhenEveryCallerLeaves(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		native := h.executor("native")
		gomock.InOrder(
			native.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(waitForCancel("native")),
			native.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(meshOf(12), nil),
		)

		c := h.coordinator(opts, []ports.Executor{native}, h.placeholder())
		g := domain.MustGeometry("cube(10);", nil)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(time.Second)
			cancel()
		}()
		_, err := c.Render(ctx, g)
		require.ErrorIs(t, err, context.Canceled)

		c.Wait()
		assert.Equal(t, 0, h.cache.Len(), "abandoned renders are not cached")

		res, err := c.Render(context.Background(), g)
		require.NoError(t, err)
		assert.False(t, res.Degraded)
		c.Wait()
	})
}

func TestRender_TimeoutRunsFallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		native := h.executor("native")
		native.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(waitForCancel("native"))

		c := h.coordinator(opts, []ports.Executor{native}, h.placeholder())

		start := time.Now()
		res, err := c.Render(context.Background(), domain.MustGeometry("slow();", nil))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, time.Since(start))
		assert.True(t, res.Degraded)
		assert.ErrorIs(t, res.Cause, domain.ErrTimeout)
		c.Wait()
	})
}

func TestRender_HungExecutorBoundedByGrace(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		native := h.executor("native")
		native.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, domain.Geometry) (*domain.Mesh, error) {
				time.Sleep(time.Minute)
				return meshOf(12), nil
			})

		c := h.coordinator(opts, []ports.Executor{native})

		start := time.Now()
		_, err := c.Render(context.Background(), domain.MustGeometry("hang();", nil))
		require.Error(t, err)
		assert.Equal(t, 5*time.Second+coordinator.DefaultCompletionGrace, time.Since(start))

		var chain *domain.ChainError
		require.ErrorAs(t, err, &chain)
		assert.ErrorIs(t, err, domain.ErrTimeout)
		c.Wait()
	})
}

func TestOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	native := mocks.NewMockExecutor(ctrl)
	sandbox := mocks.NewMockExecutor(ctrl)

	tests := []struct {
		name          string
		preferSandbox bool
		native        ports.Executor
		sandbox       ports.Executor
		want          []ports.Executor
	}{
		{name: "native first", native: native, sandbox: sandbox, want: []ports.Executor{native, sandbox}},
		{name: "sandbox first", preferSandbox: true, native: native, sandbox: sandbox, want: []ports.Executor{sandbox, native}},
		{name: "no sandbox", preferSandbox: true, native: native, want: []ports.Executor{native}},
		{name: "none", want: []ports.Executor{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coordinator.Order(tt.preferSandbox, tt.native, tt.sandbox))
		})
	}
}
