package loader_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/core/ports/mocks"
	"go.trai.ch/skybox/internal/engine/cache"
	"go.trai.ch/skybox/internal/engine/loader"
	"go.trai.ch/skybox/internal/engine/stats"
	"go.uber.org/mock/gomock"
)

func faces(prefix string) []string {
	return []string{
		prefix + "/px.png", prefix + "/nx.png",
		prefix + "/py.png", prefix + "/ny.png",
		prefix + "/pz.png", prefix + "/nz.png",
	}
}

func newTable(t *testing.T, keys ...string) *domain.DefinitionTable {
	t.Helper()
	defs := make([]domain.ResourceDefinition, 0, len(keys))
	for i, k := range keys {
		defs = append(defs, domain.ResourceDefinition{Key: k, Locations: faces(k), Priority: i})
	}
	table, err := domain.NewDefinitionTable(defs...)
	require.NoError(t, err)
	return table
}

type fakeResource struct {
	disposed atomic.Int32
	tuned    []domain.Capabilities
}

func (r *fakeResource) Dispose() error {
	if r.disposed.Add(1) > 1 {
		return domain.ErrAlreadyDisposed
	}
	return nil
}

func (r *fakeResource) Tune(caps domain.Capabilities) {
	r.tuned = append(r.tuned, caps)
}

// gatedFetcher blocks every fetch until release is closed.
type gatedFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error

	mu        sync.Mutex
	resources []*fakeResource
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		started: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
}

func (f *gatedFetcher) FetchAndDecode(_ context.Context, _ []string) (domain.Resource, error) {
	f.calls.Add(1)
	f.started <- struct{}{}
	<-f.release
	if f.err != nil {
		return nil, f.err
	}
	res := &fakeResource{}
	f.mu.Lock()
	f.resources = append(f.resources, res)
	f.mu.Unlock()
	return res, nil
}

type immediateFetcher struct {
	calls atomic.Int32
}

func (f *immediateFetcher) FetchAndDecode(_ context.Context, _ []string) (domain.Resource, error) {
	f.calls.Add(1)
	return &fakeResource{}, nil
}

func newCoordinator(t *testing.T, fetcher interface {
	FetchAndDecode(context.Context, []string) (domain.Resource, error)
}, opts domain.Options,
) (*loader.Coordinator, *cache.Store) {
	t.Helper()
	store := cache.NewStore(opts.Normalize().Capacity, nil)
	c := loader.New(loader.Config{
		Table:   newTable(t, "level-1", "level-2", "level-3"),
		Store:   store,
		Fetcher: fetcher,
		Options: opts,
	})
	t.Cleanup(c.Dispose)
	return c, store
}

func TestCoordinator_DeduplicatesConcurrentRequests(t *testing.T) {
	fetcher := newGatedFetcher()
	c, store := newCoordinator(t, fetcher, domain.DefaultOptions())

	const callers = 20
	handles := make([]domain.Handle, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := range callers {
		go func() {
			defer wg.Done()
			handles[i], errs[i] = c.Request(context.Background(), "level-1")
		}()
	}

	<-fetcher.started
	close(fetcher.release)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, fetcher.resources[0], handles[i].Resource)
		assert.Equal(t, "level-1", handles[i].Key)
	}
	assert.Equal(t, []string{"level-1"}, store.Keys())
}

func TestCoordinator_FailureReachesEveryCaller(t *testing.T) {
	fetcher := newGatedFetcher()
	cause := errors.New("404 not found")
	fetcher.err = cause
	c, store := newCoordinator(t, fetcher, domain.DefaultOptions())

	const callers = 5
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := range callers {
		go func() {
			defer wg.Done()
			_, errs[i] = c.Request(context.Background(), "level-2")
		}()
	}

	<-fetcher.started
	close(fetcher.release)
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrFetchFailed)
		assert.ErrorIs(t, err, cause)
	}
	assert.Zero(t, store.Len())

	// Failures are not cached; the next request fetches again.
	_, err := c.Request(context.Background(), "level-2")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Greater(t, fetcher.calls.Load(), int32(1))
}

func TestCoordinator_NoneResolvesWithoutFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	sink := mocks.NewMockMetricsSink(ctrl)

	c := loader.New(loader.Config{
		Table:   newTable(t, "level-1"),
		Store:   cache.NewStore(3, nil),
		Fetcher: fetcher,
		Sink:    sink,
		Options: domain.DefaultOptions(),
	})

	h, err := c.Request(context.Background(), domain.NoneKey)
	require.NoError(t, err)
	assert.True(t, h.IsEmpty())
	assert.Equal(t, domain.NoneKey, h.Key)
}

func TestCoordinator_UnknownKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := loader.New(loader.Config{
		Table:   newTable(t, "level-1"),
		Store:   cache.NewStore(3, nil),
		Fetcher: mocks.NewMockFetcher(ctrl),
		Options: domain.DefaultOptions(),
	})

	_, err := c.Request(context.Background(), "level-9")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}

func TestCoordinator_MetricsForegroundAndPrefetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	sink := mocks.NewMockMetricsSink(ctrl)

	c := loader.New(loader.Config{
		Table:   newTable(t, "level-1", "level-2"),
		Store:   cache.NewStore(3, nil),
		Fetcher: fetcher,
		Sink:    sink,
		Options: domain.DefaultOptions(),
	})

	fetcher.EXPECT().FetchAndDecode(gomock.Any(), faces("level-1")).Return(&fakeResource{}, nil)
	fetcher.EXPECT().FetchAndDecode(gomock.Any(), faces("level-2")).Return(&fakeResource{}, nil)

	gomock.InOrder(
		sink.EXPECT().CacheMiss("level-1"),
		sink.EXPECT().LoadStarted("level-1"),
		sink.EXPECT().LoadFinished("level-1", gomock.Any(), nil),
		sink.EXPECT().CacheHit("level-1"),
		sink.EXPECT().LoadStarted("level-2"),
		sink.EXPECT().LoadFinished("level-2", gomock.Any(), nil),
	)

	_, err := c.Request(context.Background(), "level-1")
	require.NoError(t, err)
	_, err = c.Request(context.Background(), "level-1")
	require.NoError(t, err)

	// Prefetches never report hits or misses.
	_, err = c.Prefetch(context.Background(), "level-2")
	require.NoError(t, err)
	_, err = c.Prefetch(context.Background(), "level-2")
	require.NoError(t, err)
}

func TestCoordinator_AbandonedCallerStillPopulatesCache(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fetcher := newGatedFetcher()
		c, store := newCoordinator(t, fetcher, domain.DefaultOptions())

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() {
			_, err := c.Request(ctx, "level-1")
			errc <- err
		}()

		<-fetcher.started
		cancel()
		assert.ErrorIs(t, <-errc, context.Canceled)
		assert.False(t, c.Busy())

		close(fetcher.release)
		synctest.Wait()

		assert.True(t, store.Contains("level-1"))

		h, err := c.Request(context.Background(), "level-1")
		require.NoError(t, err)
		assert.Same(t, fetcher.resources[0], h.Resource)
		assert.Equal(t, int32(1), fetcher.calls.Load())
	})
}

func TestCoordinator_DisposeWakesJoinedCallers(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fetcher := newGatedFetcher()
		store := cache.NewStore(3, nil)
		c := loader.New(loader.Config{
			Table:   newTable(t, "level-1"),
			Store:   store,
			Fetcher: fetcher,
			Options: domain.DefaultOptions(),
		})

		errc := make(chan error, 2)
		for range 2 {
			go func() {
				_, err := c.Request(context.Background(), "level-1")
				errc <- err
			}()
		}

		<-fetcher.started
		synctest.Wait()

		c.Dispose()
		c.Dispose()
		assert.ErrorIs(t, <-errc, domain.ErrDisposed)
		assert.ErrorIs(t, <-errc, domain.ErrDisposed)

		// The late result is disposed instead of cached.
		close(fetcher.release)
		synctest.Wait()

		require.Len(t, fetcher.resources, 1)
		assert.Equal(t, int32(1), fetcher.resources[0].disposed.Load())
		assert.Zero(t, store.Len())

		_, err := c.Request(context.Background(), "level-1")
		assert.ErrorIs(t, err, domain.ErrDisposed)
		assert.ErrorIs(t, c.WaitIdle(context.Background()), domain.ErrDisposed)
	})
}

// ctxFetcher blocks until its context ends and reports why.
type ctxFetcher struct {
	started chan struct{}
}

func (f *ctxFetcher) FetchAndDecode(ctx context.Context, _ []string) (domain.Resource, error) {
	f.started <- struct{}{}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCoordinator_DisposeDuringFetchIsNotAFetchFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		// The fetch result and the disposal signal arrive together; whichever
		// the caller observes, it must see ErrDisposed.
		for range 20 {
			fetcher := &ctxFetcher{started: make(chan struct{}, 1)}
			c := loader.New(loader.Config{
				Table:   newTable(t, "level-1"),
				Store:   cache.NewStore(3, nil),
				Fetcher: fetcher,
				Options: domain.DefaultOptions(),
			})

			errc := make(chan error, 1)
			go func() {
				_, err := c.Request(context.Background(), "level-1")
				errc <- err
			}()

			<-fetcher.started
			synctest.Wait()
			c.Dispose()

			err := <-errc
			require.ErrorIs(t, err, domain.ErrDisposed)
			assert.NotErrorIs(t, err, domain.ErrFetchFailed)
		}
	})
}

func TestCoordinator_WaitIdle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fetcher := newGatedFetcher()
		c, _ := newCoordinator(t, fetcher, domain.DefaultOptions())

		require.NoError(t, c.WaitIdle(context.Background()))

		go func() {
			_, _ = c.Request(context.Background(), "level-1")
		}()
		<-fetcher.started
		assert.True(t, c.Busy())

		idle := make(chan struct{})
		go func() {
			_ = c.WaitIdle(context.Background())
			close(idle)
		}()

		synctest.Wait()
		select {
		case <-idle:
			t.Fatal("WaitIdle returned while a request was in flight")
		default:
		}

		close(fetcher.release)
		<-idle
		assert.False(t, c.Busy())
	})
}

func TestCoordinator_PrefetchIsNotForeground(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fetcher := newGatedFetcher()
		c, _ := newCoordinator(t, fetcher, domain.DefaultOptions())

		go func() {
			_, _ = c.Prefetch(context.Background(), "level-1")
		}()
		<-fetcher.started

		assert.False(t, c.Busy())
		require.NoError(t, c.WaitIdle(context.Background()))

		close(fetcher.release)
		synctest.Wait()
	})
}

func TestCoordinator_WaitIdleHonoursContext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fetcher := newGatedFetcher()
		c, _ := newCoordinator(t, fetcher, domain.DefaultOptions())

		go func() {
			_, _ = c.Request(context.Background(), "level-1")
		}()
		<-fetcher.started

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.ErrorIs(t, c.WaitIdle(ctx), context.DeadlineExceeded)

		close(fetcher.release)
		synctest.Wait()
	})
}

func TestCoordinator_CacheDisabledFetchesEveryTime(t *testing.T) {
	fetcher := &immediateFetcher{}
	opts := domain.DefaultOptions()
	opts.EnableCache = false
	c, store := newCoordinator(t, fetcher, opts)

	first, err := c.Request(context.Background(), "level-1")
	require.NoError(t, err)
	second, err := c.Request(context.Background(), "level-1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), fetcher.calls.Load())
	assert.NotSame(t, first.Resource, second.Resource)
	assert.Zero(t, store.Len())

	c.SetCacheEnabled(true)
	_, err = c.Request(context.Background(), "level-1")
	require.NoError(t, err)
	assert.True(t, store.Contains("level-1"))
}

func TestCoordinator_TunesWithCapabilities(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	caps := mocks.NewMockCapabilityProvider(ctrl)

	res := &fakeResource{}
	fetcher.EXPECT().FetchAndDecode(gomock.Any(), gomock.Any()).Return(res, nil)
	caps.EXPECT().Describe(gomock.Any()).Return(domain.Capabilities{MaxTextureSize: 1024, MaxAnisotropy: 8}, nil)

	c := loader.New(loader.Config{
		Table:        newTable(t, "level-1"),
		Store:        cache.NewStore(3, nil),
		Fetcher:      fetcher,
		Capabilities: caps,
		Options:      domain.DefaultOptions(),
	})

	_, err := c.Request(context.Background(), "level-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Capabilities{{MaxTextureSize: 1024, MaxAnisotropy: 8}}, res.tuned)
}

func TestCoordinator_CapabilityFailureFallsBackToDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	caps := mocks.NewMockCapabilityProvider(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	res := &fakeResource{}
	fetcher.EXPECT().FetchAndDecode(gomock.Any(), gomock.Any()).Return(res, nil)
	caps.EXPECT().Describe(gomock.Any()).Return(domain.Capabilities{}, errors.New("context lost"))
	logger.EXPECT().Warn(gomock.Any())

	c := loader.New(loader.Config{
		Table:        newTable(t, "level-1"),
		Store:        cache.NewStore(3, nil),
		Fetcher:      fetcher,
		Capabilities: caps,
		Logger:       logger,
		Sink:         stats.NewTracker(),
		Options:      domain.DefaultOptions(),
	})

	_, err := c.Request(context.Background(), "level-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Capabilities{domain.DefaultCapabilities()}, res.tuned)
}
