// Package loader deduplicates concurrent fetches of the same resource and
// feeds the results into the cache.
package loader

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/core/ports"
	"go.trai.ch/skybox/internal/engine/cache"
	"go.trai.ch/skybox/internal/engine/stats"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Coordinator resolves resource keys to decoded handles.
//
// At most one fetch per key is outstanding at any time; concurrent callers for
// the same key join it. Fetches run on a context owned by the coordinator, so a
// caller that stops waiting does not abort the fetch.
type Coordinator struct {
	table   *domain.DefinitionTable
	store   *cache.Store
	fetcher ports.Fetcher
	caps    ports.CapabilityProvider
	sink    ports.MetricsSink
	logger  ports.Logger

	requestGroup singleflight.Group

	ctx      context.Context
	cancel   context.CancelFunc
	disposed chan struct{}

	mu           sync.Mutex
	closed       bool
	cacheEnabled bool
	fetchTimeout time.Duration
	foreground   int
	idle         chan struct{}
}

// Config holds the collaborators of a Coordinator. Capabilities, Sink and
// Logger may be nil.
type Config struct {
	Table        *domain.DefinitionTable
	Store        *cache.Store
	Fetcher      ports.Fetcher
	Capabilities ports.CapabilityProvider
	Sink         ports.MetricsSink
	Logger       ports.Logger
	Options      domain.Options
}

// New creates a Coordinator.
func New(cfg Config) *Coordinator {
	opts := cfg.Options.Normalize()
	ctx, cancel := context.WithCancel(context.Background())

	sink := cfg.Sink
	if sink == nil {
		sink = stats.Nop{}
	}

	idle := make(chan struct{})
	close(idle)

	return &Coordinator{
		table:        cfg.Table,
		store:        cfg.Store,
		fetcher:      cfg.Fetcher,
		caps:         cfg.Capabilities,
		sink:         sink,
		logger:       cfg.Logger,
		ctx:          ctx,
		cancel:       cancel,
		disposed:     make(chan struct{}),
		cacheEnabled: opts.EnableCache,
		fetchTimeout: opts.FetchTimeout,
		idle:         idle,
	}
}

// Request returns the handle for key, fetching it if it is not cached.
// The "none" key resolves to the empty handle without any I/O.
// ctx bounds only the wait; the fetch itself keeps running and populates the
// cache for later callers.
func (c *Coordinator) Request(ctx context.Context, key string) (domain.Handle, error) {
	return c.request(ctx, key, true)
}

// Prefetch is Request for background warming. It does not count towards the
// hit rate and does not keep the coordinator busy for WaitIdle.
func (c *Coordinator) Prefetch(ctx context.Context, key string) (domain.Handle, error) {
	return c.request(ctx, key, false)
}

func (c *Coordinator) request(ctx context.Context, key string, foreground bool) (domain.Handle, error) {
	if c.isDisposed() {
		return domain.Handle{}, domain.ErrDisposed
	}
	if key == domain.NoneKey {
		return domain.EmptyHandle(), nil
	}

	def, ok := c.table.Lookup(key)
	if !ok {
		return domain.Handle{}, domain.NewDefinitionNotFoundError(key)
	}

	if c.CacheEnabled() {
		if h, ok := c.cached(key); ok {
			if foreground {
				c.sink.CacheHit(key)
			}
			return h, nil
		}
	}

	if foreground {
		c.sink.CacheMiss(key)
		c.enter()
		defer c.leave()
	}

	ch := c.requestGroup.DoChan(key, func() (any, error) {
		return c.load(key, def.Locations)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.Handle{}, res.Err
		}
		return res.Val.(domain.Handle), nil
	case <-c.disposed:
		return domain.Handle{}, domain.ErrDisposed
	case <-ctx.Done():
		return domain.Handle{}, ctx.Err()
	}
}

// cached looks key up in the store. The current key is returned without
// refreshing its recency since it is protected anyway.
func (c *Coordinator) cached(key string) (domain.Handle, bool) {
	if key == c.store.Current() {
		if h, ok := c.store.Peek(key); ok {
			return h, true
		}
	}
	return c.store.Get(key)
}

// load runs inside the single flight for key.
func (c *Coordinator) load(key string, locations []string) (any, error) {
	// A previous flight may have settled between the cache check and joining.
	if c.CacheEnabled() {
		if h, ok := c.store.Peek(key); ok {
			return h, nil
		}
	}

	// Dispose may have run between the caller's check and joining the flight.
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return domain.Handle{}, domain.ErrDisposed
	}

	c.sink.LoadStarted(key)
	start := time.Now()

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout())
	defer cancel()

	res, err := c.fetcher.FetchAndDecode(ctx, locations)
	elapsed := time.Since(start)
	if err != nil && c.ctx.Err() != nil {
		c.sink.LoadFinished(key, elapsed, domain.ErrDisposed)
		return domain.Handle{}, domain.ErrDisposed
	}
	if err != nil {
		err = domain.NewFetchError(key, err)
		c.sink.LoadFinished(key, elapsed, err)
		return domain.Handle{}, err
	}

	if t, ok := res.(domain.Tunable); ok {
		t.Tune(c.capabilities(ctx))
	}

	h := domain.Handle{Key: key, Resource: res}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.discard(h)
		c.sink.LoadFinished(key, elapsed, domain.ErrDisposed)
		return domain.Handle{}, domain.ErrDisposed
	}
	if c.cacheEnabled {
		c.store.Put(key, h)
	}
	c.mu.Unlock()

	c.sink.LoadFinished(key, elapsed, nil)
	return h, nil
}

func (c *Coordinator) capabilities(ctx context.Context) domain.Capabilities {
	if c.caps == nil {
		return domain.DefaultCapabilities()
	}
	caps, err := c.caps.Describe(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("capability query failed, using defaults: " + err.Error())
		}
		return domain.DefaultCapabilities()
	}
	return caps.Normalize()
}

func (c *Coordinator) discard(h domain.Handle) {
	if h.Resource == nil {
		return
	}
	if err := h.Resource.Dispose(); err != nil && c.logger != nil {
		c.logger.Error(zerr.With(zerr.Wrap(err, "failed to dispose late resource"), "key", h.Key))
	}
}

// WaitIdle blocks until no foreground request is waiting on a fetch.
func (c *Coordinator) WaitIdle(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-c.disposed:
		return domain.ErrDisposed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Busy reports whether a foreground request is waiting on a fetch.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.foreground > 0
}

func (c *Coordinator) enter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.foreground == 0 {
		c.idle = make(chan struct{})
	}
	c.foreground++
}

func (c *Coordinator) leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.foreground--
	if c.foreground == 0 {
		close(c.idle)
	}
}

// SetCacheEnabled toggles whether fetched handles are stored.
func (c *Coordinator) SetCacheEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheEnabled = enabled
}

// CacheEnabled reports whether fetched handles are stored.
func (c *Coordinator) CacheEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cacheEnabled
}

// SetFetchTimeout changes the per-resource fetch timeout for new fetches.
func (c *Coordinator) SetFetchTimeout(d time.Duration) {
	if d <= 0 {
		d = domain.DefaultFetchTimeout
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchTimeout = d
}

func (c *Coordinator) timeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchTimeout
}

func (c *Coordinator) isDisposed() bool {
	select {
	case <-c.disposed:
		return true
	default:
		return false
	}
}

// Dispose cancels outstanding fetches and wakes every waiting caller with
// domain.ErrDisposed. Results settling afterwards are disposed, never stored.
// Dispose is idempotent.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.disposed)
	c.mu.Unlock()

	c.cancel()
}
