// Package app implements the application layer for skybox.
package app

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/core/ports"
	"go.trai.ch/skybox/internal/engine/apply"
	"go.trai.ch/skybox/internal/engine/cache"
	"go.trai.ch/skybox/internal/engine/loader"
	"go.trai.ch/skybox/internal/engine/prefetch"
	"go.trai.ch/skybox/internal/engine/stats"
	"go.trai.ch/zerr"
)

// Config holds everything needed to assemble an App.
type Config struct {
	Table        *domain.DefinitionTable
	Options      domain.Options
	Fetcher      ports.Fetcher
	Applier      ports.Applier
	Capabilities ports.CapabilityProvider
	Previewer    ports.Previewer
	Logger       ports.Logger
	// Sinks receive every metrics event in addition to the built-in tracker.
	Sinks []ports.MetricsSink
	// Closers run on Dispose, after every resource has been released.
	Closers []func(context.Context) error
}

// concurrencyTuner is implemented by fetchers whose face concurrency can be
// changed at runtime.
type concurrencyTuner interface {
	SetConcurrency(n int)
}

// App is the resource manager facade: request a key, apply it, report stats.
type App struct {
	table     *domain.DefinitionTable
	store     *cache.Store
	loader    *loader.Coordinator
	gate      *apply.Gate
	prefetch  *prefetch.Scheduler
	tracker   *stats.Tracker
	fetcher   ports.Fetcher
	previewer ports.Previewer
	logger    ports.Logger
	closers   []func(context.Context) error

	// applyMu orders apply steps with the ownership of the applied handle
	// while the cache is disabled.
	applyMu sync.Mutex
	owned   domain.Handle

	mu       sync.Mutex
	opts     domain.Options
	latest   uint64
	disposed bool
}

// New assembles an App from its collaborators.
func New(cfg Config) *App {
	opts := cfg.Options.Normalize()
	tracker := stats.NewTracker()
	sink := stats.NewMulti(append([]ports.MetricsSink{tracker}, cfg.Sinks...)...)

	store := cache.NewStore(opts.Capacity, cfg.Logger, cache.WithEvictionHook(sink.Evicted))
	coord := loader.New(loader.Config{
		Table:        cfg.Table,
		Store:        store,
		Fetcher:      cfg.Fetcher,
		Capabilities: cfg.Capabilities,
		Sink:         sink,
		Logger:       cfg.Logger,
		Options:      opts,
	})

	a := &App{
		table:     cfg.Table,
		store:     store,
		loader:    coord,
		gate:      apply.NewGate(cfg.Table, store, cfg.Applier, sink),
		prefetch:  prefetch.NewScheduler(cfg.Table, coord, store, cfg.Logger, opts.PrefetchDelay),
		tracker:   tracker,
		fetcher:   cfg.Fetcher,
		previewer: cfg.Previewer,
		logger:    cfg.Logger,
		closers:   cfg.Closers,
		opts:      opts,
	}
	a.tuneFetcher(opts)
	return a
}

// RequestAndApply resolves key and makes it current. On failure the current
// key is unchanged. A request overtaken by a newer one resolves but does not
// apply.
func (a *App) RequestAndApply(ctx context.Context, key string) error {
	seq, err := a.begin()
	if err != nil {
		return err
	}
	a.prefetch.Cancel()

	// The key stays pinned until it is current, so no concurrent insert can
	// evict the handle on its way to the applier.
	a.store.Pin(key)
	defer a.store.Unpin(key)

	h, err := a.loader.Request(ctx, key)
	if err != nil {
		return err
	}

	a.applyMu.Lock()
	applied := a.gate.ApplyIf(h, func() bool { return a.isLatest(seq) })
	release := a.adoptLocked(h, applied)
	a.applyMu.Unlock()

	a.dispose(release)

	if applied && a.Settings().EnablePrefetch && a.loader.CacheEnabled() {
		a.prefetch.Arm(h.Key)
	}
	return nil
}

// adoptLocked tracks the applied handle while the cache is disabled and
// returns handles no one owns any more. Callers must hold applyMu.
func (a *App) adoptLocked(h domain.Handle, applied bool) []domain.Handle {
	if a.loader.CacheEnabled() || h.IsEmpty() {
		return nil
	}
	// A pin kept h resident across the switch to a disabled cache.
	a.takeResident(h)

	if !applied {
		if h.Resource != a.owned.Resource {
			return []domain.Handle{h}
		}
		return nil
	}

	var release []domain.Handle
	if a.owned.Resource != nil && a.owned.Resource != h.Resource {
		release = append(release, a.owned)
	}
	a.owned = h
	return release
}

// takeResident removes h from the store if it is still resident there.
func (a *App) takeResident(h domain.Handle) {
	if r, ok := a.store.Peek(h.Key); ok && r.Resource == h.Resource {
		a.store.Take(h.Key)
	}
}

func (a *App) dispose(handles []domain.Handle) {
	for _, h := range handles {
		if err := h.Resource.Dispose(); err != nil && a.logger != nil {
			a.logger.Error(zerr.With(zerr.Wrap(err, "failed to dispose resource"), "key", h.Key))
		}
	}
}

func (a *App) begin() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return 0, domain.ErrDisposed
	}
	a.latest++
	return a.latest, nil
}

func (a *App) isLatest(seq uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.disposed && a.latest == seq
}

// Options returns the selectable resources, none first.
func (a *App) Options() []domain.Option {
	return a.table.Options()
}

// CurrentKey returns the key currently applied.
func (a *App) CurrentKey() string {
	return a.gate.Current()
}

// Stats returns a snapshot of the cache and loader metrics.
func (a *App) Stats() domain.Stats {
	c := a.tracker.Snapshot()
	keys := a.store.Keys()
	return domain.Stats{
		CachedCount:       len(keys),
		CachedKeys:        keys,
		CurrentKey:        a.gate.Current(),
		PerKeyLoadLatency: c.Latency,
		CacheHitRate:      domain.HitRate(c.Hits, c.Misses),
		Hits:              c.Hits,
		Misses:            c.Misses,
		Loads:             c.Loads,
		Failures:          c.Failures,
		Evictions:         c.Evictions,
	}
}

// Settings returns the active options.
func (a *App) Settings() domain.Options {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opts
}

// Configure applies new options at runtime.
func (a *App) Configure(opts domain.Options) {
	opts = opts.Normalize()

	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return
	}
	prev := a.opts
	a.opts = opts
	a.mu.Unlock()

	a.applyMu.Lock()
	defer a.applyMu.Unlock()

	a.store.SetCapacity(opts.Capacity)
	a.loader.SetFetchTimeout(opts.FetchTimeout)
	a.prefetch.SetDelay(opts.PrefetchDelay)
	a.tuneFetcher(opts)

	switch {
	case prev.EnableCache && !opts.EnableCache:
		a.loader.SetCacheEnabled(false)
		a.prefetch.Cancel()
		current := a.gate.Current()
		if h, ok := a.store.Take(current); ok {
			a.owned = h
		}
		a.store.Clear()
	case !prev.EnableCache && opts.EnableCache:
		if a.owned.Resource != nil {
			a.store.Put(a.owned.Key, a.owned)
			a.store.MarkApplied(a.owned.Key)
			a.owned = domain.Handle{}
		}
		a.loader.SetCacheEnabled(true)
	}

	if !opts.EnablePrefetch {
		a.prefetch.Cancel()
	}
}

func (a *App) tuneFetcher(opts domain.Options) {
	if t, ok := a.fetcher.(concurrencyTuner); ok {
		t.SetConcurrency(opts.FetchConcurrency)
	}
}

// Warm resolves key into the cache without applying it.
func (a *App) Warm(ctx context.Context, key string) error {
	a.store.Pin(key)
	defer a.store.Unpin(key)

	h, err := a.loader.Request(ctx, key)
	if err != nil {
		return err
	}
	a.releaseIfUnowned(h)
	return nil
}

// releaseIfUnowned disposes h when the cache is disabled and h is not the
// applied handle, since nothing else will.
func (a *App) releaseIfUnowned(h domain.Handle) {
	if h.IsEmpty() {
		return
	}
	a.applyMu.Lock()
	unowned := !a.loader.CacheEnabled() && h.Resource != a.owned.Resource
	if unowned {
		a.takeResident(h)
	}
	a.applyMu.Unlock()
	if unowned {
		a.dispose([]domain.Handle{h})
	}
}

// Preview renders key without applying it.
func (a *App) Preview(ctx context.Context, key string, w io.Writer, size int) error {
	if a.previewer == nil {
		return zerr.Wrap(domain.ErrUnsupportedResource, "no previewer configured")
	}

	a.store.Pin(key)
	defer a.store.Unpin(key)

	h, err := a.loader.Request(ctx, key)
	if err != nil {
		return err
	}
	if h.IsEmpty() {
		return zerr.With(zerr.Wrap(domain.ErrEmptyResource, "nothing to preview"), "key", key)
	}

	defer a.releaseIfUnowned(h)

	return a.previewer.Render(w, h.Resource, size)
}

// Settle waits for the background prefetch walk armed by the latest apply to
// finish.
func (a *App) Settle(ctx context.Context) error {
	return a.prefetch.Wait(ctx)
}

// Dispose cancels prefetching, wakes pending requests with domain.ErrDisposed
// and releases every resource. It is idempotent.
func (a *App) Dispose(ctx context.Context) error {
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return nil
	}
	a.disposed = true
	a.mu.Unlock()

	a.prefetch.Dispose()
	a.loader.Dispose()

	a.applyMu.Lock()
	a.store.Dispose()
	owned := a.owned
	a.owned = domain.Handle{}
	a.applyMu.Unlock()

	if owned.Resource != nil {
		a.dispose([]domain.Handle{owned})
	}

	var errs []error
	for _, closer := range a.closers {
		if err := closer(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
