// Package prefetch warms the cache in the background while the coordinator is idle.
package prefetch

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader is the part of the load coordinator the scheduler drives.
type Loader interface {
	Prefetch(ctx context.Context, key string) (domain.Handle, error)
	WaitIdle(ctx context.Context) error
}

// Cache reports which keys are already resident.
type Cache interface {
	Contains(key string) bool
}

// Scheduler runs at most one prefetch walk at a time.
type Scheduler struct {
	table  *domain.DefinitionTable
	loader Loader
	cache  Cache
	logger ports.Logger

	mu       sync.Mutex
	delay    time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	disposed bool
	wg       sync.WaitGroup
}

// NewScheduler creates an idle Scheduler.
func NewScheduler(
	table *domain.DefinitionTable,
	loader Loader,
	cache Cache,
	logger ports.Logger,
	delay time.Duration,
) *Scheduler {
	return &Scheduler{
		table:  table,
		loader: loader,
		cache:  cache,
		logger: logger,
		delay:  delay,
	}
}

// Arm starts a walk that begins after the configured delay, replacing any
// active walk. afterKey is the key just applied; it is never prefetched.
func (s *Scheduler) Arm(afterKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	s.wg.Add(1)
	go func(delay time.Duration) {
		defer s.wg.Done()
		defer close(done)
		defer cancel()
		s.walk(ctx, afterKey, delay)
	}(s.delay)
}

// Cancel stops the active walk, if any. A prefetch already fetching is left to
// complete and populate the cache.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Active reports whether a walk is pending or running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Wait blocks until the active walk, if any, has returned.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetDelay changes the delay used by subsequent walks.
func (s *Scheduler) SetDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Dispose cancels the active walk and waits for it to return. Arm is a no-op
// afterwards.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.stopLocked()
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Queue returns the keys a walk armed after afterKey would warm, in order.
func (s *Scheduler) Queue(afterKey string) []string {
	defs := s.table.ByPriority()
	keys := make([]string, 0, len(defs))
	for _, def := range defs {
		if def.Key == afterKey || s.cache.Contains(def.Key) {
			continue
		}
		keys = append(keys, def.Key)
	}
	return keys
}

func (s *Scheduler) walk(ctx context.Context, afterKey string, delay time.Duration) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}

	for _, key := range s.Queue(afterKey) {
		if err := s.loader.WaitIdle(ctx); err != nil {
			return
		}
		runtime.Gosched()
		if ctx.Err() != nil {
			return
		}
		// A foreground request may have loaded it while we waited.
		if s.cache.Contains(key) {
			continue
		}

		if _, err := s.loader.Prefetch(ctx, key); err != nil {
			if ctx.Err() != nil || errors.Is(err, domain.ErrDisposed) {
				return
			}
			if s.logger != nil {
				s.logger.Error(zerr.With(zerr.Wrap(err, "prefetch failed"), "key", key))
			}
		}
	}
}
