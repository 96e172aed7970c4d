// Package cache implements the bounded in-memory store of decoded resources.
package cache

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store is a thread-safe, bounded mapping from resource key to decoded handle.
//
// The store owns every handle inserted into it and is the only component that
// disposes them. The entry matching the current key and entries whose key is
// pinned are never evicted; when every entry is protected the store
// temporarily holds more entries than its capacity instead.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*domain.CacheEntry
	pins     map[string]int
	capacity int
	current  string
	seq      uint64

	now     func() time.Time
	logger  ports.Logger
	onEvict func(key string)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for recency bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithEvictionHook registers a callback invoked with the key of every evicted entry.
func WithEvictionHook(fn func(key string)) Option {
	return func(s *Store) {
		s.onEvict = fn
	}
}

// NewStore creates a Store holding at most capacity entries.
func NewStore(capacity int, logger ports.Logger, opts ...Option) *Store {
	if capacity < 1 {
		capacity = domain.DefaultCapacity
	}
	s := &Store{
		entries:  make(map[string]*domain.CacheEntry),
		pins:     make(map[string]int),
		capacity: capacity,
		current:  domain.NoneKey,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the handle for key and marks it as recently used.
func (s *Store) Get(key string) (domain.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return domain.Handle{}, false
	}
	e.LastUsedAt = s.now()
	return e.Handle, true
}

// Peek returns the handle for key without touching its recency.
func (s *Store) Peek(key string) (domain.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return domain.Handle{}, false
	}
	return e.Handle, true
}

// Contains reports whether key is resident.
func (s *Store) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[key]
	return ok
}

// Put inserts handle under key, evicting first if the store is full.
// It returns the keys that were evicted.
func (s *Store) Put(key string, handle domain.Handle) []string {
	s.mu.Lock()

	var victims []*domain.CacheEntry
	now := s.now()
	s.seq++

	if old, ok := s.entries[key]; ok {
		if old.Handle.Resource != handle.Resource {
			victims = append(victims, old)
		}
		s.entries[key] = &domain.CacheEntry{
			Key:           key,
			Handle:        handle,
			InsertedAt:    now,
			LastAppliedAt: old.LastAppliedAt,
			LastUsedAt:    now,
			Seq:           s.seq,
		}
		s.mu.Unlock()
		s.release(victims, false)
		return nil
	}

	evicted := s.evictLocked(s.capacity - 1)
	s.entries[key] = &domain.CacheEntry{
		Key:        key,
		Handle:     handle,
		InsertedAt: now,
		Seq:        s.seq,
	}
	s.mu.Unlock()

	return s.release(evicted, true)
}

// EvictIfOverCapacity evicts unprotected entries until the store fits its capacity.
func (s *Store) EvictIfOverCapacity() []string {
	s.mu.Lock()
	evicted := s.evictLocked(s.capacity)
	s.mu.Unlock()

	return s.release(evicted, true)
}

// MarkApplied makes key the protected current key and stamps its entry, if
// resident, as applied now. Entries left over capacity by a previous
// protection are evicted.
func (s *Store) MarkApplied(key string) []string {
	s.mu.Lock()
	s.current = key
	if e, ok := s.entries[key]; ok {
		e.LastAppliedAt = s.now()
	}
	evicted := s.evictLocked(s.capacity)
	s.mu.Unlock()

	return s.release(evicted, true)
}

// Pin protects key from eviction and from Clear until the matching Unpin.
// The key does not need to be resident yet. Pins nest.
func (s *Store) Pin(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins[key]++
}

// Unpin releases one Pin of key and evicts entries the pin kept over capacity.
func (s *Store) Unpin(key string) []string {
	s.mu.Lock()
	switch n := s.pins[key]; {
	case n > 1:
		s.pins[key] = n - 1
	case n == 1:
		delete(s.pins, key)
	}
	evicted := s.evictLocked(s.capacity)
	s.mu.Unlock()

	return s.release(evicted, true)
}

// Pinned reports whether key holds at least one pin.
func (s *Store) Pinned(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pins[key] > 0
}

// Current returns the protected key.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCapacity changes the capacity, evicting entries if it shrank.
func (s *Store) SetCapacity(capacity int) []string {
	if capacity < 1 {
		capacity = 1
	}

	s.mu.Lock()
	s.capacity = capacity
	evicted := s.evictLocked(capacity)
	s.mu.Unlock()

	return s.release(evicted, true)
}

// Capacity returns the configured capacity.
func (s *Store) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

// Take removes the entry for key without disposing its resource and hands
// ownership of the handle to the caller.
func (s *Store) Take(key string) (domain.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return domain.Handle{}, false
	}
	delete(s.entries, key)
	return e.Handle, true
}

// Clear disposes and removes every entry except pinned ones and those whose
// key is in keep.
func (s *Store) Clear(keep ...string) {
	s.clear(false, keep)
}

// Dispose releases every handle, pinned or not. The store is empty afterwards.
func (s *Store) Dispose() {
	s.clear(true, nil)
}

func (s *Store) clear(all bool, keep []string) {
	s.mu.Lock()
	var victims []*domain.CacheEntry
	for key, e := range s.entries {
		if !all && (s.pins[key] > 0 || slices.Contains(keep, key)) {
			continue
		}
		victims = append(victims, e)
		delete(s.entries, key)
	}
	s.mu.Unlock()

	s.release(victims, false)
}

// Len returns the number of resident entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns the resident keys in insertion order.
func (s *Store) Keys() []string {
	entries := s.Entries()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns snapshots of the resident entries in insertion order.
func (s *Store) Entries() []domain.CacheEntry {
	s.mu.Lock()
	out := make([]domain.CacheEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b domain.CacheEntry) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return out
}

// evictLocked removes unprotected entries until at most limit remain and
// returns them. Callers must hold s.mu.
func (s *Store) evictLocked(limit int) []*domain.CacheEntry {
	var evicted []*domain.CacheEntry
	for len(s.entries) > limit {
		victim := s.victimLocked()
		if victim == nil {
			break
		}
		delete(s.entries, victim.Key)
		evicted = append(evicted, victim)
	}
	return evicted
}

// victimLocked selects the least recently used entry that is neither current
// nor pinned. Among equal recency the entry with the larger insertion sequence
// loses.
func (s *Store) victimLocked() *domain.CacheEntry {
	var victim *domain.CacheEntry
	for key, e := range s.entries {
		if key == s.current || s.pins[key] > 0 {
			continue
		}
		if victim == nil {
			victim = e
			continue
		}
		switch e.Recency().Compare(victim.Recency()) {
		case -1:
			victim = e
		case 0:
			if e.Seq > victim.Seq {
				victim = e
			}
		}
	}
	return victim
}

// release disposes the entries' resources outside the lock. Disposal errors
// are logged and swallowed.
func (s *Store) release(entries []*domain.CacheEntry, evicted bool) []string {
	if len(entries) == 0 {
		return nil
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
		if e.Handle.Resource != nil {
			if err := e.Handle.Resource.Dispose(); err != nil && s.logger != nil {
				s.logger.Error(zerr.With(zerr.Wrap(err, "failed to dispose cached resource"), "key", e.Key))
			}
		}
		if evicted && s.onEvict != nil {
			s.onEvict(e.Key)
		}
	}
	return keys
}
