package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/core/ports/mocks"
	"go.trai.ch/skybox/internal/engine/cache"
	"go.uber.org/mock/gomock"
)

type fakeResource struct {
	disposed atomic.Int32
	err      error
}

func (r *fakeResource) Dispose() error {
	r.disposed.Add(1)
	return r.err
}

func handle(key string) (domain.Handle, *fakeResource) {
	res := &fakeResource{}
	return domain.Handle{Key: key, Resource: res}, res
}

// tickingClock returns a clock advancing one second per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestStore_GetMiss(t *testing.T) {
	s := cache.NewStore(2, nil)

	h, ok := s.Get("unknown")
	assert.False(t, ok)
	assert.Equal(t, domain.Handle{}, h)
	assert.Equal(t, domain.NoneKey, s.Current())
}

func TestStore_PutGet(t *testing.T) {
	s := cache.NewStore(2, nil)
	h, _ := handle("a")

	evicted := s.Put("a", h)
	assert.Empty(t, evicted)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, h, got)
	assert.True(t, s.Contains("a"))
	assert.Equal(t, 1, s.Len())
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := cache.NewStore(2, nil, cache.WithClock(tickingClock()))
	ha, ra := handle("a")
	hb, rb := handle("b")
	hc, _ := handle("c")

	s.Put("a", ha)
	s.Put("b", hb)
	// Touch a so b becomes the oldest.
	_, _ = s.Get("a")

	evicted := s.Put("c", hc)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, []string{"a", "c"}, s.Keys())
	assert.Equal(t, int32(1), rb.disposed.Load())
	assert.Equal(t, int32(0), ra.disposed.Load())
}

func TestStore_NeverEvictsCurrent(t *testing.T) {
	s := cache.NewStore(2, nil, cache.WithClock(tickingClock()))
	ha, ra := handle("a")
	hb, _ := handle("b")
	hc, _ := handle("c")

	s.Put("a", ha)
	s.MarkApplied("a")
	s.Put("b", hb)
	// Make a the oldest by recency: b and c are used after a was applied.
	_, _ = s.Get("b")

	evicted := s.Put("c", hc)
	assert.Equal(t, []string{"b"}, evicted)
	assert.True(t, s.Contains("a"))
	assert.Equal(t, int32(0), ra.disposed.Load())
}

func TestStore_TieBreakEvictsLaterInsertion(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := cache.NewStore(2, nil, cache.WithClock(func() time.Time { return fixed }))
	ha, _ := handle("a")
	hb, rb := handle("b")
	hc, _ := handle("c")

	s.Put("a", ha)
	s.Put("b", hb)

	evicted := s.Put("c", hc)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, int32(1), rb.disposed.Load())
	assert.Equal(t, []string{"a", "c"}, s.Keys())
}

func TestStore_OverCapacityWhenAllProtected(t *testing.T) {
	s := cache.NewStore(1, nil, cache.WithClock(tickingClock()))
	ha, ra := handle("a")
	hb, rb := handle("b")

	s.Put("a", ha)
	s.MarkApplied("a")

	evicted := s.Put("b", hb)
	assert.Empty(t, evicted)
	assert.Equal(t, 2, s.Len(), "store holds one extra entry rather than evicting current")

	// Once b becomes current, a is no longer protected and the excess is evicted.
	evicted = s.MarkApplied("b")
	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, int32(1), ra.disposed.Load())
	assert.Equal(t, int32(0), rb.disposed.Load())
	assert.Equal(t, []string{"b"}, s.Keys())
}

func TestStore_PutReplacesExisting(t *testing.T) {
	s := cache.NewStore(2, nil)
	h1, r1 := handle("a")
	h2, r2 := handle("a")

	s.Put("a", h1)
	s.Put("a", h1)
	assert.Equal(t, int32(0), r1.disposed.Load(), "same resource is not disposed")

	s.Put("a", h2)
	assert.Equal(t, int32(1), r1.disposed.Load())
	assert.Equal(t, int32(0), r2.disposed.Load())

	got, ok := s.Peek("a")
	require.True(t, ok)
	assert.Equal(t, h2, got)
	assert.Equal(t, 1, s.Len())
}

func TestStore_SetCapacityShrinks(t *testing.T) {
	s := cache.NewStore(3, nil, cache.WithClock(tickingClock()))
	for _, k := range []string{"a", "b", "c"} {
		h, _ := handle(k)
		s.Put(k, h)
	}
	s.MarkApplied("a")

	evicted := s.SetCapacity(1)
	assert.ElementsMatch(t, []string{"b", "c"}, evicted)
	assert.Equal(t, []string{"a"}, s.Keys())
	assert.Equal(t, 1, s.Capacity())

	s.SetCapacity(0)
	assert.Equal(t, 1, s.Capacity(), "capacity is clamped to one")
}

func TestStore_ClearKeeps(t *testing.T) {
	s := cache.NewStore(3, nil)
	ha, ra := handle("a")
	hb, rb := handle("b")
	s.Put("a", ha)
	s.Put("b", hb)

	s.Clear("a")
	assert.Equal(t, []string{"a"}, s.Keys())
	assert.Equal(t, int32(0), ra.disposed.Load())
	assert.Equal(t, int32(1), rb.disposed.Load())

	s.Dispose()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, int32(1), ra.disposed.Load())
}

func TestStore_PinnedKeyIsNotEvicted(t *testing.T) {
	s := cache.NewStore(2, nil, cache.WithClock(tickingClock()))
	ha, ra := handle("a")
	hb, rb := handle("b")
	hc, rc := handle("c")

	s.Put("a", ha)
	s.MarkApplied("a")

	// b is about to become current; a competing insert must not displace it.
	s.Pin("b")
	s.Put("b", hb)
	evicted := s.Put("c", hc)
	assert.Empty(t, evicted)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, int32(0), rb.disposed.Load())

	evicted = s.MarkApplied("b")
	assert.Equal(t, []string{"a"}, evicted)
	assert.Empty(t, s.Unpin("b"))

	assert.Equal(t, []string{"b", "c"}, s.Keys())
	assert.Equal(t, int32(1), ra.disposed.Load())
	assert.Equal(t, int32(0), rb.disposed.Load())
	assert.Equal(t, int32(0), rc.disposed.Load())
}

func TestStore_PinsNest(t *testing.T) {
	s := cache.NewStore(1, nil, cache.WithClock(tickingClock()))
	ha, ra := handle("a")
	hb, rb := handle("b")

	s.Pin("a")
	s.Pin("a")
	s.Put("a", ha)
	s.Put("b", hb)
	assert.Equal(t, 2, s.Len(), "pinned a keeps the store over capacity")

	assert.Equal(t, []string{"b"}, s.Unpin("a"))
	assert.True(t, s.Pinned("a"))
	assert.Equal(t, int32(1), rb.disposed.Load())

	assert.Empty(t, s.Unpin("a"))
	assert.False(t, s.Pinned("a"))
	assert.Empty(t, s.Unpin("a"), "unbalanced unpin is ignored")
	assert.Equal(t, int32(0), ra.disposed.Load())
}

func TestStore_ClearSparesPinned(t *testing.T) {
	s := cache.NewStore(3, nil)
	ha, ra := handle("a")
	hb, rb := handle("b")
	s.Put("a", ha)
	s.Put("b", hb)
	s.Pin("b")

	s.Clear()
	assert.Equal(t, []string{"b"}, s.Keys())
	assert.Equal(t, int32(1), ra.disposed.Load())
	assert.Equal(t, int32(0), rb.disposed.Load())

	s.Dispose()
	assert.Zero(t, s.Len())
	assert.Equal(t, int32(1), rb.disposed.Load())
}

func TestStore_TakeTransfersOwnership(t *testing.T) {
	s := cache.NewStore(2, nil)
	ha, ra := handle("a")
	s.Put("a", ha)

	got, ok := s.Take("a")
	require.True(t, ok)
	assert.Equal(t, ha, got)
	assert.False(t, s.Contains("a"))

	s.Dispose()
	assert.Equal(t, int32(0), ra.disposed.Load(), "taken handles are not disposed by the store")

	_, ok = s.Take("a")
	assert.False(t, ok)
}

func TestStore_DisposeErrorIsLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.Contains(t, err.Error(), "failed to dispose cached resource")
	}).Times(1)

	s := cache.NewStore(1, logger, cache.WithClock(tickingClock()))
	res := &fakeResource{err: errors.New("gpu lost")}
	s.Put("a", domain.Handle{Key: "a", Resource: res})
	hb, _ := handle("b")

	evicted := s.Put("b", hb)
	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, []string{"b"}, s.Keys())
}

func TestStore_EvictionHook(t *testing.T) {
	var hooked []string
	s := cache.NewStore(1, nil,
		cache.WithClock(tickingClock()),
		cache.WithEvictionHook(func(key string) { hooked = append(hooked, key) }),
	)
	ha, _ := handle("a")
	hb, _ := handle("b")
	s.Put("a", ha)
	s.Put("b", hb)

	assert.Equal(t, []string{"a"}, hooked)

	// Clearing is not an eviction.
	s.Clear()
	assert.Equal(t, []string{"a"}, hooked)
}

func TestStore_EntriesSnapshot(t *testing.T) {
	s := cache.NewStore(2, nil, cache.WithClock(tickingClock()))
	ha, _ := handle("a")
	s.Put("a", ha)
	s.MarkApplied("a")

	entries := s.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "a", e.Key)
	assert.False(t, e.InsertedAt.IsZero())
	assert.True(t, e.LastAppliedAt.After(e.InsertedAt))
	assert.Equal(t, uint64(1), e.Seq)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := cache.NewStore(4, nil)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines * 2)

	for i := range goroutines {
		go func(idx int) {
			defer wg.Done()
			key := fmt.Sprintf("k-%d", idx%8)
			h, _ := handle(key)
			s.Put(key, h)
		}(i)

		go func(idx int) {
			defer wg.Done()
			key := fmt.Sprintf("k-%d", idx%8)
			if h, ok := s.Get(key); ok {
				assert.Equal(t, key, h.Key)
			}
		}(i)
	}

	wg.Wait()

	assert.LessOrEqual(t, s.Len(), 4)
}
