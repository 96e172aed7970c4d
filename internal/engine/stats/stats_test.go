package stats_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/skybox/internal/core/ports/mocks"
	"go.trai.ch/skybox/internal/engine/stats"
	"go.uber.org/mock/gomock"
)

func TestTracker_Counts(t *testing.T) {
	tr := stats.NewTracker()

	tr.CacheHit("a")
	tr.CacheHit("a")
	tr.CacheMiss("b")
	tr.LoadStarted("b")
	tr.LoadFinished("b", 40*time.Millisecond, nil)
	tr.LoadFinished("c", 10*time.Millisecond, errors.New("boom"))
	tr.Evicted("a")
	tr.CurrentChanged("none", "b")

	c := tr.Snapshot()
	assert.Equal(t, uint64(2), c.Hits)
	assert.Equal(t, uint64(1), c.Misses)
	assert.Equal(t, uint64(1), c.Loads)
	assert.Equal(t, uint64(1), c.Failures)
	assert.Equal(t, uint64(1), c.Evictions)
	assert.Equal(t, map[string]time.Duration{"b": 40 * time.Millisecond}, c.Latency)
}

func TestTracker_SnapshotIsCopy(t *testing.T) {
	tr := stats.NewTracker()
	tr.LoadFinished("a", time.Second, nil)

	c := tr.Snapshot()
	c.Latency["a"] = 0

	assert.Equal(t, time.Second, tr.Snapshot().Latency["a"])

	tr.Reset()
	assert.Empty(t, tr.Snapshot().Latency)
	assert.Zero(t, tr.Snapshot().Loads)
}

func TestMulti_FansOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockMetricsSink(ctrl)
	second := mocks.NewMockMetricsSink(ctrl)
	failure := errors.New("boom")

	for _, m := range []*mocks.MockMetricsSink{first, second} {
		m.EXPECT().CacheHit("a")
		m.EXPECT().CacheMiss("b")
		m.EXPECT().LoadStarted("b")
		m.EXPECT().LoadFinished("b", time.Second, failure)
		m.EXPECT().Evicted("c")
		m.EXPECT().CurrentChanged("none", "a")
	}

	multi := stats.NewMulti(first, nil, second)
	assert.Len(t, multi, 2)

	multi.CacheHit("a")
	multi.CacheMiss("b")
	multi.LoadStarted("b")
	multi.LoadFinished("b", time.Second, failure)
	multi.Evicted("c")
	multi.CurrentChanged("none", "a")
}
