// Package apply serializes changes of the applied resource.
package apply

import (
	"sync"

	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/core/ports"
	"go.trai.ch/skybox/internal/engine/cache"
	"go.trai.ch/skybox/internal/engine/stats"
)

// Gate applies handles to the consuming context, at most once per change of
// the current key. It is the only writer of the current key.
type Gate struct {
	mu      sync.Mutex
	current string

	table   *domain.DefinitionTable
	store   *cache.Store
	applier ports.Applier
	sink    ports.MetricsSink
}

// NewGate creates a Gate whose current key is domain.NoneKey. sink may be nil.
func NewGate(table *domain.DefinitionTable, store *cache.Store, applier ports.Applier, sink ports.MetricsSink) *Gate {
	if sink == nil {
		sink = stats.Nop{}
	}
	return &Gate{
		current: domain.NoneKey,
		table:   table,
		store:   store,
		applier: applier,
		sink:    sink,
	}
}

// Apply makes handle current. It returns false without side effects when the
// handle's key is already current.
func (g *Gate) Apply(handle domain.Handle) bool {
	return g.ApplyIf(handle, nil)
}

// ApplyIf is Apply with a precondition evaluated under the gate's lock, after
// the idempotence check.
func (g *Gate) ApplyIf(handle domain.Handle, pred func() bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := handle.Key
	if key == "" {
		key = domain.NoneKey
	}
	if key == g.current {
		return false
	}
	if pred != nil && !pred() {
		return false
	}

	prev := g.current
	g.current = key
	g.sink.CurrentChanged(prev, key)

	hints := domain.ApplyHints{Previous: prev}
	if def, ok := g.table.Lookup(key); ok {
		hints.DisplayName = def.DisplayName
	}
	g.applier.Apply(handle, hints)

	if g.store != nil {
		g.store.MarkApplied(key)
	}
	return true
}

// Current returns the key last applied.
func (g *Gate) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}
