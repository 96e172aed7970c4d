// Package scene provides the consuming context that resources are applied to.
package scene

import (
	"context"
	"sync"

	"go.trai.ch/skybox/internal/core/domain"
)

// Scene holds the current background and describes its capabilities.
type Scene struct {
	mu          sync.RWMutex
	background  domain.Handle
	displayName string
	previous    string
	applies     int
	caps        domain.Capabilities
}

// New creates an empty Scene with default capabilities.
func New() *Scene {
	return &Scene{
		background: domain.EmptyHandle(),
		caps:       domain.DefaultCapabilities(),
	}
}

// Apply makes h the background. The empty handle clears it.
func (s *Scene) Apply(h domain.Handle, hints domain.ApplyHints) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.IsEmpty() {
		h = domain.EmptyHandle()
	}
	s.background = h
	s.displayName = hints.DisplayName
	s.previous = hints.Previous
	s.applies++
}

// Background returns the handle currently bound.
func (s *Scene) Background() domain.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

// DisplayName returns the display name of the background.
func (s *Scene) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayName
}

// Previous returns the key that was replaced by the latest apply.
func (s *Scene) Previous() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previous
}

// Applies returns the number of applies seen.
func (s *Scene) Applies() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applies
}

// SetCapabilities replaces the capabilities reported by Describe.
func (s *Scene) SetCapabilities(caps domain.Capabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caps = caps.Normalize()
}

// Describe returns the configured capabilities.
func (s *Scene) Describe(ctx context.Context) (domain.Capabilities, error) {
	if err := ctx.Err(); err != nil {
		return domain.Capabilities{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps, nil
}
