package ports

import (
	"context"

	"go.trai.ch/skybox/internal/core/domain"
)

// Applier makes a decoded resource current in the consuming context.
//
//go:generate go run go.uber.org/mock/mockgen -source=applier.go -destination=mocks/mock_applier.go -package=mocks
type Applier interface {
	// Apply binds the handle synchronously. An empty handle clears the
	// context. It must be safe to call repeatedly with the same handle.
	Apply(handle domain.Handle, hints domain.ApplyHints)
}

// CapabilityProvider describes the consuming context.
type CapabilityProvider interface {
	// Describe returns tuning hints used after a successful decode.
	Describe(ctx context.Context) (domain.Capabilities, error)
}
