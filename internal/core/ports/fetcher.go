// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/skybox/internal/core/domain"
)

// Fetcher turns an ordered list of face locations into a decoded resource.
//
// Implementations must be all-or-nothing: either every face is fetched and
// decoded, or an error is returned and nothing is retained.
//
//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// FetchAndDecode fetches and decodes the given locations.
	FetchAndDecode(ctx context.Context, locations []string) (domain.Resource, error)
}
