package ports

import (
	"context"

	"go.trai.ch/skybox/internal/core/domain"
)

// ConfigLoader defines the interface for loading the configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration. An empty path discovers skybox.yaml by
	// walking up from the working directory.
	Load(path string) (*domain.Config, error)
}

// ConfigWatcher reports changes to a configuration file.
type ConfigWatcher interface {
	// Watch emits a value each time the file at path changes, until ctx ends.
	Watch(ctx context.Context, path string) (<-chan struct{}, error)
	// Close stops the watcher.
	Close() error
}
