// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/skybox/internal/adapters/config"
	_ "go.trai.ch/skybox/internal/adapters/fetch"
	_ "go.trai.ch/skybox/internal/adapters/logger"
	_ "go.trai.ch/skybox/internal/adapters/preview"
	_ "go.trai.ch/skybox/internal/adapters/scene"
	_ "go.trai.ch/skybox/internal/adapters/telemetry"
	// Register app nodes.
	_ "go.trai.ch/skybox/internal/app"
)
