// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/lathe/internal/adapters/config"
	_ "go.trai.ch/lathe/internal/adapters/logger"
	_ "go.trai.ch/lathe/internal/adapters/meshcodec"
	_ "go.trai.ch/lathe/internal/adapters/telemetry/progrock"
	// Register app nodes.
	_ "go.trai.ch/lathe/internal/app"
)
