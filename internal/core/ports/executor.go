// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/lathe/internal/core/domain"
)

// Executor turns a geometry description into a mesh using one kernel.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Name identifies the executor in attempt chains and logs.
	Name() string

	// Execute renders the geometry. The deadline travels in ctx.
	//
	// Failures are returned as *domain.RenderError so the coordinator can tell an
	// unavailable executor from one that ran and failed.
	Execute(ctx context.Context, g domain.Geometry) (*domain.Mesh, error)
}
