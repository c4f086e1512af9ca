package ports

import "go.trai.ch/lathe/internal/core/domain"

// FallbackProducer builds a degraded mesh without any external process.
//
//go:generate go run go.uber.org/mock/mockgen -source=fallback.go -destination=mocks/mock_fallback.go -package=mocks
type FallbackProducer interface {
	Name() string
	Produce(g domain.Geometry) (*domain.Mesh, error)
}
