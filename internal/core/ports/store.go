package ports

import "go.trai.ch/lathe/internal/core/domain"

// ExportStore persists rendered meshes addressed by fingerprint.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ExportStore interface {
	// Get returns the export record for fp, or nil, nil if none exists.
	Get(fp domain.Fingerprint) (*domain.ExportRecord, error)

	// Put writes the mesh bytes and records the export.
	Put(record domain.ExportRecord, data []byte) (string, error)
}
