package ports

import "go.trai.ch/lathe/internal/core/domain"

// Fingerprinter computes the content fingerprint of a geometry description.
//
//go:generate go run go.uber.org/mock/mockgen -source=fingerprinter.go -destination=mocks/mock_fingerprinter.go -package=mocks
type Fingerprinter interface {
	// Fingerprint must return identical digests for semantically identical descriptions.
	Fingerprint(g domain.Geometry) domain.Fingerprint
}
