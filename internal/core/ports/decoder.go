package ports

import "go.trai.ch/lathe/internal/core/domain"

// MeshDecoder parses kernel output into a validated mesh.
//
//go:generate go run go.uber.org/mock/mockgen -source=decoder.go -destination=mocks/mock_decoder.go -package=mocks
type MeshDecoder interface {
	Decode(data []byte) (*domain.Mesh, error)
}

// MeshCodec decodes kernel output and encodes meshes for export.
type MeshCodec interface {
	MeshDecoder

	// EncodeBinary returns the binary STL form of m.
	EncodeBinary(m *domain.Mesh) []byte
	// EncodeText returns the text STL form of m under the given solid name.
	EncodeText(m *domain.Mesh, name string) []byte
}
