package meshcodec

import (
	"encoding/binary"
	"math"

	"go.trai.ch/lathe/internal/core/domain"
)

// binaryHeader is written into the 80-byte header of encoded meshes.
const binaryHeader = "lathe binary mesh"

func binaryCount(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data[headerSize:prefixSize])
}

func decodeBinary(data []byte, count int) (*domain.Mesh, error) {
	m := &domain.Mesh{Triangles: make([]domain.Triangle, count)}
	off := prefixSize
	for i := range count {
		t := &m.Triangles[i]
		t.Normal = readVec(data[off:])
		for v := range 3 {
			t.Vertices[v] = readVec(data[off+12*(v+1):])
		}
		off += triangleSize
	}
	return finalize(m)
}

func readVec(b []byte) domain.Vec3 {
	return domain.Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	}
}

func putVec(b []byte, v domain.Vec3) {
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(v[2]))
}

// EncodeBinary writes m in the binary layout. Absent normals are written as
// computed winding normals.
func (c *Codec) EncodeBinary(m *domain.Mesh) []byte {
	n := m.Len()
	out := make([]byte, prefixSize+n*triangleSize)
	copy(out, binaryHeader)
	binary.LittleEndian.PutUint32(out[headerSize:prefixSize], uint32(n))
	off := prefixSize
	for i := range n {
		t := m.Triangles[i]
		putVec(out[off:], t.FaceNormal())
		for v := range 3 {
			putVec(out[off+12*(v+1):], t.Vertices[v])
		}
		off += triangleSize
	}
	return out
}
