package domain

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/chewxy/math32"
	"go.trai.ch/zerr"
)

// Vec3 is a float32 triple used for vertex positions and normals.
type Vec3 [3]float32

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize returns v scaled to unit length, or the zero vector if v is degenerate.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return Vec3{}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// IsFinite reports whether every component is neither NaN nor infinite.
func (v Vec3) IsFinite() bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Triangle is one facet. A zero Normal means the normal is derived from winding.
type Triangle struct {
	Normal   Vec3
	Vertices [3]Vec3
}

// WindingNormal computes the unit normal from the vertex order using the right-hand rule.
func (t Triangle) WindingNormal() Vec3 {
	a := t.Vertices[1].Sub(t.Vertices[0])
	b := t.Vertices[2].Sub(t.Vertices[0])
	return a.Cross(b).Normalize()
}

// FaceNormal returns the declared normal, falling back to the winding normal when it is degenerate.
func (t Triangle) FaceNormal() Vec3 {
	if t.Normal.IsFinite() && t.Normal.Length() > 0 {
		return t.Normal
	}
	return t.WindingNormal()
}

// Mesh is an ordered sequence of triangles.
type Mesh struct {
	Triangles []Triangle
}

// Len returns the triangle count.
func (m *Mesh) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Triangles)
}

// Empty reports whether the mesh has no triangles.
func (m *Mesh) Empty() bool {
	return m.Len() == 0
}

// Validate checks that every vertex coordinate is finite.
func (m *Mesh) Validate() error {
	for i, t := range m.Triangles {
		for _, v := range t.Vertices {
			if !v.IsFinite() {
				return zerr.With(zerr.Wrap(ErrInvalidGeometry, "non-finite vertex"), "facet", i)
			}
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounding box. An empty mesh yields zero vectors.
func (m *Mesh) Bounds() (lo, hi Vec3) {
	if m.Empty() {
		return lo, hi
	}
	lo = m.Triangles[0].Vertices[0]
	hi = lo
	for _, t := range m.Triangles {
		for _, v := range t.Vertices {
			for axis := range 3 {
				lo[axis] = math32.Min(lo[axis], v[axis])
				hi[axis] = math32.Max(hi[axis], v[axis])
			}
		}
	}
	return lo, hi
}

// Checksum returns an xxhash64 over the face normals and vertices in little-endian order.
func (m *Mesh) Checksum() uint64 {
	h := xxhash.New()
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(m.Len()))
	_, _ = h.Write(buf[:])
	if m == nil {
		return h.Sum64()
	}
	for _, t := range m.Triangles {
		n := t.FaceNormal()
		for _, c := range n {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(c))
			_, _ = h.Write(buf[:])
		}
		for _, v := range t.Vertices {
			for _, c := range v {
				binary.LittleEndian.PutUint32(buf[:], math.Float32bits(c))
				_, _ = h.Write(buf[:])
			}
		}
	}
	return h.Sum64()
}
