// Package fallback provides producers of degraded stand-in meshes for geometry that
// no kernel could render.
package fallback

import (
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

// FromNames builds the fallback chain from configured producer names, in order.
func FromNames(names []string) ([]ports.FallbackProducer, error) {
	chain := make([]ports.FallbackProducer, 0, len(names))
	for _, name := range names {
		switch name {
		case domain.FallbackBoundingBox:
			chain = append(chain, NewBoundingBox())
		case domain.FallbackPlaceholder:
			chain = append(chain, NewPlaceholder())
		default:
			return nil, zerr.With(zerr.Wrap(domain.ErrUnknownFallback, "invalid fallback chain"), "fallback", name)
		}
	}
	return chain, nil
}

// box returns the 12 outward-facing triangles of the box spanning lo to hi.
func box(lo, hi domain.Vec3) *domain.Mesh {
	c := [8]domain.Vec3{
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}, {hi[0], hi[1], lo[2]}, {lo[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]}, {hi[0], lo[1], hi[2]}, {hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]},
	}
	faces := [12][3]int{
		{0, 2, 1}, {0, 3, 2},
		{4, 5, 6}, {4, 6, 7},
		{0, 1, 5}, {0, 5, 4},
		{2, 3, 7}, {2, 7, 6},
		{1, 2, 6}, {1, 6, 5},
		{3, 0, 4}, {3, 4, 7},
	}
	return fromFaces(c[:], faces[:])
}

func fromFaces(vertices []domain.Vec3, faces [][3]int) *domain.Mesh {
	m := &domain.Mesh{Triangles: make([]domain.Triangle, len(faces))}
	for i, f := range faces {
		t := domain.Triangle{Vertices: [3]domain.Vec3{vertices[f[0]], vertices[f[1]], vertices[f[2]]}}
		t.Normal = t.WindingNormal()
		m.Triangles[i] = t
	}
	return m
}
