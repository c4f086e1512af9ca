package fallback

import (
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

var _ ports.FallbackProducer = (*Placeholder)(nil)

// Placeholder produces a fixed octahedron marker regardless of the geometry.
type Placeholder struct {
	mesh *domain.Mesh
}

// NewPlaceholder creates a Placeholder producer.
func NewPlaceholder() *Placeholder {
	const r = DefaultEdge / 2
	v := []domain.Vec3{
		{r, 0, 0}, {-r, 0, 0},
		{0, r, 0}, {0, -r, 0},
		{0, 0, r}, {0, 0, -r},
	}
	faces := [][3]int{
		{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
		{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
	}
	return &Placeholder{mesh: fromFaces(v, faces)}
}

// Name returns the configuration name of the producer.
func (p *Placeholder) Name() string { return domain.FallbackPlaceholder }

// Produce returns a copy of the octahedron. It never fails.
func (p *Placeholder) Produce(_ domain.Geometry) (*domain.Mesh, error) {
	out := &domain.Mesh{Triangles: make([]domain.Triangle, len(p.mesh.Triangles))}
	copy(out.Triangles, p.mesh.Triangles)
	return out, nil
}
