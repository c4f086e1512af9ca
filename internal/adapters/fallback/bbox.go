package fallback

import (
	"github.com/chewxy/math32"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

// DefaultEdge is the box edge used when the geometry names no usable dimension.
const DefaultEdge = 10

var _ ports.FallbackProducer = (*BoundingBox)(nil)

// BoundingBox approximates geometry by a box sized from conventional dimension parameters.
type BoundingBox struct{}

// NewBoundingBox creates a BoundingBox producer.
func NewBoundingBox() *BoundingBox {
	return &BoundingBox{}
}

// Name returns the configuration name of the producer.
func (b *BoundingBox) Name() string { return domain.FallbackBoundingBox }

// Produce returns a box. A radius yields a box centered on the origin, other
// dimensions a box anchored at the origin corner.
func (b *BoundingBox) Produce(g domain.Geometry) (*domain.Mesh, error) {
	if r, ok := dimension(g, "r", "radius"); ok {
		return box(domain.Vec3{-r, -r, -r}, domain.Vec3{r, r, r}), nil
	}

	edge := float32(DefaultEdge)
	if s, ok := dimension(g, "size"); ok {
		edge = s
	}
	x := dimensionOr(g, edge, "width", "x")
	y := dimensionOr(g, edge, "depth", "y")
	z := dimensionOr(g, edge, "height", "z")
	return box(domain.Vec3{}, domain.Vec3{x, y, z}), nil
}

// dimension returns the first numeric parameter among names that is positive and
// finite in float32.
func dimension(g domain.Geometry, names ...string) (float32, bool) {
	for _, name := range names {
		p, ok := g.Param(name)
		if !ok {
			continue
		}
		v, ok := p.Float()
		if !ok {
			continue
		}
		if f := float32(v); f > 0 && !math32.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

func dimensionOr(g domain.Geometry, def float32, names ...string) float32 {
	if v, ok := dimension(g, names...); ok {
		return v
	}
	return def
}
