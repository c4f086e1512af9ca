package meshcodec

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lathe/internal/core/ports"
)

// NodeID is the unique identifier for the mesh codec Graft node.
const NodeID graft.ID = "adapter.meshcodec"

func init() {
	graft.Register(graft.Node[ports.MeshCodec]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.MeshCodec, error) {
			return New(), nil
		},
	})
}
