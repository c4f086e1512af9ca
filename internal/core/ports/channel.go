package ports

import (
	"context"

	"go.trai.ch/lathe/internal/core/domain"
)

// Channel is the host-owned message transport to the sandboxed kernel.
//
//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=mocks/mock_channel.go -package=mocks
type Channel interface {
	// Send transmits a request. It must not block past ctx.
	Send(ctx context.Context, req domain.RenderRequest) error

	// Responses delivers inbound responses. The channel is closed when the transport closes.
	Responses() <-chan domain.RenderResponse

	// Connected reports whether requests can currently be delivered.
	Connected() bool

	// Close releases the transport.
	Close() error
}
