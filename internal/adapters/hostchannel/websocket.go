// Package hostchannel connects to the host that runs the sandboxed kernel.
package hostchannel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	responseBuffer = 64
	closeTimeout   = time.Second
)

var _ ports.Channel = (*WebSocket)(nil)

// WebSocket implements ports.Channel over a websocket connection.
type WebSocket struct {
	conn   *websocket.Conn
	logger ports.Logger

	writeMu   sync.Mutex
	responses chan domain.RenderResponse
	connected atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the host at url.
func Dial(ctx context.Context, url string, logger ports.Logger) (*WebSocket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to connect to host channel"), "url", url)
	}
	return New(conn, logger), nil
}

// New wraps an established connection and starts reading responses.
func New(conn *websocket.Conn, logger ports.Logger) *WebSocket {
	ws := &WebSocket{
		conn:      conn,
		logger:    logger,
		responses: make(chan domain.RenderResponse, responseBuffer),
		done:      make(chan struct{}),
	}
	ws.connected.Store(true)
	go ws.readLoop()
	return ws
}

// Send writes req as a JSON text frame.
func (ws *WebSocket) Send(ctx context.Context, req domain.RenderRequest) error {
	if !ws.connected.Load() {
		return domain.ErrChannelClosed
	}
	data, err := EncodeRequest(req)
	if err != nil {
		return err
	}

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	deadline, _ := ctx.Deadline()
	if err := ws.conn.SetWriteDeadline(deadline); err != nil {
		return zerr.Wrap(err, "failed to set write deadline")
	}
	if err := ws.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write render request"), "correlation_id", req.CorrelationID)
	}
	return nil
}

// Responses implements ports.Channel.
func (ws *WebSocket) Responses() <-chan domain.RenderResponse {
	return ws.responses
}

// Connected implements ports.Channel.
func (ws *WebSocket) Connected() bool {
	return ws.connected.Load()
}

// Close sends a close frame and releases the connection.
func (ws *WebSocket) Close() error {
	var err error
	ws.closeOnce.Do(func() {
		ws.connected.Store(false)
		close(ws.done)

		ws.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = ws.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
		ws.writeMu.Unlock()

		err = ws.conn.Close()
	})
	return err
}

func (ws *WebSocket) readLoop() {
	defer close(ws.responses)
	defer ws.connected.Store(false)

	for {
		typ, msg, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				select {
				case <-ws.done:
				default:
					ws.logger.Warn("host channel closed unexpectedly", "error", err)
				}
			}
			return
		}

		var resp domain.RenderResponse
		switch typ {
		case websocket.BinaryMessage:
			resp = domain.RenderResponse{Status: domain.StatusSuccess, Payload: msg}
		case websocket.TextMessage:
			resp, err = DecodeResponse(msg)
			if err != nil {
				ws.logger.Warn("dropping malformed host frame", "error", err)
				continue
			}
		default:
			continue
		}

		select {
		case ws.responses <- resp:
		case <-ws.done:
			return
		}
	}
}
