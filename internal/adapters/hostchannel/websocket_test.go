package hostchannel_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/adapters/fallback"
	"go.trai.ch/lathe/internal/adapters/fingerprint"
	"go.trai.ch/lathe/internal/adapters/hostchannel"
	"go.trai.ch/lathe/internal/adapters/logger"
	"go.trai.ch/lathe/internal/adapters/meshcodec"
	"go.trai.ch/lathe/internal/adapters/sandbox"
	"go.trai.ch/lathe/internal/core/domain"
)

// syncBuffer is a bytes.Buffer safe for the logger and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// host starts a websocket server that hands every request frame to handle.
func host(t *testing.T, handle func(conn *websocket.Conn, req domain.RenderRequest)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close() //nolint:errcheck // Test server

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			req, err := hostchannel.DecodeRequest(msg)
			if err != nil {
				t.Errorf("bad request frame: %v", err)
				return
			}
			handle(conn, req)
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func placeholderSTL(t *testing.T) []byte {
	t.Helper()
	m, err := fallback.NewPlaceholder().Produce(domain.Geometry{})
	require.NoError(t, err)
	return meshcodec.New().EncodeBinary(m)
}

func receive(t *testing.T, ws *hostchannel.WebSocket) domain.RenderResponse {
	t.Helper()
	select {
	case resp, ok := <-ws.Responses():
		require.True(t, ok, "responses closed")
		return resp
	case <-time.After(5 * time.Second):
		t.Fatal("no response")
		return domain.RenderResponse{}
	}
}

func TestWebSocket_JSONRoundTrip(t *testing.T) {
	payload := placeholderSTL(t)
	url := host(t, func(conn *websocket.Conn, req domain.RenderRequest) {
		data, err := hostchannel.EncodeResponse(domain.RenderResponse{
			CorrelationID: req.CorrelationID,
			Fingerprint:   req.Fingerprint,
			Status:        domain.StatusSuccess,
			Payload:       payload,
		})
		if err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	})

	ws, err := hostchannel.Dial(context.Background(), url, logger.NewWithWriter(&syncBuffer{}, domain.LogLevelInfo))
	require.NoError(t, err)
	defer ws.Close() //nolint:errcheck // Test cleanup
	require.True(t, ws.Connected())

	fp := domain.Fingerprint{1, 2, 3}
	require.NoError(t, ws.Send(context.Background(), domain.RenderRequest{
		CorrelationID: "abc",
		Fingerprint:   fp,
		Description:   []byte(`{"source":"cube(1);"}`),
	}))

	resp := receive(t, ws)
	assert.Equal(t, "abc", resp.CorrelationID)
	assert.Equal(t, fp, resp.Fingerprint)
	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Equal(t, payload, resp.Payload)
}

func TestWebSocket_BinaryFrame(t *testing.T) {
	payload := placeholderSTL(t)
	url := host(t, func(conn *websocket.Conn, _ domain.RenderRequest) {
		_ = conn.WriteMessage(websocket.BinaryMessage, payload)
	})

	ws, err := hostchannel.Dial(context.Background(), url, logger.NewWithWriter(&syncBuffer{}, domain.LogLevelInfo))
	require.NoError(t, err)
	defer ws.Close() //nolint:errcheck // Test cleanup

	require.NoError(t, ws.Send(context.Background(), domain.RenderRequest{CorrelationID: "x"}))

	resp := receive(t, ws)
	assert.Empty(t, resp.CorrelationID)
	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Equal(t, payload, resp.Payload)
}

func TestWebSocket_MalformedFrameDropped(t *testing.T) {
	url := host(t, func(conn *websocket.Conn, req domain.RenderRequest) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"tag":"SOMETHING_ELSE:00","status":"success"}`))
		data, _ := hostchannel.EncodeResponse(domain.RenderResponse{
			CorrelationID: req.CorrelationID,
			Status:        domain.StatusFailure,
			ErrorDetail:   "parse error",
		})
		_ = conn.WriteMessage(websocket.TextMessage, data)
	})

	var logs syncBuffer
	ws, err := hostchannel.Dial(context.Background(), url, logger.NewWithWriter(&logs, domain.LogLevelInfo))
	require.NoError(t, err)
	defer ws.Close() //nolint:errcheck // Test cleanup

	require.NoError(t, ws.Send(context.Background(), domain.RenderRequest{CorrelationID: "id-1"}))

	resp := receive(t, ws)
	assert.Equal(t, "id-1", resp.CorrelationID)
	assert.Equal(t, domain.StatusFailure, resp.Status)
	assert.Equal(t, "parse error", resp.ErrorDetail)
	assert.Contains(t, logs.String(), "dropping malformed host frame")
}

func TestWebSocket_Close(t *testing.T) {
	url := host(t, func(*websocket.Conn, domain.RenderRequest) {})

	ws, err := hostchannel.Dial(context.Background(), url, logger.NewWithWriter(&syncBuffer{}, domain.LogLevelInfo))
	require.NoError(t, err)
	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())

	assert.False(t, ws.Connected())
	assert.ErrorIs(t, ws.Send(context.Background(), domain.RenderRequest{}), domain.ErrChannelClosed)

	select {
	case _, ok := <-ws.Responses():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("responses not closed")
	}
}

func TestWebSocket_DialFailure(t *testing.T) {
	_, err := hostchannel.Dial(context.Background(), "ws://127.0.0.1:1/none", logger.NewWithWriter(&syncBuffer{}, domain.LogLevelInfo))
	require.Error(t, err)
}

func TestWebSocket_SandboxExecutor(t *testing.T) {
	payload := placeholderSTL(t)
	url := host(t, func(conn *websocket.Conn, req domain.RenderRequest) {
		data, _ := hostchannel.EncodeResponse(domain.RenderResponse{
			CorrelationID: req.CorrelationID,
			Status:        domain.StatusSuccess,
			Payload:       payload,
		})
		_ = conn.WriteMessage(websocket.TextMessage, data)
	})

	log := logger.NewWithWriter(&syncBuffer{}, domain.LogLevelInfo)
	ws, err := hostchannel.Dial(context.Background(), url, log)
	require.NoError(t, err)
	defer ws.Close() //nolint:errcheck // Test cleanup

	exe := sandbox.NewExecutor(ws, fingerprint.NewHasher("test"), meshcodec.New(), log)
	defer exe.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mesh, err := exe.Execute(ctx, domain.MustGeometry("cube(1);", nil))
	require.NoError(t, err)
	assert.Equal(t, 8, mesh.Len())
}

func TestEnvelope_DecodeResponse(t *testing.T) {
	fp := domain.Fingerprint{0xab}

	t.Run("tag stands in for fingerprint", func(t *testing.T) {
		frame := `{"tag":"` + domain.EncodeRequestTag(fp) + `","status":"success","payload":"AQID"}`
		resp, err := hostchannel.DecodeResponse([]byte(frame))
		require.NoError(t, err)
		assert.Equal(t, fp, resp.Fingerprint)
		assert.Equal(t, []byte{1, 2, 3}, resp.Payload)
	})

	t.Run("rejects", func(t *testing.T) {
		for _, frame := range []string{
			`not json`,
			`{"status":"maybe"}`,
			`{"fingerprint":"XYZ","status":"success"}`,
			`{"tag":"RENDER_REQUEST:12","status":"success"}`,
		} {
			_, err := hostchannel.DecodeResponse([]byte(frame))
			assert.Error(t, err, frame)
		}
	})

	t.Run("sentinels", func(t *testing.T) {
		_, err := hostchannel.DecodeResponse([]byte(`{"status":"maybe"}`))
		assert.ErrorIs(t, err, domain.ErrUnknownResponseStatus)

		_, err = hostchannel.DecodeResponse([]byte(`{"tag":"RENDER_REQUEST:12","status":"success"}`))
		assert.ErrorIs(t, err, domain.ErrMalformedTag)
	})
}
