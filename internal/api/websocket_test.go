package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/isdelr/llm-admin-be/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_WebSocketFeed(t *testing.T) {
	s := newTestServer(t, nil, Options{})
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg websocket.Message
	require.NoError(t, conn.WriteJSON(websocket.Message{Action: "ping"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Action)

	require.NoError(t, conn.WriteJSON(websocket.Message{Action: "subscribe"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Action)
	assert.Equal(t, map[string]interface{}{"message": "Unknown action: subscribe"}, msg.Payload)

	// Record changes are broadcast to the connected dashboard.
	rec, _ := s.do("POST", "/llms", map[string]string{"name": "GPT4", "provider": "openai"})
	require.Equal(t, 201, rec.Code)
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "llm.created", msg.Action)
}
