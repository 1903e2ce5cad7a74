package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesRegisteredClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := NewClient(hub, nil)
	require.True(t, hub.Join(c))

	hub.Publish("llm.created", map[string]string{"id": "1"})

	select {
	case raw := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "llm.created", msg.Action)
		assert.Equal(t, map[string]interface{}{"id": "1"}, msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	hub.Leave(c)
	assertDone(t, c)
	assert.False(t, c.Reply([]byte("late")))
}

func assertDone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("client not marked done")
	}
}

func TestHub_StopClosesClientsAndUnblocksCallers(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	c := NewClient(hub, nil)
	require.True(t, hub.Join(c))
	hub.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	assertDone(t, c)
	assert.False(t, hub.Join(NewClient(hub, nil)))
	hub.Leave(c)
	hub.Publish("ignored", nil)
	hub.Stop()
}

func TestHub_LeaveAndReplyRaceWithoutPanic(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	for i := 0; i < 50; i++ {
		c := NewClient(hub, nil)
		require.True(t, hub.Join(c))
		replied := make(chan struct{})
		go func() {
			defer close(replied)
			for j := 0; j < 100; j++ {
				c.Reply([]byte("x"))
			}
		}()
		hub.Leave(c)
		<-replied
		assertDone(t, c)
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := NewClient(hub, nil)
	require.True(t, hub.Join(c))
	for i := 0; i < cap(c.Send); i++ {
		c.Send <- []byte("queued")
	}

	hub.Publish("llm.updated", nil)
	assertDone(t, c)
	assert.Len(t, c.Send, cap(c.Send), "queued messages stay readable")
}

func TestClient_RoundTripOverConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		client := NewClient(hub, conn)
		hub.Join(client)
		go client.WritePump()
		go func() {
			client.ReadPump(func(c *Client, _ []byte) { c.Reply(NewPongMessage()) })
			hub.Leave(client)
		}()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"ping"}`)))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "pong", msg.Action)
}
