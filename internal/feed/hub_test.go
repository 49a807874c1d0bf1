package feed

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, time.Second, 5*time.Millisecond)
}

func TestBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitClients(t, hub, 2)

	at := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	hub.Broadcast(Event{
		ID: "req-1", Letter: "t", Script: "new_terminal.sh",
		Path: "/tmp/shortcuts/new_terminal.sh", Bound: true, Exists: true, At: at,
	})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var got Event
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, "req-1", got.ID)
		assert.Equal(t, "t", got.Letter)
		assert.True(t, got.Exists)
		assert.True(t, at.Equal(got.At))
	}
}

func TestClientDisconnect(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, hub, 1)

	conn.Close()
	waitClients(t, hub, 0)

	// No clients left; must not block or panic.
	hub.Broadcast(Event{ID: "x", Letter: "a"})
}

func TestSlowClientDropped(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	dial(t, srv)
	waitClients(t, hub, 1)

	// The client never reads; once the socket and the send buffer fill up
	// the hub gives up on it instead of blocking.
	payload := strings.Repeat("x", 64*1024)
	require.Eventually(t, func() bool {
		hub.Broadcast(Event{ID: "spam", Letter: "a", Script: payload})
		return hub.Clients() == 0
	}, 5*time.Second, time.Millisecond)
}

func TestCloseRejectsClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, hub, 1)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
