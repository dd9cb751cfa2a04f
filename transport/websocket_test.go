package transport_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kurble/mirror/transport"
)

func newWebSocketPair(t *testing.T) (*transport.WebSocket, *transport.WebSocket) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	var server *transport.WebSocket
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		server = transport.NewWebSocket(conn, transport.DefaultWebSocketConfig())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	client := transport.NewWebSocket(clientConn, transport.DefaultWebSocketConfig())

	require.Eventually(t, func() bool { return server != nil }, time.Second, time.Millisecond)
	return client, server
}

func TestWebSocketRoundTrip(t *testing.T) {
	client, server := newWebSocketPair(t)
	defer client.Close()
	defer server.Close()

	require.NoError(t, client.Send("set:5"))

	var got string
	var ok bool
	require.Eventually(t, func() bool {
		got, ok = server.Recv()
		return ok
	}, time.Second, time.Millisecond)
	assert.Equal(t, "set:5", got)
}

func TestWebSocketSendAfterCloseFails(t *testing.T) {
	client, server := newWebSocketPair(t)
	defer server.Close()

	client.Close()
	assert.False(t, client.Alive())
	assert.Error(t, client.Send("set:1"))
}

func TestWebSocketPeerCloseMarksDead(t *testing.T) {
	client, server := newWebSocketPair(t)
	defer client.Close()

	server.Close()
	require.Eventually(t, func() bool { return !client.Alive() }, time.Second, 5*time.Millisecond)
}
