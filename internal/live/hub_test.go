package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastsToAllClients(t *testing.T) {
	hub, server := startHub(t)

	a := dial(t, server)
	b := dial(t, server)

	ev := Event{Type: EventOrderUpdated, OrderID: "ord-1", Status: "confirmed", PaymentStatus: "paid"}

	hub.Publish(ev)

	for _, conn := range []*websocket.Conn{a, b} {
		var got Event
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, ev, got)
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(Event{OrderID: "ord-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := &client{send: make(chan []byte)}
	hub.register <- slow

	hub.Publish(Event{OrderID: "ord-1"})

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-slow.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestServeWS_FailedUpgradeAfterHubStopped(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	// Accept the registration, then stop the hub before the unregister.
	go func() {
		<-hub.register
		close(hub.done)
	}()

	returned := make(chan struct{})
	go func() {
		hub.ServeWS(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/live", nil))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("ServeWS blocked after the hub stopped")
	}
}

func TestServeWS_HubStopped(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	w := httptest.NewRecorder()
	hub.ServeWS(w, httptest.NewRequest(http.MethodGet, "/admin/live", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
