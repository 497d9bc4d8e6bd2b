package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/telehealth-backend/internal/logger"
)

func init() {
	logger.Silence()
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func dialClient(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, hub, userID)
		if err := hub.Register(client); err != nil {
			_ = conn.Close()
			return
		}
		client.Run(r.Context())
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount(userID) == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestHub_BroadcastToUser(t *testing.T) {
	hub, _ := startHub(t)
	userID := uuid.New()
	conn := dialClient(t, hub, userID)

	err := hub.BroadcastToUser(userID, "appointment_resolved", map[string]string{"status": "SETTLED"})
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "appointment_resolved", msg.Type)
	assert.Equal(t, "SETTLED", msg.Data["status"])
}

func TestHub_BroadcastToOfflineUser(t *testing.T) {
	hub, _ := startHub(t)

	err := hub.BroadcastToUser(uuid.New(), "appointment_resolved", nil)

	assert.NoError(t, err)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, _ := startHub(t)
	userID := uuid.New()
	conn := dialClient(t, hub, userID)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hub.ClientCount(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StopsWithContext(t *testing.T) {
	hub, cancel := startHub(t)
	cancel()

	assert.Eventually(t, func() bool {
		return hub.BroadcastToUser(uuid.New(), "appointment_resolved", nil) == ErrHubStopped
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, ErrHubStopped, hub.Register(&Client{userID: uuid.New(), send: make(chan []byte)}))
}
