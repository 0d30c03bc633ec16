package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	hub := NewHub(logger)
	t.Cleanup(hub.Close)
	return hub
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(hub.Subscribe))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := newTestHub(t)

	// Best-effort delivery: publishing into an empty hub is a no-op.
	hub.Publish(models.NotificationEvent{EventType: models.AuditActionActivate, UserID: "user-1"})

	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestHubSubscriberReceivesEvent(t *testing.T) {
	hub := newTestHub(t)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish(models.NotificationEvent{
		EventType: models.AuditActionQuarantine,
		UserID:    "user-1",
		Timestamp: 1700000000000,
		Summary:   map[string]interface{}{"quarantine_id": "QMSG-1"},
	})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var received models.NotificationEvent
	require.NoError(t, conn.ReadJSON(&received))

	assert.Equal(t, models.AuditActionQuarantine, received.EventType)
	assert.Equal(t, "user-1", received.UserID)
	assert.Equal(t, int64(1700000000000), received.Timestamp)
	assert.Equal(t, "QMSG-1", received.Summary["quarantine_id"])
}

func TestHubRemovesDisconnectedSubscriber(t *testing.T) {
	hub := newTestHub(t)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	hub := newTestHub(t)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool {
		return hub.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.SubscriberCount())

	// Publishing after close must not panic or deliver.
	hub.Publish(models.NotificationEvent{EventType: models.AuditActionActivate, UserID: "user-1"})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
