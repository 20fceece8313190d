package websocket

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func waitForMessage(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hub delivery")
		return nil
	}
}

func TestHubLocalSend(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	userID := uuid.New()
	client := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	hub.register <- client

	// Give the Run loop a beat to register
	time.Sleep(20 * time.Millisecond)

	hub.Send(userID, Message{Type: "analysis_completed", Data: map[string]interface{}{"run_id": "r1"}})

	data := waitForMessage(t, client.Send)
	assert.Contains(t, string(data), "analysis_completed")

	// Other users get nothing
	other := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	hub.register <- other
	time.Sleep(20 * time.Millisecond)

	hub.Send(userID, Message{Type: "analysis_completed"})
	waitForMessage(t, client.Send)
	assert.Empty(t, other.Send)
}

func TestHubRedisFanOut(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb1 := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rdb2 := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	// Two hubs simulating two instances behind a load balancer
	hub1 := NewHub(rdb1, nopLogger{})
	hub2 := NewHub(rdb2, nopLogger{})
	go hub1.Run()
	go hub2.Run()

	userID := uuid.New()
	client := &Client{Hub: hub1, UserID: userID, Send: make(chan []byte, 4)}
	hub1.register <- client

	// Wait for registration and for hub1's redis subscription to attach
	time.Sleep(100 * time.Millisecond)

	// Send on the instance the user is NOT connected to
	hub2.Send(userID, Message{Type: "notification", Data: map[string]interface{}{"title": "cross-instance"}})

	data := waitForMessage(t, client.Send)
	require.Contains(t, string(data), "cross-instance")
}

func TestHubBroadcastReachesAllLocalClients(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	a := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	b := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	hub.register <- a
	hub.register <- b
	time.Sleep(20 * time.Millisecond)

	hub.Broadcast(Message{Type: "maintenance", Data: "restarting soon"})

	assert.Contains(t, string(waitForMessage(t, a.Send)), "maintenance")
	assert.Contains(t, string(waitForMessage(t, b.Send)), "maintenance")
}
