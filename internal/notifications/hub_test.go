package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"livaulislam/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	a, err := hub.Register(userID, nil)
	require.NoError(t, err)
	b, err := hub.Register(userID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.ConnectionCount(userID))

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.Equal(t, 1, hub.ConnectionCount(userID))

	_, ok := <-a.Send
	assert.False(t, ok, "unregister closes the send channel")

	hub.UnregisterClient(b)
	assert.Equal(t, 0, hub.ConnectionCount(userID))
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(userID, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(userID, nil)
	assert.Error(t, err)
	_ = hub.Shutdown(context.Background())
}

func TestHub_BroadcastOnlyReachesUser(t *testing.T) {
	hub := NewHub()
	alice, bob := uuid.New(), uuid.New()
	ca, err := hub.Register(alice, nil)
	require.NoError(t, err)
	cb, err := hub.Register(bob, nil)
	require.NoError(t, err)

	hub.Broadcast(alice, "hello")

	assert.Equal(t, "hello", string(<-ca.Send))
	assert.Len(t, cb.Send, 0)
	_ = hub.Shutdown(context.Background())
}

func TestHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(uuid.New(), nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, ok := <-c.Send
	assert.False(t, ok)
	_, err = hub.Register(uuid.New(), nil)
	assert.Error(t, err)
}

func TestHub_StartWiringForwardsAuthEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub()
	notifier := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, notifier))

	userID := uuid.New()
	client, err := hub.Register(userID, nil)
	require.NoError(t, err)

	require.NoError(t, notifier.PublishAuthEvent(ctx, models.AuthEvent{
		Type:   models.AuthEventSignedOut,
		UserID: userID,
		At:     time.Now(),
	}))

	var raw []byte
	require.Eventually(t, func() bool {
		select {
		case raw = <-client.Send:
			return true
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, MessageAuthEvent, msg.Type)

	var event models.AuthEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, models.AuthEventSignedOut, event.Type)
	assert.Equal(t, userID, event.UserID)

	_ = hub.Shutdown(context.Background())
}

func TestHub_FullBufferAsksForResync(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	client, err := hub.Register(userID, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		hub.Broadcast(userID, `{"type":"auth_event","payload":{}}`)
	}
	require.Len(t, client.Send, sendBuffer)

	var last []byte
	for len(client.Send) > 0 {
		last = <-client.Send
	}
	var msg Message
	require.NoError(t, json.Unmarshal(last, &msg))
	assert.Equal(t, MessageResync, msg.Type)

	_ = hub.Shutdown(context.Background())
}
