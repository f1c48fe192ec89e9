package client

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"livaulislam/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_StreamMessages(t *testing.T) {
	f := newFakeService(t)
	userID := uuid.New()
	var revoked atomic.Bool
	var bio atomic.Value
	bio.Store("first")
	f.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, _ *http.Request) {
		if revoked.Load() {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Token has been revoked", Code: models.CodeUnauthorized})
			return
		}
		writeJSON(w, http.StatusOK, AuthResult{
			Session: testSession(userID, "tok"),
			Profile: &Profile{ID: userID, Username: "reader", Bio: bio.Load().(string)},
		})
	})

	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save("tok"))
	store := NewSessionStore(f.client(t), tokens)
	require.NoError(t, store.Init(context.Background()))
	log := &eventLog{}
	store.Subscribe(log.listen)
	ctx := context.Background()

	bio.Store("second")
	store.handleStreamMessage(ctx, []byte(`{"type":"auth_event","payload":{"type":"USER_UPDATED"}}`))
	assert.Equal(t, "second", store.Profile().Bio)

	store.handleStreamMessage(ctx, []byte(`{"type":"notification","payload":{}}`))
	store.handleStreamMessage(ctx, []byte(`not json`))
	assert.Equal(t, []string{EventUserUpdated}, log.types(), "only auth events and resyncs reach listeners")

	bio.Store("third")
	store.handleStreamMessage(ctx, []byte(`{"type":"resync","payload":{}}`))
	assert.Equal(t, "third", store.Profile().Bio)
	assert.Equal(t, EventUserUpdated, log.last().Type)

	revoked.Store(true)
	store.handleStreamMessage(ctx, []byte(`{"type":"resync","payload":{}}`))
	assert.Nil(t, store.Session())
	assert.Equal(t, EventSignedOut, log.last().Type)
}

func TestSessionStore_ListenerMayCloseFromStream(t *testing.T) {
	f := newFakeService(t)
	userID := uuid.New()
	f.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, AuthResult{Session: testSession(userID, "tok")})
	})
	f.HandleFunc("POST /api/ws/ticket", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"ticket": "t-1"})
	})
	upgrader := websocket.Upgrader{}
	f.HandleFunc("GET /api/ws/auth", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "t-1", r.URL.Query().Get("ticket"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth_event","payload":{"type":"USER_UPDATED"}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save("tok"))
	store := NewSessionStore(f.client(t), tokens)
	require.NoError(t, store.Init(context.Background()))

	closed := make(chan struct{})
	store.Subscribe(func(event string, _ *Session) {
		if event == EventUserUpdated {
			store.Close()
			close(closed)
		}
	})
	require.NoError(t, store.Watch(context.Background()))

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close from a listener did not return")
	}
	store.Close()
}
