package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

type streamMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	streamAuthEvent = "auth_event"
	streamResync    = "resync"
)

// streamWatch is one running auth stream. dispatching is set while the
// reader goroutine is inside listeners.
type streamWatch struct {
	cancel      context.CancelFunc
	done        chan struct{}
	dispatching atomic.Bool
}

// Watch opens the auth-event stream for the current session. Every event
// re-resolves the session and profile, then reaches the listeners. The
// stream runs until ctx is cancelled, Close is called or the server hangs up.
func (s *SessionStore) Watch(ctx context.Context) error {
	if s.Session() == nil {
		return newNotAuthenticated()
	}
	s.stopStream()

	ticket, err := s.ticket(ctx)
	if err != nil {
		return err
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, s.streamURL(ticket), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return &NetworkError{Op: "GET /api/ws/auth", Err: err}
	}

	streamCtx, cancel := context.WithCancel(ctx)
	w := &streamWatch{cancel: cancel, done: make(chan struct{})}
	s.watchMu.Lock()
	s.watch = w
	s.watchMu.Unlock()

	go func() {
		<-streamCtx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	go func() {
		defer close(w.done)
		defer cancel()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if streamCtx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					s.client.logger.Warn("auth stream closed", "error", err)
				}
				return
			}
			w.dispatching.Store(true)
			s.handleStreamMessage(streamCtx, raw)
			w.dispatching.Store(false)
		}
	}()
	return nil
}

func (s *SessionStore) handleStreamMessage(ctx context.Context, raw []byte) {
	var msg streamMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.client.logger.Debug("ignoring malformed stream message", "error", err)
		return
	}
	var eventType string
	switch msg.Type {
	case streamAuthEvent:
		var event AuthEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			s.client.logger.Debug("ignoring malformed auth event", "error", err)
			return
		}
		eventType = event.Type
	case streamResync:
		// Events were dropped; the refreshed state decides what listeners hear.
		eventType = EventUserUpdated
	default:
		return
	}

	if err := s.resolve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.client.logger.Warn("failed to refresh session after stream message", "type", msg.Type, "error", err)
	}
	if msg.Type == streamResync && s.Session() == nil {
		eventType = EventSignedOut
	}
	if ctx.Err() != nil {
		return
	}
	s.notify(eventType)
}

// stopStream cancels the running stream and waits for its reader to exit.
// A listener stopping the stream from the reader itself cannot be waited on;
// the reader exits once the listener returns.
func (s *SessionStore) stopStream() {
	s.watchMu.Lock()
	w := s.watch
	s.watch = nil
	s.watchMu.Unlock()

	if w == nil {
		return
	}
	w.cancel()
	if !w.dispatching.Load() {
		<-w.done
	}
}
