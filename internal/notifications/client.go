package notifications

import (
	"log/slog"
	"time"

	"livaulislam/internal/middleware"
	"livaulislam/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Devices never send data frames; only control traffic is read.
	maxInboundFrame = 512

	sendBuffer = 32
)

var resyncFrame = []byte(`{"type":"` + MessageResync + `","payload":{}}`)

// Client is one device's auth stream connection.
type Client struct {
	UserID uuid.UUID
	// Send is closed by the hub when the client is unregistered.
	Send chan []byte

	hub  *Hub
	conn *websocket.Conn
}

func newClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, sendBuffer), hub: hub, conn: conn}
}

// ReadPump blocks until the device disconnects or stops answering pings.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundFrame)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			middleware.Logger.Warn("auth stream read failed",
				slog.String("user_id", c.UserID.String()), slog.String("error", err.Error()))
		}
		return
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
// It returns once Send is closed or a write fails.
func (c *Client) WritePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case frame, open := <-c.Send:
			if !open {
				_ = write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := write(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue never blocks the broadcaster. When the buffer is full the frame is
// dropped and the device is asked to resync instead. Callers hold the hub
// lock, so Send is still open.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.Send <- frame:
		return
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "full").Inc()
	middleware.Logger.Warn("auth stream buffer full, asking device to resync",
		slog.String("user_id", c.UserID.String()))

	// Make room for the resync frame by discarding the oldest queued frame.
	select {
	case <-c.Send:
	default:
	}
	select {
	case c.Send <- resyncFrame:
	default:
	}
}
