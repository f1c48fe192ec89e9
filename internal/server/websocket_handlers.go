package server

import (
	"time"

	"livaulislam/internal/middleware"
	"livaulislam/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const wsTicketTTL = 60 * time.Second

func wsTicketKey(ticket string) string {
	return "ws_ticket:" + ticket
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a single-use websocket ticket
// @Description Browsers cannot set headers on websocket upgrades, so the
// @Description stream authenticates with a short-lived ticket instead.
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Code: models.CodeInternal, Message: "Realtime stream unavailable"})
	}
	ticket := uuid.NewString()
	userID := currentUserID(c)
	if err := s.redis.Set(c.Context(), wsTicketKey(ticket), userID.String(), wsTicketTTL).Err(); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// AuthStreamHandler upgrades /api/ws/auth and forwards the caller's auth
// events (SIGNED_IN, SIGNED_OUT, USER_UPDATED) and notifications.
func (s *Server) AuthStreamHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uuid.UUID)
		if !ok || userID == uuid.Nil || s.hub == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("auth stream register failed", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		middleware.Logger.Debug("auth stream connected", "user_id", userID)

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
