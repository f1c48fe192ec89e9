package server

import "github.com/gofiber/fiber/v2"

// GetNotifications handles GET /api/me/notifications
// @Summary Recent notifications
// @Tags me
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.NotificationInbox
// @Router /me/notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	inbox, err := s.notificationService.Inbox(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inbox)
}

// MarkNotificationRead handles POST /api/me/notifications/:id/read
// @Summary Mark a notification read
// @Tags me
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /me/notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.notificationService.MarkRead(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
