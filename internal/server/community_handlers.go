package server

import "github.com/gofiber/fiber/v2"

// Community handles GET /api/community
// @Summary Community overview
// @Tags community
// @Produce json
// @Success 200 {object} models.CommunityOverview
// @Router /community [get]
func (s *Server) Community(c *fiber.Ctx) error {
	overview, err := s.communityService.Overview(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(overview)
}

// About handles GET /api/about
// @Summary Product information
// @Tags community
// @Produce json
// @Success 200 {object} models.AboutPage
// @Router /about [get]
func (s *Server) About(c *fiber.Ctx) error {
	about, err := s.communityService.About(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(about)
}
