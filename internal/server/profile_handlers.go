package server

import (
	"livaulislam/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/profiles/:username (exact, case-sensitive match)
// @Summary Public profile
// @Tags profiles
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.ProfilePage
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	page, err := s.profileService.Page(c.UserContext(), c.Params("username"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetProfileArticles handles GET /api/profiles/:username/articles
// @Summary Articles of a profile
// @Tags profiles
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.Article
// @Router /profiles/{username}/articles [get]
func (s *Server) GetProfileArticles(c *fiber.Ctx) error {
	articles, err := s.profileService.Articles(c.UserContext(), c.Params("username"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(articles)
}

// FollowProfile handles POST /api/profiles/:id/follow
// @Summary Follow a writer
// @Tags engagement
// @Security BearerAuth
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} models.FollowState
// @Failure 400 {object} models.ErrorResponse
// @Router /profiles/{id}/follow [post]
func (s *Server) FollowProfile(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.engagementService.Follow(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// UnfollowProfile handles DELETE /api/profiles/:id/follow
// @Summary Unfollow a writer
// @Tags engagement
// @Security BearerAuth
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} models.FollowState
// @Router /profiles/{id}/follow [delete]
func (s *Server) UnfollowProfile(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.engagementService.Unfollow(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// GetMyProfile handles GET /api/me/profile
// @Summary Own profile
// @Tags me
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Profile
// @Router /me/profile [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/me/profile
// @Summary Update own profile
// @Tags me
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.ProfileUpdate true "Changed fields"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Router /me/profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var in models.ProfileUpdate
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	profile, err := s.profileService.UpdateProfile(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
