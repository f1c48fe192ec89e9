package server

import (
	"livaulislam/internal/middleware"
	"livaulislam/internal/models"
	"livaulislam/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type changePasswordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm_password"`
}

// SignUp handles POST /api/auth/signup
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signUpRequest true "Sign-up request"
// @Success 201 {object} models.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.authService.SignUp(c.UserContext(), service.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// SignIn handles POST /api/auth/signin. The identifier is an email or a username.
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signInRequest true "Credentials"
// @Success 200 {object} models.AuthResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/signin [post]
func (s *Server) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.authService.SignIn(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// GetSession handles GET /api/auth/session. Without a token the session is null.
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} models.AuthResult
// @Router /auth/session [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	token := middleware.BearerToken(c)
	if token == "" {
		return c.JSON(models.AuthResult{})
	}
	res, err := s.authService.Session(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// SignOut handles POST /api/auth/signout
// @Summary Sign out
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/signout [post]
func (s *Server) SignOut(c *fiber.Ctx) error {
	if err := s.authService.SignOut(c.UserContext(), currentClaims(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UsernameAvailable handles GET /api/auth/username-available?username=
// @Summary Check username availability
// @Tags auth
// @Produce json
// @Param username query string true "Username"
// @Success 200 {object} object{username=string,available=bool}
// @Router /auth/username-available [get]
func (s *Server) UsernameAvailable(c *fiber.Ctx) error {
	username := c.Query("username")
	available, err := s.authService.UsernameAvailable(c.UserContext(), username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"username": username, "available": available})
}

// ChangePassword handles POST /api/auth/password
// @Summary Change password
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Param request body changePasswordRequest true "New password"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/password [post]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	err := s.authService.ChangePassword(c.UserContext(), service.ChangePasswordInput{
		UserID:   currentUserID(c),
		Password: req.Password,
		Confirm:  req.Confirm,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteAccount handles DELETE /api/me. It signs the user out; data is kept.
// @Summary Delete account
// @Tags me
// @Security BearerAuth
// @Success 204
// @Router /me [delete]
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	if err := s.authService.DeleteAccount(c.UserContext(), currentClaims(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
