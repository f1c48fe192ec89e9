package server

import (
	"livaulislam/internal/repository"
	"livaulislam/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Home handles GET /api/articles/home
// @Summary Landing page lists
// @Tags articles
// @Produce json
// @Success 200 {object} models.HomeFeed
// @Router /articles/home [get]
func (s *Server) Home(c *fiber.Ctx) error {
	feed, err := s.articleService.Home(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}

// Discover handles GET /api/articles?q=&tag=&sort=&page=&limit=
// @Summary Browse published articles
// @Tags articles
// @Produce json
// @Param q query string false "Search text"
// @Param tag query string false "Tag"
// @Param sort query string false "latest | popular | trending"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Page
// @Router /articles [get]
func (s *Server) Discover(c *fiber.Ctx) error {
	p := parsePagination(c, 12)
	page, err := s.articleService.Discover(c.UserContext(), repository.DiscoverFilter{
		Query: c.Query("q"),
		Tag:   c.Query("tag"),
		Sort:  c.Query("sort"),
		Page:  p.Page,
		Limit: p.Limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetArticleBySlug handles GET /api/articles/slug/:slug
// @Summary Article detail
// @Tags articles
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} models.ArticleDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/slug/{slug} [get]
func (s *Server) GetArticleBySlug(c *fiber.Ctx) error {
	detail, err := s.articleService.Detail(c.UserContext(), c.Params("slug"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// CreateArticle handles POST /api/articles
// @Summary Save a new article
// @Tags articles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.SaveInput true "Article"
// @Success 201 {object} models.Article
// @Failure 400 {object} models.ErrorResponse
// @Router /articles [post]
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	var in service.SaveInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.ID = nil
	article, err := s.articleService.Save(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// UpdateArticle handles PUT /api/articles/:id
// @Summary Update an article
// @Tags articles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param request body service.SaveInput true "Article"
// @Success 200 {object} models.Article
// @Failure 403 {object} models.ErrorResponse
// @Router /articles/{id} [put]
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	var in service.SaveInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.ID = &id
	article, err := s.articleService.Save(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// GetArticleForEdit handles GET /api/articles/:id/edit
// @Summary Load an article for editing
// @Tags articles
// @Security BearerAuth
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} models.Article
// @Router /articles/{id}/edit [get]
func (s *Server) GetArticleForEdit(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	article, err := s.articleService.GetForEdit(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// DeleteArticle handles DELETE /api/articles/:id
// @Summary Delete an article
// @Tags articles
// @Security BearerAuth
// @Param id path string true "Article ID"
// @Success 204
// @Router /articles/{id} [delete]
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.articleService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeArticle handles POST /api/articles/:id/like
// @Summary Like an article
// @Tags engagement
// @Security BearerAuth
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} models.LikeState
// @Router /articles/{id}/like [post]
func (s *Server) LikeArticle(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.engagementService.Like(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// UnlikeArticle handles DELETE /api/articles/:id/like
// @Summary Remove a like
// @Tags engagement
// @Security BearerAuth
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} models.LikeState
// @Router /articles/{id}/like [delete]
func (s *Server) UnlikeArticle(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.engagementService.Unlike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// Search handles GET /api/search?q=&sort=
// @Summary Search articles and writers
// @Tags search
// @Produce json
// @Param q query string true "Query"
// @Param sort query string false "relevance | date | popularity"
// @Success 200 {object} models.SearchResults
// @Router /search [get]
func (s *Server) Search(c *fiber.Ctx) error {
	results, err := s.articleService.Search(c.UserContext(), c.Query("q"), c.Query("sort"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(results)
}

// Dashboard handles GET /api/me/dashboard
// @Summary Author dashboard
// @Tags me
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Dashboard
// @Router /me/dashboard [get]
func (s *Server) Dashboard(c *fiber.Ctx) error {
	dashboard, err := s.articleService.Dashboard(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dashboard)
}

// Liked handles GET /api/me/liked
// @Summary Liked articles
// @Tags me
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Article
// @Router /me/liked [get]
func (s *Server) Liked(c *fiber.Ctx) error {
	articles, err := s.articleService.Liked(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(articles)
}
