// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	_ "livaulislam/docs" // swagger docs
	"livaulislam/internal/cache"
	"livaulislam/internal/config"
	"livaulislam/internal/database"
	"livaulislam/internal/featureflags"
	"livaulislam/internal/middleware"
	"livaulislam/internal/models"
	"livaulislam/internal/notifications"
	"livaulislam/internal/repository"
	"livaulislam/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const tokenTTL = 7 * 24 * time.Hour

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	authService         *service.AuthService
	profileService      *service.ProfileService
	articleService      *service.ArticleService
	engagementService   *service.EngagementService
	commentService      *service.CommentService
	communityService    *service.CommunityService
	notificationService *service.NotificationService
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; realtime features and token revocation are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	accounts := repository.NewAccountRepository(db)
	profiles := repository.NewProfileRepository(db)
	articles := repository.NewArticleRepository(db)
	engagements := repository.NewEngagementRepository(db)
	comments := repository.NewCommentRepository(db)
	notes := repository.NewNotificationRepository(db)
	community := repository.NewCommunityRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("livaulislam-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	// A nil *Notifier is a valid no-op publisher.
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
	}

	s.notificationService = service.NewNotificationService(notes, s.notifier)
	s.authService = service.NewAuthService(accounts, profiles,
		service.NewRedisTokenBlacklist(redisClient), s.notifier, cfg.JWTSecret, tokenTTL)
	s.profileService = service.NewProfileService(profiles, articles, engagements, s.notifier)
	s.articleService = service.NewArticleService(articles, profiles, comments, engagements)
	s.engagementService = service.NewEngagementService(engagements, articles, profiles, s.notificationService, s.featureFlags)
	s.commentService = service.NewCommentService(comments, articles, profiles, s.notificationService, s.featureFlags)
	s.communityService = service.NewCommunityService(community, articles, profiles, s.featureFlags)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, apikey, X-API-Key, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		// Preflights belong to CORS; stress runs drive many devices from one IP.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "stress"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api", middleware.APIKeyRequired(s.config.APIKey))
	api.Get("/features", s.OptionalAuth(), s.GetFeatureFlags)
	api.Get("/about", s.About)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.SignUp)
	auth.Post("/signin", middleware.RateLimit(s.redis, 10, 5*time.Minute, "signin"), s.SignIn)
	auth.Get("/username-available", middleware.RateLimit(s.redis, 30, time.Minute, "username_check"), s.UsernameAvailable)
	auth.Get("/session", s.GetSession)
	auth.Post("/signout", s.AuthRequired(), s.SignOut)
	auth.Post("/password", s.AuthRequired(), s.ChangePassword)

	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws/auth", s.AuthRequired(), s.AuthStreamHandler())

	articles := api.Group("/articles")
	articles.Get("/home", s.Home)
	articles.Get("/", s.Discover)
	articles.Get("/slug/:slug", s.OptionalAuth(), s.GetArticleBySlug)
	articles.Get("/:id/comments", s.OptionalAuth(), s.GetComments)
	articles.Post("/", s.AuthRequired(), middleware.RateLimit(s.redis, 10, 5*time.Minute, "save_article"), s.CreateArticle)
	articles.Get("/:id/edit", s.AuthRequired(), s.GetArticleForEdit)
	articles.Put("/:id", s.AuthRequired(), s.UpdateArticle)
	articles.Delete("/:id", s.AuthRequired(), s.DeleteArticle)
	articles.Post("/:id/like", s.AuthRequired(), s.LikeArticle)
	articles.Delete("/:id/like", s.AuthRequired(), s.UnlikeArticle)
	articles.Post("/:id/comments", s.AuthRequired(),
		middleware.RateLimit(s.redis, 5, time.Minute, "create_comment"), s.CreateComment)

	api.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.Search)
	api.Get("/community", s.OptionalAuth(), s.Community)

	profiles := api.Group("/profiles")
	profiles.Get("/:username", s.OptionalAuth(), s.GetProfile)
	profiles.Get("/:username/articles", s.OptionalAuth(), s.GetProfileArticles)
	profiles.Post("/:id/follow", s.AuthRequired(), s.FollowProfile)
	profiles.Delete("/:id/follow", s.AuthRequired(), s.UnfollowProfile)

	me := api.Group("/me", s.AuthRequired())
	me.Get("/profile", s.GetMyProfile)
	me.Put("/profile", s.UpdateMyProfile)
	me.Delete("/", s.DeleteAccount)
	me.Get("/dashboard", s.Dashboard)
	me.Get("/liked", s.Liked)
	me.Get("/notifications", s.GetNotifications)
	me.Post("/notifications/:id/read", s.MarkNotificationRead)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired accepts a single-use websocket ticket on /api/ws paths, or
// a bearer token elsewhere. Revoked tokens are rejected.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws/") && c.Path() != "/api/ws/ticket"

		if isWSPath {
			ticket := c.Query("ticket")
			if ticket == "" || s.redis == nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("WebSocket ticket required"))
			}
			raw, err := s.redis.GetDel(c.Context(), wsTicketKey(ticket)).Result()
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			setUser(c, userID, nil)
			return c.Next()
		}

		claims, err := s.authService.Authenticate(c.UserContext(), middleware.BearerToken(c))
		if err != nil {
			return respondError(c, err)
		}
		userID, _ := claims.UserID()
		setUser(c, userID, claims)
		return c.Next()
	}
}

// OptionalAuth attaches the caller when a valid bearer token is present and
// lets anonymous requests through otherwise.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := middleware.BearerToken(c)
		if token == "" {
			return c.Next()
		}
		claims, err := s.authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return c.Next()
		}
		userID, _ := claims.UserID()
		setUser(c, userID, claims)
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, userID uuid.UUID, claims *middleware.Claims) {
	c.Locals("userID", userID)
	if claims != nil {
		c.Locals("claims", claims)
	}
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
}

// NewApp builds the fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Livaulislam API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			return respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start listens on the configured port and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", ":"+s.config.Port)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", s.config.Port, err)
	}
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.Run(context.Background(), ln)
}

// Run serves on ln until ctx is cancelled or Shutdown is called. The hub is
// subscribed before the first request is accepted.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.NewApp()
	s.app = app

	if s.notifier != nil && s.hub != nil {
		if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start hub wiring", "hub", s.hub.Name(), "error", err)
		}
	}

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()
	return app.Listener(ln)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", "hub", s.hub.Name(), "error", err)
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", "error", cerr)
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
