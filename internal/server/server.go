// Package server contains the HTTP handlers and route wiring for the application.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	sessionCookie = "session"
	sessionTTL    = 7 * 24 * time.Hour

	tokenIssuer   = "quill-api"
	tokenAudience = "quill-web"

	loginPath = "/auth/login/"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	log         *slog.Logger
	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
}

// New wires a server around existing database and Redis handles. Tests use
// it with an in-memory SQLite database and a nil Redis client.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	return &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		log:         middleware.Logger,
		userRepo:    repository.NewUserRepository(db),
		groupRepo:   repository.NewGroupRepository(db),
		postRepo:    repository.NewPostRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		followRepo:  repository.NewFollowRepository(db),
	}
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg, middleware.Logger)
	if err != nil {
		return nil, err
	}

	cache.InitRedis(cfg.RedisURL, middleware.Logger)

	return New(cfg, db, cache.Client), nil
}

// Shutdown releases the database and Redis handles.
func (s *Server) Shutdown(ctx context.Context) error {
	cache.Close()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// App builds the Fiber application with middleware and routes configured.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Quill",
		ErrorHandler: s.errorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(requestid.New())
	app.Use(middleware.StructuredLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	prom := fiberprometheus.New("quill")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
}

// SetupRoutes configures all routes for the application. Fixed path
// segments are registered before the /:username parameter routes so they
// cannot be shadowed.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/healthz", s.HealthCheck)

	auth := app.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/login", s.LoginPage)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.Logout)

	app.Get("/", s.Index)
	app.Get("/follow", s.RequireUser(), s.FollowIndex)
	app.Get("/groups", s.Groups)
	app.Get("/group/:slug", s.GroupPosts)
	app.Get("/new", s.RequireUser(), s.NewPostForm)
	app.Post("/new", s.RequireUser(), middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)

	app.Get("/:username", s.Profile)
	app.Get("/:username/follow", s.RequireUser(), s.ProfileFollow)
	app.Get("/:username/unfollow", s.RequireUser(), s.ProfileUnfollow)
	app.Get("/:username/:postID", s.PostDetail)
	app.Get("/:username/:postID/edit", s.RequireUser(), s.EditPostForm)
	app.Post("/:username/:postID/edit", s.RequireUser(), s.EditPost)
	app.Post("/:username/:postID/comment", s.RequireUser(), middleware.RateLimit(s.redis, 15, time.Minute, "create_comment"), s.AddComment)
	app.Post("/:username/:postID/delete", s.RequireUser(), s.DeletePost)

	// Anything unrouted is a 404, including bad method/path combinations.
	app.Use(s.NotFound)
}

// errorHandler maps uncaught faults to a generic 500 response. Nothing
// internal leaks to the client; the cause goes to the log only.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return models.RespondWithError(c, fiberErr.Code, models.NewValidationError(fiberErr.Message))
	}

	s.log.Error("unhandled error", "path", c.Path(), "error", err.Error())
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(nil))
}

// NotFound is the terminal handler for unknown paths.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusNotFound,
		models.NewNotFoundError("Path", c.Path()))
}

// HealthCheck handles health check requests
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
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
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// RequireUser enforces authentication. Anonymous requests are answered with
// a redirect to the login page, never an error status.
func (s *Server) RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := s.actingUserID(c)
		if !ok {
			return c.Redirect(loginPath, fiber.StatusFound)
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

// actingUserID resolves the acting user from the session cookie or a bearer
// token. It never enforces; callers decide what anonymous means for them.
func (s *Server) actingUserID(c *fiber.Ctx) (uint, bool) {
	tokenString := c.Cookies(sessionCookie)
	if tokenString == "" {
		authHeader := c.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}
	if tokenString == "" {
		return 0, false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
		return 0, false
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// pageParam reads the 1-indexed ?page= query parameter. Anything below 1,
// or unparseable, means the first page.
func pageParam(c *fiber.Ctx) int {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	return page
}
