// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "miniblog/docs" // swagger docs
	"miniblog/internal/bootstrap"
	"miniblog/internal/cache"
	"miniblog/internal/config"
	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/notifications"
	"miniblog/internal/repository"
	"miniblog/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository

	notifier   *notifications.Notifier
	hub        *notifications.Hub
	queue      *notifications.Queue
	sender     notifications.Sender
	dispatcher *notifications.Dispatcher

	postService       *service.PostService
	commentService    *service.CommentService
	moderationService *service.ModerationService
	accountService    *service.AccountService
	roleService       *service.RoleService
}

// NewServer connects to the database and Redis, seeds the built-in roles and
// returns a server ready to Start.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}

	s, err := NewServerWithDeps(cfg, db, rdb)
	if err != nil {
		return nil, err
	}
	s.promMiddleware = middleware.InitMetrics("miniblog-api")
	return s, nil
}

// NewServerWithDeps creates a server from an existing database and an optional
// Redis client. Tests use it with sqlite and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Server, error) {
	sender, err := notifications.NewSender(cfg)
	if err != nil {
		return nil, fmt.Errorf("mail transport: %w", err)
	}
	return newServer(cfg, db, rdb, sender), nil
}

func newServer(cfg *config.Config, db *gorm.DB, rdb *redis.Client, sender notifications.Sender) *Server {
	s := &Server{
		config:      cfg,
		db:          db,
		redis:       rdb,
		userRepo:    repository.NewUserRepository(db),
		roleRepo:    repository.NewRoleRepository(db),
		postRepo:    repository.NewPostRepository(db, cache.NewStore(rdb)),
		commentRepo: repository.NewCommentRepository(db),
		hub:         notifications.NewHub(),
		queue:       notifications.NewQueue(rdb),
		sender:      sender,
	}
	if rdb != nil {
		s.notifier = notifications.NewNotifier(rdb)
	}
	s.dispatcher = notifications.NewDispatcher(cfg.NotifyMode, s.queue, sender, s.realtimePublisher())

	s.postService = service.NewPostService(s.postRepo, s.commentRepo, s.dispatcher)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo, s.userRepo, s.dispatcher)
	s.moderationService = service.NewModerationService(s.postService, s.commentService)
	s.accountService = service.NewAccountService(s.userRepo, s.dispatcher, service.AccountOptions{
		JWTSecret:                cfg.JWTSecret,
		PublicBaseURL:            cfg.PublicBaseURL,
		RequireEmailConfirmation: cfg.RequireEmailConfirmation,
	})
	s.roleService = service.NewRoleService(s.userRepo, s.roleRepo)
	return s
}

// NotificationWorker returns the queue consumer for this server's transport,
// or nil when notifications are sent inline.
func (s *Server) NotificationWorker() *notifications.Worker {
	if s.queue == nil || s.dispatcher.Mode() != config.NotifyModeQueue {
		return nil
	}
	return notifications.NewWorker(s.queue, s.sender)
}

// SetupMiddleware configures all middleware for the application
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected browser requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
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

// SetupRoutes configures all routes for the application. Literal segments are
// registered before their /:id siblings.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := s.AuthRequired()
	optional := s.OptionalAuth()

	account := api.Group("/account")
	account.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	account.Get("/confirm", s.ConfirmEmail)
	account.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	account.Post("/logout", auth, s.Logout)

	posts := api.Group("/posts")
	posts.Get("/", optional, s.GetPosts)
	posts.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.SearchPosts)
	posts.Get("/pending", auth, s.GetPendingPosts)
	posts.Get("/mine", auth, s.GetMyPosts)
	posts.Get("/rejected", auth, s.GetMyRejectedPosts)
	posts.Post("/", auth, middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", optional, s.GetPostComments)
	posts.Put("/:id/approve", auth, s.ApprovePost)
	posts.Put("/:id/reject", auth, s.RejectPost)
	posts.Get("/:id", optional, s.GetPost)
	posts.Put("/:id", auth, s.UpdatePost)
	posts.Delete("/:id", auth, s.DeletePost)
	api.Get("/myposts", auth, s.GetMyPosts)

	comments := api.Group("/comments")
	comments.Get("/", auth, s.GetAllComments)
	comments.Post("/", auth, middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	comments.Delete("/:id", auth, s.DeleteComment)

	admin := api.Group("/admin")
	adminOnly := s.AdminRequired()
	admin.Get("/users", auth, adminOnly, s.ListUsers)
	admin.Get("/roles", auth, adminOnly, s.ListRoles)
	admin.Get("/user-roles/:name", auth, adminOnly, s.GetUserRoles)
	admin.Post("/assign-role", auth, adminOnly, s.AssignRole)
	admin.Post("/remove-role", auth, adminOnly, s.RemoveRole)
	admin.Delete("/remove-role", auth, adminOnly, s.RemoveRole)

	api.Get("/ws", s.requireUpgrade, auth, s.WebsocketHandler())
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "MiniBlog API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
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
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
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

// Start builds the app, wires the realtime hub to Redis and listens on the configured port.
// It blocks until the listener stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("Realtime wiring stopped", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("Error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("Error shutting down realtime hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("Error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("Error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
