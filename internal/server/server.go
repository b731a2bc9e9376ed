// Package server contains the Fiber application: routes, middleware and the
// server-rendered HTML handlers.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"minirsn/internal/config"
	"minirsn/internal/database"
	"minirsn/internal/middleware"
	"minirsn/internal/models"
	"minirsn/internal/notify"
	"minirsn/internal/observability"
	"minirsn/internal/policy"
	"minirsn/internal/repository"
	"minirsn/internal/service"
	"minirsn/internal/session"
	"minirsn/internal/storage"
	"minirsn/web"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"gorm.io/gorm"
)

const sessionCookieName = "minirsn_session"

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	app            *fiber.App
	prom           *fiberprometheus.FiberPrometheus
	sessions       *fibersession.Store
	sessionStorage *session.RedisStorage
	images         *storage.ImageStore
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	postService    *service.PostService
	commentService *service.CommentService
	adminService   *service.AdminService
	notifyService  *notify.Service
}

// NewServer creates a server instance, establishing the database connection,
// the Redis session backend and the SMTP mailer from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	sessionStorage := session.NewRedisStorage(cfg.RedisURL)
	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)

	return NewServerWithDeps(cfg, db, sessionStorage, mailer)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
// A nil sessionStorage falls back to Fiber's in-memory session store.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, sessionStorage *session.RedisStorage, mailer notify.Mailer) (*Server, error) {
	images, err := storage.NewImageStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("image store init failed: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	sessionCfg := fibersession.Config{
		Expiration:     time.Duration(cfg.SessionTTLMins) * time.Minute,
		KeyLookup:      "cookie:" + sessionCookieName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	}
	if sessionStorage != nil {
		sessionCfg.Storage = sessionStorage
	}

	server := &Server{
		config:         cfg,
		db:             db,
		prom:           fiberprometheus.New("minirsn"),
		sessions:       fibersession.New(sessionCfg),
		sessionStorage: sessionStorage,
		images:         images,
		userRepo:       userRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
	}
	server.postService = service.NewPostService(postRepo, images)
	server.commentService = service.NewCommentService(commentRepo, postRepo)
	server.adminService = service.NewAdminService(userRepo, postRepo, commentRepo, images)
	server.notifyService = notify.NewService(userRepo, mailer, cfg.MailFrom, cfg.MailSubject)

	return server, nil
}

// App builds (once) and returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	engine := html.NewFileSystem(http.FS(web.Templates()), ".html")
	engine.AddFunc("datetime", func(v any) string {
		switch t := v.(type) {
		case time.Time:
			return t.Format("Jan 2, 2006 15:04")
		case *time.Time:
			if t != nil {
				return t.Format("Jan 2, 2006 15:04")
			}
		}
		return ""
	})

	app := fiber.New(fiber.Config{
		AppName:     "MiniRSN",
		Views:       engine,
		ViewsLayout: "layouts/main",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			observability.RequestLogger(c.UserContext()).Error("unhandled error",
				slog.String("error", err.Error()))
			return c.Status(fiber.StatusInternalServerError).Render("errors/500", fiber.Map{
				"Title": "Something went wrong",
			})
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request ID into the request context for logging
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.prom != nil {
		app.Use(s.prom.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.prom != nil {
		s.prom.RegisterAt(app, "/metrics")
	}

	// Uploaded post images
	app.Static("/uploads/posts", s.images.Dir())

	app.Get("/", s.Home)
	app.Get("/login", s.ShowLogin)
	app.Post("/login", s.Login)
	app.Post("/logout", s.Logout)
	app.Get("/register", s.ShowRegister)
	app.Post("/register", s.Register)

	// Post routes
	posts := app.Group("/post", s.AuthRequired())
	posts.Get("/", s.ListPosts)
	posts.Get("/new", s.NewPost)
	posts.Post("/new", s.CreatePost)
	// Specific /:id/edit routes BEFORE generic /:id routes
	posts.Get("/:id/edit", s.EditPost)
	posts.Post("/:id/edit", s.UpdatePost)
	posts.Get("/:id", s.ShowPost)
	posts.Post("/:id", s.DeletePost)

	// Comment routes
	comments := app.Group("/comment")
	comments.Get("/", s.AuthRequired(), s.ListOwnComments)
	comments.Get("/new/:postId", s.AuthRequired(), s.NewComment)
	comments.Post("/new/:postId", s.AuthRequired(), s.CreateComment)
	comments.Post("/quick-add/:postId", s.AuthRequired(), s.QuickAddComment)
	comments.Get("/:id/edit", s.AuthRequired(), s.EditComment)
	comments.Post("/:id/edit", s.AuthRequired(), s.UpdateComment)
	// Generic /:id routes must be last; show is reachable without a login
	comments.Get("/:id", s.ShowComment)
	comments.Post("/:id", s.AuthRequired(), s.DeleteComment)

	// Admin routes
	admin := app.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/", s.AdminDashboard)
	admin.Get("/users", s.AdminUsers)
	admin.Get("/users/:id/edit", s.AdminEditUser)
	admin.Post("/users/:id/edit", s.AdminUpdateUser)
	admin.Get("/users/:id/delete", s.AdminDeleteUser)
	admin.Get("/posts", s.AdminPosts)
	admin.Get("/post/:id/delete", s.AdminDeletePost)
	admin.Get("/comments", s.AdminComments)
	admin.Get("/comment/:id/delete", s.AdminDeleteComment)
}

// Home redirects anonymous visitors to the login form and everyone else to
// the post feed.
func (s *Server) Home(c *fiber.Ctx) error {
	if user, _ := s.userFromCookie(c); user != nil {
		return c.Redirect("/post/", fiber.StatusSeeOther)
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	sessionStatus := "in-memory"
	if s.sessionStorage != nil {
		sessionStatus = "redis"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"sessions": sessionStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with the 403
// page. Must be placed after AuthRequired so the user is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !policy.IsAdmin(s.currentUser(c)) {
			return s.renderError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// Start starts the server.
func (s *Server) Start() error {
	app := s.App()
	observability.GlobalLogger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.GlobalLogger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.GlobalLogger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.sessionStorage != nil {
		if rerr := s.sessionStorage.Close(); rerr != nil {
			observability.GlobalLogger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.GlobalLogger.Info("server shutdown complete")
	return nil
}
