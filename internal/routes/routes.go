package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/signon-id/signon/internal/auth"
	"github.com/signon-id/signon/internal/config"
	"github.com/signon-id/signon/internal/google"
	"github.com/signon-id/signon/internal/identity"
	"github.com/signon-id/signon/internal/mail"
	"github.com/signon-id/signon/internal/middleware"
	"github.com/signon-id/signon/internal/passcode"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Repositories
	var userRepo identity.Repository
	var codeRepo passcode.Repository
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
		codeRepo = passcode.NewPostgresRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
		codeRepo = passcode.NewMemoryRepository()
	}

	var mailer mail.Mailer
	if d.Cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(d.Cfg.SMTPHost, d.Cfg.SMTPPort, d.Cfg.SMTPUser, d.Cfg.SMTPPassword)
	} else {
		mailer = mail.NewLoggerMailer(d.Logger)
	}

	// Services and handlers
	ids := identity.NewService(userRepo)
	codes := passcode.NewService(codeRepo, userRepo, ids, mailer, d.Cfg.MailFrom)
	issuer := auth.NewIssuer(d.Cfg)
	authSvc := auth.NewService(userRepo, ids, codes, issuer)
	googleSvc := google.NewService(google.NewHTTPVerifier(), ids, authSvc, d.Cfg.GoogleClientID)

	authHandler := auth.NewHandler(ids, authSvc, codes)
	googleHandler := google.NewHandler(googleSvc)
	profileHandler := identity.NewHandler(ids)

	var idem fiber.Handler
	if d.Cache != nil {
		idem = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterAuthRoutes(api, authHandler, googleHandler, idem)

	// Protected routes
	jwtmw := middleware.JWTAuth(issuer, userRepo)
	protected := api.Group("", jwtmw)
	RegisterProfileRoutes(protected, profileHandler, userRepo)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
