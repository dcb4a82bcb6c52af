// Package app builds the wired HTTP runtime shared by the server binary and
// the serverless entrypoint.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"review-platform/internal/auth"
	"review-platform/internal/db"
	"review-platform/internal/httpx"
	"review-platform/internal/mailer"
	"review-platform/internal/maintenance"
	"review-platform/internal/media"
	"review-platform/internal/observability"
	"review-platform/internal/product"
	"review-platform/internal/review"
	"review-platform/internal/user"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Logger  *observability.Logger
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	accessSecret, err := mustEnv("JWT_ACCESS_SECRET")
	if err != nil {
		return nil, err
	}
	refreshSecret, err := mustEnv("JWT_REFRESH_SECRET")
	if err != nil {
		return nil, err
	}
	cloudinaryURL, err := mustEnv("CLOUDINARY_URL")
	if err != nil {
		return nil, err
	}

	environment := envOrDefault("APP_ENV", "development")
	httpx.SetDevelopmentMode(environment == "development")

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), environment); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(context.Background(), database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	codec := auth.NewTokenCodec(
		accessSecret,
		refreshSecret,
		envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 15),
		envHoursOrDefault("REFRESH_TOKEN_TTL_HOURS", 168),
	)
	hasher := auth.NewBcryptHasher()

	smtpMailer := mailer.NewSMTPMailer(mailer.Config{
		Host:        envOrDefault("SMTP_HOST", "localhost"),
		Port:        envIntOrDefault("SMTP_PORT", 587),
		Username:    os.Getenv("SMTP_USER"),
		Password:    os.Getenv("SMTP_PASSWORD"),
		From:        os.Getenv("SMTP_FROM"),
		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),
	})

	userRepo := user.NewRepository(database)
	sessionRepo := auth.NewRepository(database)

	authService := auth.NewService(userRepo, sessionRepo, codec, hasher, smtpMailer)
	authService.WithTokenTTLs(
		envHoursOrDefault("VERIFICATION_TOKEN_TTL_HOURS", 24),
		envMinutesOrDefault("RESET_TOKEN_TTL_MINUTES", 60),
	)
	authHandler := auth.NewHandler(authService)

	userService := user.NewService(userRepo, hasher, sessionRepo)
	userHandler := user.NewHandler(userService)

	if err := bootstrapAdmin(userRepo, hasher); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	cloudinaryClient, err := media.NewCloudinary(cloudinaryURL)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}

	productRepo := product.NewRepository(database)
	productHandler := product.NewHandler(productRepo, cloudinaryClient)

	reviewRepo := review.NewRepository(database)
	reviewHandler := review.NewHandler(reviewRepo)

	cleanupHandler := maintenance.NewCleanupHandler(
		sessionRepo,
		logger,
		os.Getenv("CRON_SECRET"),
		envIntOrDefault("TOKEN_CLEANUP_BATCH_SIZE", 500),
	)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /auth/verify-email", authHandler.VerifyEmail)
	mux.HandleFunc("POST /auth/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /auth/reset-password", authHandler.ResetPassword)

	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Authenticate(codec, h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return auth.Authenticate(codec, auth.RequireRole(user.RoleAdmin, h))
	}

	mux.Handle("GET /user/profile", authed(userHandler.GetProfile))
	mux.Handle("PATCH /user/profile", authed(userHandler.UpdateProfile))
	mux.Handle("PATCH /user/password", authed(userHandler.UpdatePassword))

	mux.HandleFunc("GET /products", productHandler.List)
	mux.HandleFunc("GET /products/search", productHandler.Search)
	mux.HandleFunc("GET /products/category/{category}", productHandler.ListByCategory)
	mux.HandleFunc("GET /products/{id}", productHandler.GetByID)

	mux.Handle("GET /reviews/me", authed(reviewHandler.ListMine))
	mux.Handle("POST /reviews/{productId}", authed(reviewHandler.Create))
	mux.HandleFunc("GET /reviews/{productId}", reviewHandler.ListByProduct)
	mux.Handle("PUT /reviews/{id}", authed(reviewHandler.Update))
	mux.Handle("DELETE /reviews/{id}", authed(reviewHandler.Delete))

	mux.Handle("GET /admin/products", admin(productHandler.List))
	mux.Handle("POST /admin/products", admin(productHandler.Create))
	mux.Handle("PUT /admin/products/{id}", admin(productHandler.Update))
	mux.Handle("DELETE /admin/products/{id}", admin(productHandler.Delete))
	mux.Handle("DELETE /admin/reviews/{id}", admin(reviewHandler.Delete))
	mux.Handle("PATCH /admin/users/{id}/ban", admin(userHandler.Ban))
	mux.Handle("PATCH /admin/users/{id}/unban", admin(userHandler.Unban))

	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(database))

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Logger:  logger,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func bootstrapAdmin(repo *user.Repository, hasher *auth.BcryptHasher) error {
	email := strings.TrimSpace(strings.ToLower(os.Getenv("ADMIN_EMAIL")))
	password := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))

	if email == "" && password == "" {
		return nil
	}
	if email == "" || password == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required together")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	return repo.UpsertAdmin(context.Background(), email, hash, envOrDefault("ADMIN_NAME", "Admin User"))
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
