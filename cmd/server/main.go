package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/todoapi/internal/domain"
	"github.com/yourorg/todoapi/internal/handler"
	"github.com/yourorg/todoapi/internal/infrastructure/logger"
	"github.com/yourorg/todoapi/internal/observability/metrics"
	"github.com/yourorg/todoapi/internal/observability/tracing"
	"github.com/yourorg/todoapi/internal/repository"
	"github.com/yourorg/todoapi/internal/security/audit"
	"github.com/yourorg/todoapi/internal/security/auth"
	"github.com/yourorg/todoapi/internal/security/middleware"
	"github.com/yourorg/todoapi/internal/security/ratelimit"
	"github.com/yourorg/todoapi/internal/service"
	"github.com/yourorg/todoapi/pkg/config"
	"github.com/yourorg/todoapi/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting todoapi server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Optional tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, "todoapi", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to PostgreSQL and ensure the schema exists
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.InitSchema(ctx, pool.DB(), log); err != nil {
		log.Error("failed to initialize schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Repositories
	userRepo := repository.NewPostgresUserRepository(pool.DB(), log)
	todoRepo := repository.NewPostgresTodoRepository(pool.DB(), log)

	// 6. Services and security components
	hasher := auth.NewPasswordHasher(cfg.HashParams)
	tokenManager := auth.NewTokenManager(cfg.AuthSecret, "todoapi")
	auditLogger := audit.NewLogger(log)
	authService := service.NewAuthService(userRepo, hasher, tokenManager,
		time.Duration(cfg.AuthTokenTTLSeconds)*time.Second, log)
	todoService := service.NewTodoService(todoRepo, auditLogger, log)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)

	// 7. Seed the default user, ignoring only the duplicate-user error
	if cfg.SeedDefaultUser {
		if _, err := authService.CreateUser(ctx, cfg.SeedUsername, cfg.SeedPassword); err != nil {
			if !errors.Is(err, domain.ErrDuplicateUser) {
				log.Error("failed to seed default user", slog.String("error", err.Error()))
				os.Exit(1)
			}
			log.Debug("default user already exists", slog.String("username", cfg.SeedUsername))
		}
	}

	// 8. Handlers
	todoHandler := handler.NewTodoHandler(todoService, log)
	tokenHandler := handler.NewTokenHandler(authService, rateLimiter, log)
	healthHandler := handler.NewHealthHandler(pool, log)

	// 9. Routes. The auth guard wraps each protected endpoint explicitly;
	// listing todos and the index page stay public.
	guard := middleware.AuthGuard(authService, auditLogger, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handler.Index)
	mux.HandleFunc("GET /api/v1/todos", todoHandler.List)
	mux.Handle("POST /api/v1/todos", guard(http.HandlerFunc(todoHandler.Create)))
	mux.Handle("PUT /api/v1/todos/{id}", guard(http.HandlerFunc(todoHandler.Update)))
	mux.Handle("DELETE /api/v1/todos/{id}", guard(http.HandlerFunc(todoHandler.Delete)))
	mux.Handle("GET /api/v1/users/token", guard(tokenHandler))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)

	// Chain middleware: request ID -> metrics -> rate limit -> routes
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.RateLimitMiddleware(rateLimiter, log)(mux),
		),
		log,
	)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "todoapi"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "basic+token"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	rateLimiter.Stop()
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
