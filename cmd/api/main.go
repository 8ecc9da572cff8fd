package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchestrix/apiresponder/internal/config"
	"github.com/orchestrix/apiresponder/internal/note"
	"github.com/orchestrix/apiresponder/pkg/apiresponse"
	"github.com/orchestrix/apiresponder/pkg/apperror"
	"github.com/orchestrix/apiresponder/pkg/database"
	"github.com/orchestrix/apiresponder/pkg/httputil"
	"github.com/orchestrix/apiresponder/pkg/observability"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(cfg.Log.Level, cfg.Log.Format)

	if err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		Environment:  cfg.Tracing.Environment,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		Enabled:      cfg.Tracing.Enabled,
	}); err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics(cfg.Metrics.Namespace, nil)

	ctx := context.Background()
	repo, pool, err := openRepository(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to open note store", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	responses := apiresponse.NewFactory(
		apiresponse.WithLogger(logger),
		apiresponse.WithMetrics(metrics),
	)
	errs := apperror.NewHandler(responses, logger)
	noteHandler := note.NewHandler(repo, responses, errs, cfg.Pagination.DefaultLimit, cfg.Pagination.MaxLimit)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(observability.HTTPMiddleware)
	r.Use(metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = responses.For(w, r).RespondNotFound("")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = responses.For(w, r).SetStatusCode(http.StatusMethodNotAllowed).RespondWithError("Method Not Allowed.")
	})

	// Health endpoints
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = httputil.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		_ = httputil.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := pool.Ping(r.Context()); err != nil {
				_ = responses.For(w, r).SetStatusCode(http.StatusServiceUnavailable).RespondWithError("database unavailable")
				return
			}
		}
		_ = httputil.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", observability.Handler(nil))

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/notes", noteHandler.Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := observability.ShutdownTracing(shutdownCtx); err != nil {
		logger.Error("failed to flush traces", "error", err)
	}

	logger.Info("server exited")
}

// openRepository returns the Postgres store when a database URL is set and
// the in-memory store otherwise.
func openRepository(ctx context.Context, cfg config.DatabaseConfig) (note.Repository, *pgxpool.Pool, error) {
	if cfg.URL == "" {
		slog.Info("no database configured, using in-memory note store")
		return note.NewMemoryRepository(), nil, nil
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.URL,
		MaxConns: cfg.MaxConns,
		MinConns: cfg.MinConns,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect database")
	}

	repo := note.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repo, pool, nil
}
