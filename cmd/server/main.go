package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/accounts"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/jobs"
	"finance-tracker/internal/logging"
	"finance-tracker/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := logging.New(cfg.Log, os.Stdout)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server error")
	}
	logger.Info().Msg("Server stopped gracefully")
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	db, err := storage.NewDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := bootstrapAdmin(logger.WithContext(ctx), db, cfg.Admin); err != nil {
		return err
	}

	scheduler := jobs.NewScheduler(logger.With().Str("component", "jobs").Logger())
	if _, err := scheduler.ScheduleSessionCleanup(cfg.Sessions.CleanupSchedule, db); err != nil {
		return err
	}

	h := handlers.NewHandlers(db, cfg.Sessions.Duration, cfg.HTTP.SecureCookie)
	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        setupRouter(h, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: 1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTP.Port).Str("db", cfg.DB.Path).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func setupRouter(h *handlers.Handlers, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", h.Register)
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/logout", h.Logout)
	mux.HandleFunc("GET /api/categories", h.Categories)

	mux.Handle("GET /api/me", h.AuthMiddleware(http.HandlerFunc(h.Me)))
	mux.Handle("GET /api/transactions", h.AuthMiddleware(http.HandlerFunc(h.ListTransactions)))
	mux.Handle("POST /api/transactions", h.AuthMiddleware(http.HandlerFunc(h.CreateTransaction)))
	mux.Handle("GET /api/summary", h.AuthMiddleware(http.HandlerFunc(h.Summary)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return logging.Middleware(logger)(mux)
}

// bootstrapAdmin creates the configured admin account when the database has
// no users yet.
func bootstrapAdmin(ctx context.Context, db *storage.DB, admin config.AdminConfig) error {
	if admin.User == "" {
		return nil
	}
	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := accounts.NewStore(db).Register(ctx, admin.User, admin.Password); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("username", admin.User).Msg("Admin user created")
	return nil
}
