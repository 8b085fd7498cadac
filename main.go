package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"appointment-booking-server/internal/config"
	"appointment-booking-server/internal/metrics"
	"appointment-booking-server/internal/middleware"
	"appointment-booking-server/internal/notify"
	"appointment-booking-server/internal/routes"
	"appointment-booking-server/internal/services"
	"appointment-booking-server/internal/store"
	"appointment-booking-server/internal/store/memory"
)

type backend interface {
	services.UserStore
	services.AppointmentStore
	routes.Pinger
}

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func openBackend(cfg *config.Config, logger *slog.Logger) (backend, func(), error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	db, err := store.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	st := store.New(db)
	return st, func() {
		if err := st.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New()

	hub := notify.NewHub(
		notify.WithLogger(logger),
		notify.WithGauge(m),
		notify.WithAllowedOrigin(cfg.Origin),
	)
	go hub.Run(ctx)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	defer limiter.Close()

	deps := routes.Dependencies{
		Config: cfg,
		Auth:   services.NewAuthService(st, cfg, logger),
		Users:  services.NewUserService(st),
		Appointments: services.NewAppointmentService(st, st,
			services.WithNotifier(hub),
			services.WithRecorder(m),
			services.WithLogger(logger),
		),
		Hub:         hub,
		Metrics:     m,
		AuthLimiter: limiter,
		Store:       st,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(logger), middleware.Recovery(), middleware.Metrics(m))

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
