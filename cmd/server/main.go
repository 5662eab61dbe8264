package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kerjaberkah/portal/internal/authapi"
	"github.com/kerjaberkah/portal/internal/config"
	"github.com/kerjaberkah/portal/internal/db"
	"github.com/kerjaberkah/portal/internal/geo"
	"github.com/kerjaberkah/portal/internal/policy"
	"github.com/kerjaberkah/portal/internal/storage"
)

var (
	configFlag      = flag.String("config", os.Getenv("CONFIG_FILE"), "Optional YAML config file overlaid on the environment")
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.LoadFile(*configFlag)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(gdb, cfg.Database, logger); err != nil {
			return err
		}
		logger.Info("migrations completed")
		return nil
	}
	if *seedOnlyFlag {
		if err := db.Seed(ctx, gdb); err != nil {
			return err
		}
		logger.Info("seeding completed")
		return nil
	}

	if cfg.App.Migrations {
		if err := db.Migrate(gdb, cfg.Database, logger); err != nil {
			return err
		}
	}
	if cfg.App.Seed {
		if err := db.Seed(ctx, gdb); err != nil {
			return err
		}
	}

	media, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return err
	}
	authClient := authapi.New(cfg.AuthAPI.BaseURL, cfg.AuthAPI.CacheTTL,
		&http.Client{Timeout: cfg.AuthAPI.Timeout}, logger)

	routerCfg := policy.NewRouterConfig(gdb, policy.Dependencies{
		Media:   media,
		Locator: geo.New(cfg.Geo, nil, logger),
		Auth:    authClient,
		RoleTTL: cfg.App.RoleTTL,
		Logger:  logger,
	})
	app := NewApp(gdb, routerCfg, policy.NewTokenVerifier(authClient, gdb), cfg.Server.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "dev", cfg.App.Dev)
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
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server stopped gracefully")
	return nil
}

// newLogger builds the process logger from the log section of the config.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
