// Package db opens the relational store, applies the schema and seeds the
// authorization tables.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// registers the "pgx5" scheme used by DatabaseConfig.MigrateURL
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kerjaberkah/portal/internal/config"
	"github.com/kerjaberkah/portal/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const connectAttempts = 10

// requiredTables must exist once the schema is applied.
var requiredTables = []string{"users", "roles", "user_roles", "posts", "documentations", "visitors", "workers", "companies", "vacancies"}

// Connect opens the database described by cfg, retrying while the server is
// starting up, and verifies the connection with SELECT 1.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: NewGormLogger(log, level), TranslateError: true}

	var (
		gdb *gorm.DB
		err error
	)
	for i := 0; i < connectAttempts; i++ {
		gdb, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = gdb.WithContext(ctx).Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.Warn("database not ready, retrying", slog.Int("attempt", i+1), slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", connectAttempts, err)
	}

	if sqlDB, err := gdb.DB(); err == nil && cfg.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpen)
		sqlDB.SetMaxIdleConns(cfg.MaxOpen / 2)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	log.Info("database connected",
		slog.String("driver", cfg.Driver),
		slog.String("host", cfg.Host),
		slog.String("database", cfg.DBName),
	)
	return gdb, nil
}

// Migrate applies the schema. Postgres uses the embedded SQL migrations;
// sqlite (development and tests) falls back to AutoMigrate.
func Migrate(gdb *gorm.DB, cfg config.DatabaseConfig, log *slog.Logger) error {
	switch cfg.Driver {
	case "postgres":
		if err := runSQLMigrations(cfg.MigrateURL(), log); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	default:
		if err := AutoMigrate(gdb); err != nil {
			return err
		}
	}
	for _, table := range requiredTables {
		if !gdb.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// AutoMigrate creates or updates every table from the model definitions.
func AutoMigrate(gdb *gorm.DB) error {
	for _, m := range models.All() {
		if err := gdb.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func runSQLMigrations(url string, log *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, dirty, _ := m.Version()
	log.Info("migrations applied", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}
