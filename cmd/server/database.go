package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/studydeck-api/internal/config"
	"github.com/phrazzld/studydeck-api/internal/platform/postgres"
	"github.com/phrazzld/studydeck-api/internal/platform/sqlite"
	"github.com/phrazzld/studydeck-api/internal/store"
	"github.com/pressly/goose/v3"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// openDatabase opens the configured database, applies the pool settings and
// verifies the connection.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case driverSQLite:
		db, err = sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
	case driverPostgres:
		db, err = sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	logger.Info("database connection established", slog.String("driver", cfg.Driver))
	return db, nil
}

// newStores returns the card and review stores for driver.
func newStores(driver string, db *sql.DB, logger *slog.Logger) (store.CardStore, store.ReviewStore) {
	if driver == driverSQLite {
		return sqlite.NewCardStore(db, logger), sqlite.NewReviewStore(db, logger)
	}
	return postgres.NewPostgresCardStore(db, logger), postgres.NewPostgresReviewStore(db, logger)
}

// newMigrationProvider returns the goose provider for driver's embedded migrations.
func newMigrationProvider(driver string, db *sql.DB, logger *slog.Logger) (*goose.Provider, error) {
	opts := []goose.ProviderOption{goose.WithLogger(&slogGooseLogger{logger: logger})}
	if driver == driverSQLite {
		return sqlite.NewMigrationProvider(db, opts...)
	}
	return postgres.NewMigrationProvider(db, opts...)
}

// migrationsDir is where `migrate create` writes new files for driver.
func migrationsDir(driver string) string {
	return filepath.Join("internal", "platform", driver, "migrations")
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...), slog.String("component", "migrations"))
}

// Fatalf implements goose.Logger. It does not exit; errors are returned to
// the command instead.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "migrations"))
}
