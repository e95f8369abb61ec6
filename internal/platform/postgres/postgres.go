// Package postgres opens the carematch database through the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"carematch/internal/platform/config"
	"carematch/migrations"
)

var ErrNoDSN = errors.New("DATABASE_URL is not set")

// Open connects, applies pool limits, and pings. With migrate set the embedded
// schema is applied before returning.
func Open(ctx context.Context, cfg config.PostgresConfig, migrate bool) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, ErrNoDSN
	}
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if migrate {
		if err := migrations.Apply(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	return db, nil
}
