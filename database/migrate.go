// Package database owns the schema and applies it with goose.
package database

import (
	"context"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

// Migrate applies every pending migration.
func Migrate(ctx context.Context, dsn string) error {
	return Run(ctx, dsn, "up")
}

// Run executes a goose command ("up", "down", "status", "version", ...)
// against the database at dsn.
func Run(ctx context.Context, dsn, command string, args ...string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		return fmt.Errorf("failed to run migration command %q: %w", command, err)
	}

	return nil
}
