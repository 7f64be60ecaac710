// Package db owns the PostgreSQL schema. Migrations are embedded and applied
// with goose over a database/sql connection.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// Open returns a database/sql handle for goose. Runtime queries use pgxpool.
func Open(databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return conn, nil
}

// RunMigrations executes all pending goose migrations.
func RunMigrations(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(EmbedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, conn, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

// MigrateURL opens databaseURL, applies pending migrations and closes the
// connection.
func MigrateURL(ctx context.Context, databaseURL string) error {
	conn, err := Open(databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	return RunMigrations(ctx, conn)
}

// Version reports the applied schema version.
func Version(ctx context.Context, conn *sql.DB) (int64, error) {
	goose.SetBaseFS(EmbedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("goose set dialect: %w", err)
	}
	v, err := goose.GetDBVersionContext(ctx, conn)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}
