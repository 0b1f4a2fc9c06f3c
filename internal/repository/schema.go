package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// Username uniqueness is case-insensitive.
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_idx
		ON users (LOWER(username))`,
	`CREATE TABLE IF NOT EXISTS todos (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at DATE NOT NULL DEFAULT CURRENT_DATE
	)`,
}

// InitSchema creates the users and todos tables if they do not exist yet.
// Safe to run on every startup.
func InitSchema(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	logger.Info("database schema ready")
	return nil
}
