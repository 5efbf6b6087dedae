package storage

import (
	"context"
	"fmt"
)

// ensureUserSchema bootstraps the users table, which backs every account and
// credential operation. Content tables (videos, comments, and the rest) ship
// with their own migrations and stay gated behind ErrPostgresUnavailable
// until applied.
func (r *postgresRepository) ensureUserSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    full_name     TEXT NOT NULL,
    bio           TEXT NOT NULL DEFAULT '',
    avatar_url    TEXT NOT NULL DEFAULT '',
    cover_url     TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    refresh_token TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
)
`)
	if err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}
