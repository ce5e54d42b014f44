package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSocialSchema creates the posting tables if they are missing.
// Safe to call at startup; every statement is idempotent.
func EnsureSocialSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			images JSONB NOT NULL DEFAULT '[]',
			status TEXT NOT NULL DEFAULT 'draft',
			published_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS post_platforms (
			id BIGSERIAL PRIMARY KEY,
			post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			platform TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			platform_post_id TEXT,
			error_message TEXT,
			retry_count INT NOT NULL DEFAULT 0,
			max_retries INT NOT NULL DEFAULT 3,
			published_at TIMESTAMPTZ,
			UNIQUE (post_id, platform)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_post_platforms_status ON post_platforms (status)`,
		`CREATE TABLE IF NOT EXISTS social_connections (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			platform_user_id TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			profile_picture_url TEXT NOT NULL DEFAULT '',
			access_token TEXT NOT NULL,
			refresh_token TEXT,
			token_type TEXT,
			token_expires_at TIMESTAMPTZ,
			connected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			disconnected_at TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_social_connections_active
			ON social_connections (user_id, platform, platform_user_id) WHERE is_active`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring social schema failed: %w", err)
		}
	}
	return nil
}
