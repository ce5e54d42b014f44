package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSocialSchemaMSSQL creates the posting tables in SQL Server when
// they are missing, guarded by OBJECT_ID checks.
func EnsureSocialSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	createIfMissing := func(table, ddl string) error {
		q := fmt.Sprintf(`IF OBJECT_ID('%s', 'U') IS NULL BEGIN %s END`, table, ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure table %s: %w", table, err)
		}
		return nil
	}

	if err := createIfMissing("dbo.posts", `CREATE TABLE dbo.[posts] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		user_id NVARCHAR(64) NOT NULL,
		content NVARCHAR(MAX) NOT NULL,
		images NVARCHAR(MAX) NOT NULL DEFAULT '[]',
		status NVARCHAR(16) NOT NULL DEFAULT 'draft',
		published_at DATETIME2 NULL,
		created_at DATETIME2 NOT NULL DEFAULT SYSDATETIME(),
		updated_at DATETIME2 NOT NULL DEFAULT SYSDATETIME()
	)`); err != nil {
		return err
	}
	if err := createIfMissing("dbo.post_platforms", `CREATE TABLE dbo.[post_platforms] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		post_id BIGINT NOT NULL,
		platform NVARCHAR(32) NOT NULL,
		status NVARCHAR(16) NOT NULL DEFAULT 'pending',
		platform_post_id NVARCHAR(128) NULL,
		error_message NVARCHAR(MAX) NULL,
		retry_count INT NOT NULL DEFAULT 0,
		max_retries INT NOT NULL DEFAULT 3,
		published_at DATETIME2 NULL,
		CONSTRAINT uq_post_platform UNIQUE (post_id, platform)
	)`); err != nil {
		return err
	}
	if err := createIfMissing("dbo.social_connections", `CREATE TABLE dbo.[social_connections] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		user_id NVARCHAR(64) NOT NULL,
		platform NVARCHAR(32) NOT NULL,
		platform_user_id NVARCHAR(128) NOT NULL,
		username NVARCHAR(255) NOT NULL DEFAULT '',
		display_name NVARCHAR(255) NOT NULL DEFAULT '',
		profile_picture_url NVARCHAR(1024) NOT NULL DEFAULT '',
		access_token NVARCHAR(MAX) NOT NULL,
		refresh_token NVARCHAR(MAX) NULL,
		token_type NVARCHAR(32) NULL,
		token_expires_at DATETIME2 NULL,
		connected_at DATETIME2 NOT NULL DEFAULT SYSDATETIME(),
		is_active BIT NOT NULL DEFAULT 1,
		disconnected_at DATETIME2 NULL
	)`); err != nil {
		return err
	}
	return nil
}
