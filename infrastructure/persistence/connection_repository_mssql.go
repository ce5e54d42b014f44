package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"syncsns/domain/model"
	"syncsns/domain/repository"
	"syncsns/infrastructure/logger"
)

// ConnectionRepositoryMSSQL is the SQL Server implementation of IConnection.
type ConnectionRepositoryMSSQL struct{ db *sql.DB }

func NewConnectionRepositoryMSSQL(db *sql.DB) repository.IConnection {
	return &ConnectionRepositoryMSSQL{db}
}

const connectionColumnsMSSQL = `id, user_id, platform, platform_user_id, username, display_name, profile_picture_url,
	access_token, refresh_token, token_type, token_expires_at, connected_at, is_active, disconnected_at`

func (r *ConnectionRepositoryMSSQL) UpsertConnection(ctx context.Context, conn *model.SocialConnection) (*model.SocialConnection, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	var existingID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM dbo.[social_connections]
		 WHERE user_id = @p1 AND platform = @p2 AND platform_user_id = @p3 AND is_active = 1`,
		conn.UserID, conn.Platform, conn.PlatformUserID).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		err = tx.QueryRowContext(ctx,
			`INSERT INTO dbo.[social_connections] (user_id, platform, platform_user_id, username, display_name, profile_picture_url,
			   access_token, refresh_token, token_type, token_expires_at, connected_at, is_active)
			 OUTPUT INSERTED.id
			 VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11, 1)`,
			conn.UserID, conn.Platform, conn.PlatformUserID, conn.Username, conn.DisplayName, conn.ProfilePictureURL,
			conn.AccessToken, conn.RefreshToken, conn.TokenType, conn.TokenExpiresAt, now).Scan(&conn.ID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("mssql: insert connection failed")
			return nil, err
		}
		conn.ConnectedAt = now
	case err != nil:
		return nil, err
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE dbo.[social_connections] SET username = @p2, display_name = @p3, profile_picture_url = @p4,
			   access_token = @p5, refresh_token = @p6, token_type = @p7, token_expires_at = @p8, connected_at = @p9
			 WHERE id = @p1`,
			existingID, conn.Username, conn.DisplayName, conn.ProfilePictureURL,
			conn.AccessToken, conn.RefreshToken, conn.TokenType, conn.TokenExpiresAt, now)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("mssql: update connection failed")
			return nil, err
		}
		conn.ID = existingID
		conn.ConnectedAt = now
	}
	conn.IsActive = true
	conn.DisconnectedAt = nil

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return conn, nil
}

func (r *ConnectionRepositoryMSSQL) GetByID(ctx context.Context, id int64, userID string) (*model.SocialConnection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+connectionColumnsMSSQL+` FROM dbo.[social_connections]
		 WHERE id = @p1 AND user_id = @p2 AND is_active = 1`, id, userID)
	return scanConnection(row)
}

func (r *ConnectionRepositoryMSSQL) ListActive(ctx context.Context, userID, platform string) ([]*model.SocialConnection, error) {
	q := `SELECT ` + connectionColumnsMSSQL + ` FROM dbo.[social_connections]
		 WHERE user_id = @p1 AND is_active = 1 ORDER BY connected_at DESC`
	args := []interface{}{userID}
	if platform != "" {
		q = `SELECT ` + connectionColumnsMSSQL + ` FROM dbo.[social_connections]
		 WHERE user_id = @p1 AND platform = @p2 AND is_active = 1 ORDER BY connected_at DESC`
		args = append(args, platform)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.SocialConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *ConnectionRepositoryMSSQL) GetActiveByPlatforms(ctx context.Context, userID string, platforms []string) ([]*model.SocialConnection, error) {
	if len(platforms) == 0 {
		return nil, nil
	}
	placeholders := make([]string, 0, len(platforms))
	args := []interface{}{userID}
	for i, p := range platforms {
		placeholders = append(placeholders, fmt.Sprintf("@p%d", i+2))
		args = append(args, p)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+connectionColumnsMSSQL+` FROM dbo.[social_connections]
		 WHERE user_id = @p1 AND platform IN (`+strings.Join(placeholders, ", ")+`) AND is_active = 1 ORDER BY connected_at DESC`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.SocialConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *ConnectionRepositoryMSSQL) Disconnect(ctx context.Context, id int64, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE dbo.[social_connections] SET is_active = 0, disconnected_at = @p3
		 WHERE id = @p1 AND user_id = @p2 AND is_active = 1`, id, userID, at)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("mssql: disconnect failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
