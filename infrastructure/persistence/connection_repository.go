package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"syncsns/domain/model"
	"syncsns/domain/repository"
	"syncsns/infrastructure/logger"
)

// ConnectionRepository implements connection persistence on PostgreSQL.
// The upsert is a select-then-write inside a transaction so the active
// row for (user_id, platform, platform_user_id) is refreshed in place.
type ConnectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) repository.IConnection {
	return &ConnectionRepository{db: db}
}

const connectionColumns = `id, user_id, platform, platform_user_id, username, display_name, profile_picture_url,
	access_token, refresh_token, token_type, token_expires_at, connected_at, is_active, disconnected_at`

func scanConnection(row interface{ Scan(...interface{}) error }) (*model.SocialConnection, error) {
	c := &model.SocialConnection{}
	var refreshToken, tokenType sql.NullString
	if err := row.Scan(&c.ID, &c.UserID, &c.Platform, &c.PlatformUserID, &c.Username, &c.DisplayName, &c.ProfilePictureURL,
		&c.AccessToken, &refreshToken, &tokenType, &c.TokenExpiresAt, &c.ConnectedAt, &c.IsActive, &c.DisconnectedAt); err != nil {
		return nil, err
	}
	if refreshToken.Valid {
		c.RefreshToken = refreshToken.String
	}
	if tokenType.Valid {
		c.TokenType = tokenType.String
	}
	return c, nil
}

func (r *ConnectionRepository) UpsertConnection(ctx context.Context, conn *model.SocialConnection) (*model.SocialConnection, error) {
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
		`SELECT id FROM social_connections
		 WHERE user_id = $1 AND platform = $2 AND platform_user_id = $3 AND is_active = TRUE`,
		conn.UserID, conn.Platform, conn.PlatformUserID).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		err = tx.QueryRowContext(ctx,
			`INSERT INTO social_connections (user_id, platform, platform_user_id, username, display_name, profile_picture_url,
			   access_token, refresh_token, token_type, token_expires_at, connected_at, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE) RETURNING id`,
			conn.UserID, conn.Platform, conn.PlatformUserID, conn.Username, conn.DisplayName, conn.ProfilePictureURL,
			conn.AccessToken, conn.RefreshToken, conn.TokenType, conn.TokenExpiresAt, now).Scan(&conn.ID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("insert connection failed")
			return nil, err
		}
		conn.ConnectedAt = now
	case err != nil:
		return nil, err
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE social_connections SET username = $2, display_name = $3, profile_picture_url = $4,
			   access_token = $5, refresh_token = $6, token_type = $7, token_expires_at = $8, connected_at = $9
			 WHERE id = $1`,
			existingID, conn.Username, conn.DisplayName, conn.ProfilePictureURL,
			conn.AccessToken, conn.RefreshToken, conn.TokenType, conn.TokenExpiresAt, now)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("update connection failed")
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

func (r *ConnectionRepository) GetByID(ctx context.Context, id int64, userID string) (*model.SocialConnection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM social_connections
		 WHERE id = $1 AND user_id = $2 AND is_active = TRUE`, id, userID)
	return scanConnection(row)
}

func (r *ConnectionRepository) ListActive(ctx context.Context, userID, platform string) ([]*model.SocialConnection, error) {
	q := `SELECT ` + connectionColumns + ` FROM social_connections
		 WHERE user_id = $1 AND is_active = TRUE ORDER BY connected_at DESC`
	args := []interface{}{userID}
	if platform != "" {
		q = `SELECT ` + connectionColumns + ` FROM social_connections
		 WHERE user_id = $1 AND platform = $2 AND is_active = TRUE ORDER BY connected_at DESC`
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

func (r *ConnectionRepository) GetActiveByPlatforms(ctx context.Context, userID string, platforms []string) ([]*model.SocialConnection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM social_connections
		 WHERE user_id = $1 AND platform = ANY($2) AND is_active = TRUE ORDER BY connected_at DESC`,
		userID, pq.Array(platforms))
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

func (r *ConnectionRepository) Disconnect(ctx context.Context, id int64, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE social_connections SET is_active = FALSE, disconnected_at = $3
		 WHERE id = $1 AND user_id = $2 AND is_active = TRUE`, id, userID, at)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("disconnect failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
