package repository

import (
	"context"
	"time"

	"syncsns/domain/model"
)

// IConnection defines persistence for platform connections. A connection
// is keyed by (user_id, platform, platform_user_id) while active.
type IConnection interface {
	// UpsertConnection updates the existing active row for the key or
	// inserts a new one, returning the stored connection.
	UpsertConnection(ctx context.Context, conn *model.SocialConnection) (*model.SocialConnection, error)
	// GetByID loads a connection scoped to its owner; inactive rows are
	// not returned.
	GetByID(ctx context.Context, id int64, userID string) (*model.SocialConnection, error)
	// ListActive returns the user's active connections, newest first,
	// optionally narrowed to one platform.
	ListActive(ctx context.Context, userID, platform string) ([]*model.SocialConnection, error)
	// GetActiveByPlatforms returns active connections restricted to a
	// platform set, as the orchestrator needs at publish time.
	GetActiveByPlatforms(ctx context.Context, userID string, platforms []string) ([]*model.SocialConnection, error)
	// Disconnect soft-deletes: is_active=false, disconnected_at set.
	Disconnect(ctx context.Context, id int64, userID string, at time.Time) error
}
