package repository

import (
	"context"
	"time"

	"syncsns/domain/model"
)

// IPost defines persistence for posts and their platform targets. The
// target mutation methods apply only to rows still in pending status so
// that concurrent publish calls cannot double-apply a transition.
type IPost interface {
	// CreatePost stores the post plus one pending target per platform.
	CreatePost(ctx context.Context, post *model.Post, platforms []string, maxRetries int) (*model.Post, error)
	// GetPostWithTargets loads a post scoped to its owner, targets included.
	GetPostWithTargets(ctx context.Context, postID int64, userID string) (*model.Post, error)
	// ListPosts returns a page of the user's posts (newest first) with
	// targets embedded, plus the total count. status narrows the page
	// when non-empty.
	ListPosts(ctx context.Context, userID, status string, limit, offset int) ([]*model.Post, int64, error)
	// MarkTargetPublished records a successful publish: status published,
	// platform post id set, error cleared. Retry count is unchanged.
	MarkTargetPublished(ctx context.Context, targetID int64, platformPostID string, publishedAt time.Time) error
	// MarkTargetFailed increments retry_count and records the error;
	// status is pending (retriable) or failed (budget exhausted).
	MarkTargetFailed(ctx context.Context, targetID int64, status, errMsg string) error
	// MarkPostPublished promotes the post once any target has succeeded.
	// published_at is set only on the first promotion.
	MarkPostPublished(ctx context.Context, postID int64, publishedAt time.Time) error
}
