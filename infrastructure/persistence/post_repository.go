package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"syncsns/domain/model"
	"syncsns/domain/repository"
	"syncsns/infrastructure/logger"
)

// PostRepository implements post persistence on PostgreSQL. Target state
// transitions are guarded with "AND status = 'pending'" so a transition
// that already happened is a no-op rather than an overwrite.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.IPost {
	return &PostRepository{db: db}
}

func (r *PostRepository) CreatePost(ctx context.Context, post *model.Post, platforms []string, maxRetries int) (*model.Post, error) {
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
	images, err := json.Marshal(post.Images)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO posts (user_id, content, images, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		post.UserID, post.Content, images, post.Status, now).Scan(&post.ID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("insert post failed")
		return nil, err
	}
	post.CreatedAt = now
	post.UpdatedAt = now

	post.Targets = make([]*model.PlatformTarget, 0, len(platforms))
	for _, platform := range platforms {
		target := &model.PlatformTarget{
			PostID:     post.ID,
			Platform:   platform,
			Status:     model.TargetStatusPending,
			MaxRetries: maxRetries,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO post_platforms (post_id, platform, status, retry_count, max_retries)
			 VALUES ($1, $2, $3, 0, $4) RETURNING id`,
			post.ID, platform, model.TargetStatusPending, maxRetries).Scan(&target.ID)
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"error":    err,
				"platform": platform,
			}).Error("insert post target failed")
			return nil, err
		}
		post.Targets = append(post.Targets, target)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostRepository) GetPostWithTargets(ctx context.Context, postID int64, userID string) (*model.Post, error) {
	post := &model.Post{}
	var images []byte
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, images, status, published_at, created_at, updated_at
		 FROM posts WHERE id = $1 AND user_id = $2`, postID, userID)
	if err := row.Scan(&post.ID, &post.UserID, &post.Content, &images, &post.Status, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &post.Images); err != nil {
			return nil, err
		}
	}

	targets, err := r.targetsFor(ctx, []int64{post.ID})
	if err != nil {
		return nil, err
	}
	post.Targets = targets[post.ID]
	return post, nil
}

func (r *PostRepository) ListPosts(ctx context.Context, userID, status string, limit, offset int) ([]*model.Post, int64, error) {
	var total int64
	countQ := `SELECT COUNT(*) FROM posts WHERE user_id = $1`
	listQ := `SELECT id, user_id, content, images, status, published_at, created_at, updated_at
	 FROM posts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	args := []interface{}{userID}
	if status != "" {
		countQ = `SELECT COUNT(*) FROM posts WHERE user_id = $1 AND status = $2`
		listQ = `SELECT id, user_id, content, images, status, published_at, created_at, updated_at
	 FROM posts WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, status)
	}
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, listQ, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []*model.Post
	var ids []int64
	for rows.Next() {
		post := &model.Post{}
		var images []byte
		if err := rows.Scan(&post.ID, &post.UserID, &post.Content, &images, &post.Status, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &post.Images); err != nil {
				return nil, 0, err
			}
		}
		posts = append(posts, post)
		ids = append(ids, post.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	targets, err := r.targetsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, post := range posts {
		post.Targets = targets[post.ID]
	}
	return posts, total, nil
}

func (r *PostRepository) targetsFor(ctx context.Context, postIDs []int64) (map[int64][]*model.PlatformTarget, error) {
	out := make(map[int64][]*model.PlatformTarget, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, platform, status, platform_post_id, error_message, retry_count, max_retries, published_at
		 FROM post_platforms WHERE post_id = ANY($1) ORDER BY id ASC`, pq.Array(postIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		t := &model.PlatformTarget{}
		var platformPostID, errMsg sql.NullString
		if err := rows.Scan(&t.ID, &t.PostID, &t.Platform, &t.Status, &platformPostID, &errMsg, &t.RetryCount, &t.MaxRetries, &t.PublishedAt); err != nil {
			return nil, err
		}
		if platformPostID.Valid {
			t.PlatformPostID = &platformPostID.String
		}
		if errMsg.Valid {
			t.ErrorMessage = &errMsg.String
		}
		out[t.PostID] = append(out[t.PostID], t)
	}
	return out, rows.Err()
}

func (r *PostRepository) MarkTargetPublished(ctx context.Context, targetID int64, platformPostID string, publishedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE post_platforms SET status = 'published', platform_post_id = $2, error_message = NULL, published_at = $3
		 WHERE id = $1 AND status = 'pending'`,
		targetID, platformPostID, publishedAt)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":     err,
			"target_id": targetID,
		}).Error("mark target published failed")
	}
	return err
}

func (r *PostRepository) MarkTargetFailed(ctx context.Context, targetID int64, status, errMsg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE post_platforms SET status = $2, error_message = $3, retry_count = retry_count + 1
		 WHERE id = $1 AND status = 'pending'`,
		targetID, status, errMsg)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":     err,
			"target_id": targetID,
		}).Error("mark target failed failed")
	}
	return err
}

func (r *PostRepository) MarkPostPublished(ctx context.Context, postID int64, publishedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET status = 'published', published_at = COALESCE(published_at, $2), updated_at = $2
		 WHERE id = $1`,
		postID, publishedAt)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":   err,
			"post_id": postID,
		}).Error("mark post published failed")
	}
	return err
}
