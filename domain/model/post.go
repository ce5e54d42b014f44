package model

import "time"

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
)

const (
	TargetStatusPending   = "pending"
	TargetStatusPublished = "published"
	TargetStatusFailed    = "failed"
)

// Post is a composed post fanned out to one or more platforms.
// Content and images are immutable after creation.
type Post struct {
	ID          int64             `json:"id"`
	UserID      string            `json:"user_id"`
	Content     string            `json:"content"`
	Images      []string          `json:"images"`
	Status      string            `json:"status"` // draft | scheduled | published
	PublishedAt *time.Time        `json:"published_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Targets     []*PlatformTarget `json:"targets,omitempty"`
}

// PlatformTarget tracks the publish state of one post on one platform.
// pending covers both "never attempted" and "attempted, retriable";
// published and failed are terminal.
type PlatformTarget struct {
	ID             int64      `json:"id"`
	PostID         int64      `json:"post_id"`
	Platform       string     `json:"platform"`
	Status         string     `json:"status"` // pending | published | failed
	PlatformPostID *string    `json:"platform_post_id,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	RetryCount     int        `json:"retry_count"`
	MaxRetries     int        `json:"max_retries"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}

// Eligible reports whether a target may be attempted: it is still pending
// and has retry budget left. Kept as a pure function so a scheduler or
// queue can be layered on without touching the orchestrator.
func Eligible(status string, retryCount, maxRetries int) bool {
	return status == TargetStatusPending && retryCount < maxRetries
}

// PublishAudit is an append-only record of a single publish attempt.
type PublishAudit struct {
	PostID         int64     `json:"post_id" bson:"post_id"`
	Platform       string    `json:"platform" bson:"platform"`
	UserID         string    `json:"user_id" bson:"user_id"`
	Status         string    `json:"status" bson:"status"`
	PlatformPostID *string   `json:"platform_post_id,omitempty" bson:"platform_post_id,omitempty"`
	ErrorMessage   *string   `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}
