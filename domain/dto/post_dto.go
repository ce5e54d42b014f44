package dto

import "syncsns/domain/model"

// CreatePostRequest is the payload for POST /api/posts.
type CreatePostRequest struct {
	Content     string   `json:"content"`
	Images      []string `json:"images"`
	Platforms   []string `json:"platforms"`
	PublishType string   `json:"publish_type"` // immediate | scheduled
}

// PostListResponse wraps a page of posts.
type PostListResponse struct {
	Posts      []*model.Post `json:"posts"`
	Pagination Pagination    `json:"pagination"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PublishResultDTO is the per-platform outcome returned by the publish endpoint.
type PublishResultDTO struct {
	Platform       string `json:"platform"`
	Success        bool   `json:"success"`
	PlatformPostID string `json:"platform_post_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// PublishResponse is the aggregate outcome of a publish call.
type PublishResponse struct {
	PostID         int64              `json:"post_id"`
	PublishResults []PublishResultDTO `json:"publish_results"`
	AllPublished   bool               `json:"all_published"`
	AnyPublished   bool               `json:"any_published"`
}
