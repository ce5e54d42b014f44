package usecase

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"syncsns/domain/dto"
	"syncsns/domain/model"
	"syncsns/domain/repository"
	"syncsns/infrastructure/logger"
)

var ErrPostNotFound = errors.New("post not found")

type IPostUsecase interface {
	CreatePost(ctx context.Context, userID string, req dto.CreatePostRequest) (*model.Post, error)
	GetPost(ctx context.Context, postID int64, userID string) (*model.Post, error)
	ListPosts(ctx context.Context, userID, status string, page, limit int) (*dto.PostListResponse, error)
}

type PostUsecase struct {
	postRepository       repository.IPost
	connectionRepository repository.IConnection
	allowed              map[string]struct{}
	maxRetries           int
}

func NewPostUsecase(postRepository repository.IPost, connectionRepository repository.IConnection, allowedPlatforms []string, maxRetries int) IPostUsecase {
	allowed := make(map[string]struct{}, len(allowedPlatforms))
	for _, p := range allowedPlatforms {
		allowed[strings.ToLower(p)] = struct{}{}
	}
	return &PostUsecase{
		postRepository:       postRepository,
		connectionRepository: connectionRepository,
		allowed:              allowed,
		maxRetries:           maxRetries,
	}
}

// CreatePost validates the request and stores the post with one pending
// target per requested platform. Every platform must be supported and
// actively connected; a post that could never publish anywhere is
// rejected up front.
func (u *PostUsecase) CreatePost(ctx context.Context, userID string, req dto.CreatePostRequest) (*model.Post, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, errors.New("content required")
	}
	if len(req.Platforms) == 0 {
		return nil, errors.New("platforms required")
	}

	platforms := make([]string, 0, len(req.Platforms))
	seen := make(map[string]struct{}, len(req.Platforms))
	for _, p := range req.Platforms {
		p = strings.ToLower(strings.TrimSpace(p))
		if _, ok := u.allowed[p]; !ok {
			return nil, model.NewPlatformError(model.ErrCodeUnsupportedPlatform, "unsupported platform: "+p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		platforms = append(platforms, p)
	}

	connections, err := u.connectionRepository.GetActiveByPlatforms(ctx, userID, platforms)
	if err != nil {
		return nil, err
	}
	connected := make(map[string]struct{}, len(connections))
	for _, c := range connections {
		connected[c.Platform] = struct{}{}
	}
	for _, p := range platforms {
		if _, ok := connected[p]; !ok {
			return nil, model.NewPlatformError(model.ErrCodeConnectionMissing, "no active connection for "+p)
		}
	}

	status := model.PostStatusDraft
	if req.PublishType == "scheduled" {
		status = model.PostStatusScheduled
	}
	post := &model.Post{
		UserID:  userID,
		Content: req.Content,
		Images:  req.Images,
		Status:  status,
	}
	created, err := u.postRepository.CreatePost(ctx, post, platforms, u.maxRetries)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("create post failed")
		return nil, err
	}
	return created, nil
}

func (u *PostUsecase) GetPost(ctx context.Context, postID int64, userID string) (*model.Post, error) {
	post, err := u.postRepository.GetPostWithTargets(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (u *PostUsecase) ListPosts(ctx context.Context, userID, status string, page, limit int) (*dto.PostListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	posts, total, err := u.postRepository.ListPosts(ctx, userID, status, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &dto.PostListResponse{
		Posts: posts,
		Pagination: dto.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}
