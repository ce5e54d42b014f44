package usecase_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"syncsns/domain/dto"
	"syncsns/domain/model"
	"syncsns/usecase"
)

func newPostUsecase(postRepo *MockPostRepository, connRepo *MockConnectionRepository) usecase.IPostUsecase {
	return usecase.NewPostUsecase(postRepo, connRepo, []string{"instagram", "twitter"}, 3)
}

func TestPostUsecase_CreatePost(t *testing.T) {
	postRepo := new(MockPostRepository)
	connRepo := new(MockConnectionRepository)

	connRepo.On("GetActiveByPlatforms", mock.Anything, "user-1", []string{"instagram", "twitter"}).
		Return([]*model.SocialConnection{activeConnection("instagram"), activeConnection("twitter")}, nil)
	postRepo.On("CreatePost", mock.Anything, mock.Anything, []string{"instagram", "twitter"}, 3).
		Return(&model.Post{ID: 7, UserID: "user-1", Content: "hello", Status: model.PostStatusDraft}, nil)

	uc := newPostUsecase(postRepo, connRepo)
	post, err := uc.CreatePost(context.Background(), "user-1", dto.CreatePostRequest{
		Content:   "hello",
		Platforms: []string{"Instagram", "twitter", "instagram"}, // mixed case + duplicate
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), post.ID)
	postRepo.AssertExpectations(t)
}

func TestPostUsecase_CreatePost_ContentRequired(t *testing.T) {
	uc := newPostUsecase(new(MockPostRepository), new(MockConnectionRepository))

	_, err := uc.CreatePost(context.Background(), "user-1", dto.CreatePostRequest{
		Content:   "   ",
		Platforms: []string{"instagram"},
	})
	assert.Error(t, err)
}

func TestPostUsecase_CreatePost_UnsupportedPlatform(t *testing.T) {
	uc := newPostUsecase(new(MockPostRepository), new(MockConnectionRepository))

	_, err := uc.CreatePost(context.Background(), "user-1", dto.CreatePostRequest{
		Content:   "hello",
		Platforms: []string{"myspace"},
	})
	require.Error(t, err)
	pe := model.AsPlatformError(err)
	assert.Equal(t, model.ErrCodeUnsupportedPlatform, pe.Code)
}

func TestPostUsecase_CreatePost_ConnectionMissing(t *testing.T) {
	postRepo := new(MockPostRepository)
	connRepo := new(MockConnectionRepository)

	connRepo.On("GetActiveByPlatforms", mock.Anything, "user-1", []string{"instagram"}).
		Return([]*model.SocialConnection{}, nil)

	uc := newPostUsecase(postRepo, connRepo)
	_, err := uc.CreatePost(context.Background(), "user-1", dto.CreatePostRequest{
		Content:   "hello",
		Platforms: []string{"instagram"},
	})
	require.Error(t, err)
	pe := model.AsPlatformError(err)
	assert.Equal(t, model.ErrCodeConnectionMissing, pe.Code)
	postRepo.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostUsecase_GetPost_NotFound(t *testing.T) {
	postRepo := new(MockPostRepository)
	connRepo := new(MockConnectionRepository)
	postRepo.On("GetPostWithTargets", mock.Anything, int64(99), "user-1").Return(nil, sql.ErrNoRows)

	uc := newPostUsecase(postRepo, connRepo)
	post, err := uc.GetPost(context.Background(), 99, "user-1")

	assert.Nil(t, post)
	assert.ErrorIs(t, err, usecase.ErrPostNotFound)
}

func TestPostUsecase_GetPost_RepositoryErrorSurfaces(t *testing.T) {
	postRepo := new(MockPostRepository)
	connRepo := new(MockConnectionRepository)
	dbErr := errors.New("connection refused")
	postRepo.On("GetPostWithTargets", mock.Anything, int64(1), "user-1").Return(nil, dbErr)

	uc := newPostUsecase(postRepo, connRepo)
	post, err := uc.GetPost(context.Background(), 1, "user-1")

	assert.Nil(t, post)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, usecase.ErrPostNotFound)
}

func TestPostUsecase_ListPosts_Pagination(t *testing.T) {
	postRepo := new(MockPostRepository)
	connRepo := new(MockConnectionRepository)

	postRepo.On("ListPosts", mock.Anything, "user-1", "", 20, 0).
		Return([]*model.Post{{ID: 1}, {ID: 2}}, int64(42), nil)

	uc := newPostUsecase(postRepo, connRepo)
	res, err := uc.ListPosts(context.Background(), "user-1", "", 0, 0) // bad page/limit fall back to defaults

	require.NoError(t, err)
	assert.Len(t, res.Posts, 2)
	assert.Equal(t, int64(42), res.Pagination.Total)
	assert.Equal(t, 3, res.Pagination.TotalPages)
	assert.Equal(t, 1, res.Pagination.Page)
}
