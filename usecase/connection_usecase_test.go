package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"syncsns/domain/model"
	"syncsns/usecase"
)

func TestConnectionUsecase_Connect(t *testing.T) {
	connRepo := new(MockConnectionRepository)
	connRepo.On("UpsertConnection", mock.Anything, mock.MatchedBy(func(c *model.SocialConnection) bool {
		return c.Platform == "instagram" && c.PlatformUserID == "ig-1" && c.AccessToken == "tok"
	})).Return(&model.SocialConnection{ID: 5, Platform: "instagram", PlatformUserID: "ig-1"}, nil)

	uc := usecase.NewConnectionUsecase(connRepo)
	conn, err := uc.Connect(context.Background(), "user-1",
		model.Credential{Platform: "instagram", AccessToken: "tok", TokenType: "bearer"},
		&model.PlatformAccount{ID: "ig-1", Username: "someone"})

	require.NoError(t, err)
	assert.Equal(t, int64(5), conn.ID)
	connRepo.AssertExpectations(t)
}

func TestConnectionUsecase_Connect_RejectsEmptyToken(t *testing.T) {
	connRepo := new(MockConnectionRepository)
	uc := usecase.NewConnectionUsecase(connRepo)

	_, err := uc.Connect(context.Background(), "user-1",
		model.Credential{Platform: "instagram"},
		&model.PlatformAccount{ID: "ig-1"})

	require.Error(t, err)
	assert.Equal(t, model.ErrCodeCredentialInvalid, model.AsPlatformError(err).Code)
	connRepo.AssertNotCalled(t, "UpsertConnection", mock.Anything, mock.Anything)
}

func TestConnectionUsecase_Connect_RejectsUnresolvedAccount(t *testing.T) {
	uc := usecase.NewConnectionUsecase(new(MockConnectionRepository))

	_, err := uc.Connect(context.Background(), "user-1",
		model.Credential{Platform: "instagram", AccessToken: "tok"}, nil)

	require.Error(t, err)
	assert.Equal(t, model.ErrCodeCredentialInvalid, model.AsPlatformError(err).Code)
}

func TestConnectionUsecase_List_HidesTokens(t *testing.T) {
	connRepo := new(MockConnectionRepository)
	connRepo.On("ListActive", mock.Anything, "user-1", "").
		Return([]*model.SocialConnection{activeConnection("instagram")}, nil)

	uc := usecase.NewConnectionUsecase(connRepo)
	list, err := uc.List(context.Background(), "user-1", "")

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "instagram", list[0].Platform)
}

func TestConnectionUsecase_Disconnect_NotFound(t *testing.T) {
	connRepo := new(MockConnectionRepository)
	connRepo.On("Disconnect", mock.Anything, int64(99), "user-1", mock.AnythingOfType("time.Time")).
		Return(assert.AnError)

	uc := usecase.NewConnectionUsecase(connRepo)
	err := uc.Disconnect(context.Background(), 99, "user-1")

	assert.ErrorIs(t, err, usecase.ErrConnectionNotFound)
}
