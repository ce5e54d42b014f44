package usecase

import (
	"context"
	"errors"
	"time"

	"syncsns/domain/dto"
	"syncsns/domain/model"
	"syncsns/domain/repository"
	"syncsns/infrastructure/logger"
)

var ErrConnectionNotFound = errors.New("connection not found")

type IConnectionUsecase interface {
	Connect(ctx context.Context, userID string, cred model.Credential, account *model.PlatformAccount) (*model.SocialConnection, error)
	List(ctx context.Context, userID, platform string) ([]dto.ConnectionDTO, error)
	Get(ctx context.Context, id int64, userID string) (*dto.ConnectionDTO, error)
	Disconnect(ctx context.Context, id int64, userID string) error
}

type ConnectionUsecase struct {
	connectionRepository repository.IConnection
}

func NewConnectionUsecase(connectionRepository repository.IConnection) IConnectionUsecase {
	return &ConnectionUsecase{connectionRepository: connectionRepository}
}

// Connect stores (or refreshes) the connection produced by an OAuth
// callback. The platform account must already be resolved so a broken
// credential is never persisted.
func (u *ConnectionUsecase) Connect(ctx context.Context, userID string, cred model.Credential, account *model.PlatformAccount) (*model.SocialConnection, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	if cred.AccessToken == "" {
		return nil, model.NewPlatformError(model.ErrCodeCredentialInvalid, "empty access token")
	}
	if account == nil || account.ID == "" {
		return nil, model.NewPlatformError(model.ErrCodeCredentialInvalid, "platform account unresolved")
	}

	conn := &model.SocialConnection{
		UserID:            userID,
		Platform:          cred.Platform,
		PlatformUserID:    account.ID,
		Username:          account.Username,
		DisplayName:       account.Username,
		ProfilePictureURL: account.ProfilePictureURL,
		AccessToken:       cred.AccessToken,
		TokenType:         cred.TokenType,
		TokenExpiresAt:    cred.ExpiresAt,
	}
	stored, err := u.connectionRepository.UpsertConnection(ctx, conn)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"platform": cred.Platform,
		}).Error("connection upsert failed")
		return nil, err
	}
	return stored, nil
}

func (u *ConnectionUsecase) List(ctx context.Context, userID, platform string) ([]dto.ConnectionDTO, error) {
	connections, err := u.connectionRepository.ListActive(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ConnectionDTO, 0, len(connections))
	for _, c := range connections {
		out = append(out, toConnectionDTO(c))
	}
	return out, nil
}

func (u *ConnectionUsecase) Get(ctx context.Context, id int64, userID string) (*dto.ConnectionDTO, error) {
	conn, err := u.connectionRepository.GetByID(ctx, id, userID)
	if err != nil {
		return nil, ErrConnectionNotFound
	}
	d := toConnectionDTO(conn)
	return &d, nil
}

func (u *ConnectionUsecase) Disconnect(ctx context.Context, id int64, userID string) error {
	if err := u.connectionRepository.Disconnect(ctx, id, userID, time.Now().UTC()); err != nil {
		return ErrConnectionNotFound
	}
	return nil
}

func toConnectionDTO(c *model.SocialConnection) dto.ConnectionDTO {
	return dto.ConnectionDTO{
		ID:                c.ID,
		Platform:          c.Platform,
		PlatformUserID:    c.PlatformUserID,
		Username:          c.Username,
		DisplayName:       c.DisplayName,
		ProfilePictureURL: c.ProfilePictureURL,
		ConnectedAt:       c.ConnectedAt,
		IsActive:          c.IsActive,
	}
}
