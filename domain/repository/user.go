package repository

import (
	"context"

	"syncsns/domain/model"
)

// IUser defines user account persistence.
type IUser interface {
	GetById(ctx context.Context, id int) (model.User, error)
	GetByUserName(ctx context.Context, userName string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) error
}
