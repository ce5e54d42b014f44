package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncsns/domain/model"
)

func testConnection() *model.SocialConnection {
	expires := time.Now().Add(60 * 24 * time.Hour).UTC()
	return &model.SocialConnection{
		UserID:         "user-1",
		Platform:       "instagram",
		PlatformUserID: "17841400000000000",
		Username:       "someone",
		DisplayName:    "someone",
		AccessToken:    "long-token",
		TokenType:      "bearer",
		TokenExpiresAt: &expires,
	}
}

func TestConnectionRepository_Upsert_InsertsWhenMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewConnectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM social_connections`)).
		WithArgs("user-1", "instagram", "17841400000000000").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO social_connections`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()

	conn, err := repository.UpsertConnection(context.Background(), testConnection())

	require.NoError(t, err)
	assert.Equal(t, int64(5), conn.ID)
	assert.True(t, conn.IsActive)
	assert.Nil(t, conn.DisconnectedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionRepository_Upsert_RefreshesExistingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewConnectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM social_connections`)).
		WithArgs("user-1", "instagram", "17841400000000000").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE social_connections SET username = $2`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conn, err := repository.UpsertConnection(context.Background(), testConnection())

	require.NoError(t, err)
	assert.Equal(t, int64(5), conn.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionRepository_Disconnect_NoActiveRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewConnectionRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE social_connections SET is_active = FALSE, disconnected_at = $3`)).
		WithArgs(int64(99), "user-1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repository.Disconnect(context.Background(), 99, "user-1", at)

	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionRepository_GetByID_ScopedToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewConnectionRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM social_connections
		 WHERE id = $1 AND user_id = $2 AND is_active = TRUE`)).
		WithArgs(int64(5), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "platform", "platform_user_id", "username", "display_name", "profile_picture_url",
			"access_token", "refresh_token", "token_type", "token_expires_at", "connected_at", "is_active", "disconnected_at",
		}).AddRow(int64(5), "user-1", "instagram", "17841400000000000", "someone", "someone", "",
			"long-token", nil, "bearer", nil, now, true, nil))

	conn, err := repository.GetByID(context.Background(), 5, "user-1")

	require.NoError(t, err)
	assert.Equal(t, "instagram", conn.Platform)
	assert.Equal(t, "long-token", conn.AccessToken)
	assert.True(t, conn.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}
