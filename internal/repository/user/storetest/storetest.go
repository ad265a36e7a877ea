// Package storetest содержит общий набор проверок хранилища пользователей.
package storetest

import (
	"context"
	"testing"
	"time"

	"taskapi/internal/models/user"
	"taskapi/internal/repository"
	"taskapi/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Factory func(t *testing.T) service.UserRepository

func newUser(username string, staff bool) *user.User {
	return &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$hash",
		IsStaff:      staff,
		IsSuperuser:  false,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func RunUserRepository(t *testing.T, newRepo Factory) {
	t.Run("CreateAndGet", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		admin := newUser("admin", true)
		require.NoError(t, r.Create(ctx, admin))

		got, err := r.GetByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, got.ID)
		assert.Equal(t, "admin@example.com", got.Email)
		assert.Equal(t, admin.PasswordHash, got.PasswordHash)
		assert.True(t, got.IsStaff)
		assert.False(t, got.IsSuperuser)
		assert.True(t, admin.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		r := newRepo(t)
		ctx := context.Background()

		require.NoError(t, r.Create(ctx, newUser("testuser", false)))
		err := r.Create(ctx, newUser("testuser", true))
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("NotFound", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.GetByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("HealthCheck", func(t *testing.T) {
		assert.NoError(t, newRepo(t).HealthCheck(context.Background()))
	})
}
