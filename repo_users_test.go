package osiapp_test

import (
	"context"
	"testing"

	osiapp "github.com/OsianJL/osiapp-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := osiapp.NewUsersRepository(db)
	ctx := context.Background()

	t.Run("creates an unconfirmed member", func(t *testing.T) {
		user, err := repo.Create(ctx, "new@example.com", "Str0ng!pass")
		require.NoError(t, err)

		assert.NotZero(t, user.ID)
		assert.Equal(t, "new@example.com", user.Email)
		assert.Equal(t, osiapp.RoleMember, user.Role)
		assert.False(t, user.Confirmed)
		assert.NotEqual(t, "Str0ng!pass", user.PasswordHash)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, "dup@example.com", "Str0ng!pass")
		require.NoError(t, err)

		_, err = repo.Create(ctx, "dup@example.com", "An0ther!pass")
		assert.ErrorIs(t, err, osiapp.ErrDuplicateEmail)
	})
}

func TestUsersRepository_GetByEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := osiapp.NewUsersRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "lookup@example.com", "Str0ng!pass")
	require.NoError(t, err)

	t.Run("finds existing user", func(t *testing.T) {
		user, err := repo.GetByEmail(ctx, "lookup@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("unknown email returns not found", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, osiapp.ErrIdentityNotFound)
	})
}

func TestUsersRepository_VerifyPassword(t *testing.T) {
	db := setupTestDB(t)
	repo := osiapp.NewUsersRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, "verify@example.com", "Str0ng!pass")
	require.NoError(t, err)

	assert.True(t, repo.VerifyPassword(user, "Str0ng!pass"))
	assert.False(t, repo.VerifyPassword(user, "wrong"))
	assert.False(t, repo.VerifyPassword(nil, "Str0ng!pass"))
}

func TestUsersRepository_MarkConfirmed(t *testing.T) {
	db := setupTestDB(t)
	repo := osiapp.NewUsersRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, "confirm@example.com", "Str0ng!pass")
	require.NoError(t, err)
	require.False(t, user.Confirmed)

	t.Run("flips the flag", func(t *testing.T) {
		require.NoError(t, repo.MarkConfirmed(ctx, user))

		reloaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.Confirmed)
	})

	t.Run("confirming again is a no-op", func(t *testing.T) {
		reloaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)

		assert.NoError(t, repo.MarkConfirmed(ctx, reloaded))
		assert.True(t, reloaded.Confirmed)
	})

	t.Run("nil user errors", func(t *testing.T) {
		assert.ErrorIs(t, repo.MarkConfirmed(ctx, nil), osiapp.ErrIdentityNotFound)
	})
}

func TestUsersRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := osiapp.NewUsersRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, "promote@example.com", "Str0ng!pass")
	require.NoError(t, err)

	t.Run("updates the role", func(t *testing.T) {
		user.Role = osiapp.RoleAdmin

		updated, err := repo.Update(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, osiapp.RoleAdmin, updated.Role)

		reloaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, osiapp.RoleAdmin, reloaded.Role)
	})

	t.Run("missing user errors", func(t *testing.T) {
		ghost := &osiapp.User{ID: 9999, Role: osiapp.RoleAdmin}
		_, err := repo.Update(ctx, ghost)
		assert.ErrorIs(t, err, osiapp.ErrIdentityNotFound)
	})
}

func TestUsersRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := osiapp.NewUsersRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, "remove@example.com", "Str0ng!pass")
	require.NoError(t, err)

	t.Run("soft deletes the record", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, user.ID))

		_, err := repo.GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, osiapp.ErrIdentityNotFound)

		_, err = repo.GetByEmail(ctx, "remove@example.com")
		assert.ErrorIs(t, err, osiapp.ErrIdentityNotFound)
	})

	t.Run("deleting an unknown id errors", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, 9999), osiapp.ErrIdentityNotFound)
	})
}
