package osiapp_test

import (
	"context"
	"testing"
	"time"

	osiapp "github.com/OsianJL/osiapp-api"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfirmFixture(t *testing.T) (osiapp.RepositoryManager, *osiapp.ConfirmationTokenService, *osiapp.ConfirmEmailHandler) {
	t.Helper()

	db := setupTestDB(t)
	repo := osiapp.NewRepositoryManager(db)
	tokens := osiapp.NewConfirmationTokenService([]byte("confirm-key"), "test-issuer", nil)
	handler := osiapp.NewConfirmEmailHandler(repo, tokens, 24*time.Hour, nil)

	return repo, tokens, handler
}

func TestConfirmEmailHandler_Execute(t *testing.T) {
	t.Run("confirms a registered user", func(t *testing.T) {
		repo, tokens, handler := newConfirmFixture(t)
		ctx := context.Background()

		user, err := repo.Users().Create(ctx, "pending@example.com", "Str0ng!pass1")
		require.NoError(t, err)
		require.False(t, user.Confirmed)

		token, err := tokens.Issue("pending@example.com")
		require.NoError(t, err)

		var res *osiapp.ConfirmEmailResponse
		err = handler.Execute(ctx, osiapp.ConfirmEmailMessage{
			Token: token,
			OnResponse: func(r *osiapp.ConfirmEmailResponse) {
				res = r
			},
		})
		require.NoError(t, err)

		require.NotNil(t, res)
		assert.False(t, res.AlreadyConfirmed)

		reloaded, err := repo.Users().GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.Confirmed)
	})

	t.Run("replaying the link reports already confirmed", func(t *testing.T) {
		repo, tokens, handler := newConfirmFixture(t)
		ctx := context.Background()

		_, err := repo.Users().Create(ctx, "repeat@example.com", "Str0ng!pass1")
		require.NoError(t, err)

		token, err := tokens.Issue("repeat@example.com")
		require.NoError(t, err)

		require.NoError(t, handler.Execute(ctx, osiapp.ConfirmEmailMessage{Token: token}))

		var res *osiapp.ConfirmEmailResponse
		err = handler.Execute(ctx, osiapp.ConfirmEmailMessage{
			Token: token,
			OnResponse: func(r *osiapp.ConfirmEmailResponse) {
				res = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.AlreadyConfirmed)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, _, handler := newConfirmFixture(t)

		err := handler.Execute(context.Background(), osiapp.ConfirmEmailMessage{Token: "garbage"})
		assert.ErrorIs(t, err, osiapp.ErrInvalidOrExpiredToken)
	})

	t.Run("expired token", func(t *testing.T) {
		repo, _, handler := newConfirmFixture(t)
		ctx := context.Background()

		_, err := repo.Users().Create(ctx, "late@example.com", "Str0ng!pass1")
		require.NoError(t, err)

		stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
			Issuer:   "test-issuer",
			Subject:  "late@example.com",
			IssuedAt: jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
		}).SignedString([]byte("confirm-key"))
		require.NoError(t, err)

		err = handler.Execute(ctx, osiapp.ConfirmEmailMessage{Token: stale})
		assert.ErrorIs(t, err, osiapp.ErrInvalidOrExpiredToken)

		user, err := repo.Users().GetByEmail(ctx, "late@example.com")
		require.NoError(t, err)
		assert.False(t, user.Confirmed)
	})

	t.Run("token for an unknown account does not leak", func(t *testing.T) {
		_, tokens, handler := newConfirmFixture(t)

		token, err := tokens.Issue("ghost@example.com")
		require.NoError(t, err)

		err = handler.Execute(context.Background(), osiapp.ConfirmEmailMessage{Token: token})
		assert.ErrorIs(t, err, osiapp.ErrInvalidOrExpiredToken)
	})
}
