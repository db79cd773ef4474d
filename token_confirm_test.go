package osiapp_test

import (
	"testing"
	"time"

	osiapp "github.com/OsianJL/osiapp-api"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationTokenService_Issue(t *testing.T) {
	service := osiapp.NewConfirmationTokenService([]byte("confirm-key"), "test-issuer", nil)

	t.Run("issues a verifiable token", func(t *testing.T) {
		token, err := service.Issue("user@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		email, err := service.Verify(token, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", email)
	})

	t.Run("empty email errors", func(t *testing.T) {
		_, err := service.Issue("")
		assert.Error(t, err)
	})

	t.Run("token is reusable within the window", func(t *testing.T) {
		token, err := service.Issue("repeat@example.com")
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			email, err := service.Verify(token, 24*time.Hour)
			require.NoError(t, err)
			assert.Equal(t, "repeat@example.com", email)
		}
	})
}

func TestConfirmationTokenService_Verify(t *testing.T) {
	signingKey := []byte("confirm-key")
	service := osiapp.NewConfirmationTokenService(signingKey, "test-issuer", nil)

	signAs := func(t *testing.T, key []byte, claims *jwt.RegisteredClaims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}

	t.Run("rejects token older than the window", func(t *testing.T) {
		stale := signAs(t, signingKey, &jwt.RegisteredClaims{
			Issuer:   "test-issuer",
			Subject:  "user@example.com",
			IssuedAt: jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
		})

		_, err := service.Verify(stale, 24*time.Hour)
		assert.ErrorIs(t, err, osiapp.ErrInvalidOrExpiredToken)
	})

	t.Run("rejects token signed with another key", func(t *testing.T) {
		forged := signAs(t, []byte("attacker-key"), &jwt.RegisteredClaims{
			Issuer:   "test-issuer",
			Subject:  "user@example.com",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		})

		_, err := service.Verify(forged, 24*time.Hour)
		assert.ErrorIs(t, err, osiapp.ErrInvalidOrExpiredToken)
	})

	t.Run("rejects token without subject", func(t *testing.T) {
		anonymous := signAs(t, signingKey, &jwt.RegisteredClaims{
			Issuer:   "test-issuer",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		})

		_, err := service.Verify(anonymous, 24*time.Hour)
		assert.ErrorIs(t, err, osiapp.ErrInvalidOrExpiredToken)
	})

	t.Run("rejects token without issued at", func(t *testing.T) {
		timeless := signAs(t, signingKey, &jwt.RegisteredClaims{
			Issuer:  "test-issuer",
			Subject: "user@example.com",
		})

		_, err := service.Verify(timeless, 24*time.Hour)
		assert.ErrorIs(t, err, osiapp.ErrInvalidOrExpiredToken)
	})

	t.Run("rejects token from another issuer", func(t *testing.T) {
		foreign := signAs(t, signingKey, &jwt.RegisteredClaims{
			Issuer:   "someone-else",
			Subject:  "user@example.com",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		})

		_, err := service.Verify(foreign, 24*time.Hour)
		assert.ErrorIs(t, err, osiapp.ErrInvalidOrExpiredToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.Verify("garbage", 24*time.Hour)
		assert.ErrorIs(t, err, osiapp.ErrInvalidOrExpiredToken)
	})
}
