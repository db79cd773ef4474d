package jwtware_test

import (
	"errors"
	"testing"

	"github.com/OsianJL/osiapp-api/middleware/jwtware"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubClaims struct {
	subject string
	role    string
}

func (c stubClaims) Subject() string { return c.subject }
func (c stubClaims) UserID() string  { return c.subject }
func (c stubClaims) Role() string    { return c.role }
func (c stubClaims) HasRole(role string) bool {
	return c.role == role
}

type stubValidator struct {
	claims jwtware.AuthClaims
	err    error
}

func (v stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func newMiddlewareHandler(cfg jwtware.Config) router.HandlerFunc {
	mw := jwtware.New(cfg)
	return mw(func(ctx router.Context) error { return nil })
}

func TestMiddleware(t *testing.T) {
	t.Run("valid bearer token passes through", func(t *testing.T) {
		successCalled := false

		handler := newMiddlewareHandler(jwtware.Config{
			TokenValidator: stubValidator{claims: stubClaims{subject: "7", role: "member"}},
			SuccessHandler: func(ctx router.Context) error {
				successCalled = true
				return nil
			},
		})

		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer sometoken")
		ctx.On("Locals", mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, handler(ctx))
		assert.True(t, successCalled)
	})

	t.Run("missing header yields 400", func(t *testing.T) {
		var handled error

		handler := newMiddlewareHandler(jwtware.Config{
			TokenValidator: stubValidator{claims: stubClaims{subject: "7", role: "member"}},
			ErrorHandler: func(ctx router.Context, err error) error {
				handled = err
				return nil
			},
		})

		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("")

		require.NoError(t, handler(ctx))
		assert.ErrorIs(t, handled, jwtware.ErrJWTMissingOrMalformed)
	})

	t.Run("validator rejection reaches the error handler", func(t *testing.T) {
		rejected := errors.New("bad token")
		var handled error

		handler := newMiddlewareHandler(jwtware.Config{
			TokenValidator: stubValidator{err: rejected},
			ErrorHandler: func(ctx router.Context, err error) error {
				handled = err
				return nil
			},
		})

		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer sometoken")

		require.NoError(t, handler(ctx))
		assert.ErrorIs(t, handled, rejected)
	})

	t.Run("required role mismatch is denied", func(t *testing.T) {
		var handled error
		successCalled := false

		handler := newMiddlewareHandler(jwtware.Config{
			TokenValidator: stubValidator{claims: stubClaims{subject: "7", role: "member"}},
			RequiredRole:   "admin",
			SuccessHandler: func(ctx router.Context) error {
				successCalled = true
				return nil
			},
			ErrorHandler: func(ctx router.Context, err error) error {
				handled = err
				return nil
			},
		})

		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer sometoken")

		require.NoError(t, handler(ctx))
		assert.Error(t, handled)
		assert.False(t, successCalled)
	})

	t.Run("required role match is allowed", func(t *testing.T) {
		successCalled := false

		handler := newMiddlewareHandler(jwtware.Config{
			TokenValidator: stubValidator{claims: stubClaims{subject: "1", role: "admin"}},
			RequiredRole:   "admin",
			SuccessHandler: func(ctx router.Context) error {
				successCalled = true
				return nil
			},
		})

		ctx := router.NewMockContext()
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer sometoken")
		ctx.On("Locals", mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, handler(ctx))
		assert.True(t, successCalled)
	})
}

func TestGetExtractors(t *testing.T) {
	t.Run("header extractor strips the scheme", func(t *testing.T) {
		extractors := jwtware.GetExtractors("header:Authorization", "Bearer")
		require.Len(t, extractors, 1)

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer abc.def.ghi")

		token, err := extractors[0](ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", token)
	})

	t.Run("param extractor", func(t *testing.T) {
		extractors := jwtware.GetExtractors("param:token")
		require.Len(t, extractors, 1)

		ctx := router.NewMockContext()
		ctx.ParamsM["token"] = "abc"

		token, err := extractors[0](ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc", token)
	})

	t.Run("malformed header value", func(t *testing.T) {
		extractors := jwtware.GetExtractors("header:Authorization", "Bearer")
		require.Len(t, extractors, 1)

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("abc.def.ghi")

		_, err := extractors[0](ctx)
		assert.ErrorIs(t, err, jwtware.ErrJWTMissingOrMalformed)
	})
}
