package osiapp

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// ConfirmationTokenService issues and verifies the signed tokens used to
// prove mailbox ownership. Tokens are HS256 JWTs binding {email, issuance
// time}; they carry no expiration claim of their own. The acceptance window
// is supplied at verification time, so nothing is stored server side and a
// token remains reusable until the window closes (re-confirming an already
// confirmed user is a no-op downstream).
type ConfirmationTokenService struct {
	signingKey []byte
	issuer     string
	logger     Logger
}

// NewConfirmationTokenService creates a confirmation token service bound to
// the process-wide signing secret.
func NewConfirmationTokenService(signingKey []byte, issuer string, logger Logger) *ConfirmationTokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &ConfirmationTokenService{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     logger,
	}
}

// Issue mints a confirmation token bound to the given email address.
func (cs *ConfirmationTokenService) Issue(email string) (string, error) {
	if email == "" {
		return "", errors.New("email must not be empty", errors.CategoryBadInput)
	}

	claims := &jwt.RegisteredClaims{
		Issuer:   cs.issuer,
		Subject:  email,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	ensureTokenID(claims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(cs.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign confirmation token")
	}

	return signedString, nil
}

// Verify checks the token signature and age and returns the bound email.
// Every failure mode collapses into ErrInvalidOrExpiredToken so a caller
// probing tokens cannot tell a bad signature apart from an expired one.
// Expiration is an open interval: a token exactly maxAge old is expired.
func (cs *ConfirmationTokenService) Verify(tokenString string, maxAge time.Duration) (string, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if cs.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(cs.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return cs.signingKey, nil
	}, parserOptions...)

	if err != nil || !token.Valid {
		cs.logger.Debug("confirmation token rejected", "error", err)
		return "", ErrInvalidOrExpiredToken
	}

	if claims.IssuedAt == nil || claims.Subject == "" {
		return "", ErrInvalidOrExpiredToken
	}

	age := time.Since(claims.IssuedAt.Time)
	if age < 0 || age >= maxAge {
		return "", ErrInvalidOrExpiredToken
	}

	return claims.Subject, nil
}
