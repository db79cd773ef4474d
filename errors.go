package osiapp

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrMissingField is returned when a request omits email or password
var ErrMissingField = goerrors.New("email and password are required", goerrors.CategoryValidation).
	WithTextCode("MISSING_FIELD").
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidEmail is returned for syntactically invalid email addresses
var ErrInvalidEmail = goerrors.New("email address is not valid", goerrors.CategoryValidation).
	WithTextCode("INVALID_EMAIL_FORMAT").
	WithCode(goerrors.CodeBadRequest)

// ErrWeakPassword is returned when a password fails the strength rules
var ErrWeakPassword = goerrors.New(
	"password must have at least 8 characters, one uppercase letter, one lowercase letter, one digit and one special character",
	goerrors.CategoryValidation).
	WithTextCode("WEAK_PASSWORD").
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateEmail is returned when the email is already registered
var ErrDuplicateEmail = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode("DUPLICATE_EMAIL").
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials covers both unknown email and wrong password;
// the two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidOrExpiredToken covers signature mismatch, malformed input and
// expiry for confirmation tokens; verification does not reveal which.
var ErrInvalidOrExpiredToken = goerrors.New("invalid or expired confirmation token", goerrors.CategoryValidation).
	WithTextCode("INVALID_OR_EXPIRED_TOKEN").
	WithCode(goerrors.CodeBadRequest)

// ErrNotificationFailure marks a confirmation email that could not be
// delivered. Registration is not rolled back when this happens.
var ErrNotificationFailure = goerrors.New("confirmation email could not be sent", goerrors.CategoryOperation).
	WithTextCode("NOTIFICATION_DELIVERY_FAILURE").
	WithCode(goerrors.CodeInternal)

// ErrPersistenceFailure is the generic fatal store error surfaced to callers
var ErrPersistenceFailure = goerrors.New("persistence failure", goerrors.CategoryInternal).
	WithTextCode("PERSISTENCE_FAILURE").
	WithCode(goerrors.CodeInternal)

// ErrTokenExpired is returned for session tokens past their expiration
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for session tokens we cannot parse or verify
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToFindSession is the error when a request carries no session
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode claims stored for the request
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password should not be an empty string")

// ErrMismatchedHashAndPassword is the stable mismatch error from bcrypt
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueViolation reports whether err is a unique constraint violation
// from the database. The store's unique index on users.email serializes
// concurrent registrations; the loser surfaces here.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	// postgres (pgdriver) and sqlite (modernc via sqliteshim)
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// IsNotFoundError reports whether err represents a missing record, either
// our own sentinel or a sql.ErrNoRows bubbled up from bun.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrIdentityNotFound) {
		return true
	}
	if goerrors.IsNotFound(err) {
		return true
	}
	return strings.Contains(err.Error(), "no rows in result set")
}
