package osiapp

import (
	"strconv"
	"time"
)

var _ Session = &SessionObject{}

// SessionObject is the session representation derived from validated claims
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Role           string     `json:"role,omitempty"`
	Audience       []string   `json:"audience,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

// GetUserIntID parses the numeric store identity carried by the session
func (s *SessionObject) GetUserIntID() (int64, error) {
	return strconv.ParseInt(s.UserID, 10, 64)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiration() *time.Time {
	return s.ExpirationDate
}

// GetRole returns the role claim carried by the session, defaulting to member
func (s *SessionObject) GetRole() string {
	if s.Role == "" {
		return RoleMember
	}
	return s.Role
}

func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToDecodeSession
	}

	session := &SessionObject{
		UserID: claims.UserID(),
		Role:   claims.Role(),
	}

	if issued := claims.IssuedAt(); !issued.IsZero() {
		t := issued
		session.IssuedAt = &t
	}

	if expires := claims.Expires(); !expires.IsZero() {
		t := expires
		session.ExpirationDate = &t
	}

	if jc, ok := claims.(*JWTClaims); ok {
		session.Issuer = jc.RegisteredClaims.Issuer
		session.Audience = jc.RegisteredClaims.Audience
	}

	return session, nil
}
