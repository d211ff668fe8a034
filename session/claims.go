package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	cerrors "github.com/jrsteele09/go-cowork-client/internal/errors"
)

// Claims is what the client can read out of a JWT session token without
// holding the signing key. Tokens are opaque to the backend contract, so
// nothing here is used to reject a token.
type Claims struct {
	Subject   string
	Email     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that is before now.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt)
}

// PeekClaims decodes token without verifying its signature.
func PeekClaims(token string) (*Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrMalformedJWT, err)
	}

	claims := &Claims{}
	claims.Subject, _ = mapClaims.GetSubject()
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if jti, ok := mapClaims["jti"].(string); ok {
		claims.ID = jti
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// Claims peeks at the stored token. ErrNoToken is returned when there is no
// session.
func (s *Store) Claims() (*Claims, error) {
	token, ok := s.GetToken()
	if !ok {
		return nil, ErrNoToken
	}
	return PeekClaims(token)
}
