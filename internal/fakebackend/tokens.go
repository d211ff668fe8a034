package fakebackend

import (
	"errors"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errTokenRevoked = errors.New("token revoked")

// tokenIssuer creates and validates HS256 access tokens. Logout revokes a
// token by its jti.
type tokenIssuer struct {
	issuer string
	secret []byte
	expiry time.Duration
	now    func() time.Time

	revoked map[string]struct{}
	lock    sync.RWMutex
}

func newTokenIssuer(issuer string, secret []byte, expiry time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		issuer:  issuer,
		secret:  secret,
		expiry:  expiry,
		now:     now,
		revoked: make(map[string]struct{}),
	}
}

func (t *tokenIssuer) CreateAccessToken(member *Member) (string, error) {
	claims := jwtlib.MapClaims{
		"iss":   t.issuer,
		"sub":   member.ID,
		"email": member.Email,
		"role":  string(member.Role),
		"iat":   t.now().Unix(),
		"exp":   t.now().Add(t.expiry).Unix(),
		"jti":   uuid.New().String(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(t.currentSecret())
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

// Validate returns the subject and jti of a live token.
func (t *tokenIssuer) Validate(token string) (subject, jti string, err error) {
	claims := jwtlib.MapClaims{}
	_, err = jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (interface{}, error) {
		return t.currentSecret(), nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(t.issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", "", err
	}
	subject, err = claims.GetSubject()
	if err != nil {
		return "", "", err
	}
	jti, _ = claims["jti"].(string)

	t.lock.RLock()
	defer t.lock.RUnlock()
	if _, ok := t.revoked[jti]; ok {
		return "", "", errTokenRevoked
	}
	return subject, jti, nil
}

func (t *tokenIssuer) currentSecret() []byte {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.secret
}

func (t *tokenIssuer) Revoke(jti string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.revoked[jti] = struct{}{}
}

// RotateSecret invalidates every token issued so far.
func (t *tokenIssuer) RotateSecret() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.secret = []byte(uuid.New().String())
}
