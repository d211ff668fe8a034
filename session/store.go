package session

import (
	"strings"

	cerrors "github.com/jrsteele09/go-cowork-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TokenKey is the single durable key the bearer token is stored under.
const TokenKey = "auth_token"

var (
	ErrNotFound     = cerrors.ErrNotFound
	ErrNoToken      = cerrors.ErrNoToken
	ErrMalformedJWT = cerrors.ErrMalformedJWT
)

// Repo is a durable key/value backend. Load returns ErrNotFound when the key
// is absent; Delete returns ErrNotFound when there was nothing to delete.
type Repo interface {
	Load(key string) (string, error)
	Save(key, value string) error
	Delete(key string) error
}

// TokenStore is the view of the session the gateway and API services use.
// None of the methods fail: storage problems are logged and the token is
// treated as absent.
type TokenStore interface {
	GetToken() (string, bool)
	SetToken(token string)
	RemoveToken()
}

// Store holds the single active session token for this device.
type Store struct {
	repo   Repo
	key    string
	logger zerolog.Logger
}

var _ TokenStore = (*Store)(nil)

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithLogger sets the logger used for non-fatal storage failures.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithKey overrides TokenKey, mainly so tests can share one repo.
func WithKey(key string) StoreOption {
	return func(s *Store) {
		s.key = key
	}
}

// NewStore wraps repo. A nil repo is a programming error.
func NewStore(repo Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, cerrors.New("[session.NewStore] repo is required")
	}
	s := &Store{
		repo:   repo,
		key:    TokenKey,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// GetToken returns the persisted token, or false if none is stored or the
// backend could not be read.
func (s *Store) GetToken() (string, bool) {
	token, err := s.repo.Load(s.key)
	if err != nil {
		if !cerrors.Is(err, ErrNotFound) {
			s.logger.Error().Err(err).Str("key", s.key).Msg("session: failed to read token")
		}
		return "", false
	}
	if strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

// SetToken persists token, overwriting any previous one. A blank token clears
// the session.
func (s *Store) SetToken(token string) {
	if strings.TrimSpace(token) == "" {
		s.RemoveToken()
		return
	}
	if err := s.repo.Save(s.key, token); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("session: failed to persist token")
		return
	}
	s.logger.Debug().Str("key", s.key).Msg("session: token stored")
}

// RemoveToken deletes the persisted token. Removing an absent token is not an
// error.
func (s *Store) RemoveToken() {
	if err := s.repo.Delete(s.key); err != nil {
		if cerrors.Is(err, ErrNotFound) {
			return
		}
		s.logger.Error().Err(err).Str("key", s.key).Msg("session: failed to remove token")
		return
	}
	s.logger.Debug().Str("key", s.key).Msg("session: token removed")
}

// Authenticated reports whether a token is present.
func (s *Store) Authenticated() bool {
	_, ok := s.GetToken()
	return ok
}
