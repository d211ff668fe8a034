package app

import (
	"sync"

	"github.com/jrsteele09/go-cowork-client/api"
)

// AuthState is the in-memory view of who is signed in. The persisted token
// lives in the session store; this only mirrors it for the UI.
type AuthState struct {
	lock          sync.RWMutex
	authenticated bool
	user          *api.User
}

func NewAuthState() *AuthState {
	return &AuthState{}
}

func (s *AuthState) SetUser(user *api.User) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.authenticated = true
	if user != nil {
		copied := *user
		s.user = &copied
	}
}

// Reset forgets the signed-in member.
func (s *AuthState) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.authenticated = false
	s.user = nil
}

func (s *AuthState) Authenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.authenticated
}

// User returns a copy of the signed-in member, or nil.
func (s *AuthState) User() *api.User {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}
