package session

import (
	"golang.org/x/oauth2"
)

type tokenSource struct {
	store TokenStore
}

// TokenSource exposes the stored session as an oauth2.TokenSource so it can
// drive oauth2.Transport or any other oauth2-aware HTTP client. The token is
// returned even if its JWT expiry has passed; the backend decides validity.
func TokenSource(store TokenStore) oauth2.TokenSource {
	return tokenSource{store: store}
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	return BearerToken(ts.store)
}

// BearerToken returns the stored token as an oauth2 Bearer token.
func BearerToken(store TokenStore) (*oauth2.Token, error) {
	raw, ok := store.GetToken()
	if !ok {
		return nil, ErrNoToken
	}
	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if claims, err := PeekClaims(raw); err == nil {
		tok.Expiry = claims.ExpiresAt
	}
	return tok, nil
}
