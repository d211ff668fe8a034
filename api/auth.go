package api

import (
	"context"

	cerrors "github.com/jrsteele09/go-cowork-client/internal/errors"
	"github.com/jrsteele09/go-cowork-client/gateway"
	"github.com/pkg/errors"
)

// AuthService covers the unauthenticated entry points and logout. Every call
// that yields a token stores it as the device's single session.
type AuthService struct {
	c *client
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*gateway.Response, error) {
	return s.authenticate(ctx, EndpointRegister, req)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*gateway.Response, error) {
	return s.authenticate(ctx, EndpointLogin, req)
}

// SendOTP asks the backend to deliver a one-time code. No token results.
func (s *AuthService) SendOTP(ctx context.Context, req SendOTPRequest) (*gateway.Response, error) {
	return s.c.gw.Post(ctx, EndpointSendOTP, req, gateway.NoAuth())
}

func (s *AuthService) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*gateway.Response, error) {
	return s.authenticate(ctx, EndpointVerifyOTP, req)
}

func (s *AuthService) AdminLogin(ctx context.Context, req LoginRequest) (*gateway.Response, error) {
	return s.authenticate(ctx, EndpointAdminLogin, req)
}

// Logout tells the backend the session is over and always removes the local
// token, whatever the backend answered. The request is only sent when a token
// is stored.
func (s *AuthService) Logout(ctx context.Context) error {
	_, ok := s.c.store.GetToken()
	return s.logout(ctx, ok)
}

// ForceLogout sends the logout request even when no token is stored. The
// gateway clears the token before its fallback runs, so this is the variant to
// install with SetFallbackLogout. It never returns an error.
func (s *AuthService) ForceLogout(ctx context.Context) error {
	return s.logout(ctx, true)
}

func (s *AuthService) logout(ctx context.Context, send bool) error {
	if send {
		if _, err := s.c.gw.Post(ctx, EndpointLogout, nil); err != nil {
			s.c.logger.Warn().Err(err).Msg("api: logout request failed, clearing session locally")
		}
	}
	s.c.store.RemoveToken()
	return nil
}

// Result decodes the auth payload of a response from one of the calls above.
func Result(resp *gateway.Response) (*AuthResult, error) {
	var result AuthResult
	if err := resp.Decode(&result); err != nil {
		return nil, errors.Wrap(err, "[api.Result] decode auth data")
	}
	if result.bearer() == "" {
		return nil, cerrors.ErrTokenNotFound
	}
	return &result, nil
}

func (s *AuthService) authenticate(ctx context.Context, endpoint string, body any) (*gateway.Response, error) {
	resp, err := s.c.gw.Post(ctx, endpoint, body, gateway.NoAuth())
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, nil
	}
	result, err := Result(resp)
	if err != nil {
		s.c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("api: successful auth response carried no token")
		return resp, nil
	}
	s.c.store.SetToken(result.bearer())
	return resp, nil
}
