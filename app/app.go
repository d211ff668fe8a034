// Package app wires the session store, gateway and API services together and
// owns the client-side auth state.
package app

import (
	"context"
	"io"
	"net/http"

	"github.com/jrsteele09/go-cowork-client/api"
	"github.com/jrsteele09/go-cowork-client/gateway"
	"github.com/jrsteele09/go-cowork-client/internal/config"
	cerrors "github.com/jrsteele09/go-cowork-client/internal/errors"
	"github.com/jrsteele09/go-cowork-client/session"
	"github.com/jrsteele09/go-cowork-client/session/filestore"
	fakesessionrepo "github.com/jrsteele09/go-cowork-client/session/repofake"
	"github.com/jrsteele09/go-cowork-client/session/sqlitestore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config  config.Config
	Store   *session.Store
	Gateway *gateway.Client
	API     *api.API
	State   *AuthState

	logger zerolog.Logger
	closer io.Closer
}

type options struct {
	logger     zerolog.Logger
	httpClient *http.Client
	repo       session.Repo
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithRepo bypasses the configured session backend.
func WithRepo(repo session.Repo) Option {
	return func(o *options) {
		o.repo = repo
	}
}

// OpenRepo opens the session backend named by cfg. The closer is nil for
// backends that hold no resources.
func OpenRepo(cfg config.StorageConfig) (session.Repo, io.Closer, error) {
	switch backend := cfg.GetSessionBackend(); backend {
	case config.SessionBackendFile:
		repo, err := filestore.New(cfg.GetSessionFile())
		if err != nil {
			return nil, nil, cerrors.Wrapf(err, "[app.OpenRepo] file backend")
		}
		return repo, nil, nil
	case config.SessionBackendSQLite:
		repo, err := sqlitestore.Open(cfg.GetSessionDB())
		if err != nil {
			return nil, nil, cerrors.Wrapf(err, "[app.OpenRepo] sqlite backend")
		}
		return repo, repo, nil
	case config.SessionBackendMemory:
		return fakesessionrepo.NewFakeRepo(), nil, nil
	default:
		return nil, nil, cerrors.Wrapf(cerrors.ErrUnsupportedBackend, "[app.OpenRepo] %q", backend)
	}
}

// New builds the client stack from cfg. When no handler is mounted, a 401
// falls back to the explicit logout call.
func New(cfg config.Config, opts ...Option) (*App, error) {
	o := &options{logger: log.Logger}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg, State: NewAuthState(), logger: o.logger}
	repo := o.repo
	if repo == nil {
		var err error
		if repo, a.closer, err = OpenRepo(cfg); err != nil {
			return nil, err
		}
	}

	store, err := session.NewStore(repo, session.WithLogger(o.logger))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	gwOptions := []gateway.Option{
		gateway.WithTimeout(cfg.GetRequestTimeout()),
		gateway.WithLogger(o.logger),
	}
	if o.httpClient != nil {
		gwOptions = append(gwOptions, gateway.WithHTTPClient(o.httpClient))
	}
	if a.Gateway, err = gateway.New(cfg.GetBaseURL(), store, gwOptions...); err != nil {
		a.Close()
		return nil, cerrors.Wrapf(err, "[app.New] gateway")
	}
	if a.API, err = api.New(a.Gateway, store, api.WithLogger(o.logger)); err != nil {
		a.Close()
		return nil, cerrors.Wrapf(err, "[app.New] api")
	}
	a.Gateway.SetFallbackLogout(a.API.Auth.ForceLogout)
	return a, nil
}

// Mount attaches a navigator as the logout handler, using the configured
// login route and redirect backoff.
func (a *App) Mount(navigator Navigator) (*Coordinator, error) {
	coordinator, err := NewCoordinator(a.Gateway, a.State, navigator,
		WithCoordinatorLogger(a.logger),
		WithLoginRoute(a.Config.GetLoginRoute()),
		WithRedirectBackoff(a.Config.GetLogoutRedirectAttempts(), a.Config.GetLogoutRedirectInterval()),
	)
	if err != nil {
		return nil, err
	}
	coordinator.Mount()
	return coordinator, nil
}

// Login signs in and records the member in State.
func (a *App) Login(ctx context.Context, email, password string) (*gateway.Response, error) {
	resp, err := a.API.Auth.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil || !resp.Success {
		return resp, err
	}
	if result, err := api.Result(resp); err == nil {
		a.State.SetUser(result.User)
	}
	return resp, nil
}

// Logout ends the session locally and on the backend.
func (a *App) Logout(ctx context.Context) error {
	err := a.API.Auth.Logout(ctx)
	a.State.Reset()
	return err
}

// Restore rebuilds State from a persisted token by fetching the profile. With
// no token it is a no-op. A rejected token has already been cleared by the
// gateway by the time the error returns.
func (a *App) Restore(ctx context.Context) error {
	if _, ok := a.Store.GetToken(); !ok {
		a.State.Reset()
		return nil
	}
	user, err := a.API.Profile.Get(ctx)
	if err != nil {
		a.State.Reset()
		return err
	}
	a.State.SetUser(user)
	return nil
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
