package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jrsteele09/go-cowork-client/gateway"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultLoginRoute      = "Login"
	defaultRedirectTries   = 5
	defaultInitialInterval = 100 * time.Millisecond
	maxRedirectInterval    = 2 * time.Second
)

var ErrNavigatorNotReady = errors.New("navigator not ready")

// Navigator is the UI surface that can show the unauthenticated entry route.
// Ready is false until the surface is mounted.
type Navigator interface {
	Ready() bool
	ResetTo(route string)
}

// Coordinator owns navigation on global logout. Mounted, it is the gateway's
// logout handler: it resets AuthState and redirects to the login route in the
// background, retrying while the navigator is not ready.
type Coordinator struct {
	gw        *gateway.Client
	state     *AuthState
	navigator Navigator
	logger    zerolog.Logger

	route           string
	maxTries        uint
	initialInterval time.Duration

	lock     sync.Mutex
	ctx      context.Context // scope of pending redirects, renewed on Mount
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the logger used for logout and redirect events.
func WithCoordinatorLogger(logger zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithLoginRoute sets the route shown after logout.
func WithLoginRoute(route string) CoordinatorOption {
	return func(c *Coordinator) {
		if route != "" {
			c.route = route
		}
	}
}

// WithRedirectBackoff bounds the redirect retries: at most tries attempts,
// starting interval apart and growing exponentially.
func WithRedirectBackoff(tries int, interval time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if tries > 0 {
			c.maxTries = uint(tries)
		}
		if interval > 0 {
			c.initialInterval = interval
		}
	}
}

func NewCoordinator(gw *gateway.Client, state *AuthState, navigator Navigator, options ...CoordinatorOption) (*Coordinator, error) {
	if gw == nil || state == nil || navigator == nil {
		return nil, errors.New("[app.NewCoordinator] gateway, state and navigator are required")
	}
	c := &Coordinator{
		gw:              gw,
		state:           state,
		navigator:       navigator,
		logger:          log.Logger,
		route:           defaultLoginRoute,
		maxTries:        defaultRedirectTries,
		initialInterval: defaultInitialInterval,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Mount registers the coordinator as the gateway's logout handler.
func (c *Coordinator) Mount() {
	c.lock.Lock()
	if c.ctx == nil || c.ctx.Err() != nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
	}
	c.lock.Unlock()
	c.gw.RegisterLogoutHandler(c.HandleLogout)
}

// Unmount clears the handler slot and abandons pending redirects.
func (c *Coordinator) Unmount() {
	c.gw.RegisterLogoutHandler(nil)
	c.lock.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.lock.Unlock()
	c.inflight.Wait()
}

// HandleLogout resets auth state and schedules the redirect. It returns
// without waiting for the navigator.
func (c *Coordinator) HandleLogout() {
	c.state.Reset()
	c.lock.Lock()
	ctx := c.ctx
	c.lock.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if err := c.redirect(ctx); err != nil {
			c.logger.Error().Err(err).Str("route", c.route).Msg("app: logout redirect abandoned")
		}
	}()
}

// Wait blocks until every scheduled redirect has finished or given up.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

func (c *Coordinator) redirect(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval
	policy.MaxInterval = maxRedirectInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if !c.navigator.Ready() {
			return struct{}{}, ErrNavigatorNotReady
		}
		c.navigator.ResetTo(c.route)
		return struct{}{}, nil
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug().Err(err).Int("attempt", attempt).Dur("next", next).Msg("app: navigator not ready, retrying redirect")
		}),
	)
	return err
}
