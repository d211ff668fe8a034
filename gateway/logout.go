package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// LogoutHandler reacts to the backend invalidating the session. It is called
// synchronously on the goroutine that received the 401 and must not block;
// long work such as navigation belongs on its own goroutine.
type LogoutHandler func()

// FallbackLogout runs on 401 when no LogoutHandler is registered, typically
// an explicit logout request. Its error is logged and otherwise ignored.
type FallbackLogout func(ctx context.Context) error

// logoutSlot is a single-subscriber slot: the last registration wins and nil
// empties it.
type logoutSlot struct {
	lock     sync.RWMutex
	handler  LogoutHandler
	fallback FallbackLogout
}

func (s *logoutSlot) setHandler(h LogoutHandler) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.handler = h
}

func (s *logoutSlot) setFallback(f FallbackLogout) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.fallback = f
}

func (s *logoutSlot) snapshot() (LogoutHandler, FallbackLogout) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.handler, s.fallback
}

// RegisterLogoutHandler stores handler in the single logout slot, replacing
// any previous one. Passing nil clears the slot.
func (c *Client) RegisterLogoutHandler(handler LogoutHandler) {
	c.logout.setHandler(handler)
}

// SetFallbackLogout replaces the fallback action. Passing nil clears it.
func (c *Client) SetFallbackLogout(fallback FallbackLogout) {
	c.logout.setFallback(fallback)
}

type suppressKey struct{}

// sessionHooksSuppressed marks requests issued from inside the 401 cleanup so
// a failing fallback logout cannot recurse into another cleanup.
func sessionHooksSuppressed(ctx context.Context) bool {
	suppressed, _ := ctx.Value(suppressKey{}).(bool)
	return suppressed
}

type cleanupStep struct {
	name string
	run  func(ctx context.Context) error
}

// invalidateSession runs the ordered 401 cleanup. Every step runs inside its
// own recover boundary and the chain as a whole never fails.
func (c *Client) invalidateSession(ctx context.Context, method, endpoint string) {
	logger := c.logger.With().Str("method", method).Str("endpoint", endpoint).Logger()
	steps := []cleanupStep{{
		name: "remove token",
		run: func(context.Context) error {
			c.store.RemoveToken()
			return nil
		},
	}}

	if !sessionHooksSuppressed(ctx) {
		handler, fallback := c.logout.snapshot()
		switch {
		case handler != nil:
			steps = append(steps, cleanupStep{
				name: "logout handler",
				run: func(context.Context) error {
					handler()
					return nil
				},
			})
		case fallback != nil:
			steps = append(steps, cleanupStep{
				name: "fallback logout",
				run: func(ctx context.Context) error {
					return fallback(context.WithValue(context.WithoutCancel(ctx), suppressKey{}, true))
				},
			})
		default:
			logger.Warn().Msg("gateway: session invalidated with no logout handler registered")
		}
	}

	logger.Info().Int("steps", len(steps)).Msg("gateway: session invalidated")
	runCleanup(ctx, logger, steps)
}

func runCleanup(ctx context.Context, logger zerolog.Logger, steps []cleanupStep) {
	for _, step := range steps {
		if err := runStep(ctx, step); err != nil {
			logger.Warn().Err(err).Str("step", step.name).Msg("gateway: cleanup step failed")
		}
	}
}

func runStep(ctx context.Context, step cleanupStep) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step.run(ctx)
}
