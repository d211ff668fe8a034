package config

import "time"

const (
	MinRequestTimeout     = 15 * time.Second
	MaxRequestTimeout     = 30 * time.Second
	DefaultRequestTimeout = 20 * time.Second
)

type GatewayConfig interface {
	GetRequestTimeout() time.Duration
	GetLogoutRedirectAttempts() int
	GetLogoutRedirectInterval() time.Duration
	GetLoginRoute() string
}

type Gateway struct{}

var _ GatewayConfig = Gateway{}

// GetRequestTimeout is clamped to the 15-30s window the backend contract allows.
func (Gateway) GetRequestTimeout() time.Duration {
	return ClampTimeout(GetEnvDuration("COWORK_TIMEOUT", DefaultRequestTimeout))
}

func (Gateway) GetLogoutRedirectAttempts() int {
	attempts := GetEnvInt("COWORK_LOGOUT_REDIRECT_ATTEMPTS", 5)
	if attempts < 1 {
		return 1
	}
	return attempts
}

func (Gateway) GetLogoutRedirectInterval() time.Duration {
	return GetEnvDuration("COWORK_LOGOUT_REDIRECT_INTERVAL", 100*time.Millisecond)
}

func (Gateway) GetLoginRoute() string {
	return GetEnv("COWORK_LOGIN_ROUTE", "Login")
}

func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultRequestTimeout
	case d < MinRequestTimeout:
		return MinRequestTimeout
	case d > MaxRequestTimeout:
		return MaxRequestTimeout
	}
	return d
}
