package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-cowork-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := config.New()
		require.Equal(t, "http://localhost:8080/api", c.GetBaseURL())
		require.Equal(t, config.DefaultRequestTimeout, c.GetRequestTimeout())
		require.Equal(t, config.SessionBackendFile, c.GetSessionBackend())
		require.Equal(t, "DEV", c.GetEnv())
	})

	t.Run("timeout clamped", func(t *testing.T) {
		t.Setenv("COWORK_TIMEOUT", "2s")
		require.Equal(t, config.MinRequestTimeout, config.New().GetRequestTimeout())

		t.Setenv("COWORK_TIMEOUT", "120")
		require.Equal(t, config.MaxRequestTimeout, config.New().GetRequestTimeout())

		t.Setenv("COWORK_TIMEOUT", "25s")
		require.Equal(t, 25*time.Second, config.New().GetRequestTimeout())
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		t.Setenv("COWORK_BASE_URL", "https://cowork.example.com/api/")
		require.Equal(t, "https://cowork.example.com/api", config.New().GetBaseURL())
	})
}

func TestParse(t *testing.T) {
	t.Run("file overrides env", func(t *testing.T) {
		t.Setenv("COWORK_BASE_URL", "https://env.example.com")
		c, err := config.Parse("/etc/cowork/config.yaml", []byte(`
base_url: https://file.example.com/api/
request_timeout: 18s
session_backend: SQLite
data_folder: state
log_level: debug
`))
		require.NoError(t, err)
		require.Equal(t, "https://file.example.com/api", c.GetBaseURL())
		require.Equal(t, 18*time.Second, c.GetRequestTimeout())
		require.Equal(t, config.SessionBackendSQLite, c.GetSessionBackend())
		require.Equal(t, "/etc/cowork/state/session.db", c.GetSessionDB())
		require.Equal(t, "debug", c.GetLogLevel())
	})

	t.Run("unset fields fall back", func(t *testing.T) {
		t.Setenv("COWORK_BASE_URL", "https://env.example.com")
		c, err := config.Parse("config.yaml", []byte(`log_level: warn`))
		require.NoError(t, err)
		require.Equal(t, "https://env.example.com", c.GetBaseURL())
		require.Equal(t, config.DefaultRequestTimeout, c.GetRequestTimeout())
	})

	t.Run("bad backend", func(t *testing.T) {
		_, err := config.Parse("config.yaml", []byte(`session_backend: redis`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported session_backend")
	})

	t.Run("empty path uses env", func(t *testing.T) {
		c, err := config.Load("")
		require.NoError(t, err)
		require.NotNil(t, c)
	})
}
