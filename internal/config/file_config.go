package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileValues mirrors the optional YAML config file. Unset fields fall back to
// the environment.
type FileValues struct {
	BaseURL                string        `yaml:"base_url"`
	DataFolder             string        `yaml:"data_folder"`
	LogLevel               string        `yaml:"log_level"`
	RequestTimeout         time.Duration `yaml:"request_timeout"`
	SessionBackend         string        `yaml:"session_backend"`
	SessionFile            string        `yaml:"session_file"`
	SessionDB              string        `yaml:"session_db"`
	LogoutRedirectAttempts int           `yaml:"logout_redirect_attempts"`
	LoginRoute             string        `yaml:"login_route"`
}

type fileConfig struct {
	mainConfig
	values FileValues
}

var _ Config = fileConfig{}

// Error carries the config path alongside the underlying failure.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads a YAML file on top of the environment configuration. An empty
// path returns the environment configuration unchanged.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes YAML config bytes. path is used for error messages and to
// resolve a relative data_folder.
func Parse(path string, data []byte) (Config, error) {
	var values FileValues
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	values.LogLevel = strings.ToLower(strings.TrimSpace(values.LogLevel))
	values.SessionBackend = strings.ToLower(strings.TrimSpace(values.SessionBackend))
	if err := values.validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if values.DataFolder != "" && !filepath.IsAbs(values.DataFolder) && path != "" {
		values.DataFolder = filepath.Join(filepath.Dir(path), values.DataFolder)
	}
	return fileConfig{values: values}, nil
}

func (v FileValues) validate() error {
	switch v.SessionBackend {
	case "", SessionBackendFile, SessionBackendSQLite, SessionBackendMemory:
	default:
		return fmt.Errorf("unsupported session_backend %q", v.SessionBackend)
	}
	switch v.LogLevel {
	case "", "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("unsupported log_level %q", v.LogLevel)
	}
	if v.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}

func (c fileConfig) GetBaseURL() string {
	if c.values.BaseURL != "" {
		return strings.TrimRight(c.values.BaseURL, "/")
	}
	return c.mainConfig.GetBaseURL()
}

func (c fileConfig) GetDataFolder() string {
	if c.values.DataFolder != "" {
		return c.values.DataFolder
	}
	return c.mainConfig.GetDataFolder()
}

func (c fileConfig) GetLogLevel() string {
	if c.values.LogLevel != "" {
		return c.values.LogLevel
	}
	return c.mainConfig.GetLogLevel()
}

func (c fileConfig) GetRequestTimeout() time.Duration {
	if c.values.RequestTimeout > 0 {
		return ClampTimeout(c.values.RequestTimeout)
	}
	return c.mainConfig.GetRequestTimeout()
}

func (c fileConfig) GetLogoutRedirectAttempts() int {
	if c.values.LogoutRedirectAttempts > 0 {
		return c.values.LogoutRedirectAttempts
	}
	return c.mainConfig.GetLogoutRedirectAttempts()
}

func (c fileConfig) GetLoginRoute() string {
	if c.values.LoginRoute != "" {
		return c.values.LoginRoute
	}
	return c.mainConfig.GetLoginRoute()
}

func (c fileConfig) GetSessionBackend() string {
	if c.values.SessionBackend != "" {
		return c.values.SessionBackend
	}
	return c.mainConfig.GetSessionBackend()
}

func (c fileConfig) GetSessionFile() string {
	if c.values.SessionFile != "" {
		return c.values.SessionFile
	}
	if c.values.DataFolder != "" {
		return filepath.Join(c.values.DataFolder, "session.json")
	}
	return c.mainConfig.GetSessionFile()
}

func (c fileConfig) GetSessionDB() string {
	if c.values.SessionDB != "" {
		return c.values.SessionDB
	}
	if c.values.DataFolder != "" {
		return filepath.Join(c.values.DataFolder, "session.db")
	}
	return c.mainConfig.GetSessionDB()
}
