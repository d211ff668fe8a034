package config

import (
	"path/filepath"
	"strings"
)

const (
	SessionBackendFile   = "file"
	SessionBackendSQLite = "sqlite"
	SessionBackendMemory = "memory"
)

type StorageConfig interface {
	GetSessionBackend() string
	GetSessionFile() string
	GetSessionDB() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetSessionBackend() string {
	return strings.ToLower(GetEnv("COWORK_SESSION_BACKEND", SessionBackendFile))
}

func (Storage) GetSessionFile() string {
	return GetEnv("COWORK_SESSION_FILE", filepath.Join(EnvVars{}.GetDataFolder(), "session.json"))
}

func (Storage) GetSessionDB() string {
	return GetEnv("COWORK_SESSION_DB", filepath.Join(EnvVars{}.GetDataFolder(), "session.db"))
}
