package config

type Config interface {
	EnvConfig
	GatewayConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Gateway
	Storage
}

func New() Config {
	return mainConfig{}
}
