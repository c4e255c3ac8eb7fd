package config

import "time"

type Config interface {
	EnvConfig
	SessionConfig
	ListConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	GetLogLevel() string
	GetSessionDir() string
	GetLoginURL() string
	GetRequestTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Session
	List
}

func New() Config {
	return mainConfig{}
}
