package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	appNameVar    = "APP_NAME"
	baseURLVar    = "ROOMBOOK_BASE_URL"
	envVar        = "ENV"
	logLevelVar   = "LOG_LEVEL"
	sessionDirVar = "ROOMBOOK_SESSION_DIR"
	loginURLVar   = "ROOMBOOK_LOGIN_URL"
	timeoutVar    = "ROOMBOOK_TIMEOUT"
	pageSizeVar   = "ROOMBOOK_PAGE_SIZE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Room Booking")
}

// GetBaseURL returns the root of the booking API (e.g., "https://booking.example.com/api").
// All endpoint paths are joined onto it, so a trailing slash is dropped.
func (EnvVars) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, "http://localhost:8080/api"), "/")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(envVar)
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetSessionDir is where the CLI keeps the access token and the cookie jar between runs.
func (EnvVars) GetSessionDir() string {
	if dir := os.Getenv(sessionDirVar); dir != "" {
		return dir
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "roombook")
	}
	return filepath.Join(cacheDir, "roombook")
}

func (EnvVars) GetLoginURL() string {
	return GetEnv(loginURLVar, "/login")
}

func (EnvVars) GetRequestTimeout() time.Duration {
	return GetEnvDuration(timeoutVar, 15*time.Second)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
