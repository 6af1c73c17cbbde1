// Package env holds the startup snapshot of process-level settings.
// Roulette and commentary settings are read live from the settings table instead.
package env

import (
	"os"
	"strconv"
	"strings"

	"github.com/ichi0g0y/chill-roulette/internal/localdb"
	"github.com/ichi0g0y/chill-roulette/internal/settings"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type EnvValue struct {
	ClientID              *string
	ClientSecret          *string
	TwitchUserID          *string
	TriggerCustomRewordID *string
	ServerPort            int
	DebugMode             bool
	LogFile               string
	TracingEnabled        bool
	TracingEndpoint       string
}

var Value EnvValue

// LoadDotEnv reads .env (or ENV_FILE) into the process environment. Missing files are fine.
func LoadDotEnv() {
	file := os.Getenv("ENV_FILE")
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to load env file", zap.String("file", file), zap.Error(err))
		}
		return
	}
	logger.Debug("Loaded env file", zap.String("file", file))
}

// LoadEnv must run after localdb.SetupDB.
func LoadEnv() {
	LoadDotEnv()

	db := localdb.GetDB()
	if db == nil {
		logger.Warn("Database not initialized, using environment only")
		Value = fromLookup(os.Getenv)
		return
	}

	sm := settings.NewSettingsManager(db)
	if err := sm.MigrateFromEnv(); err != nil {
		logger.Warn("Failed to migrate settings from environment", zap.Error(err))
	}

	Value = fromLookup(func(key string) string {
		v, err := sm.GetRealValue(key)
		if err != nil {
			return os.Getenv(key)
		}
		return v
	})
	// DEBUG_MODE はプロセス単位でだけ指定できる
	if os.Getenv("DEBUG_MODE") == "true" {
		Value.DebugMode = true
	}
}

func fromLookup(get func(string) string) EnvValue {
	port, err := strconv.Atoi(strings.TrimSpace(get("SERVER_PORT")))
	if err != nil || port <= 0 || port > 65535 {
		port = 8080
	}
	return EnvValue{
		ClientID:              optional(get("CLIENT_ID")),
		ClientSecret:          optional(get("CLIENT_SECRET")),
		TwitchUserID:          optional(get("TWITCH_USER_ID")),
		TriggerCustomRewordID: optional(get("TRIGGER_CUSTOM_REWORD_ID")),
		ServerPort:            port,
		DebugMode:             get("DEBUG_OUTPUT") == "true" || get("DEBUG_MODE") == "true",
		LogFile:               strings.TrimSpace(get("LOG_FILE")),
		TracingEnabled:        get("TRACING_ENABLED") == "true",
		TracingEndpoint:       strings.TrimSpace(get("TRACING_ENDPOINT")),
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// TwitchConfigured reports whether the EventSub feed can start.
func (v EnvValue) TwitchConfigured() bool {
	return v.ClientID != nil && v.ClientSecret != nil && v.TwitchUserID != nil
}
