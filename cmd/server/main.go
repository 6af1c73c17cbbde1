package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/app"
	"github.com/ichi0g0y/chill-roulette/internal/env"
	"github.com/ichi0g0y/chill-roulette/internal/localdb"
	"github.com/ichi0g0y/chill-roulette/internal/settings"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/ichi0g0y/chill-roulette/internal/shared/paths"
	"github.com/ichi0g0y/chill-roulette/internal/tracing"
	"github.com/ichi0g0y/chill-roulette/internal/version"
	"go.uber.org/zap"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	logger.Info("Starting chill-roulette server", zap.String("version", version.String()))

	if err := paths.EnsureDataDirs(); err != nil {
		logger.Fatal("Failed to ensure data directories", zap.Error(err))
	}

	db, err := localdb.SetupDB(paths.GetDBPath())
	if err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}
	defer localdb.Close()

	if err := settings.NewSettingsManager(db).InitializeDefaultSettings(); err != nil {
		logger.Warn("Failed to initialize default settings", zap.Error(err))
	}

	// env.LoadEnv must run after DB initialization.
	env.LoadEnv()

	logFile := env.Value.LogFile
	if logFile == "" {
		logFile = paths.GetLogPath()
	}
	logger.SetLogFile(logFile)
	logger.Init(env.Value.DebugMode)
	if env.Value.DebugMode {
		logger.Info("Debug mode enabled")
	}

	if err := tracing.Init(tracing.Config{
		Enabled:        env.Value.TracingEnabled,
		Endpoint:       env.Value.TracingEndpoint,
		ServiceName:    "chill-roulette",
		ServiceVersion: version.Version,
		Environment:    os.Getenv("APP_ENV"),
	}); err != nil {
		logger.Warn("Failed to initialize tracing", zap.Error(err))
	}

	port := 8080
	if env.Value.ServerPort != 0 {
		port = env.Value.ServerPort
	}

	a := app.NewApp(db, app.Options{
		Port:      port,
		Twitch:    true,
		TestSpins: env.Value.DebugMode,
		Tracing:   env.Value.TracingEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Startup(ctx); err != nil {
		logger.Fatal("Failed to start", zap.Error(err))
	}

	logger.Info("Server started",
		zap.Int("port", port),
		zap.String("overlay", fmt.Sprintf("http://localhost:%d/overlay/", port)),
		zap.String("auth", fmt.Sprintf("http://localhost:%d/auth", port)))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Shutdown(shutdownCtx)
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
