package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/app"
	"github.com/ichi0g0y/chill-roulette/internal/localdb"
	"github.com/ichi0g0y/chill-roulette/internal/settings"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/ichi0g0y/chill-roulette/internal/shared/paths"
	"github.com/ichi0g0y/chill-roulette/internal/tracing"
	"go.uber.org/zap"
)

// test-server はTwitchなしでオーバーレイを確認するためのサーバー
// POST /api/roulette/test でスピンを積める
func main() {
	logger.Init(true)
	defer logger.Sync()

	logger.Info("Starting test web server...")

	// データディレクトリを確保
	if err := paths.EnsureDataDirs(); err != nil {
		logger.Fatal("Failed to ensure data directories", zap.Error(err))
	}

	dbPath := paths.GetDBPath()
	logger.Info("Using database path", zap.String("path", dbPath))

	db, err := localdb.SetupDB(dbPath)
	if err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}
	defer localdb.Close()

	if err := settings.NewSettingsManager(db).InitializeDefaultSettings(); err != nil {
		logger.Warn("Failed to initialize default settings", zap.Error(err))
	}
	_ = tracing.Init(tracing.Config{Enabled: false})

	port := 8080
	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
			logger.Info("Using port from SERVER_PORT env", zap.Int("port", port))
		}
	}

	a := app.NewApp(db, app.Options{
		Port:       port,
		TestSpins:  true,
		OverlayDir: os.Getenv("OVERLAY_DIR"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Startup(ctx); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	fmt.Printf("Test server started on port %d\n", port)
	fmt.Printf("  curl -X POST -d '{\"username\":\"Bob\"}' http://localhost:%d/api/roulette/test\n", port)
	fmt.Println("Press Ctrl+C to stop")

	<-ctx.Done()
	fmt.Println("\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Shutdown(shutdownCtx)
}
