// Package app wires the roulette, the commentary provider, the overlay hub and the Twitch feed together.
package app

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/commentary"
	"github.com/ichi0g0y/chill-roulette/internal/env"
	"github.com/ichi0g0y/chill-roulette/internal/roulette"
	"github.com/ichi0g0y/chill-roulette/internal/settings"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/ichi0g0y/chill-roulette/internal/twitcheventsub"
	"github.com/ichi0g0y/chill-roulette/internal/twitchtoken"
	"github.com/ichi0g0y/chill-roulette/internal/webserver"
	"github.com/ichi0g0y/chill-roulette/internal/wordfilter"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Options struct {
	Port int
	// Twitch starts EventSub and the token refresh loop when credentials exist.
	Twitch bool
	// TestSpins forces POST /api/roulette/test on. Otherwise TEST_SPINS_ENABLED decides.
	TestSpins  bool
	Tracing    bool
	OverlayDir string
}

// App owns the long-running goroutines. Startup once, Shutdown once.
type App struct {
	opts Options

	settings *settings.SettingsManager
	filter   *wordfilter.Filter
	hub      *webserver.WSHub
	roulette *roulette.Orchestrator
	server   *webserver.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	twitchStarted atomic.Bool
}

func NewApp(db *sql.DB, opts Options) *App {
	sm := settings.NewSettingsManager(db)

	filter := wordfilter.NewFilter(wordfilter.Options{
		Language: func() string { return sm.CommentarySettings().Language },
		Enabled:  sm.WordFilterEnabled,
	})
	provider := commentary.NewProvider(sm, commentary.Options{
		Filter: filter,
		Usage:  commentary.NewSettingsUsage(sm),
	})

	hub := webserver.NewWSHub()
	orchestrator := roulette.New(roulette.Dependencies{
		Config:     sm,
		Commentary: provider,
		Speaker:    hub,
		Sink:       hub,
	})

	a := &App{
		opts:     opts,
		settings: sm,
		filter:   filter,
		hub:      hub,
		roulette: orchestrator,
	}
	a.server = webserver.NewServer(webserver.Deps{
		Roulette:     orchestrator,
		Hub:          hub,
		Settings:     sm,
		WordFilter:   filter,
		FeedStatus:   feedStatus,
		Commentary:   provider,
		OnAuthorized: a.onAuthorized,
		OverlayDir:   opts.OverlayDir,
		TestSpins:    opts.TestSpins,
		Tracing:      opts.Tracing,

		OnSettingsUpdated: a.onSettingsUpdated,
	})
	return a
}

// Roulette exposes the orchestrator (tests and debug tooling).
func (a *App) Roulette() *roulette.Orchestrator {
	return a.roulette
}

// Startup starts the hub, the orchestrator, the web server and, if enabled, the Twitch feed.
func (a *App) Startup(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	if err := wordfilter.SeedDefaultWords(); err != nil {
		logger.Warn("Failed to seed word filter", zap.Error(err))
	}

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.hub.Run(a.ctx)
	}()
	go func() {
		defer a.wg.Done()
		if err := a.roulette.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Roulette orchestrator stopped unexpectedly", zap.Error(err))
		}
	}()

	twitcheventsub.SetSink(a.roulette, a.settings)

	if err := a.server.Start(a.opts.Port); err != nil {
		a.cancel()
		return err
	}

	if a.opts.Twitch {
		a.startTwitchBackground()
	} else {
		logger.Info("Twitch feed disabled, only test spins will be queued")
	}

	status, err := a.settings.CheckFeatureStatus()
	if err == nil {
		for _, w := range status.Warnings {
			logger.Warn(w)
		}
		if len(status.MissingSettings) > 0 {
			logger.Info("Twitch is not configured yet", zap.Strings("missing", status.MissingSettings))
		}
	}
	return nil
}

// Shutdown stops everything started by Startup.
func (a *App) Shutdown(ctx context.Context) {
	logger.Info("Shutting down...")

	twitcheventsub.Stop()
	twitcheventsub.SetSink(nil, nil)

	if err := a.server.Shutdown(ctx); err != nil {
		logger.Warn("Web server shutdown failed", zap.Error(err))
	}
	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("Timed out waiting for background goroutines")
	}
}

// onAuthorized runs after a successful OAuth callback.
func (a *App) onAuthorized(_ twitchtoken.Token) {
	if !a.opts.Twitch {
		return
	}
	if a.twitchStarted.Load() {
		restartEventSub(a.ctx)
		return
	}
	a.startTwitchBackground()
}

// twitchKeys are cached in env.Value and need a reload when edited.
var twitchKeys = []string{"CLIENT_ID", "CLIENT_SECRET", "TWITCH_USER_ID", "TRIGGER_CUSTOM_REWORD_ID"}

func (a *App) onSettingsUpdated(keys []string) {
	if !lo.Some(keys, twitchKeys) {
		return
	}
	env.LoadEnv()
	logger.Info("Twitch settings changed, reloaded credentials")
}

func feedStatus() webserver.FeedStatus {
	s := webserver.FeedStatus{Connected: twitcheventsub.IsConnected()}
	if err := twitcheventsub.GetLastError(); err != nil {
		s.LastError = err.Error()
	}
	return s
}

// restartDelay gives the old websocket time to close before reconnecting.
const restartDelay = time.Second
