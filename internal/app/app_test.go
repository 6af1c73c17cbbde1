package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/env"
	"github.com/ichi0g0y/chill-roulette/internal/localdb"
	"github.com/ichi0g0y/chill-roulette/internal/roulette"
	"github.com/ichi0g0y/chill-roulette/internal/settings"
	"github.com/ichi0g0y/chill-roulette/internal/twitcheventsub"
	"github.com/joeyak/go-twitch-eventsub/v3"
)

func setupTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	db, err := localdb.SetupDB(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("SetupDB: %v", err)
	}
	t.Cleanup(func() { localdb.Close() })

	sm := settings.NewSettingsManager(db)
	if err := sm.InitializeDefaultSettings(); err != nil {
		t.Fatalf("InitializeDefaultSettings: %v", err)
	}
	// AIなし、ローカルテンプレートだけ
	if _, err := sm.UpdateSettings(map[string]string{
		"AI_COMMENTARY_ENABLED": "false",
		"ANNOUNCE_SPINS":        "false",
	}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	return NewApp(db, Options{Port: 0, TestSpins: true, OverlayDir: t.TempDir()})
}

func TestApp_StartupSpinsQueuedRedemption(t *testing.T) {
	a := setupTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Startup(ctx); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		a.Shutdown(sctx)
	}()

	a.Roulette().Enqueue(roulette.RedemptionEvent{ID: "r1", Username: "Bob"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := a.Roulette().Snapshot()
		if snap.Phase == roulette.PhaseSpinning {
			if snap.Spin == nil || snap.Spin.Event.Username != "Bob" {
				t.Fatalf("spin = %+v", snap.Spin)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("spin never started, phase = %q", a.Roulette().Snapshot().Phase)
}

func feedRedemption(id, username string) {
	var evt twitch.EventChannelChannelPointsCustomRewardRedemptionAdd
	evt.ID = id
	evt.User.UserName = username
	evt.User.UserLogin = username
	evt.Reward.ID = "reward-1"
	evt.Reward.Title = "Congelar"
	twitcheventsub.HandleChannelPointsCustomRedemptionAdd(evt)
}

func TestApp_FeedReachesRouletteOnlyWhileStarted(t *testing.T) {
	a := setupTestApp(t)

	// Startup 前の通知は受け取り先がない
	feedRedemption("early", "Early")
	if n := len(a.Roulette().Pending()); n != 0 {
		t.Fatalf("pending before startup = %d", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Startup(ctx); err != nil {
		t.Fatalf("Startup: %v", err)
	}

	feedRedemption("r1", "Bob")
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := a.Roulette().Snapshot()
		if snap.Spin != nil && snap.Spin.Event.Username == "Bob" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("redemption never reached the roulette, phase = %q", snap.Phase)
		}
		time.Sleep(10 * time.Millisecond)
	}

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	a.Shutdown(sctx)

	feedRedemption("late", "Late")
	for _, e := range a.Roulette().Pending() {
		if e.Username == "Late" {
			t.Fatalf("redemption queued after shutdown")
		}
	}
}

func TestApp_SettingsUpdateReloadsTwitchCredentials(t *testing.T) {
	a := setupTestApp(t)
	env.LoadEnv()
	if env.Value.TwitchConfigured() {
		t.Fatalf("configured before update")
	}

	if _, err := a.settings.UpdateSettings(map[string]string{
		"CLIENT_ID":      "cid",
		"CLIENT_SECRET":  "secret",
		"TWITCH_USER_ID": "123",
	}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	a.onSettingsUpdated([]string{"WIN_COLOR"})
	if env.Value.TwitchConfigured() {
		t.Fatalf("reloaded on unrelated key")
	}

	a.onSettingsUpdated([]string{"CLIENT_ID"})
	if !env.Value.TwitchConfigured() {
		t.Fatalf("credentials not reloaded")
	}
}

func TestRefreshPlan(t *testing.T) {
	tests := []struct {
		name        string
		untilExpiry time.Duration
		wantNow     bool
		wantWait    time.Duration
	}{
		{"expired", -time.Minute, true, 0},
		{"inside margin", 10 * time.Minute, true, 0},
		{"at margin", 30 * time.Minute, true, 0},
		{"soon after margin", 45 * time.Minute, false, 15 * time.Minute},
		{"capped to an hour", 4 * time.Hour, false, time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, wait := refreshPlan(tt.untilExpiry)
			if now != tt.wantNow || wait != tt.wantWait {
				t.Fatalf("refreshPlan(%v) = %v, %v; want %v, %v", tt.untilExpiry, now, wait, tt.wantNow, tt.wantWait)
			}
		})
	}
}

func TestSleepCtx_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sleepCtx(ctx, time.Hour) {
		t.Fatalf("sleepCtx returned true after cancel")
	}
}
