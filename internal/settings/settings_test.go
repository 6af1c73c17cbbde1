package settings

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/commentary"
	_ "github.com/mattn/go-sqlite3"
)

func setupTestManager(t *testing.T) *SettingsManager {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		setting_type TEXT NOT NULL DEFAULT 'normal',
		is_required BOOLEAN NOT NULL DEFAULT false,
		description TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	return NewSettingsManager(db)
}

func TestRouletteConfig_Defaults(t *testing.T) {
	sm := setupTestManager(t)
	cfg := sm.RouletteConfig()

	if cfg.WinProbability != 0.3 {
		t.Fatalf("WinProbability = %v", cfg.WinProbability)
	}
	if cfg.AnimationDuration != 4*time.Second || cfg.Cooldown != 10*time.Second {
		t.Fatalf("durations = %v / %v", cfg.AnimationDuration, cfg.Cooldown)
	}
	if !cfg.AICommentaryEnabled || !cfg.AnnounceSpins {
		t.Fatalf("expected commentary and announcements on by default")
	}
	if cfg.Appearance.WinColor != "#9333ea" || cfg.Appearance.LoseColor != "#0ea5e9" {
		t.Fatalf("colors = %+v", cfg.Appearance)
	}
}

func TestRouletteConfig_ClampsStoredValues(t *testing.T) {
	sm := setupTestManager(t)
	// 直接書き込んだ範囲外の値も読み出し時に丸める
	for key, value := range map[string]string{
		"WIN_PROBABILITY":  "7",
		"SPIN_DURATION_MS": "-5",
		"COOLDOWN_MS":      "999999",
		"OVERLAY_SCALE":    "abc",
	} {
		if err := sm.SetSetting(key, value); err != nil {
			t.Fatalf("SetSetting %s: %v", key, err)
		}
	}

	cfg := sm.RouletteConfig()
	if cfg.WinProbability != 1 {
		t.Fatalf("WinProbability = %v", cfg.WinProbability)
	}
	if cfg.AnimationDuration != 50*time.Millisecond {
		t.Fatalf("AnimationDuration = %v", cfg.AnimationDuration)
	}
	if cfg.Cooldown != 60*time.Second {
		t.Fatalf("Cooldown = %v", cfg.Cooldown)
	}
	if cfg.Appearance.Scale != 0.8 {
		t.Fatalf("Scale = %v", cfg.Appearance.Scale)
	}
}

func TestRouletteConfig_HugeMillisDoNotWrap(t *testing.T) {
	sm := setupTestManager(t)
	// env から移行した値は NormalizeSetting を通らない
	if err := sm.SetSetting("SPIN_DURATION_MS", "9223372036854775"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := sm.SetSetting("COOLDOWN_MS", "9000000000000000"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	cfg := sm.RouletteConfig()
	if cfg.AnimationDuration != 60*time.Second {
		t.Fatalf("AnimationDuration = %v, want 60s", cfg.AnimationDuration)
	}
	if cfg.Cooldown != 60*time.Second {
		t.Fatalf("Cooldown = %v, want 60s", cfg.Cooldown)
	}
}

func TestNormalizeSetting(t *testing.T) {
	cases := []struct {
		key, in, want string
		wantErr       bool
	}{
		{"WIN_PROBABILITY", "1.5", "1", false},
		{"WIN_PROBABILITY", "-0.2", "0", false},
		{"WIN_PROBABILITY", "0.25", "0.25", false},
		{"WIN_PROBABILITY", "lots", "", true},
		{"SPIN_DURATION_MS", "10", "50", false},
		{"COOLDOWN_MS", " 12000 ", "12000", false},
		{"COOLDOWN_MS", "1.5", "", true},
		{"AI_COMMENTARY_ENABLED", "yes", "", true},
		{"AI_COMMENTARY_ENABLED", "false", "false", false},
		{"WIN_COLOR", "#ABCDEF", "#abcdef", false},
		{"WIN_COLOR", "purple", "", true},
		{"AI_BACKEND", "OpenAI", "openai", false},
		{"AI_BACKEND", "bard", "", true},
		{"OPENAI_USAGE_INPUT_TOKENS", "12", "12", false},
	}
	for _, tc := range cases {
		got, err := NormalizeSetting(tc.key, tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s=%q: expected error, got %q", tc.key, tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s=%q: %v", tc.key, tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%s=%q: got %q want %q", tc.key, tc.in, got, tc.want)
		}
	}

	if _, err := NormalizeSetting("NOPE", "1"); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
}

func TestUpdateSettings_AllOrNothing(t *testing.T) {
	sm := setupTestManager(t)

	_, err := sm.UpdateSettings(map[string]string{
		"WIN_PROBABILITY": "0.9",
		"ANNOUNCE_SPINS":  "maybe",
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if v, _ := sm.GetRealValue("WIN_PROBABILITY"); v != "0.3" {
		t.Fatalf("WIN_PROBABILITY changed despite error: %q", v)
	}

	stored, err := sm.UpdateSettings(map[string]string{"WIN_PROBABILITY": "2"})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if stored["WIN_PROBABILITY"] != "1" {
		t.Fatalf("expected clamped value, got %q", stored["WIN_PROBABILITY"])
	}
}

func TestGetAllSettings_MasksSecrets(t *testing.T) {
	sm := setupTestManager(t)
	if err := sm.SetSetting("OPENAI_API_KEY", "sk-live"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	all, err := sm.GetAllSettings()
	if err != nil {
		t.Fatalf("GetAllSettings: %v", err)
	}
	key := all["OPENAI_API_KEY"]
	if key.Value != "" || !key.HasValue {
		t.Fatalf("expected masked secret with has_value, got %+v", key)
	}
	if all["GEMINI_API_KEY"].HasValue {
		t.Fatalf("unset secret reported as present")
	}
	if len(all) != len(DefaultSettings) {
		t.Fatalf("expected %d settings, got %d", len(DefaultSettings), len(all))
	}
	if real, _ := sm.GetRealValue("OPENAI_API_KEY"); real != "sk-live" {
		t.Fatalf("GetRealValue = %q", real)
	}
}

func TestCommentarySettings(t *testing.T) {
	sm := setupTestManager(t)
	if _, err := sm.UpdateSettings(map[string]string{
		"AI_BACKEND":     "openai",
		"OPENAI_API_KEY": "sk-live",
		"AI_TIMEOUT_MS":  "3000",
	}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	c := sm.CommentarySettings()
	if c.Backend != commentary.BackendOpenAI || c.OpenAIAPIKey != "sk-live" {
		t.Fatalf("unexpected commentary settings: %+v", c)
	}
	if c.Timeout != 3*time.Second {
		t.Fatalf("Timeout = %v", c.Timeout)
	}
	if !c.Configured() {
		t.Fatalf("expected openai backend to be configured")
	}
}

func TestMigrateFromEnv(t *testing.T) {
	sm := setupTestManager(t)
	t.Setenv("WIN_PROBABILITY", "3")
	t.Setenv("TRIGGER_REWARD_TITLE", "Congelar")
	t.Setenv("ANNOUNCE_SPINS", "nope")

	if err := sm.MigrateFromEnv(); err != nil {
		t.Fatalf("MigrateFromEnv: %v", err)
	}
	if v, _ := sm.GetRealValue("WIN_PROBABILITY"); v != "1" {
		t.Fatalf("WIN_PROBABILITY = %q", v)
	}
	if _, title := sm.RewardTrigger(); title != "Congelar" {
		t.Fatalf("TRIGGER_REWARD_TITLE = %q", title)
	}
	if v, _ := sm.GetRealValue("ANNOUNCE_SPINS"); v != "true" {
		t.Fatalf("invalid env value should be ignored, got %q", v)
	}
}

func TestCheckFeatureStatus(t *testing.T) {
	sm := setupTestManager(t)
	status, err := sm.CheckFeatureStatus()
	if err != nil {
		t.Fatalf("CheckFeatureStatus: %v", err)
	}
	if status.TwitchConfigured || len(status.MissingSettings) != 3 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.CommentaryConfigured || len(status.Warnings) != 2 {
		t.Fatalf("unexpected warnings: %+v", status.Warnings)
	}
}
