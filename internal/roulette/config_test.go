package roulette

import (
	"math"
	"testing"
	"time"
)

func TestConfigClamp(t *testing.T) {
	cfg := Config{
		WinProbability:    1.7,
		AnimationDuration: -5 * time.Second,
		Cooldown:          5 * time.Minute,
		Voice:             Voice{Pitch: 9, Rate: 0},
		Appearance:        Appearance{Scale: math.NaN(), PositionX: -10, PositionY: 140},
	}.Clamp()

	if cfg.WinProbability != 1.0 {
		t.Fatalf("WinProbability = %v, want 1", cfg.WinProbability)
	}
	if cfg.AnimationDuration != MinAnimationDuration {
		t.Fatalf("AnimationDuration = %v, want %v", cfg.AnimationDuration, MinAnimationDuration)
	}
	if cfg.Cooldown != MaxCooldown {
		t.Fatalf("Cooldown = %v, want %v", cfg.Cooldown, MaxCooldown)
	}
	if cfg.Voice.Pitch != 2.0 || cfg.Voice.Rate != 0.1 {
		t.Fatalf("Voice = %+v, want pitch 2 rate 0.1", cfg.Voice)
	}
	if cfg.Appearance.Scale != 0.8 {
		t.Fatalf("Scale = %v, want 0.8", cfg.Appearance.Scale)
	}
	if cfg.Appearance.PositionX != 0 || cfg.Appearance.PositionY != 100 {
		t.Fatalf("Position = (%v, %v), want (0, 100)", cfg.Appearance.PositionX, cfg.Appearance.PositionY)
	}
}

func TestDefaultConfig_IsAlreadyValid(t *testing.T) {
	cfg := DefaultConfig()
	if clamped := cfg.Clamp(); clamped != cfg {
		t.Fatalf("Clamp changed defaults: %+v -> %+v", cfg, clamped)
	}
	if cfg.AnimationDuration != 4*time.Second {
		t.Errorf("AnimationDuration = %v, want 4s", cfg.AnimationDuration)
	}
	if cfg.Cooldown != 10*time.Second {
		t.Errorf("Cooldown = %v, want 10s", cfg.Cooldown)
	}
}
