package roulette

import (
	"math"
	"time"
)

const (
	DefaultWinProbability    = 0.3
	DefaultAnimationDuration = 4000 * time.Millisecond
	DefaultCooldown          = 10 * time.Second

	MinAnimationDuration = 50 * time.Millisecond
	MaxAnimationDuration = 60 * time.Second
	MaxCooldown          = 60 * time.Second
)

// Voice is passed through to the overlay's speech synthesis.
type Voice struct {
	Name  string  `json:"name"`
	Pitch float64 `json:"pitch"`
	Rate  float64 `json:"rate"`
}

// Appearance holds cosmetic values the overlay needs. Core logic ignores them.
type Appearance struct {
	WinColor  string  `json:"winColor"`
	LoseColor string  `json:"loseColor"`
	Scale     float64 `json:"scale"`
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
}

type Config struct {
	WinProbability      float64
	AnimationDuration   time.Duration
	Cooldown            time.Duration
	AICommentaryEnabled bool
	AnnounceSpins       bool
	Voice               Voice
	Appearance          Appearance
}

func DefaultConfig() Config {
	return Config{
		WinProbability:      DefaultWinProbability,
		AnimationDuration:   DefaultAnimationDuration,
		Cooldown:            DefaultCooldown,
		AICommentaryEnabled: true,
		AnnounceSpins:       true,
		Voice:               Voice{Pitch: 1.0, Rate: 1.05},
		Appearance: Appearance{
			WinColor:  "#9333ea",
			LoseColor: "#0ea5e9",
			Scale:     0.8,
			PositionX: 50,
			PositionY: 50,
		},
	}
}

// Clamp returns a copy with every value forced into its valid range.
// Values come from sliders, so nothing here is ever rejected.
func (c Config) Clamp() Config {
	c.WinProbability = ClampProbability(c.WinProbability)
	c.AnimationDuration = clampDuration(c.AnimationDuration, MinAnimationDuration, MaxAnimationDuration)
	c.Cooldown = clampDuration(c.Cooldown, 0, MaxCooldown)
	c.Voice.Pitch = ClampFloat(c.Voice.Pitch, 0, 2, 1.0)
	c.Voice.Rate = ClampFloat(c.Voice.Rate, 0.1, 10, 1.05)
	c.Appearance.Scale = ClampFloat(c.Appearance.Scale, 0.1, 3, 0.8)
	c.Appearance.PositionX = ClampFloat(c.Appearance.PositionX, 0, 100, 50)
	c.Appearance.PositionY = ClampFloat(c.Appearance.PositionY, 0, 100, 50)
	return c
}

// ClampFloat clamps v into [lo,hi]; NaN becomes fallback.
func ClampFloat(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Min(math.Max(v, lo), hi)
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
