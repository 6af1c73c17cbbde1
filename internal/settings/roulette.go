package settings

import (
	"strconv"
	"strings"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/commentary"
	"github.com/ichi0g0y/chill-roulette/internal/roulette"
)

var (
	_ roulette.ConfigSource     = (*SettingsManager)(nil)
	_ commentary.SettingsSource = (*SettingsManager)(nil)
	_ commentary.SettingStore   = (*SettingsManager)(nil)
)

// RouletteConfig reads the spin settings. Unparseable values fall back to defaults; ranges are clamped.
func (sm *SettingsManager) RouletteConfig() roulette.Config {
	def := roulette.DefaultConfig()
	cfg := roulette.Config{
		WinProbability:      sm.getFloat("WIN_PROBABILITY", def.WinProbability),
		AnimationDuration:   sm.getMillis("SPIN_DURATION_MS", def.AnimationDuration),
		Cooldown:            sm.getMillis("COOLDOWN_MS", def.Cooldown),
		AICommentaryEnabled: sm.getBool("AI_COMMENTARY_ENABLED", def.AICommentaryEnabled),
		AnnounceSpins:       sm.getBool("ANNOUNCE_SPINS", def.AnnounceSpins),
		Voice: roulette.Voice{
			Name:  sm.getString("VOICE_NAME"),
			Pitch: sm.getFloat("VOICE_PITCH", def.Voice.Pitch),
			Rate:  sm.getFloat("VOICE_RATE", def.Voice.Rate),
		},
		Appearance: roulette.Appearance{
			WinColor:  sm.getStringOr("WIN_COLOR", def.Appearance.WinColor),
			LoseColor: sm.getStringOr("LOSE_COLOR", def.Appearance.LoseColor),
			Scale:     sm.getFloat("OVERLAY_SCALE", def.Appearance.Scale),
			PositionX: sm.getFloat("POSITION_X", def.Appearance.PositionX),
			PositionY: sm.getFloat("POSITION_Y", def.Appearance.PositionY),
		},
	}
	return cfg.Clamp()
}

func (sm *SettingsManager) CommentarySettings() commentary.Settings {
	return commentary.Settings{
		Enabled:       sm.getBool("AI_COMMENTARY_ENABLED", true),
		Backend:       commentary.ResolveBackend(sm.getString("AI_BACKEND")),
		GeminiAPIKey:  sm.getString("GEMINI_API_KEY"),
		GeminiModel:   sm.getString("GEMINI_MODEL"),
		OpenAIAPIKey:  sm.getString("OPENAI_API_KEY"),
		OpenAIModel:   sm.getString("OPENAI_MODEL"),
		OllamaBaseURL: sm.getString("OLLAMA_BASE_URL"),
		OllamaModel:   sm.getString("OLLAMA_MODEL"),
		Language:      sm.getString("AI_LANGUAGE"),
		Timeout:       sm.getMillis("AI_TIMEOUT_MS", commentary.DefaultTimeout),
	}
}

// RewardTrigger returns the reward ID and title filters for the redemption feed.
func (sm *SettingsManager) RewardTrigger() (rewardID, rewardTitle string) {
	return sm.getString("TRIGGER_CUSTOM_REWORD_ID"), sm.getString("TRIGGER_REWARD_TITLE")
}

func (sm *SettingsManager) TestSpinsEnabled() bool {
	return sm.getBool("TEST_SPINS_ENABLED", true)
}

func (sm *SettingsManager) WordFilterEnabled() bool {
	return sm.getBool("WORD_FILTER_ENABLED", true)
}

func (sm *SettingsManager) getString(key string) string {
	v, err := sm.GetRealValue(key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func (sm *SettingsManager) getStringOr(key, fallback string) string {
	if v := sm.getString(key); v != "" {
		return v
	}
	return fallback
}

func (sm *SettingsManager) getFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(sm.getString(key), 64)
	if err != nil {
		return fallback
	}
	return f
}

// maxStoredMillis keeps the Duration multiplication from overflowing. Clamp narrows it further.
const maxStoredMillis = int64(time.Hour / time.Millisecond)

func (sm *SettingsManager) getMillis(key string, fallback time.Duration) time.Duration {
	n, err := strconv.ParseInt(sm.getString(key), 10, 64)
	if err != nil {
		return fallback
	}
	switch {
	case n < 0:
		n = 0
	case n > maxStoredMillis:
		n = maxStoredMillis
	}
	return time.Duration(n) * time.Millisecond
}

func (sm *SettingsManager) getBool(key string, fallback bool) bool {
	switch sm.getString(key) {
	case "true":
		return true
	case "false":
		return false
	}
	return fallback
}
