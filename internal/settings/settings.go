package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"go.uber.org/zap"
)

var ErrUnknownSetting = errors.New("unknown setting key")

type SettingType string

const (
	SettingTypeNormal SettingType = "normal"
	SettingTypeSecret SettingType = "secret"
)

type Setting struct {
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	Type        SettingType `json:"type"`
	Required    bool        `json:"required"`
	Description string      `json:"description"`
	UpdatedAt   time.Time   `json:"updated_at"`
	HasValue    bool        `json:"has_value"` // シークレット値が設定されているかどうか
}

type SettingsManager struct {
	db *sql.DB
}

func NewSettingsManager(db *sql.DB) *SettingsManager {
	return &SettingsManager{db: db}
}

func secret(key, description string, required bool) Setting {
	return Setting{Key: key, Type: SettingTypeSecret, Required: required, Description: description}
}

func normal(key, value, description string) Setting {
	return Setting{Key: key, Value: value, Type: SettingTypeNormal, Description: description}
}

// 設定の定義
var DefaultSettings = map[string]Setting{
	// Twitch設定（機密情報）
	"CLIENT_ID":                secret("CLIENT_ID", "Twitch API Client ID", true),
	"CLIENT_SECRET":            secret("CLIENT_SECRET", "Twitch API Client Secret", true),
	"TWITCH_USER_ID":           secret("TWITCH_USER_ID", "Broadcaster user ID whose redemptions trigger spins", true),
	"TRIGGER_CUSTOM_REWORD_ID": secret("TRIGGER_CUSTOM_REWORD_ID", "Custom reward ID that triggers a spin (empty: match by title or accept all)", false),
	"TRIGGER_REWARD_TITLE":     normal("TRIGGER_REWARD_TITLE", "", "Reward title that triggers a spin when no reward ID is set"),

	// ルーレット
	"WIN_PROBABILITY":       normal("WIN_PROBABILITY", "0.3", "Probability (0-1) that a spin freezes the viewer"),
	"SPIN_DURATION_MS":      normal("SPIN_DURATION_MS", "4000", "Wheel animation length in milliseconds"),
	"COOLDOWN_MS":           normal("COOLDOWN_MS", "10000", "Pause after a result before the next spin"),
	"AI_COMMENTARY_ENABLED": normal("AI_COMMENTARY_ENABLED", "true", "Ask the AI backend for a one-liner on each spin"),
	"ANNOUNCE_SPINS":        normal("ANNOUNCE_SPINS", "true", "Speak an announcement when a spin starts"),
	"TEST_SPINS_ENABLED":    normal("TEST_SPINS_ENABLED", "true", "Allow POST /api/roulette/test from the settings panel"),

	// 音声・見た目
	"VOICE_NAME":    normal("VOICE_NAME", "", "Speech synthesis voice name (empty: browser default)"),
	"VOICE_PITCH":   normal("VOICE_PITCH", "1.0", "Speech pitch (0-2)"),
	"VOICE_RATE":    normal("VOICE_RATE", "1.05", "Speech rate (0.1-10)"),
	"WIN_COLOR":     normal("WIN_COLOR", "#9333ea", "Accent color for frozen results"),
	"LOSE_COLOR":    normal("LOSE_COLOR", "#0ea5e9", "Accent color for safe results"),
	"OVERLAY_SCALE": normal("OVERLAY_SCALE", "0.8", "Wheel scale (0.1-3)"),
	"POSITION_X":    normal("POSITION_X", "50", "Horizontal position in percent"),
	"POSITION_Y":    normal("POSITION_Y", "50", "Vertical position in percent"),

	// AIコメント
	"AI_BACKEND":          normal("AI_BACKEND", "gemini", "Commentary backend: gemini, openai or ollama"),
	"AI_LANGUAGE":         normal("AI_LANGUAGE", "spa", "Expected commentary language (ISO 639-3, empty disables the check)"),
	"GEMINI_API_KEY":      secret("GEMINI_API_KEY", "Gemini API key", false),
	"GEMINI_MODEL":        normal("GEMINI_MODEL", "gemini-3-flash-preview", "Gemini model"),
	"OPENAI_API_KEY":      secret("OPENAI_API_KEY", "OpenAI API key", false),
	"OPENAI_MODEL":        normal("OPENAI_MODEL", "gpt-4o-mini", "OpenAI model"),
	"OLLAMA_BASE_URL":     normal("OLLAMA_BASE_URL", "http://127.0.0.1:11434", "Ollama server URL"),
	"OLLAMA_MODEL":        normal("OLLAMA_MODEL", "", "Ollama model (empty disables the backend)"),
	"AI_TIMEOUT_MS":       normal("AI_TIMEOUT_MS", "8000", "Commentary request timeout in milliseconds"),
	"WORD_FILTER_ENABLED": normal("WORD_FILTER_ENABLED", "true", "Drop AI commentary that contains blocked words"),

	// OpenAI使用量（自動更新）
	"OPENAI_USAGE_INPUT_TOKENS":  normal("OPENAI_USAGE_INPUT_TOKENS", "0", "Accumulated OpenAI input tokens"),
	"OPENAI_USAGE_OUTPUT_TOKENS": normal("OPENAI_USAGE_OUTPUT_TOKENS", "0", "Accumulated OpenAI output tokens"),
	"OPENAI_USAGE_COST_USD":      normal("OPENAI_USAGE_COST_USD", "0", "Estimated OpenAI cost in USD"),

	// サーバー設定
	"SERVER_PORT":      normal("SERVER_PORT", "8080", "Web server port for the OBS overlay"),
	"DEBUG_OUTPUT":     normal("DEBUG_OUTPUT", "false", "Enable debug logging"),
	"LOG_FILE":         normal("LOG_FILE", "", "Rotating log file path (empty: data dir default)"),
	"TRACING_ENABLED":  normal("TRACING_ENABLED", "false", "Export OpenTelemetry spans to Jaeger"),
	"TRACING_ENDPOINT": normal("TRACING_ENDPOINT", "http://localhost:14268/api/traces", "Jaeger collector endpoint"),
}

type numericRange struct {
	min, max float64
	integer  bool
}

var numericRanges = map[string]numericRange{
	"WIN_PROBABILITY":            {0, 1, false},
	"SPIN_DURATION_MS":           {50, 60000, true},
	"COOLDOWN_MS":                {0, 60000, true},
	"VOICE_PITCH":                {0, 2, false},
	"VOICE_RATE":                 {0.1, 10, false},
	"OVERLAY_SCALE":              {0.1, 3, false},
	"POSITION_X":                 {0, 100, false},
	"POSITION_Y":                 {0, 100, false},
	"AI_TIMEOUT_MS":              {500, 60000, true},
	"SERVER_PORT":                {1, 65535, true},
	"OPENAI_USAGE_INPUT_TOKENS":  {0, math.MaxInt64, true},
	"OPENAI_USAGE_OUTPUT_TOKENS": {0, math.MaxInt64, true},
	"OPENAI_USAGE_COST_USD":      {0, math.MaxFloat64, false},
}

var booleanKeys = map[string]bool{
	"AI_COMMENTARY_ENABLED": true,
	"ANNOUNCE_SPINS":        true,
	"TEST_SPINS_ENABLED":    true,
	"WORD_FILTER_ENABLED":   true,
	"DEBUG_OUTPUT":          true,
	"TRACING_ENABLED":       true,
}

// 機能の有効性チェック
type FeatureStatus struct {
	TwitchConfigured     bool     `json:"twitch_configured"`
	CommentaryConfigured bool     `json:"commentary_configured"`
	MissingSettings      []string `json:"missing_settings"`
	Warnings             []string `json:"warnings"`
}

func (sm *SettingsManager) CheckFeatureStatus() (*FeatureStatus, error) {
	status := &FeatureStatus{
		MissingSettings: []string{},
		Warnings:        []string{},
	}

	twitchComplete := true
	for _, key := range []string{"CLIENT_ID", "CLIENT_SECRET", "TWITCH_USER_ID"} {
		if val, err := sm.GetRealValue(key); err != nil || val == "" {
			status.MissingSettings = append(status.MissingSettings, key)
			twitchComplete = false
		}
	}
	status.TwitchConfigured = twitchComplete

	c := sm.CommentarySettings()
	status.CommentaryConfigured = c.Enabled && c.Configured()
	if c.Enabled && !c.Configured() {
		status.Warnings = append(status.Warnings, "AI commentary is enabled but the "+c.Backend+" backend has no credentials; local templates will be used")
	}

	rewardID, _ := sm.GetRealValue("TRIGGER_CUSTOM_REWORD_ID")
	rewardTitle, _ := sm.GetRealValue("TRIGGER_REWARD_TITLE")
	if strings.TrimSpace(rewardID) == "" && strings.TrimSpace(rewardTitle) == "" {
		status.Warnings = append(status.Warnings, "No trigger reward configured - every channel point redemption spins the wheel")
	}

	return status, nil
}

// CRUD操作
func (sm *SettingsManager) GetSetting(key string) (string, error) {
	return sm.GetRealValue(key)
}

func (sm *SettingsManager) SetSetting(key, value string) error {
	defaultSetting, exists := DefaultSettings[key]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	_, err := sm.db.Exec(`
		INSERT INTO settings (key, value, setting_type, is_required, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		key, value,
		string(defaultSetting.Type),
		defaultSetting.Required,
		defaultSetting.Description,
	)
	return err
}

// GetAllSettings returns every known key. Secret values are blanked; HasValue tells whether one is stored.
func (sm *SettingsManager) GetAllSettings() (map[string]Setting, error) {
	rows, err := sm.db.Query(`
		SELECT key, value, setting_type, is_required, description, updated_at
		FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]Setting)
	for rows.Next() {
		var s Setting
		var settingType string
		var description sql.NullString
		if err := rows.Scan(&s.Key, &s.Value, &settingType, &s.Required, &description, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if _, known := DefaultSettings[s.Key]; !known {
			continue // word_filter_seeded などの内部キー
		}
		s.Type = SettingType(settingType)
		s.Description = description.String
		s.HasValue = s.Value != ""
		if s.Type == SettingTypeSecret {
			s.Value = ""
		}
		settings[s.Key] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// DBにない設定はデフォルト値で補完
	for key, defaultSetting := range DefaultSettings {
		if _, exists := settings[key]; !exists {
			defaultSetting.HasValue = defaultSetting.Value != ""
			settings[key] = defaultSetting
		}
	}

	return settings, nil
}

// 実際の値を取得（マスクなし）- 内部処理用
func (sm *SettingsManager) GetRealValue(key string) (string, error) {
	var value string
	err := sm.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		if defaultSetting, exists := DefaultSettings[key]; exists {
			return defaultSetting.Value, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return value, err
}

// UpdateSettings validates and normalizes every value first, then stores them all.
func (sm *SettingsManager) UpdateSettings(values map[string]string) (map[string]string, error) {
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		v, err := NormalizeSetting(key, value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		normalized[key] = v
	}
	for key, value := range normalized {
		if err := sm.SetSetting(key, value); err != nil {
			return nil, err
		}
	}
	return normalized, nil
}

// 環境変数からの移行
func (sm *SettingsManager) MigrateFromEnv() error {
	migrated := 0

	for key := range DefaultSettings {
		var existingKey string
		if err := sm.db.QueryRow("SELECT key FROM settings WHERE key = ?", key).Scan(&existingKey); err == nil {
			continue
		}

		envValue := os.Getenv(key)
		if envValue == "" {
			continue
		}
		value, err := NormalizeSetting(key, envValue)
		if err != nil {
			logger.Warn("Ignoring invalid environment value", zap.String("key", key), zap.Error(err))
			continue
		}
		if err := sm.SetSetting(key, value); err != nil {
			logger.Error("Failed to migrate setting", zap.String("key", key), zap.Error(err))
			return fmt.Errorf("failed to migrate %s: %w", key, err)
		}
		logger.Info("Migrated setting from environment", zap.String("key", key))
		migrated++
	}

	if migrated > 0 {
		logger.Info("Migration completed", zap.Int("migrated_count", migrated))
		if hasSecretInEnv() {
			logger.Warn("SECURITY WARNING: Sensitive data found in environment variables.")
			logger.Warn("Please remove CLIENT_SECRET and API keys from .env file after confirming the migration is successful.")
		}
	}

	return nil
}

func hasSecretInEnv() bool {
	for key, s := range DefaultSettings {
		if s.Type == SettingTypeSecret && os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

// ValidateSetting rejects values that cannot be parsed. Out-of-range numbers pass; NormalizeSetting clamps them.
func ValidateSetting(key, value string) error {
	if _, exists := DefaultSettings[key]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	value = strings.TrimSpace(value)

	if r, ok := numericRanges[key]; ok {
		if r.integer {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				return fmt.Errorf("must be an integer")
			}
			return nil
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(f) {
			return fmt.Errorf("must be a number")
		}
		return nil
	}
	if booleanKeys[key] {
		if value != "true" && value != "false" {
			return fmt.Errorf("must be 'true' or 'false'")
		}
		return nil
	}

	switch key {
	case "WIN_COLOR", "LOSE_COLOR":
		if !isHexColor(value) {
			return fmt.Errorf("must be a hex color like #9333ea")
		}
	case "AI_BACKEND":
		switch strings.ToLower(value) {
		case "gemini", "openai", "ollama":
		default:
			return fmt.Errorf("must be gemini, openai or ollama")
		}
	}
	return nil
}

// NormalizeSetting validates value and clamps numbers into range.
func NormalizeSetting(key, value string) (string, error) {
	if err := ValidateSetting(key, value); err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)

	if r, ok := numericRanges[key]; ok {
		if r.integer {
			n, _ := strconv.ParseInt(value, 10, 64)
			if lo := int64(r.min); n < lo {
				n = lo
			}
			if r.max < math.MaxInt64 {
				if hi := int64(r.max); n > hi {
					n = hi
				}
			}
			return strconv.FormatInt(n, 10), nil
		}
		f, _ := strconv.ParseFloat(value, 64)
		f = math.Max(r.min, math.Min(r.max, f))
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	switch key {
	case "AI_BACKEND", "AI_LANGUAGE", "WIN_COLOR", "LOSE_COLOR":
		return strings.ToLower(value), nil
	}
	return value, nil
}

func isHexColor(value string) bool {
	if !strings.HasPrefix(value, "#") || (len(value) != 4 && len(value) != 7) {
		return false
	}
	for _, c := range value[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// 初期設定のセットアップ
func (sm *SettingsManager) InitializeDefaultSettings() error {
	for key, setting := range DefaultSettings {
		var existingKey string
		if err := sm.db.QueryRow("SELECT key FROM settings WHERE key = ?", key).Scan(&existingKey); err == nil {
			continue
		}
		if err := sm.SetSetting(key, setting.Value); err != nil {
			return fmt.Errorf("failed to initialize setting %s: %w", key, err)
		}
	}
	return nil
}
