package commentary

import (
	"strconv"
	"strings"
	"sync"

	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"go.uber.org/zap"
)

// UsageRecorder accumulates paid token usage.
type UsageRecorder interface {
	AddOpenAIUsage(model string, inputTokens, outputTokens int)
}

type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

var modelPricingTable = map[string]modelPricing{
	"gpt-4o-mini":  {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"gpt-4o":       {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4.1-mini": {InputPerMillion: 0.40, OutputPerMillion: 1.60},
	"gpt-4.1":      {InputPerMillion: 2.00, OutputPerMillion: 8.00},
}

// SettingStore is the subset of the settings manager usage tracking needs.
type SettingStore interface {
	GetRealValue(key string) (string, error)
	SetSetting(key, value string) error
}

// SettingsUsage stores the running totals in the settings table.
type SettingsUsage struct {
	mu      sync.Mutex
	manager SettingStore
}

func NewSettingsUsage(manager SettingStore) *SettingsUsage {
	return &SettingsUsage{manager: manager}
}

func (u *SettingsUsage) AddOpenAIUsage(model string, inputTokens, outputTokens int) {
	if u == nil || u.manager == nil || (inputTokens <= 0 && outputTokens <= 0) {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	newInput := readSettingInt(u.manager, "OPENAI_USAGE_INPUT_TOKENS") + max(inputTokens, 0)
	newOutput := readSettingInt(u.manager, "OPENAI_USAGE_OUTPUT_TOKENS") + max(outputTokens, 0)

	if err := u.manager.SetSetting("OPENAI_USAGE_INPUT_TOKENS", strconv.Itoa(newInput)); err != nil {
		logger.Warn("Failed to record OpenAI usage", zap.Error(err))
		return
	}
	_ = u.manager.SetSetting("OPENAI_USAGE_OUTPUT_TOKENS", strconv.Itoa(newOutput))

	if cost, ok := estimateCostUSD(model, inputTokens, outputTokens); ok {
		total := readSettingFloat(u.manager, "OPENAI_USAGE_COST_USD") + cost
		_ = u.manager.SetSetting("OPENAI_USAGE_COST_USD", strconv.FormatFloat(total, 'f', 6, 64))
	}
}

func estimateCostUSD(model string, inputTokens, outputTokens int) (float64, bool) {
	if inputTokens <= 0 && outputTokens <= 0 {
		return 0, false
	}
	pricing, ok := modelPricingTable[normalizeModelName(model)]
	if !ok {
		return 0, false
	}
	cost := (float64(inputTokens)/1_000_000.0)*pricing.InputPerMillion +
		(float64(outputTokens)/1_000_000.0)*pricing.OutputPerMillion
	return cost, true
}

// normalizeModelName maps dated snapshots like gpt-4o-mini-2024-07-18 to their family.
func normalizeModelName(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	best := ""
	for key := range modelPricingTable {
		if model == key {
			return key
		}
		if strings.HasPrefix(model, key+"-") && len(key) > len(best) {
			best = key
		}
	}
	if best != "" {
		return best
	}
	return model
}

func readSettingInt(manager SettingStore, key string) int {
	value, err := manager.GetRealValue(key)
	if err != nil {
		return 0
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return parsed
}

func readSettingFloat(manager SettingStore, key string) float64 {
	value, err := manager.GetRealValue(key)
	if err != nil {
		return 0
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return parsed
}
