package webserver

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/ichi0g0y/chill-roulette/internal/settings"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// handleGetSettings returns every setting. Secrets come back blank with has_value set.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	if s.deps.Settings == nil {
		writeError(w, http.StatusServiceUnavailable, "settings not available")
		return
	}
	all, err := s.deps.Settings.GetAllSettings()
	if err != nil {
		logger.Error("Failed to get settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "設定の取得に失敗しました")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": all})
}

// handleUpdateSettings stores a {KEY: value} map. Numbers are clamped, invalid values reject the whole request.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if s.deps.Settings == nil {
		writeError(w, http.StatusServiceUnavailable, "settings not available")
		return
	}

	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(values) == 0 {
		writeError(w, http.StatusBadRequest, "no settings given")
		return
	}

	stored, err := s.deps.Settings.UpdateSettings(values)
	if err != nil {
		logger.Warn("Rejected settings update", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	keys := lo.Keys(stored)
	sort.Strings(keys)
	logger.Info("Settings updated", zap.Strings("keys", keys))

	if s.deps.WordFilter != nil && lo.Some(keys, []string{"WORD_FILTER_ENABLED", "AI_LANGUAGE"}) {
		s.deps.WordFilter.Invalidate()
	}
	// 見た目の変更をすぐオーバーレイへ反映
	if s.deps.Roulette != nil {
		s.deps.Roulette.Refresh()
	}
	if s.deps.OnSettingsUpdated != nil {
		s.deps.OnSettingsUpdated(keys)
	}

	// シークレットは返さない
	for key := range stored {
		if isSecretKey(key) {
			stored[key] = ""
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": stored})
}

func isSecretKey(key string) bool {
	def, ok := settings.DefaultSettings[key]
	return ok && def.Type == settings.SettingTypeSecret
}
