package webserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// handleLogs returns recent logs
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	// クエリパラメータから件数を取得
	limit := defaultLogLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	logs := logger.GetLogBuffer(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":      logs,
		"count":     len(logs),
		"timestamp": time.Now(),
	})
}
