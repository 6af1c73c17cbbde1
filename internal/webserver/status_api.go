package webserver

import (
	"net/http"

	"github.com/ichi0g0y/chill-roulette/internal/commentary"
	"github.com/ichi0g0y/chill-roulette/internal/roulette"
	"github.com/ichi0g0y/chill-roulette/internal/settings"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/ichi0g0y/chill-roulette/internal/version"
	"go.uber.org/zap"
)

type statusResponse struct {
	Version    version.Info              `json:"version"`
	Feed       FeedStatus                `json:"feed"`
	Phase      roulette.Phase            `json:"phase,omitempty"`
	QueueDepth int                       `json:"queueDepth"`
	Overlays   int                       `json:"overlays"`
	Features   *settings.FeatureStatus   `json:"features,omitempty"`
	Commentary *commentary.BackendStatus `json:"commentary,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Version:  version.Get(),
		Overlays: s.deps.Hub.ClientCount(),
	}
	if s.deps.FeedStatus != nil {
		resp.Feed = s.deps.FeedStatus()
	}
	if s.deps.Roulette != nil {
		snap := s.deps.Roulette.Snapshot()
		resp.Phase = snap.Phase
		resp.QueueDepth = snap.QueueDepth
	}
	if s.deps.Settings != nil {
		features, err := s.deps.Settings.CheckFeatureStatus()
		if err != nil {
			logger.Warn("Failed to check feature status", zap.Error(err))
		} else {
			resp.Features = features
		}
	}
	if s.deps.Commentary != nil {
		st := s.deps.Commentary.Status(r.Context())
		resp.Commentary = &st
	}
	writeJSON(w, http.StatusOK, resp)
}
