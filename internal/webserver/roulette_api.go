package webserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ichi0g0y/chill-roulette/internal/roulette"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"go.uber.org/zap"
)

func (s *Server) handleRouletteState(w http.ResponseWriter, r *http.Request) {
	if s.deps.Roulette == nil {
		writeError(w, http.StatusServiceUnavailable, "roulette not running")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Roulette.Snapshot())
}

func (s *Server) handleRouletteQueue(w http.ResponseWriter, r *http.Request) {
	if s.deps.Roulette == nil {
		writeError(w, http.StatusServiceUnavailable, "roulette not running")
		return
	}
	pending := s.deps.Roulette.Pending()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  pending,
		"count": len(pending),
	})
}

// DefaultPreviewText is spoken when the voice preview request has no text.
const DefaultPreviewText = "¡Hola! Así sonaré en tu directo cuando alguien use sus puntos de canal."

func (s *Server) testSpinsEnabled() bool {
	if s.deps.TestSpins {
		return true
	}
	return s.deps.Settings != nil && s.deps.Settings.TestSpinsEnabled()
}

// handleRouletteTest queues a fake redemption. TEST_SPINS_ENABLED=false turns it off.
func (s *Server) handleRouletteTest(w http.ResponseWriter, r *http.Request) {
	if !s.testSpinsEnabled() {
		writeError(w, http.StatusNotFound, "test spins are disabled")
		return
	}
	if s.deps.Roulette == nil {
		writeError(w, http.StatusServiceUnavailable, "roulette not running")
		return
	}

	var req struct {
		Username   string `json:"username"`
		RewardName string `json:"rewardName"`
		UserInput  string `json:"userInput"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = "TestUser"
	}
	rewardName := strings.TrimSpace(req.RewardName)
	if rewardName == "" {
		rewardName = "Ruleta de prueba"
	}

	event := s.deps.Roulette.Enqueue(roulette.RedemptionEvent{
		ID:         "test-" + uuid.NewString(),
		Username:   username,
		RewardName: rewardName,
		UserInput:  req.UserInput,
		Timestamp:  time.Now(),
	})

	logger.Info("Test spin queued", zap.String("id", event.ID), zap.String("username", event.Username))
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"event":      event,
		"queueDepth": len(s.deps.Roulette.Pending()),
	})
}

// handleVoicePreview speaks a sample line with the current voice settings
func (s *Server) handleVoicePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = DefaultPreviewText
	}

	voice := roulette.DefaultConfig().Voice
	if s.deps.Settings != nil {
		voice = s.deps.Settings.RouletteConfig().Voice
	}
	u := roulette.Utterance{
		Kind:  roulette.UtterancePreview,
		Text:  text,
		Voice: voice.Name,
		Pitch: voice.Pitch,
		Rate:  voice.Rate,
	}
	s.deps.Hub.Speak(u)

	logger.Debug("Voice preview sent",
		zap.String("voice", voice.Name),
		zap.Int("overlays", s.deps.Hub.ClientCount()))
	writeJSON(w, http.StatusAccepted, u)
}
