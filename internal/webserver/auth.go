package webserver

import (
	"net/http"

	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/ichi0g0y/chill-roulette/internal/twitchtoken"
	"go.uber.org/zap"
)

// handleAuth handles OAuth authentication redirect
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, twitchtoken.GetAuthURL(), http.StatusFound)
}

// handleCallback exchanges the code, stores the token and restarts the feed.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		logger.Warn("OAuth authorization denied",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		w.WriteHeader(http.StatusBadRequest)
		twitchtoken.WriteErrorPage(w, r.URL.Query().Get("error_description"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		twitchtoken.WriteErrorPage(w, "missing code")
		return
	}

	token, err := twitchtoken.GetTwitchToken(code)
	if err != nil {
		logger.Error("Failed to exchange authorization code", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		twitchtoken.WriteErrorPage(w, err.Error())
		return
	}

	logger.Info("Twitch authorization completed", zap.String("scope", token.Scope))
	if s.deps.OnAuthorized != nil {
		go s.deps.OnAuthorized(token)
	}

	if err := twitchtoken.WriteSuccessPage(w); err != nil {
		logger.Debug("Failed to write success page", zap.Error(err))
	}
}
