package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ichi0g0y/chill-roulette/internal/commentary"
	"github.com/ichi0g0y/chill-roulette/internal/roulette"
	"github.com/ichi0g0y/chill-roulette/internal/settings"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"github.com/ichi0g0y/chill-roulette/internal/twitchtoken"
	"go.uber.org/zap"
)

// RouletteAPI is the part of the orchestrator the HTTP layer drives.
type RouletteAPI interface {
	Snapshot() roulette.Snapshot
	Enqueue(event roulette.RedemptionEvent) roulette.RedemptionEvent
	Refresh()
	Pending() []roulette.RedemptionEvent
}

// FeedStatus describes the EventSub connection.
type FeedStatus struct {
	Connected bool   `json:"connected"`
	LastError string `json:"lastError,omitempty"`
}

// CommentaryStatus reports the AI backend for /api/status.
type CommentaryStatus interface {
	Status(ctx context.Context) commentary.BackendStatus
}

type Deps struct {
	Roulette RouletteAPI
	Hub      *WSHub
	Settings *settings.SettingsManager

	// 以下は任意
	WordFilter interface{ Invalidate() }
	FeedStatus func() FeedStatus
	Commentary CommentaryStatus

	// OnAuthorized runs after /callback stored a new token.
	OnAuthorized func(token twitchtoken.Token)
	// OnSettingsUpdated receives the keys stored by PUT /api/settings.
	OnSettingsUpdated func(keys []string)

	// OverlayDir overrides static file discovery.
	OverlayDir string
	// TestSpins forces POST /api/roulette/test on, ignoring TEST_SPINS_ENABLED.
	TestSpins bool
	Tracing   bool
}

type Server struct {
	deps       Deps
	httpServer *http.Server
}

func NewServer(deps Deps) *Server {
	if deps.Hub == nil {
		deps.Hub = NewWSHub()
	}
	return &Server{deps: deps}
}

// Router builds the chi router. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	if s.deps.Tracing {
		r.Use(tracingMiddleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// OBS のブラウザソース用
	r.Get("/ws", s.deps.Hub.ServeWS(s.greeting))

	// OAuth endpoints
	r.Get("/auth", s.handleAuth)
	r.Get("/callback", s.handleCallback)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/status", s.handleStatus)
		r.Get("/logs", s.handleLogs)

		r.Route("/roulette", func(r chi.Router) {
			r.Get("/state", s.handleRouletteState)
			r.Get("/queue", s.handleRouletteQueue)
			r.Post("/test", s.handleRouletteTest)
			r.Post("/voice-preview", s.handleVoicePreview)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Put("/", s.handleUpdateSettings)
		})

		r.Route("/word-filter", func(r chi.Router) {
			r.Get("/", s.handleGetWordFilterWords)
			r.Post("/", s.handleAddWordFilterWord)
			r.Get("/languages", s.handleGetWordFilterLanguages)
			r.Delete("/{id}", s.handleDeleteWordFilterWord)
		})
	})

	overlay := http.StripPrefix("/overlay/", http.FileServer(http.Dir(s.overlayDir())))
	r.Get("/overlay", http.RedirectHandler("/overlay/", http.StatusMovedPermanently).ServeHTTP)
	r.Get("/overlay/*", overlay.ServeHTTP)
	r.Get("/", http.RedirectHandler("/overlay/", http.StatusFound).ServeHTTP)

	return r
}

func (s *Server) greeting() []WSMessage {
	if s.deps.Roulette == nil {
		return nil
	}
	data, err := json.Marshal(s.deps.Roulette.Snapshot())
	if err != nil {
		return nil
	}
	return []WSMessage{{Type: MessageRouletteState, Data: data}}
}

func (s *Server) overlayDir() string {
	if s.deps.OverlayDir != "" {
		return s.deps.OverlayDir
	}

	possiblePaths := []string{}
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		possiblePaths = append(possiblePaths, filepath.Join(execDir, "web", "dist"))
		possiblePaths = append(possiblePaths, filepath.Join(execDir, "public"))
	}
	possiblePaths = append(possiblePaths,
		"./web/dist",
		"./public",
	)

	for _, path := range possiblePaths {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			logger.Info("Using overlay static files directory", zap.String("path", path))
			return path
		}
	}

	logger.Warn("No overlay static files directory found, using default")
	return "./web/dist"
}

// Start listens on port in the background.
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Web server listening", zap.Int("port", port))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Web server stopped", zap.Error(err))
			errCh <- err
		}
	}()

	// ポート競合などの即時エラーだけ拾う
	select {
	case err := <-errCh:
		return err
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
