package commentary

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// BackendStatus is reported by /api/status.
type BackendStatus struct {
	Enabled    bool   `json:"enabled"`
	Backend    string `json:"backend"`
	Model      string `json:"model,omitempty"`
	Configured bool   `json:"configured"`
	// Reachable is only probed for ollama. Cloud backends report Configured.
	Reachable bool `json:"reachable"`
}

const healthTimeout = time.Second

// Status reads the current settings and probes a local ollama server.
func (p *Provider) Status(ctx context.Context) BackendStatus {
	s := p.source.CommentarySettings()
	backend := ResolveBackend(s.Backend)
	st := BackendStatus{
		Enabled:    s.Enabled,
		Backend:    backend,
		Configured: s.hasCredential(backend),
	}
	switch backend {
	case BackendGemini:
		st.Model = firstNonEmpty(s.GeminiModel, DefaultGeminiModel)
	case BackendOpenAI:
		st.Model = firstNonEmpty(s.OpenAIModel, DefaultOpenAIModel)
	case BackendOllama:
		st.Model = s.OllamaModel
	}

	if backend == BackendOllama {
		st.Reachable = st.Configured && p.ollamaHealthy(ctx, s.OllamaBaseURL)
	} else {
		st.Reachable = st.Configured
	}
	return st
}

func (p *Provider) ollamaHealthy(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ResolveOllamaBaseURL(baseURL)+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func firstNonEmpty(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
