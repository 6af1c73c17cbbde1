package commentary

import (
	"net/url"
	"strings"
	"time"
)

const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
	BackendOllama = "ollama"

	DefaultBackend       = BackendGemini
	DefaultGeminiModel   = "gemini-3-flash-preview"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOllamaBaseURL = "http://127.0.0.1:11434"
	DefaultLanguage      = "spa"
	DefaultTimeout       = 8 * time.Second
)

// Settings is read on every fetch so changes apply without restart.
type Settings struct {
	Enabled       bool
	Backend       string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OllamaBaseURL string
	OllamaModel   string
	Language      string
	Timeout       time.Duration
}

type SettingsSource interface {
	CommentarySettings() Settings
}

// StaticSettings serves fixed settings.
type StaticSettings Settings

func (s StaticSettings) CommentarySettings() Settings {
	return Settings(s)
}

func ResolveBackend(value string) string {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case BackendGemini:
		return BackendGemini
	case BackendOpenAI:
		return BackendOpenAI
	case BackendOllama:
		return BackendOllama
	default:
		return DefaultBackend
	}
}

// Configured reports whether the selected backend has what it needs to be called.
func (s Settings) Configured() bool {
	return s.hasCredential(ResolveBackend(s.Backend))
}

// hasCredential reports whether the backend can be called at all.
func (s Settings) hasCredential(backend string) bool {
	switch backend {
	case BackendGemini:
		return strings.TrimSpace(s.GeminiAPIKey) != ""
	case BackendOpenAI:
		return strings.TrimSpace(s.OpenAIAPIKey) != ""
	case BackendOllama:
		return strings.TrimSpace(s.OllamaModel) != ""
	}
	return false
}

func (s Settings) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

// ResolveOllamaBaseURL accepts host:port, full URLs and URLs pointing at an API path.
func ResolveOllamaBaseURL(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return DefaultOllamaBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	trimmed = strings.TrimRight(trimmed, "/")

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return DefaultOllamaBaseURL
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for len(segments) > 0 {
		last := segments[len(segments)-1]
		if last != "api" && last != "generate" && last != "chat" && last != "version" && last != "" {
			break
		}
		segments = segments[:len(segments)-1]
	}
	parsed.Path = ""
	if len(segments) > 0 {
		parsed.Path = "/" + strings.Join(segments, "/")
	}
	parsed.RawQuery = ""
	return parsed.String()
}
