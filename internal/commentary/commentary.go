// Package commentary produces the one-liner spoken when a spin settles.
// Remote text comes from an LLM backend; every failure collapses to "".
package commentary

import (
	"context"
	"errors"
	"net/http"

	"github.com/ichi0g0y/chill-roulette/internal/roulette"
	"github.com/ichi0g0y/chill-roulette/internal/shared/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var errRejected = errors.New("commentary rejected")

type Options struct {
	Filter WordFilter
	Usage  UsageRecorder
	// Limiter caps remote calls. Defaults to 1/s with a burst of 3.
	Limiter    *rate.Limiter
	HTTPClient *http.Client
}

// Provider implements roulette.CommentaryProvider.
type Provider struct {
	source     SettingsSource
	filter     WordFilter
	usage      UsageRecorder
	limiter    *rate.Limiter
	httpClient *http.Client
	tracer     trace.Tracer
}

var _ roulette.CommentaryProvider = (*Provider)(nil)

func NewProvider(source SettingsSource, opts Options) *Provider {
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Limit(1), 3)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Provider{
		source:     source,
		filter:     opts.Filter,
		usage:      opts.Usage,
		limiter:    opts.Limiter,
		httpClient: opts.HTTPClient,
		tracer:     otel.Tracer("github.com/ichi0g0y/chill-roulette/internal/commentary"),
	}
}

// FetchRemote never fails: disabled, unconfigured, rate-limited, slow or
// rejected commentary all come back as "".
func (p *Provider) FetchRemote(ctx context.Context, req roulette.CommentaryRequest) string {
	s := p.source.CommentarySettings()
	if !s.Enabled {
		return ""
	}
	backend := ResolveBackend(s.Backend)
	if !s.hasCredential(backend) {
		logger.Debug("Commentary backend not configured", zap.String("backend", backend))
		return ""
	}
	if !p.limiter.Allow() {
		logger.Warn("Commentary rate limited", zap.String("username", req.Username))
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "commentary.fetch", trace.WithAttributes(
		attribute.String("commentary.backend", backend),
		attribute.String("spin.outcome", req.Outcome.String()),
	))
	defer span.End()

	text, err := p.generate(ctx, backend, s, BuildPrompt(req))
	if err == nil {
		text, err = p.check(text, s)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("Remote commentary failed",
			zap.String("backend", backend),
			zap.String("username", req.Username),
			zap.Error(err))
		return ""
	}

	logger.Debug("Remote commentary received", zap.String("backend", backend), zap.String("text", text))
	return text
}

func (p *Provider) LocalTemplate(username string, outcome roulette.Outcome) string {
	return LocalTemplate(username, outcome)
}

func (p *Provider) generate(ctx context.Context, backend string, s Settings, prompt Prompt) (string, error) {
	switch backend {
	case BackendOpenAI:
		return p.generateOpenAI(ctx, s, prompt)
	case BackendOllama:
		return p.generateOllama(ctx, s, prompt)
	default:
		return p.generateGemini(ctx, s, prompt)
	}
}

func (p *Provider) check(text string, s Settings) (string, error) {
	text = cleanCommentary(text)
	if text == "" {
		return "", errors.New("empty commentary")
	}
	if !matchesLanguage(text, s.Language) {
		return "", errRejected
	}
	if p.filter != nil && p.filter.ContainsBlocked(text) {
		return "", errRejected
	}
	return text, nil
}
