package commentary

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiBaseURL overrides the API host when set.
var geminiBaseURL = ""

func (p *Provider) generateGemini(ctx context.Context, s Settings, prompt Prompt) (string, error) {
	model := strings.TrimSpace(s.GeminiModel)
	if model == "" {
		model = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     s.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if geminiBaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: geminiBaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt.User), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       genai.Ptr(float32(prompt.Temperature)),
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("no commentary returned")
	}
	return text, nil
}
