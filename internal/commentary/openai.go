package commentary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var openAIResponsesEndpoint = "https://api.openai.com/v1/responses"

type responsesAPIResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage *responseUsage `json:"usage"`
}

type responseUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

func (p *Provider) generateOpenAI(ctx context.Context, s Settings, prompt Prompt) (string, error) {
	model := strings.TrimSpace(s.OpenAIModel)
	if model == "" {
		model = DefaultOpenAIModel
	}

	payload := map[string]interface{}{
		"model":             model,
		"temperature":       prompt.Temperature,
		"instructions":      prompt.System,
		"input":             prompt.User,
		"max_output_tokens": 60,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIResponsesEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai api error: status %d", resp.StatusCode)
	}

	var parsed responsesAPIResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return "", err
	}

	if parsed.Usage != nil && p.usage != nil {
		p.usage.AddOpenAIUsage(model, parsed.Usage.InputTokens, parsed.Usage.OutputTokens)
	}

	outputText := extractResponseText(parsed)
	if outputText == "" {
		return "", fmt.Errorf("no commentary returned")
	}
	return outputText, nil
}

func extractResponseText(parsed responsesAPIResponse) string {
	if strings.TrimSpace(parsed.OutputText) != "" {
		return strings.TrimSpace(parsed.OutputText)
	}
	for _, output := range parsed.Output {
		for _, content := range output.Content {
			if strings.TrimSpace(content.Text) != "" {
				return strings.TrimSpace(content.Text)
			}
		}
	}
	return ""
}
