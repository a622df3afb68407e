package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/strand-ai/strand/pkg/types"
)

const anthropicBaseURL = "https://api.anthropic.com"

// Anthropic implements Adapter for the Anthropic Messages API.
type Anthropic struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewAnthropic creates an Anthropic adapter.
func NewAnthropic(apiKey string, client *http.Client) *Anthropic {
	return &Anthropic{apiKey: apiKey, baseURL: anthropicBaseURL, client: client}
}

func (a *Anthropic) Name() string { return string(types.ProviderAnthropic) }

// Generate performs one messages call and normalizes the response.
func (a *Anthropic) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if strings.TrimSpace(a.apiKey) == "" {
		return GenerateResponse{}, ErrMissingAPIKey
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return GenerateResponse{}, ErrEmptyPrompt
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 1024
	}

	hReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", nil)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("build request: %w", err)
	}
	hReq.Header.Set("x-api-key", a.apiKey)
	hReq.Header.Set("anthropic-version", "2023-06-01")

	payload := map[string]any{
		"model":      req.Model,
		"max_tokens": req.MaxTokens,
		"messages": []map[string]any{{
			"role":    "user",
			"content": req.Prompt,
		}},
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}

	body, err := DoJSON(ctx, a.client, hReq, payload)
	if err != nil {
		return GenerateResponse{}, err
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, fmt.Errorf("parse response: %w", err)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" || block.Text != "" {
			text.WriteString(block.Text)
		}
	}

	return GenerateResponse{
		Text: text.String(),
		Usage: types.TokenUsage{
			InputTokens:  parsed.Usage.InputTokens,
			OutputTokens: parsed.Usage.OutputTokens,
		},
		Raw: body,
	}, nil
}
