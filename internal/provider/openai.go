package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/strand-ai/strand/pkg/types"
)

const openaiBaseURL = "https://api.openai.com"

// OpenAI implements Adapter for the OpenAI chat completions API.
type OpenAI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAI creates an OpenAI adapter.
func NewOpenAI(apiKey string, client *http.Client) *OpenAI {
	return &OpenAI{apiKey: apiKey, baseURL: openaiBaseURL, client: client}
}

func (o *OpenAI) Name() string { return string(types.ProviderOpenAI) }

// Generate performs one chat completion call and normalizes the response.
func (o *OpenAI) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if strings.TrimSpace(o.apiKey) == "" {
		return GenerateResponse{}, ErrMissingAPIKey
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return GenerateResponse{}, ErrEmptyPrompt
	}

	hReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/chat/completions", nil)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("build request: %w", err)
	}
	hReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	payload := map[string]any{
		"model": req.Model,
		"messages": []map[string]any{{
			"role":    "user",
			"content": req.Prompt,
		}},
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}

	body, err := DoJSON(ctx, o.client, hReq, payload)
	if err != nil {
		return GenerateResponse{}, err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, fmt.Errorf("empty completion response")
	}

	return GenerateResponse{
		Text: parsed.Choices[0].Message.Content,
		Usage: types.TokenUsage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
		},
		Raw: body,
	}, nil
}
