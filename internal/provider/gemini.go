package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/strand-ai/strand/pkg/types"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

// Gemini implements Adapter for the Gemini generateContent API. The
// credential travels in the query string, so every error passes through
// redaction before it leaves this adapter.
type Gemini struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGemini creates a Gemini adapter.
func NewGemini(apiKey string, client *http.Client) *Gemini {
	return &Gemini{apiKey: apiKey, baseURL: geminiBaseURL, client: client}
}

func (g *Gemini) Name() string { return string(types.ProviderGemini) }

// Generate performs one generateContent call and normalizes the response.
func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return GenerateResponse{}, ErrMissingAPIKey
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return GenerateResponse{}, ErrEmptyPrompt
	}

	urlStr := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(req.Model), url.QueryEscape(g.apiKey))
	hReq, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, nil)
	if err != nil {
		return GenerateResponse{}, redactSecret(fmt.Errorf("build request: %w", err), g.apiKey)
	}

	generationConfig := map[string]any{}
	if req.Temperature > 0 {
		generationConfig["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		generationConfig["maxOutputTokens"] = req.MaxTokens
	}
	payload := map[string]any{
		"contents": []map[string]any{{
			"role":  "user",
			"parts": []map[string]any{{"text": req.Prompt}},
		}},
	}
	if len(generationConfig) > 0 {
		payload["generationConfig"] = generationConfig
	}

	body, err := DoJSON(ctx, g.client, hReq, payload)
	if err != nil {
		return GenerateResponse{}, redactSecret(err, g.apiKey)
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, fmt.Errorf("parse response: %w", err)
	}

	var text strings.Builder
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			text.WriteString(part.Text)
		}
	}

	return GenerateResponse{
		Text: text.String(),
		Usage: types.TokenUsage{
			InputTokens:  parsed.UsageMetadata.PromptTokenCount,
			OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
		},
		Raw: body,
	}, nil
}
