package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerate(t *testing.T) {
	var gotKey, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": "bonjour"}},
				},
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     8,
				"candidatesTokenCount": 3,
			},
		})
	}))
	defer server.Close()

	adapter := NewGemini("AIza-test", server.Client())
	adapter.baseURL = server.URL

	resp, err := adapter.Generate(context.Background(), GenerateRequest{
		Model:  "gemini-1.5-flash",
		Prompt: "translate hello",
	})
	require.NoError(t, err)

	assert.Equal(t, "AIza-test", gotKey)
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "bonjour", resp.Text)
	assert.Equal(t, 8, resp.Usage.InputTokens)
	assert.Equal(t, 3, resp.Usage.OutputTokens)
}

// The Gemini key rides in the URL, so a connection failure would leak it
// through url.Error unless the adapter scrubs its messages.
func TestGeminiGenerateRedactsKeyOnTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force connection refused

	adapter := NewGemini("AIza-very-secret", server.Client())
	adapter.baseURL = server.URL

	_, err := adapter.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "AIza-very-secret")
	assert.Contains(t, err.Error(), "[redacted]")
	assert.True(t, Retryable(err))
}
