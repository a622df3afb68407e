package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strand-ai/strand/pkg/types"
)

type fixedEstimator struct{ n int }

func (f fixedEstimator) Estimate(text string) int { return f.n }

func customConfig(endpoint string) *types.CustomProvider {
	return &types.CustomProvider{
		ID:       "acme",
		Name:     "Acme AI",
		Endpoint: endpoint,
		Auth:     types.AuthSpec{Kind: types.AuthBearer},
		RequestTemplate: map[string]any{
			"model":  "{{model}}",
			"prompt": "{{prompt}}",
		},
		Shape:        types.ShapeBareBody,
		ResponsePath: "result.text",
	}
}

func TestCustomGenerateBearerAuth(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"text": "generated output"},
		})
	}))
	defer server.Close()

	adapter := NewCustom(customConfig(server.URL), "sk-test", server.Client(), fixedEstimator{n: 7}, nil)
	resp, err := adapter.Generate(context.Background(), GenerateRequest{
		Model:  "acme-1",
		Prompt: "write a poem",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "acme-1", gotBody["model"])
	assert.Equal(t, "write a poem", gotBody["prompt"])
	assert.Equal(t, "generated output", resp.Text)
	assert.True(t, resp.Usage.Approximate)
	assert.Equal(t, 7, resp.Usage.InputTokens)
	assert.Equal(t, 7, resp.Usage.OutputTokens)
}

func TestCustomGenerateHeaderAuth(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Acme-Key")
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"text": "ok"},
		})
	}))
	defer server.Close()

	cfg := customConfig(server.URL)
	cfg.Auth = types.AuthSpec{Kind: types.AuthHeader, KeyName: "X-Acme-Key"}

	adapter := NewCustom(cfg, "sk-test", server.Client(), nil, nil)
	_, err := adapter.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "sk-test", gotHeader)
}

func TestCustomGenerateQueryParamAuth(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("key")
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"text": "ok"},
		})
	}))
	defer server.Close()

	cfg := customConfig(server.URL)
	cfg.Auth = types.AuthSpec{Kind: types.AuthQueryParam}

	adapter := NewCustom(cfg, "sk-test", server.Client(), nil, nil)
	_, err := adapter.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "sk-test", gotQuery)
}

func TestCustomGenerateCancelledMidCall(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	cfg := customConfig(server.URL)
	cfg.Auth = types.AuthSpec{Kind: types.AuthQueryParam}

	adapter := NewCustom(cfg, "sk-cancel-me", server.Client(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := adapter.Generate(ctx, GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)

	// The key rides in the URL, so the transport error must be scrubbed
	// without losing the cancellation identity.
	assert.NotContains(t, err.Error(), "sk-cancel-me")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, Retryable(err))
}

func TestCustomGenerateStructuredShape(t *testing.T) {
	var gotBody map[string]any
	var gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.URL.Query().Get("api_version")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"text": "ok"},
		})
	}))
	defer server.Close()

	cfg := customConfig(server.URL)
	cfg.RequestTemplate = map[string]any{
		"body": map[string]any{
			"input": "{{prompt}}",
		},
		"query": map[string]any{
			"api_version": "2024-01",
		},
	}
	cfg.Shape = types.ShapeStructured

	adapter := NewCustom(cfg, "sk-test", server.Client(), nil, nil)
	_, err := adapter.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "2024-01", gotVersion)
	assert.Equal(t, "hello", gotBody["input"])
	_, hasBody := gotBody["body"]
	assert.False(t, hasBody, "structured body should be sent unwrapped")
}

func TestCustomGenerateEndpointPlaceholder(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"text": "ok"},
		})
	}))
	defer server.Close()

	cfg := customConfig(server.URL + "/models/{{model}}/generate")
	adapter := NewCustom(cfg, "sk-test", server.Client(), nil, nil)
	_, err := adapter.Generate(context.Background(), GenerateRequest{Model: "acme-1", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "/models/acme-1/generate", gotPath)
}

func TestCustomGenerateAPIErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "quota exceeded"},
		})
	}))
	defer server.Close()

	adapter := NewCustom(customConfig(server.URL), "sk-test", server.Client(), nil, nil)
	_, err := adapter.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "quota exceeded", apiErr.Message)
	assert.True(t, Retryable(err))
}

func TestCustomGenerateResponsePathMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"unexpected": "shape"})
	}))
	defer server.Close()

	adapter := NewCustom(customConfig(server.URL), "sk-test", server.Client(), nil, nil)
	_, err := adapter.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not find response at path: result.text")
	assert.False(t, Retryable(err))
}

func TestCustomGenerateNonStringResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"text": []any{"part1", "part2"}},
		})
	}))
	defer server.Close()

	adapter := NewCustom(customConfig(server.URL), "sk-test", server.Client(), nil, nil)
	resp, err := adapter.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, `["part1","part2"]`, resp.Text)
}

func TestCustomGenerateGuards(t *testing.T) {
	adapter := NewCustom(customConfig("http://localhost:0"), "", nil, nil, nil)
	_, err := adapter.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	adapter = NewCustom(customConfig("http://localhost:0"), "sk-test", nil, nil, nil)
	_, err = adapter.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "  "})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestCustomGenerateFallbackEstimate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"text": "12345678"},
		})
	}))
	defer server.Close()

	adapter := NewCustom(customConfig(server.URL), "sk-test", server.Client(), nil, nil)
	resp, err := adapter.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "12345678"})
	require.NoError(t, err)
	assert.True(t, resp.Usage.Approximate)
	assert.Equal(t, 2, resp.Usage.InputTokens)
	assert.Equal(t, 2, resp.Usage.OutputTokens)
}
