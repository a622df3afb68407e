// Package provider implements provider-agnostic LLM calls: fixed-shape
// clients for the built-in vendors and a template-driven adapter for
// custom provider configurations.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/strand-ai/strand/pkg/types"
)

// GenerateRequest is a provider-agnostic text generation request.
type GenerateRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// GenerateResponse is a provider-agnostic generation response.
type GenerateResponse struct {
	Text  string
	Usage types.TokenUsage
	Raw   []byte
}

// Adapter is the common interface all provider clients satisfy.
type Adapter interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// TokenEstimator approximates a token count for text when the vendor
// does not report usage.
type TokenEstimator interface {
	Estimate(text string) int
}

// ConfigSource looks up stored custom provider configurations.
type ConfigSource interface {
	GetProvider(id string) (*types.CustomProvider, error)
}

// Registry resolves a provider reference plus credential into an Adapter.
type Registry struct {
	client    *http.Client
	configs   ConfigSource
	estimator TokenEstimator
	logger    *zap.Logger
}

// NewRegistry creates a Registry. The timeout applies to every provider
// call so a hung endpoint fails instead of blocking a run forever.
func NewRegistry(configs ConfigSource, estimator TokenEstimator, timeout time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		client:    &http.Client{Timeout: timeout},
		configs:   configs,
		estimator: estimator,
		logger:    logger,
	}
}

// Adapter returns a client for the referenced provider bound to the
// given credential.
func (r *Registry) Adapter(ref types.ProviderRef, apiKey string) (Adapter, error) {
	switch ref {
	case types.ProviderAnthropic:
		return NewAnthropic(apiKey, r.client), nil
	case types.ProviderOpenAI:
		return NewOpenAI(apiKey, r.client), nil
	case types.ProviderGemini:
		return NewGemini(apiKey, r.client), nil
	}

	if r.configs == nil {
		return nil, fmt.Errorf("unknown provider: %s", ref)
	}
	cfg, err := r.configs.GetProvider(string(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to load provider %s: %w", ref, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("unknown provider: %s", ref)
	}
	return NewCustom(cfg, apiKey, r.client, r.estimator, r.logger), nil
}
