package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/strand-ai/strand/pkg/types"
)

// Custom implements Adapter for a template-driven provider
// configuration: it renders the stored request template, applies the
// configured auth placement, and extracts the reply via the response
// path.
type Custom struct {
	cfg       *types.CustomProvider
	apiKey    string
	client    *http.Client
	estimator TokenEstimator
	logger    *zap.Logger
}

// NewCustom creates an adapter bound to a custom provider configuration.
func NewCustom(cfg *types.CustomProvider, apiKey string, client *http.Client, estimator TokenEstimator, logger *zap.Logger) *Custom {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Custom{cfg: cfg, apiKey: apiKey, client: client, estimator: estimator, logger: logger}
}

func (c *Custom) Name() string { return c.cfg.ID }

// Generate renders and issues one templated call.
func (c *Custom) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return GenerateResponse{}, ErrMissingAPIKey
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return GenerateResponse{}, ErrEmptyPrompt
	}

	vars := map[string]string{
		"prompt":  req.Prompt,
		"model":   req.Model,
		"api_key": c.apiKey,
	}

	body, query := c.renderRequest(vars)

	endpoint := substitute(c.cfg.Endpoint, vars)
	target, err := url.Parse(endpoint)
	if err != nil {
		return GenerateResponse{}, redactSecret(fmt.Errorf("invalid endpoint: %w", err), c.apiKey)
	}
	params := target.Query()
	for k, v := range query {
		params.Set(k, v)
	}
	if c.cfg.Auth.Kind == types.AuthQueryParam {
		name := c.cfg.Auth.KeyName
		if name == "" {
			name = "key"
		}
		params.Set(name, c.apiKey)
	}
	target.RawQuery = params.Encode()

	method := c.cfg.Method
	if method == "" {
		method = http.MethodPost
	}

	hReq, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return GenerateResponse{}, redactSecret(fmt.Errorf("build request: %w", err), c.apiKey)
	}
	switch c.cfg.Auth.Kind {
	case types.AuthBearer:
		name := c.cfg.Auth.KeyName
		if name == "" {
			name = "Authorization"
		}
		hReq.Header.Set(name, "Bearer "+c.apiKey)
	case types.AuthHeader:
		hReq.Header.Set(c.cfg.Auth.KeyName, c.apiKey)
	}

	c.logger.Debug("calling custom provider",
		zap.String("provider", c.cfg.ID),
		zap.String("model", req.Model),
	)

	raw, err := DoJSON(ctx, c.client, hReq, body)
	if err != nil {
		return GenerateResponse{}, redactSecret(err, c.apiKey)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return GenerateResponse{}, fmt.Errorf("parse response: %w", err)
	}
	value, err := ExtractPath(doc, c.cfg.ResponsePath)
	if err != nil {
		return GenerateResponse{}, err
	}

	text, ok := value.(string)
	if !ok {
		encoded, err := json.Marshal(value)
		if err != nil {
			return GenerateResponse{}, fmt.Errorf("response at path %s is not text", c.cfg.ResponsePath)
		}
		text = string(encoded)
	}

	return GenerateResponse{
		Text:  text,
		Usage: c.estimateUsage(req.Prompt, text),
		Raw:   raw,
	}, nil
}

// renderRequest substitutes template placeholders, splitting out the
// query section when the stored shape is structured.
func (c *Custom) renderRequest(vars map[string]string) (any, map[string]string) {
	shape := c.cfg.Shape
	if shape == "" {
		shape = DetectShape(c.cfg.RequestTemplate)
	}

	tmpl, isMap := c.cfg.RequestTemplate.(map[string]any)
	if shape == types.ShapeStructured && isMap {
		body := Render(tmpl["body"], vars)

		query := make(map[string]string)
		if q, ok := tmpl["query"].(map[string]any); ok {
			for k, v := range q {
				if s, ok := v.(string); ok {
					query[k] = substitute(s, vars)
				} else {
					query[k] = fmt.Sprint(v)
				}
			}
		}
		return body, query
	}

	return Render(c.cfg.RequestTemplate, vars), nil
}

// estimateUsage approximates token counts; custom providers have no
// common usage reporting, so the counts are always tagged approximate.
func (c *Custom) estimateUsage(prompt, output string) types.TokenUsage {
	usage := types.TokenUsage{Approximate: true}
	if c.estimator == nil {
		usage.InputTokens = len(prompt) / 4
		usage.OutputTokens = len(output) / 4
		return usage
	}
	usage.InputTokens = c.estimator.Estimate(prompt)
	usage.OutputTokens = c.estimator.Estimate(output)
	return usage
}
