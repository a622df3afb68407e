// Package models provides model discovery and provider credential lookup.
package models

import (
	"fmt"
	"strings"
	"sync"

	"github.com/strand-ai/strand/internal/crypto"
	"github.com/strand-ai/strand/internal/store"
	"github.com/strand-ai/strand/pkg/types"
)

// Catalog maps models to providers and resolves provider credentials.
// Decrypted API keys are cached; the cache is dropped whenever a
// credential changes.
type Catalog struct {
	providers      *store.ProviderStore
	payloadService *crypto.PayloadService

	apiKeysMu sync.RWMutex
	apiKeys   map[types.ProviderRef]string

	builtinModels map[types.ProviderRef][]string
}

// NewCatalog creates a model Catalog.
func NewCatalog(providers *store.ProviderStore, payloadService *crypto.PayloadService) *Catalog {
	c := &Catalog{
		providers:      providers,
		payloadService: payloadService,
		apiKeys:        make(map[types.ProviderRef]string),
	}
	c.initBuiltinModels()
	return c
}

// initBuiltinModels sets up the known model lists for built-in providers.
func (c *Catalog) initBuiltinModels() {
	c.builtinModels = map[types.ProviderRef][]string{
		types.ProviderAnthropic: {
			"claude-sonnet-4-20250514",
			"claude-opus-4-20250514",
			"claude-3-5-sonnet-20241022",
			"claude-3-5-haiku-20241022",
			"claude-3-haiku-20240307",
		},
		types.ProviderOpenAI: {
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4-turbo",
			"gpt-3.5-turbo",
			"o1-preview",
			"o1-mini",
		},
		types.ProviderGemini: {
			"gemini-1.5-pro",
			"gemini-1.5-flash",
			"gemini-2.0-flash",
		},
	}
}

// ProviderForModel infers the built-in provider for a model name.
func (c *Catalog) ProviderForModel(model string) types.ProviderRef {
	for ref, models := range c.builtinModels {
		for _, m := range models {
			if m == model {
				return ref
			}
		}
	}

	switch {
	case strings.HasPrefix(model, "claude"):
		return types.ProviderAnthropic
	case strings.HasPrefix(model, "gpt"), strings.HasPrefix(model, "o1"):
		return types.ProviderOpenAI
	case strings.HasPrefix(model, "gemini"):
		return types.ProviderGemini
	}
	return ""
}

// ListModels returns the known models for a provider reference: the
// fixed list for built-ins, the stored list for custom providers.
func (c *Catalog) ListModels(ref types.ProviderRef) ([]string, error) {
	if models, ok := c.builtinModels[ref]; ok {
		out := make([]string, len(models))
		copy(out, models)
		return out, nil
	}

	cfg, err := c.providers.GetProvider(string(ref))
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("provider not found: %s", ref)
	}
	return cfg.Models, nil
}

// APIKey returns the decrypted API key for a provider reference.
// Implements the engine's credential lookup collaborator.
func (c *Catalog) APIKey(ref types.ProviderRef) (string, error) {
	c.apiKeysMu.RLock()
	if key, ok := c.apiKeys[ref]; ok {
		c.apiKeysMu.RUnlock()
		return key, nil
	}
	c.apiKeysMu.RUnlock()

	payload, err := c.providers.GetCredential(ref)
	if err != nil {
		return "", err
	}
	if payload == nil {
		return "", fmt.Errorf("provider not configured: %s", ref)
	}

	var cred types.ProviderCredential
	if err := c.payloadService.DecryptJSON(payload, &cred); err != nil {
		return "", fmt.Errorf("failed to decrypt API key: %w", err)
	}

	c.apiKeysMu.Lock()
	c.apiKeys[ref] = cred.APIKey
	c.apiKeysMu.Unlock()

	return cred.APIKey, nil
}

// SetAPIKey encrypts and stores an API key for a provider reference.
func (c *Catalog) SetAPIKey(ref types.ProviderRef, apiKey string) error {
	payload, err := c.payloadService.EncryptJSON(types.ProviderCredential{APIKey: apiKey})
	if err != nil {
		return fmt.Errorf("failed to encrypt API key: %w", err)
	}
	if err := c.providers.SetCredential(ref, payload); err != nil {
		return err
	}

	c.apiKeysMu.Lock()
	c.apiKeys[ref] = apiKey
	c.apiKeysMu.Unlock()

	return nil
}

// DeleteAPIKey removes a stored credential.
func (c *Catalog) DeleteAPIKey(ref types.ProviderRef) error {
	if err := c.providers.DeleteCredential(ref); err != nil {
		return err
	}

	c.apiKeysMu.Lock()
	delete(c.apiKeys, ref)
	c.apiKeysMu.Unlock()

	return nil
}

// HasCredential reports whether a credential is configured for ref.
func (c *Catalog) HasCredential(ref types.ProviderRef) bool {
	_, err := c.APIKey(ref)
	return err == nil
}

// ClearCache drops all cached decrypted keys.
func (c *Catalog) ClearCache() {
	c.apiKeysMu.Lock()
	c.apiKeys = make(map[types.ProviderRef]string)
	c.apiKeysMu.Unlock()
}
