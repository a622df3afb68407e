// Package types provides shared type definitions for the Strand system.
package types

// ProviderRef identifies the provider an agent is bound to: either a
// built-in tag ("anthropic", "openai", "gemini") or the ID of a custom
// provider configuration.
type ProviderRef string

// Built-in provider tags.
const (
	ProviderAnthropic ProviderRef = "anthropic"
	ProviderOpenAI    ProviderRef = "openai"
	ProviderGemini    ProviderRef = "gemini"
)

// IsBuiltin reports whether the reference names a built-in provider.
func (r ProviderRef) IsBuiltin() bool {
	switch r {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini:
		return true
	}
	return false
}

// AgentDefinition describes one step of a workflow chain: a role prompt
// bound to a provider and model. Immutable while a run is in progress.
type AgentDefinition struct {
	ID       string      `json:"id" yaml:"id"`
	Title    string      `json:"title" yaml:"title"`
	Prompt   string      `json:"prompt" yaml:"prompt"`
	Provider ProviderRef `json:"provider" yaml:"provider"`
	Model    string      `json:"model" yaml:"model"`
}

// Resolved reports whether the agent has both a provider and a model,
// the precondition for it to take part in a run.
func (a *AgentDefinition) Resolved() bool {
	return a.Provider != "" && a.Model != ""
}

// Label returns a human-readable name for error messages.
func (a *AgentDefinition) Label() string {
	if a.Title != "" {
		return a.Title
	}
	return a.ID
}
