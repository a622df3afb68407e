package types

import "time"

// Workflow is a user-authored, ordered chain of agents. Stored in the
// workflow store as YAML.
type Workflow struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Agents      []AgentDefinition `json:"agents" yaml:"agents"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" yaml:"updated_at"`
}

// WorkflowUpdate contains fields that can be updated on a saved workflow.
type WorkflowUpdate struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Agents      []AgentDefinition `json:"agents,omitempty"`
}
