package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/strand-ai/strand/pkg/types"
)

// WorkflowStore handles saved workflow definitions, serialized as YAML.
type WorkflowStore struct {
	store *Store
}

// NewWorkflowStore creates a new WorkflowStore.
func NewWorkflowStore(store *Store) *WorkflowStore {
	return &WorkflowStore{store: store}
}

// SaveWorkflow inserts or replaces a workflow definition.
func (ws *WorkflowStore) SaveWorkflow(workflow *types.Workflow) error {
	ws.store.mu.Lock()
	defer ws.store.mu.Unlock()

	now := time.Now()
	if workflow.ID == "" {
		workflow.ID = uuid.NewString()
	}
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}
	workflow.UpdatedAt = now

	content, err := yaml.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	_, err = ws.store.db.Exec(`
		INSERT INTO workflow (id, name, definition, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			definition = excluded.definition,
			updated_at = excluded.updated_at
	`,
		workflow.ID,
		workflow.Name,
		string(content),
		workflow.CreatedAt.Format(time.RFC3339),
		workflow.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

// GetWorkflow retrieves a workflow by ID. Returns nil when not found.
func (ws *WorkflowStore) GetWorkflow(id string) (*types.Workflow, error) {
	ws.store.mu.RLock()
	defer ws.store.mu.RUnlock()

	var content string
	err := ws.store.db.QueryRow(
		"SELECT definition FROM workflow WHERE id = ?",
		id,
	).Scan(&content)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	var workflow types.Workflow
	if err := yaml.Unmarshal([]byte(content), &workflow); err != nil {
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}
	return &workflow, nil
}

// ListWorkflows returns all saved workflows, most recently updated first.
func (ws *WorkflowStore) ListWorkflows() ([]*types.Workflow, error) {
	ws.store.mu.RLock()
	defer ws.store.mu.RUnlock()

	rows, err := ws.store.db.Query(
		"SELECT definition FROM workflow ORDER BY updated_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	workflows := make([]*types.Workflow, 0)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		var workflow types.Workflow
		if err := yaml.Unmarshal([]byte(content), &workflow); err != nil {
			return nil, fmt.Errorf("failed to parse workflow: %w", err)
		}
		workflows = append(workflows, &workflow)
	}
	return workflows, rows.Err()
}

// UpdateWorkflow applies a partial update to a saved workflow.
func (ws *WorkflowStore) UpdateWorkflow(id string, update *types.WorkflowUpdate) error {
	workflow, err := ws.GetWorkflow(id)
	if err != nil {
		return err
	}
	if workflow == nil {
		return fmt.Errorf("workflow not found: %s", id)
	}

	if update.Name != nil {
		workflow.Name = *update.Name
	}
	if update.Description != nil {
		workflow.Description = *update.Description
	}
	if update.Agents != nil {
		workflow.Agents = update.Agents
	}

	return ws.SaveWorkflow(workflow)
}

// DeleteWorkflow removes a saved workflow.
func (ws *WorkflowStore) DeleteWorkflow(id string) error {
	ws.store.mu.Lock()
	defer ws.store.mu.Unlock()

	result, err := ws.store.db.Exec("DELETE FROM workflow WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("workflow not found: %s", id)
	}
	return nil
}
