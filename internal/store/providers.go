package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strand-ai/strand/internal/provider"
	"github.com/strand-ai/strand/pkg/types"
)

// ProviderStore handles custom provider configurations and the
// encrypted credentials for all providers, built-in tags included.
type ProviderStore struct {
	store *Store
}

// NewProviderStore creates a new ProviderStore.
func NewProviderStore(store *Store) *ProviderStore {
	return &ProviderStore{store: store}
}

// SaveProvider creates a new custom provider configuration. The request
// shape is classified here, once, and stored with the row.
func (ps *ProviderStore) SaveProvider(cfg *types.CustomProvider) error {
	ps.store.mu.Lock()
	defer ps.store.mu.Unlock()

	now := time.Now()
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	cfg.Shape = provider.DetectShape(cfg.RequestTemplate)

	templateJSON, err := json.Marshal(cfg.RequestTemplate)
	if err != nil {
		return fmt.Errorf("failed to marshal request template: %w", err)
	}
	modelsJSON := ""
	if len(cfg.Models) > 0 {
		data, _ := json.Marshal(cfg.Models)
		modelsJSON = string(data)
	}

	_, err = ps.store.db.Exec(`
		INSERT INTO provider (
			id, name, endpoint, method, auth_kind, auth_key_name,
			request_template, shape, response_path, models,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			endpoint = excluded.endpoint,
			method = excluded.method,
			auth_kind = excluded.auth_kind,
			auth_key_name = excluded.auth_key_name,
			request_template = excluded.request_template,
			shape = excluded.shape,
			response_path = excluded.response_path,
			models = excluded.models,
			updated_at = excluded.updated_at
	`,
		cfg.ID,
		cfg.Name,
		cfg.Endpoint,
		cfg.Method,
		string(cfg.Auth.Kind),
		cfg.Auth.KeyName,
		string(templateJSON),
		string(cfg.Shape),
		cfg.ResponsePath,
		modelsJSON,
		cfg.CreatedAt.Format(time.RFC3339),
		cfg.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save provider: %w", err)
	}

	return nil
}

// GetProvider retrieves a custom provider by ID. Returns nil when not
// found. Implements provider.ConfigSource.
func (ps *ProviderStore) GetProvider(id string) (*types.CustomProvider, error) {
	ps.store.mu.RLock()
	defer ps.store.mu.RUnlock()

	row := ps.store.db.QueryRow(`
		SELECT id, name, endpoint, method, auth_kind, auth_key_name,
			request_template, shape, response_path, models,
			created_at, updated_at
		FROM provider WHERE id = ?
	`, id)

	cfg, err := scanProvider(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return cfg, err
}

// ListProviders returns all custom provider configurations.
func (ps *ProviderStore) ListProviders() ([]*types.CustomProvider, error) {
	ps.store.mu.RLock()
	defer ps.store.mu.RUnlock()

	rows, err := ps.store.db.Query(`
		SELECT id, name, endpoint, method, auth_kind, auth_key_name,
			request_template, shape, response_path, models,
			created_at, updated_at
		FROM provider ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	providers := make([]*types.CustomProvider, 0)
	for rows.Next() {
		cfg, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, cfg)
	}
	return providers, rows.Err()
}

// UpdateProvider applies a partial update. A changed request template is
// re-classified, keeping the stored shape in step with the template.
func (ps *ProviderStore) UpdateProvider(id string, update *types.CustomProviderUpdate) error {
	ps.store.mu.Lock()
	defer ps.store.mu.Unlock()

	var setClauses []string
	var args []any

	if update.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Endpoint != nil {
		setClauses = append(setClauses, "endpoint = ?")
		args = append(args, *update.Endpoint)
	}
	if update.Method != nil {
		setClauses = append(setClauses, "method = ?")
		args = append(args, *update.Method)
	}
	if update.Auth != nil {
		setClauses = append(setClauses, "auth_kind = ?", "auth_key_name = ?")
		args = append(args, string(update.Auth.Kind), update.Auth.KeyName)
	}
	if update.RequestTemplate != nil {
		data, err := json.Marshal(update.RequestTemplate)
		if err != nil {
			return fmt.Errorf("failed to marshal request template: %w", err)
		}
		setClauses = append(setClauses, "request_template = ?", "shape = ?")
		args = append(args, string(data), string(provider.DetectShape(update.RequestTemplate)))
	}
	if update.ResponsePath != nil {
		setClauses = append(setClauses, "response_path = ?")
		args = append(args, *update.ResponsePath)
	}
	if update.Models != nil {
		data, _ := json.Marshal(update.Models)
		setClauses = append(setClauses, "models = ?")
		args = append(args, string(data))
	}

	if len(setClauses) == 0 {
		return nil
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().Format(time.RFC3339))
	args = append(args, id)

	query := fmt.Sprintf("UPDATE provider SET %s WHERE id = ?",
		strings.Join(setClauses, ", "))
	result, err := ps.store.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("provider not found: %s", id)
	}
	return nil
}

// DeleteProvider removes a custom provider and its credential.
func (ps *ProviderStore) DeleteProvider(id string) error {
	ps.store.mu.Lock()
	defer ps.store.mu.Unlock()

	result, err := ps.store.db.Exec("DELETE FROM provider WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("provider not found: %s", id)
	}
	_, _ = ps.store.db.Exec("DELETE FROM credential WHERE provider_ref = ?", id)
	return nil
}

// SetCredential stores the encrypted credential for a provider
// reference (built-in tag or custom provider ID).
func (ps *ProviderStore) SetCredential(ref types.ProviderRef, payload *types.EncryptedPayload) error {
	ps.store.mu.Lock()
	defer ps.store.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal credential payload: %w", err)
	}

	_, err = ps.store.db.Exec(`
		INSERT INTO credential (provider_ref, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(provider_ref) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, string(ref), string(data), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// GetCredential retrieves the encrypted credential for a provider
// reference. Returns nil when none is stored.
func (ps *ProviderStore) GetCredential(ref types.ProviderRef) (*types.EncryptedPayload, error) {
	ps.store.mu.RLock()
	defer ps.store.mu.RUnlock()

	var data string
	err := ps.store.db.QueryRow(
		"SELECT payload FROM credential WHERE provider_ref = ?",
		string(ref),
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	var payload types.EncryptedPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse credential payload: %w", err)
	}
	return &payload, nil
}

// DeleteCredential removes a stored credential.
func (ps *ProviderStore) DeleteCredential(ref types.ProviderRef) error {
	ps.store.mu.Lock()
	defer ps.store.mu.Unlock()

	_, err := ps.store.db.Exec("DELETE FROM credential WHERE provider_ref = ?", string(ref))
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanProvider.
type scanner interface {
	Scan(dest ...any) error
}

func scanProvider(row scanner) (*types.CustomProvider, error) {
	var cfg types.CustomProvider
	var authKind, shape, templateJSON, modelsJSON string
	var createdAt, updatedAt string

	err := row.Scan(
		&cfg.ID,
		&cfg.Name,
		&cfg.Endpoint,
		&cfg.Method,
		&authKind,
		&cfg.Auth.KeyName,
		&templateJSON,
		&shape,
		&cfg.ResponsePath,
		&modelsJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.Auth.Kind = types.AuthKind(authKind)
	cfg.Shape = types.RequestShape(shape)
	if templateJSON != "" {
		if err := json.Unmarshal([]byte(templateJSON), &cfg.RequestTemplate); err != nil {
			return nil, fmt.Errorf("failed to parse request template: %w", err)
		}
	}
	if modelsJSON != "" {
		if err := json.Unmarshal([]byte(modelsJSON), &cfg.Models); err != nil {
			return nil, fmt.Errorf("failed to parse models: %w", err)
		}
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		cfg.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		cfg.UpdatedAt = t
	}
	return &cfg, nil
}
