package crypto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/strand-ai/strand/pkg/types"
)

// PayloadVersion is the current encrypted payload format version.
const PayloadVersion = 1

// PayloadService handles encryption and decryption of payload data.
type PayloadService struct {
	keyManager *KeyManager
}

// NewPayloadService creates a new PayloadService.
func NewPayloadService(keyManager *KeyManager) *PayloadService {
	return &PayloadService{
		keyManager: keyManager,
	}
}

// EncryptJSON encrypts any JSON-serializable data.
func (ps *PayloadService) EncryptJSON(data any) (*types.EncryptedPayload, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}

	ciphertext, err := EncryptToRecipient(plaintext, ps.keyManager.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}

	return &types.EncryptedPayload{
		Version:    PayloadVersion,
		Recipient:  ps.keyManager.PublicKeyHint(),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// DecryptJSON decrypts an EncryptedPayload into a target struct.
func (ps *PayloadService) DecryptJSON(payload *types.EncryptedPayload, target any) error {
	if payload == nil {
		return fmt.Errorf("payload is nil")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(payload.Ciphertext)
	if err != nil {
		return fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	plaintext, err := DecryptWithIdentity(ciphertext, ps.keyManager.Identity())
	if err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}

	if err := json.Unmarshal(plaintext, target); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}

	return nil
}
