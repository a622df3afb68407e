package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strand-ai/strand/pkg/types"
)

func testKeyManager(t *testing.T) *KeyManager {
	t.Helper()
	km := NewKeyManager(filepath.Join(t.TempDir(), "test.key"))
	require.NoError(t, km.Initialize())
	return km
}

func TestKeyManagerGeneratesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.key")

	km := NewKeyManager(path)
	require.NoError(t, km.Initialize())
	assert.NotEmpty(t, km.PublicKey())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second manager on the same path loads the same identity.
	km2 := NewKeyManager(path)
	require.NoError(t, km2.Initialize())
	assert.Equal(t, km.PublicKey(), km2.PublicKey())
}

func TestPayloadRoundTrip(t *testing.T) {
	ps := NewPayloadService(testKeyManager(t))

	cred := types.ProviderCredential{APIKey: "sk-very-secret"}
	payload, err := ps.EncryptJSON(cred)
	require.NoError(t, err)

	assert.Equal(t, PayloadVersion, payload.Version)
	assert.NotEmpty(t, payload.Ciphertext)
	// The key never appears in the stored payload.
	assert.NotContains(t, payload.Ciphertext, "sk-very-secret")

	var out types.ProviderCredential
	require.NoError(t, ps.DecryptJSON(payload, &out))
	assert.Equal(t, "sk-very-secret", out.APIKey)
}

func TestDecryptWithWrongIdentityFails(t *testing.T) {
	ps1 := NewPayloadService(testKeyManager(t))
	ps2 := NewPayloadService(testKeyManager(t))

	payload, err := ps1.EncryptJSON(types.ProviderCredential{APIKey: "sk-test"})
	require.NoError(t, err)

	var out types.ProviderCredential
	assert.Error(t, ps2.DecryptJSON(payload, &out))
}

func TestDecryptNilPayload(t *testing.T) {
	ps := NewPayloadService(testKeyManager(t))
	assert.Error(t, ps.DecryptJSON(nil, &struct{}{}))
}
