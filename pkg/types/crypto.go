package types

// EncryptedPayload contains age-encrypted data.
type EncryptedPayload struct {
	Version    int    `json:"v"` // payload format version
	Recipient  string `json:"r"` // age public key hint
	Ciphertext string `json:"c"` // base64 age ciphertext
}

// ProviderCredential is the plaintext form of a stored API key. It only
// ever exists in memory; at rest it is an EncryptedPayload.
type ProviderCredential struct {
	APIKey string `json:"api_key"`
}
