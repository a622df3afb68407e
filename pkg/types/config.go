package types

// Config represents the main configuration for Strand.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Crypto CryptoConfig `yaml:"crypto"`
	Engine EngineConfig `yaml:"engine"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig defines persistence settings.
type StoreConfig struct {
	Path string `yaml:"path"` // path to the sqlite database file
}

// CryptoConfig defines encryption settings.
type CryptoConfig struct {
	IdentityPath string `yaml:"identity_path"` // path to age identity file
}

// EngineConfig defines workflow execution settings.
type EngineConfig struct {
	MaxRetries        int `yaml:"max_retries"`         // retries beyond the first attempt
	BaseDelayMS       int `yaml:"base_delay_ms"`       // backoff base, doubled per retry
	RequestTimeoutSec int `yaml:"request_timeout_sec"` // per provider call
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreConfig{
			Path: "./strand.db",
		},
		Crypto: CryptoConfig{
			IdentityPath: "./strand.key",
		},
		Engine: EngineConfig{
			MaxRetries:        3,
			BaseDelayMS:       1000,
			RequestTimeoutSec: 60,
		},
	}
}
