package sitegate

import (
	"errors"
	"time"

	"github.com/strukta/sitegate/cache"
	"github.com/strukta/sitegate/credential"
)

// Config is the full engine configuration. Configure during initialization
// and treat as immutable afterwards; Build validates it once.
type Config struct {
	Credential credential.Config
	Cache      cache.Config
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the request path when the
	// buffer is full. Dropped events are counted.
	DropIfFull bool
}

// MetricsConfig controls the engine's atomic counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the recommended starting configuration. Key
// material for the credential manager must still be supplied.
func DefaultConfig() Config {
	return Config{
		Credential: credential.Config{
			SigningMethod: credential.MethodEd25519,
			Leeway:        30 * time.Second,
		},
		Cache: cache.Config{
			TTL:          10 * time.Minute,
			RefreshAhead: 150 * time.Second,
			MaxEntries:   4096,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Credential.PrivateKey = cloneBytes(cfg.Credential.PrivateKey)
	out.Credential.PublicKey = cloneBytes(cfg.Credential.PublicKey)
	if cfg.Credential.VerifyKeys != nil {
		keys := make(map[string][]byte, len(cfg.Credential.VerifyKeys))
		for kid, key := range cfg.Credential.VerifyKeys {
			keys[kid] = cloneBytes(key)
		}
		out.Credential.VerifyKeys = keys
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// validate covers the engine-level fields; the credential manager and the
// cache validate their own sections on construction.
func (c *Config) validate() error {
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}
