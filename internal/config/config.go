// Package config defines the gateway configuration model and loading.
package config

import "time"

// Service kinds supported by the downstream auth bridge.
const (
	ServiceKindToken  = "token"
	ServiceKindCookie = "cookie"
)

// Cache backend types.
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Config is the root gateway configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Domain     DomainConfig     `yaml:"domain"`
	Logging    LoggingConfig    `yaml:"logging"`
	Session    SessionConfig    `yaml:"session"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Cache      CacheConfig      `yaml:"cache"`
	Store      StoreConfig      `yaml:"store"`
	Secrets    SecretsConfig    `yaml:"secrets"`
	Services   []ServiceConfig  `yaml:"services"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address        string   `yaml:"address"`
	Port           int      `yaml:"port"`
	ReadTimeout    Duration `yaml:"readTimeout"`
	WriteTimeout   Duration `yaml:"writeTimeout"`
	IdleTimeout    Duration `yaml:"idleTimeout"`
	MaxHeaderBytes int      `yaml:"maxHeaderBytes"`
}

// DomainConfig describes the parent domain the gateway and its services
// are served under. Marker cookies are scoped to "." + Name.
type DomainConfig struct {
	Name string `yaml:"name"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SessionConfig holds session cookie configuration. The signing key can
// be provided inline or resolved through the secrets provider at
// startup.
type SessionConfig struct {
	CookieName       string   `yaml:"cookieName"`
	SigningKey       string   `yaml:"signingKey"`
	SigningKeySecret string   `yaml:"signingKeySecret"`
	TTL              Duration `yaml:"ttl"`
}

// EncryptionConfig holds the credential vault encryption key. The key must
// be exactly 32 bytes; it can be provided inline or resolved through the
// secrets provider at startup.
type EncryptionConfig struct {
	Key        string `yaml:"key"`
	SecretName string `yaml:"secretName"`
}

// CacheConfig holds derived-credential cache configuration.
type CacheConfig struct {
	Type  string            `yaml:"type"`
	Redis *RedisCacheConfig `yaml:"redis,omitempty"`
}

// RedisCacheConfig holds Redis-specific cache configuration.
type RedisCacheConfig struct {
	URL            string   `yaml:"url"`
	KeyPrefix      string   `yaml:"keyPrefix"`
	PoolSize       int      `yaml:"poolSize"`
	ConnectTimeout Duration `yaml:"connectTimeout"`
	ReadTimeout    Duration `yaml:"readTimeout"`
	WriteTimeout   Duration `yaml:"writeTimeout"`
}

// StoreConfig holds document store (MongoDB) configuration for the
// credential vault, audit log, and user directory.
type StoreConfig struct {
	URI            string   `yaml:"uri"`
	Database       string   `yaml:"database"`
	ConnectTimeout Duration `yaml:"connectTimeout"`
}

// SecretsConfig selects the secrets provider used to resolve startup
// secrets such as the encryption key and session signing key.
type SecretsConfig struct {
	Provider string              `yaml:"provider"`
	Env      *EnvSecretsConfig   `yaml:"env,omitempty"`
	Vault    *VaultSecretsConfig `yaml:"vault,omitempty"`
}

// EnvSecretsConfig configures the environment-variable secrets provider.
type EnvSecretsConfig struct {
	Prefix string `yaml:"prefix"`
}

// VaultSecretsConfig configures the HashiCorp Vault secrets provider.
type VaultSecretsConfig struct {
	Address   string `yaml:"address"`
	Token     string `yaml:"token"`
	Mount     string `yaml:"mount"`
	KVVersion int    `yaml:"kvVersion"`
}

// ServiceConfig describes one proxied downstream service.
type ServiceConfig struct {
	// Name is the service identifier used in routes, cache keys, audit
	// entries, and allow-lists (e.g. "jellyfin").
	Name string `yaml:"name"`

	// Kind selects the bridge strategy: "token" or "cookie".
	Kind string `yaml:"kind"`

	// BaseURL is the internal URL the gateway logs into.
	BaseURL string `yaml:"baseURL"`

	// PublicURL is the browser-facing URL the client is redirected to.
	PublicURL string `yaml:"publicURL"`

	// AuthPath is the backend login endpoint path. Defaults depend on Kind.
	AuthPath string `yaml:"authPath"`

	// ClientHeader is the client-identification header value sent on
	// token-kind logins (e.g. the X-Emby-Authorization value).
	ClientHeader string `yaml:"clientHeader"`

	// CookieName is the backend session cookie name for cookie-kind
	// services (e.g. "RadarrAuth").
	CookieName string `yaml:"cookieName"`

	// BridgePath is the public page a token-kind redirect targets, with
	// the token identifiers as query parameters.
	BridgePath string `yaml:"bridgePath"`

	// LoginTimeout bounds a single backend login call.
	LoginTimeout Duration `yaml:"loginTimeout"`

	// TokenTTL optionally expires cached token credentials. Zero keeps
	// the historical behaviour of caching tokens without expiry.
	TokenTTL Duration `yaml:"tokenTTL"`
}

// DefaultConfig returns a Config with default values applied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    Duration(30 * time.Second),
			WriteTimeout:   Duration(30 * time.Second),
			IdleTimeout:    Duration(120 * time.Second),
			MaxHeaderBytes: 1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Session: SessionConfig{
			CookieName:       "starlight_session",
			SigningKeySecret: "session-signing-key",
			TTL:              Duration(24 * time.Hour),
		},
		Encryption: EncryptionConfig{
			SecretName: "encryption-key",
		},
		Cache: CacheConfig{
			Type: CacheTypeMemory,
		},
		Store: StoreConfig{
			Database:       "starlight",
			ConnectTimeout: Duration(10 * time.Second),
		},
		Secrets: SecretsConfig{
			Provider: "env",
		},
	}
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()

	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = def.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = def.Server.IdleTimeout
	}
	if c.Server.MaxHeaderBytes == 0 {
		c.Server.MaxHeaderBytes = def.Server.MaxHeaderBytes
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Logging.Output == "" {
		c.Logging.Output = def.Logging.Output
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = def.Session.CookieName
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = def.Session.TTL
	}
	if c.Session.SigningKeySecret == "" {
		c.Session.SigningKeySecret = def.Session.SigningKeySecret
	}
	if c.Encryption.SecretName == "" {
		c.Encryption.SecretName = def.Encryption.SecretName
	}
	if c.Cache.Type == "" {
		c.Cache.Type = def.Cache.Type
	}
	if c.Store.Database == "" {
		c.Store.Database = def.Store.Database
	}
	if c.Store.ConnectTimeout == 0 {
		c.Store.ConnectTimeout = def.Store.ConnectTimeout
	}
	if c.Secrets.Provider == "" {
		c.Secrets.Provider = def.Secrets.Provider
	}

	for i := range c.Services {
		svc := &c.Services[i]
		if svc.AuthPath == "" {
			switch svc.Kind {
			case ServiceKindToken:
				svc.AuthPath = "/Users/AuthenticateByName"
			case ServiceKindCookie:
				svc.AuthPath = "/login"
			}
		}
		if svc.LoginTimeout == 0 {
			svc.LoginTimeout = Duration(10 * time.Second)
		}
		if svc.Kind == ServiceKindToken && svc.BridgePath == "" {
			svc.BridgePath = "/sso-bridge.html"
		}
	}
}

// Service returns the service configuration for the given name.
func (c *Config) Service(name string) (*ServiceConfig, bool) {
	for i := range c.Services {
		if c.Services[i].Name == name {
			return &c.Services[i], true
		}
	}
	return nil, false
}
