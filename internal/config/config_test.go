package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
domain:
  name: lunatria.com
server:
  port: 9090
session:
  cookieName: starlight_session
  signingKey: ${SESSION_SIGNING_KEY:-dev-signing-key}
cache:
  type: redis
  redis:
    url: redis://localhost:6379
services:
  - name: jellyfin
    kind: token
    baseURL: http://jellyfin:8096
    publicURL: https://jellyfin.lunatria.com
    clientHeader: MediaBrowser Client="Starlight", Device="Server", DeviceId="unique-id-123", Version="1.0.0"
  - name: radarr
    kind: cookie
    baseURL: http://radarr:7878
    publicURL: https://radarr.lunatria.com
    cookieName: RadarrAuth
`

func TestLoadConfigFromReader(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "lunatria.com", cfg.Domain.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "dev-signing-key", cfg.Session.SigningKey)
	require.Len(t, cfg.Services, 2)

	jellyfin := cfg.Services[0]
	assert.Equal(t, ServiceKindToken, jellyfin.Kind)
	assert.Equal(t, "/Users/AuthenticateByName", jellyfin.AuthPath)
	assert.Equal(t, "/sso-bridge.html", jellyfin.BridgePath)
	assert.Equal(t, 10*time.Second, jellyfin.LoginTimeout.Duration())

	radarr := cfg.Services[1]
	assert.Equal(t, ServiceKindCookie, radarr.Kind)
	assert.Equal(t, "/login", radarr.AuthPath)
	assert.Equal(t, "RadarrAuth", radarr.CookieName)
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("SESSION_SIGNING_KEY", "from-env")

	cfg, err := LoadConfigFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Session.SigningKey)
}

func TestServiceLookup(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	svc, ok := cfg.Service("radarr")
	require.True(t, ok)
	assert.Equal(t, "radarr", svc.Name)

	_, ok = cfg.Service("komga")
	assert.False(t, ok)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfigFromReader(strings.NewReader(sampleConfig))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing domain",
			mutate:  func(c *Config) { c.Domain.Name = "" },
			wantErr: "domain",
		},
		{
			name:    "no services",
			mutate:  func(c *Config) { c.Services = nil },
			wantErr: "at least one service",
		},
		{
			name:    "unknown kind",
			mutate:  func(c *Config) { c.Services[0].Kind = "saml" },
			wantErr: "unsupported kind",
		},
		{
			name:    "cookie kind without cookie name",
			mutate:  func(c *Config) { c.Services[1].CookieName = "" },
			wantErr: "cookieName",
		},
		{
			name:    "token kind without client header",
			mutate:  func(c *Config) { c.Services[0].ClientHeader = "" },
			wantErr: "clientHeader",
		},
		{
			name:    "reserved service name",
			mutate:  func(c *Config) { c.Services[0].Name = "admin" },
			wantErr: "reserved",
		},
		{
			name: "duplicate service names",
			mutate: func(c *Config) {
				c.Services[1] = c.Services[0]
			},
			wantErr: "duplicate",
		},
		{
			name:    "redis cache without URL",
			mutate:  func(c *Config) { c.Cache.Redis = nil },
			wantErr: "redis URL",
		},
		{
			name:    "invalid base URL",
			mutate:  func(c *Config) { c.Services[0].BaseURL = "not a url" },
			wantErr: "invalid baseURL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)

	out, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))

	var back Duration
	require.NoError(t, back.UnmarshalJSON(out))
	assert.Equal(t, d, back)
}
