package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunatria/starlight/internal/audit"
	"github.com/lunatria/starlight/internal/cache"
	"github.com/lunatria/starlight/internal/config"
	"github.com/lunatria/starlight/internal/credentials"
	"github.com/lunatria/starlight/internal/observability"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

func newTestVault(t *testing.T) *credentials.Vault {
	t.Helper()
	vault, err := credentials.NewVault([]byte(testEncryptionKey), credentials.NewMemoryStore(), observability.NopLogger())
	require.NoError(t, err)
	return vault
}

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.New(&config.CacheConfig{Type: config.CacheTypeMemory}, observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// jellyfinBackend is a token-kind backend double. It counts login calls
// and rejects anything but alice/secret.
func jellyfinBackend(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/Users/AuthenticateByName", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Emby-Authorization"))

		var body struct {
			Username string `json:"Username"`
			Pw       string `json:"Pw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body.Username != "alice" || body.Pw != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"AccessToken":"tok-123","ServerId":"srv-1","User":{"Id":"jf-alice"}}`))
	}))
}

// radarrBackend is a cookie-kind backend double. A good login answers
// 302 with a session cookie; a bad one answers 200 with the login page.
func radarrBackend(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "/login", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "on", r.PostFormValue("rememberMe"))

		if r.PostFormValue("username") != "alice" || r.PostFormValue("password") != "secret" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("<html>login</html>"))
			return
		}

		http.SetCookie(w, &http.Cookie{Name: "RadarrAuth", Value: "cookie-abc", Path: "/"})
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusFound)
	}))
}

func tokenServiceConfig(name, baseURL string) config.ServiceConfig {
	return config.ServiceConfig{
		Name:         name,
		Kind:         KindToken,
		BaseURL:      baseURL,
		AuthPath:     "/Users/AuthenticateByName",
		ClientHeader: `MediaBrowser Client="Starlight", Device="Gateway", DeviceId="gw", Version="1.0"`,
	}
}

func cookieServiceConfig(name, baseURL string) config.ServiceConfig {
	return config.ServiceConfig{
		Name:       name,
		Kind:       KindCookie,
		BaseURL:    baseURL,
		AuthPath:   "/login",
		CookieName: "RadarrAuth",
	}
}

func TestTokenBridgeLogin(t *testing.T) {
	var calls atomic.Int64
	backend := jellyfinBackend(t, &calls)
	defer backend.Close()

	b, err := New(tokenServiceConfig("jellyfin", backend.URL), observability.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, KindToken, b.Kind())

	cred, err := b.Login(context.Background(), credentials.BasicCredential{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", cred.AccessToken)
	assert.Equal(t, "srv-1", cred.ServerID)
	assert.Equal(t, "jf-alice", cred.BackendUserID)
}

func TestTokenBridgeRejectedLogin(t *testing.T) {
	var calls atomic.Int64
	backend := jellyfinBackend(t, &calls)
	defer backend.Close()

	b, err := New(tokenServiceConfig("jellyfin", backend.URL), observability.NopLogger())
	require.NoError(t, err)

	_, err = b.Login(context.Background(), credentials.BasicCredential{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestTokenBridgeMissingFields(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"AccessToken":"tok-123"}`))
	}))
	defer backend.Close()

	b, err := New(tokenServiceConfig("jellyfin", backend.URL), observability.NopLogger())
	require.NoError(t, err)

	_, err = b.Login(context.Background(), credentials.BasicCredential{Username: "alice", Password: "secret"})
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestCookieBridgeLogin(t *testing.T) {
	var calls atomic.Int64
	backend := radarrBackend(t, &calls)
	defer backend.Close()

	b, err := New(cookieServiceConfig("radarr", backend.URL), observability.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, KindCookie, b.Kind())

	cred, err := b.Login(context.Background(), credentials.BasicCredential{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "RadarrAuth=cookie-abc", cred.Cookie)
}

func TestCookieBridgeTreats200AsFailure(t *testing.T) {
	var calls atomic.Int64
	backend := radarrBackend(t, &calls)
	defer backend.Close()

	b, err := New(cookieServiceConfig("radarr", backend.URL), observability.NopLogger())
	require.NoError(t, err)

	_, err = b.Login(context.Background(), credentials.BasicCredential{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestCookieBridgeMissingCookie(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusFound)
	}))
	defer backend.Close()

	b, err := New(cookieServiceConfig("radarr", backend.URL), observability.NopLogger())
	require.NoError(t, err)

	_, err = b.Login(context.Background(), credentials.BasicCredential{Username: "alice", Password: "secret"})
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(config.ServiceConfig{Name: "x", Kind: "saml"}, observability.NopLogger())
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "jellyfin:token:alice", CacheKey("jellyfin", KindToken, "alice"))
	assert.Equal(t, "radarr:cookie:alice", CacheKey("radarr", KindCookie, "alice"))
}

func TestResolverCachesDerivedCredential(t *testing.T) {
	var calls atomic.Int64
	backend := jellyfinBackend(t, &calls)
	defer backend.Close()

	vault := newTestVault(t)
	ctx := context.Background()
	require.NoError(t, vault.Set(ctx, "alice", "jellyfin", credentials.BasicCredential{Username: "alice", Password: "secret"}))

	auditor := audit.NewMemoryRecorder()
	resolver, err := NewResolver(
		[]config.ServiceConfig{tokenServiceConfig("jellyfin", backend.URL)},
		vault, newTestCache(t), auditor, observability.NopLogger(),
	)
	require.NoError(t, err)

	first, err := resolver.Resolve(ctx, "alice", "jellyfin", "/jellyfin/web")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", first.AccessToken)
	assert.Equal(t, int64(1), calls.Load())

	second, err := resolver.Resolve(ctx, "alice", "jellyfin", "/jellyfin/web")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load(), "second resolve must be served from cache")

	entries, err := auditor.Query(ctx, audit.Filter{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Using cached token", entries[0].Reason)
	assert.Equal(t, "New token generated", entries[1].Reason)
	for _, e := range entries {
		assert.Equal(t, audit.StatusSuccess, e.Status)
		assert.Equal(t, "/jellyfin/web", e.Path)
	}
}

func TestResolverNoStoredCredential(t *testing.T) {
	var calls atomic.Int64
	backend := jellyfinBackend(t, &calls)
	defer backend.Close()

	auditor := audit.NewMemoryRecorder()
	resolver, err := NewResolver(
		[]config.ServiceConfig{tokenServiceConfig("jellyfin", backend.URL)},
		newTestVault(t), newTestCache(t), auditor, observability.NopLogger(),
	)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = resolver.Resolve(ctx, "bob", "jellyfin", "/jellyfin/web")
	assert.ErrorIs(t, err, ErrNoStoredCredential)
	assert.Equal(t, int64(0), calls.Load())

	// A provisioning gap is not an authentication attempt, so nothing
	// is audited.
	entries, err := auditor.Query(ctx, audit.Filter{UserID: "bob"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResolverCompletesAfterClientDisconnect(t *testing.T) {
	var calls atomic.Int64
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"AccessToken":"tok-123","ServerId":"srv-1","User":{"Id":"jf-alice"}}`))
	}))
	defer backend.Close()

	vault := newTestVault(t)
	require.NoError(t, vault.Set(context.Background(), "alice", "jellyfin",
		credentials.BasicCredential{Username: "alice", Password: "secret"}))

	auditor := audit.NewMemoryRecorder()
	resolver, err := NewResolver(
		[]config.ServiceConfig{tokenServiceConfig("jellyfin", backend.URL)},
		vault, newTestCache(t), auditor, observability.NopLogger(),
	)
	require.NoError(t, err)

	// The client goes away while the backend login is in flight. The
	// login must still complete, be cached, and be audited.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	cred, err := resolver.Resolve(ctx, "alice", "jellyfin", "/jellyfin/web")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", cred.AccessToken)
	require.Equal(t, int64(1), calls.Load())

	second, err := resolver.Resolve(context.Background(), "alice", "jellyfin", "/jellyfin/web")
	require.NoError(t, err)
	assert.Equal(t, cred, second)
	assert.Equal(t, int64(1), calls.Load(), "completed login must have been cached")

	entries, err := auditor.Query(context.Background(), audit.Filter{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Using cached token", entries[0].Reason)
	assert.Equal(t, "New token generated", entries[1].Reason)
}

func TestResolverAuditsFailedLogin(t *testing.T) {
	var calls atomic.Int64
	backend := radarrBackend(t, &calls)
	defer backend.Close()

	vault := newTestVault(t)
	ctx := context.Background()
	require.NoError(t, vault.Set(ctx, "alice", "radarr", credentials.BasicCredential{Username: "alice", Password: "stale"}))

	auditor := audit.NewMemoryRecorder()
	resolver, err := NewResolver(
		[]config.ServiceConfig{cookieServiceConfig("radarr", backend.URL)},
		vault, newTestCache(t), auditor, observability.NopLogger(),
	)
	require.NoError(t, err)

	_, err = resolver.Resolve(ctx, "alice", "radarr", "/radarr")
	assert.ErrorIs(t, err, ErrLoginFailed)

	entries, err := auditor.Query(ctx, audit.Filter{UserID: "alice", Service: "radarr"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.StatusFail, entries[0].Status)
	assert.Contains(t, entries[0].Reason, "Authentication failed")
}

func TestResolverUnknownService(t *testing.T) {
	resolver, err := NewResolver(nil, newTestVault(t), newTestCache(t), audit.NewMemoryRecorder(), observability.NopLogger())
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "alice", "ghost", "/")
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestResolverInvalidate(t *testing.T) {
	var calls atomic.Int64
	backend := radarrBackend(t, &calls)
	defer backend.Close()

	vault := newTestVault(t)
	ctx := context.Background()
	require.NoError(t, vault.Set(ctx, "alice", "radarr", credentials.BasicCredential{Username: "alice", Password: "secret"}))

	resolver, err := NewResolver(
		[]config.ServiceConfig{cookieServiceConfig("radarr", backend.URL)},
		vault, newTestCache(t), audit.NewMemoryRecorder(), observability.NopLogger(),
	)
	require.NoError(t, err)

	_, err = resolver.Resolve(ctx, "alice", "radarr", "/radarr")
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())

	require.NoError(t, resolver.Invalidate(ctx, "alice", "radarr"))

	_, err = resolver.Resolve(ctx, "alice", "radarr", "/radarr")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load(), "invalidate must force a fresh login")

	assert.ErrorIs(t, resolver.Invalidate(ctx, "alice", "ghost"), ErrUnknownService)
}

func TestResolverCookieCacheTTL(t *testing.T) {
	var calls atomic.Int64
	backend := radarrBackend(t, &calls)
	defer backend.Close()

	resolver, err := NewResolver(
		[]config.ServiceConfig{cookieServiceConfig("radarr", backend.URL)},
		newTestVault(t), newTestCache(t), audit.NewMemoryRecorder(), observability.NopLogger(),
	)
	require.NoError(t, err)

	cfg, ok := resolver.Service("radarr")
	require.True(t, ok)
	assert.Equal(t, CookieTTL, resolver.cacheTTL(cfg, KindCookie))
	assert.Equal(t, time.Duration(0), resolver.cacheTTL(cfg, KindToken))
}
