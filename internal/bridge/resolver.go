package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lunatria/starlight/internal/audit"
	"github.com/lunatria/starlight/internal/cache"
	"github.com/lunatria/starlight/internal/config"
	"github.com/lunatria/starlight/internal/credentials"
	"github.com/lunatria/starlight/internal/observability"
)

// Audit reasons. The cached/fresh wording is part of the audit log's
// public vocabulary, keep it stable.
const (
	reasonCachedToken  = "Using cached token"
	reasonCachedCookie = "Using cached cookie"
	reasonFreshToken   = "New token generated"
	reasonFreshCookie  = "New cookie generated"
)

type serviceBridge struct {
	cfg     config.ServiceConfig
	bridge  Bridge
	breaker *gobreaker.CircuitBreaker
}

// Resolver turns (user, service) into a live backend credential,
// consulting the cache first and falling back to a vault lookup plus a
// fresh backend login.
type Resolver struct {
	services map[string]*serviceBridge
	vault    *credentials.Vault
	cache    cache.Cache
	auditor  audit.Recorder
	metrics  *Metrics
	logger   observability.Logger
}

// NewResolver builds a Resolver with one bridge and circuit breaker per
// configured service.
func NewResolver(
	services []config.ServiceConfig,
	vault *credentials.Vault,
	credCache cache.Cache,
	auditor audit.Recorder,
	logger observability.Logger,
) (*Resolver, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	r := &Resolver{
		services: make(map[string]*serviceBridge, len(services)),
		vault:    vault,
		cache:    credCache,
		auditor:  auditor,
		metrics:  GetMetrics(),
		logger:   logger,
	}

	for _, svc := range services {
		b, err := New(svc, logger)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", svc.Name, err)
		}
		r.services[svc.Name] = &serviceBridge{
			cfg:    svc,
			bridge: b,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name: "bridge-" + svc.Name,
			}),
		}
	}

	return r, nil
}

// Resolve returns the live credential for a user and service. The path
// is recorded in the audit trail only.
func (r *Resolver) Resolve(ctx context.Context, userID, service, path string) (Credential, error) {
	ctx, span := otel.Tracer(bridgeTracerName).Start(ctx, "bridge.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("service", service),
		attribute.String("user_id", userID),
	)

	sb, ok := r.services[service]
	if !ok {
		return Credential{}, ErrUnknownService
	}

	kind := sb.bridge.Kind()
	key := CacheKey(service, kind, userID)

	if raw, err := r.cache.Get(ctx, key); err == nil {
		var cred Credential
		if err := json.Unmarshal([]byte(raw), &cred); err == nil {
			r.metrics.RecordCacheResult(service, "hit")
			r.recordAudit(ctx, userID, service, audit.StatusSuccess, cachedReason(kind), path)
			return cred, nil
		}
		// A corrupt entry is dropped and resolved fresh.
		r.logger.Warn("dropping corrupt cache entry", observability.String("key", key))
		_ = r.cache.Delete(ctx, key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("credential cache read failed",
			observability.String("key", key),
			observability.Error(err))
	}
	r.metrics.RecordCacheResult(service, "miss")

	// From here on the client going away must not abort the flow: an
	// in-flight login, its cache write, and its audit entry run to
	// completion, so the cache never ends up half-written.
	ctx = context.WithoutCancel(ctx)

	// A missing stored credential is a provisioning error, not an
	// authentication attempt; it is not audited.
	var stored credentials.BasicCredential
	found, err := r.vault.Get(ctx, userID, service, &stored)
	if err != nil {
		return Credential{}, err
	}
	if !found {
		return Credential{}, ErrNoStoredCredential
	}

	start := time.Now()
	result, err := sb.breaker.Execute(func() (interface{}, error) {
		return sb.bridge.Login(ctx, stored)
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		r.metrics.RecordLogin(service, "fail", elapsed)
		r.recordAudit(ctx, userID, service, audit.StatusFail, "Authentication failed: "+err.Error(), path)
		return Credential{}, err
	}
	r.metrics.RecordLogin(service, "success", elapsed)

	cred := result.(Credential)
	if raw, err := json.Marshal(cred); err == nil {
		if err := r.cache.Set(ctx, key, string(raw), r.cacheTTL(sb.cfg, kind)); err != nil {
			r.logger.Warn("credential cache write failed",
				observability.String("key", key),
				observability.Error(err))
		}
	}

	r.recordAudit(ctx, userID, service, audit.StatusSuccess, freshReason(kind), path)
	return cred, nil
}

// Invalidate drops the cached credential for a user and service. Used
// on per-service logout and when a stored credential changes.
func (r *Resolver) Invalidate(ctx context.Context, userID, service string) error {
	sb, ok := r.services[service]
	if !ok {
		return ErrUnknownService
	}
	return r.cache.Delete(ctx, CacheKey(service, sb.bridge.Kind(), userID))
}

// Service returns the config of a registered service.
func (r *Resolver) Service(name string) (config.ServiceConfig, bool) {
	sb, ok := r.services[name]
	if !ok {
		return config.ServiceConfig{}, false
	}
	return sb.cfg, true
}

// cacheTTL picks the cache lifetime for a derived credential. Cookies
// expire with the backend session; tokens are long-lived unless the
// service sets an explicit TTL.
func (r *Resolver) cacheTTL(svc config.ServiceConfig, kind string) time.Duration {
	if kind == KindCookie {
		return CookieTTL
	}
	return svc.TokenTTL.Duration()
}

func (r *Resolver) recordAudit(ctx context.Context, userID, service string, status audit.Status, reason, path string) {
	// Audit writes outlive a client disconnect.
	ctx = context.WithoutCancel(ctx)

	entry := audit.NewEntry(userID, service, status, reason, path)
	if err := r.auditor.Record(ctx, entry); err != nil {
		r.logger.Warn("audit write failed",
			observability.String("service", service),
			observability.Error(err))
	}
}

func cachedReason(kind string) string {
	if kind == KindCookie {
		return reasonCachedCookie
	}
	return reasonCachedToken
}

func freshReason(kind string) string {
	if kind == KindCookie {
		return reasonFreshCookie
	}
	return reasonFreshToken
}
