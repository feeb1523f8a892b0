package main

import (
	"context"
	"fmt"

	"github.com/lunatria/starlight/internal/audit"
	"github.com/lunatria/starlight/internal/bridge"
	"github.com/lunatria/starlight/internal/cache"
	"github.com/lunatria/starlight/internal/config"
	"github.com/lunatria/starlight/internal/credentials"
	"github.com/lunatria/starlight/internal/gateway"
	"github.com/lunatria/starlight/internal/identity"
	"github.com/lunatria/starlight/internal/observability"
	"github.com/lunatria/starlight/internal/secrets"
	"github.com/lunatria/starlight/internal/session"
	"github.com/lunatria/starlight/internal/store"
)

// application holds the wired gateway components.
type application struct {
	server *gateway.Server
	store  *store.Store
	cache  cache.Cache
}

// newApplication wires every component from configuration: secrets,
// store, cache, vault, bridges, sessions, and the HTTP surface.
func newApplication(ctx context.Context, cfg *config.Config, logger observability.Logger) (*application, error) {
	provider, err := secrets.NewProvider(&cfg.Secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("secrets provider: %w", err)
	}
	defer provider.Close()

	encryptionKey, err := resolveSecret(ctx, provider, cfg.Encryption.Key, cfg.Encryption.SecretName)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	signingKey, err := resolveSecret(ctx, provider, cfg.Session.SigningKey, cfg.Session.SigningKeySecret)
	if err != nil {
		return nil, fmt.Errorf("session signing key: %w", err)
	}

	sessions, err := session.NewManager(signingKey, cfg.Session.TTL.Duration())
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	db, err := store.Connect(ctx, &cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	credStore, err := credentials.NewMongoStore(ctx, db.Collection(credentials.CollectionName))
	if err != nil {
		return nil, fmt.Errorf("credential store: %w", err)
	}

	vault, err := credentials.NewVault([]byte(encryptionKey), credStore, logger)
	if err != nil {
		return nil, fmt.Errorf("credential vault: %w", err)
	}

	auditor, err := audit.NewMongoRecorder(ctx, db.Collection(audit.CollectionName), audit.GetMetrics())
	if err != nil {
		return nil, fmt.Errorf("audit recorder: %w", err)
	}

	directory, err := identity.NewMongoDirectory(ctx, db.Collection(identity.CollectionName))
	if err != nil {
		return nil, fmt.Errorf("user directory: %w", err)
	}

	credCache, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	resolver, err := bridge.NewResolver(cfg.Services, vault, credCache, auditor, logger)
	if err != nil {
		return nil, fmt.Errorf("bridge resolver: %w", err)
	}

	engine := gateway.NewEngine()
	handler := gateway.NewHandler(cfg, sessions, directory, vault, resolver, auditor, logger)
	handler.Register(engine)

	return &application{
		server: gateway.NewServer(cfg.Server, engine, logger),
		store:  db,
		cache:  credCache,
	}, nil
}

// resolveSecret returns the inline value when present, otherwise fetches
// the named secret from the provider.
func resolveSecret(ctx context.Context, provider secrets.Provider, inline, name string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	return provider.GetSecret(ctx, name)
}

// Shutdown stops the server and closes the backing connections.
func (a *application) Shutdown(ctx context.Context, logger observability.Logger) {
	if err := a.server.Stop(ctx); err != nil {
		logger.Error("failed to stop server", observability.Error(err))
	}
	if err := a.cache.Close(); err != nil {
		logger.Error("failed to close cache", observability.Error(err))
	}
	if err := a.store.Close(ctx); err != nil {
		logger.Error("failed to close store", observability.Error(err))
	}

	logger.Info("shutdown complete")
}
