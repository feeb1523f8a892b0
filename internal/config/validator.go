package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Common validation errors.
var (
	// ErrNoServices indicates that no services are configured.
	ErrNoServices = errors.New("at least one service must be configured")

	// ErrNoDomain indicates that the parent domain is missing.
	ErrNoDomain = errors.New("domain name is required")
)

// ValidateConfig validates the configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	if cfg.Domain.Name == "" {
		return ErrNoDomain
	}

	if len(cfg.Services) == 0 {
		return ErrNoServices
	}

	if cfg.Cache.Type == CacheTypeRedis && (cfg.Cache.Redis == nil || cfg.Cache.Redis.URL == "") {
		return errors.New("cache: redis URL is required when cache type is redis")
	}

	seen := make(map[string]bool, len(cfg.Services))
	for i := range cfg.Services {
		if err := validateService(&cfg.Services[i]); err != nil {
			return err
		}
		if seen[cfg.Services[i].Name] {
			return fmt.Errorf("service %q: duplicate service name", cfg.Services[i].Name)
		}
		seen[cfg.Services[i].Name] = true
	}

	return nil
}

// reservedNames are route prefixes the gateway claims for itself.
var reservedNames = map[string]bool{
	"auth":     true,
	"admin":    true,
	"services": true,
	"healthz":  true,
	"metrics":  true,
}

// validateService validates a single service configuration.
func validateService(svc *ServiceConfig) error {
	if svc.Name == "" {
		return errors.New("service: name is required")
	}
	if reservedNames[svc.Name] {
		return fmt.Errorf("service %q: name is reserved", svc.Name)
	}

	switch svc.Kind {
	case ServiceKindToken:
		if svc.ClientHeader == "" {
			return fmt.Errorf("service %q: clientHeader is required for token-kind services", svc.Name)
		}
	case ServiceKindCookie:
		if svc.CookieName == "" {
			return fmt.Errorf("service %q: cookieName is required for cookie-kind services", svc.Name)
		}
	default:
		return fmt.Errorf("service %q: unsupported kind %q", svc.Name, svc.Kind)
	}

	if svc.BaseURL == "" {
		return fmt.Errorf("service %q: baseURL is required", svc.Name)
	}
	if _, err := url.ParseRequestURI(svc.BaseURL); err != nil {
		return fmt.Errorf("service %q: invalid baseURL: %w", svc.Name, err)
	}
	if svc.PublicURL == "" {
		return fmt.Errorf("service %q: publicURL is required", svc.Name)
	}
	if _, err := url.ParseRequestURI(svc.PublicURL); err != nil {
		return fmt.Errorf("service %q: invalid publicURL: %w", svc.Name, err)
	}

	return nil
}
