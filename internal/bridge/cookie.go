package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lunatria/starlight/internal/config"
	"github.com/lunatria/starlight/internal/credentials"
	"github.com/lunatria/starlight/internal/observability"
)

// cookieBridge logs into Radarr/Sonarr-style backends that authenticate
// via a form POST and hand back a session cookie on a 302 redirect.
type cookieBridge struct {
	service    string
	loginURL   string
	cookieName string
	client     *http.Client
	logger     observability.Logger
}

func newCookieBridge(svc config.ServiceConfig, client *http.Client, logger observability.Logger) *cookieBridge {
	return &cookieBridge{
		service:    svc.Name,
		loginURL:   svc.BaseURL + svc.AuthPath,
		cookieName: svc.CookieName,
		client:     client,
		logger:     logger,
	}
}

func (b *cookieBridge) Kind() string {
	return KindCookie
}

func (b *cookieBridge) Login(ctx context.Context, cred credentials.BasicCredential) (Credential, error) {
	ctx, span := otel.Tracer(bridgeTracerName).Start(ctx, "bridge.cookie.login")
	defer span.End()
	span.SetAttributes(attribute.String("service", b.service))

	form := url.Values{}
	form.Set("username", cred.Username)
	form.Set("password", cred.Password)
	form.Set("rememberMe", "on")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// These backends answer a failed login with 200 and the login page
	// again. Only the post-login redirect counts as success.
	if resp.StatusCode != http.StatusFound {
		b.logger.Warn("cookie login rejected",
			observability.String("service", b.service),
			observability.Int("status", resp.StatusCode))
		return Credential{}, fmt.Errorf("%w: backend returned status %d", ErrLoginFailed, resp.StatusCode)
	}

	for _, c := range resp.Cookies() {
		if c.Name == b.cookieName {
			return Credential{
				Kind:   KindCookie,
				Cookie: c.Name + "=" + c.Value,
			}, nil
		}
	}

	return Credential{}, fmt.Errorf("%w: no %s cookie in login response", ErrLoginFailed, b.cookieName)
}
