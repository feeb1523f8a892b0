package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lunatria/starlight/internal/config"
	"github.com/lunatria/starlight/internal/credentials"
	"github.com/lunatria/starlight/internal/observability"
)

const bridgeTracerName = "starlight/bridge"

// tokenBridge logs into Jellyfin-style backends that authenticate via a
// JSON endpoint and hand back an API token.
type tokenBridge struct {
	service      string
	loginURL     string
	clientHeader string
	client       *http.Client
	logger       observability.Logger
}

type tokenLoginRequest struct {
	Username string `json:"Username"`
	Pw       string `json:"Pw"`
}

type tokenLoginResponse struct {
	AccessToken string `json:"AccessToken"`
	ServerID    string `json:"ServerId"`
	User        struct {
		ID string `json:"Id"`
	} `json:"User"`
}

func newTokenBridge(svc config.ServiceConfig, client *http.Client, logger observability.Logger) *tokenBridge {
	return &tokenBridge{
		service:      svc.Name,
		loginURL:     svc.BaseURL + svc.AuthPath,
		clientHeader: svc.ClientHeader,
		client:       client,
		logger:       logger,
	}
}

func (b *tokenBridge) Kind() string {
	return KindToken
}

func (b *tokenBridge) Login(ctx context.Context, cred credentials.BasicCredential) (Credential, error) {
	ctx, span := otel.Tracer(bridgeTracerName).Start(ctx, "bridge.token.login")
	defer span.End()
	span.SetAttributes(attribute.String("service", b.service))

	body, err := json.Marshal(tokenLoginRequest{Username: cred.Username, Pw: cred.Password})
	if err != nil {
		return Credential{}, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.loginURL, bytes.NewReader(body))
	if err != nil {
		return Credential{}, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Emby-Authorization", b.clientHeader)

	resp, err := b.client.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		b.logger.Warn("token login rejected",
			observability.String("service", b.service),
			observability.Int("status", resp.StatusCode))
		return Credential{}, fmt.Errorf("%w: backend returned status %d", ErrLoginFailed, resp.StatusCode)
	}

	var login tokenLoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return Credential{}, fmt.Errorf("%w: malformed login response: %v", ErrLoginFailed, err)
	}

	// A 200 without all three fields is still a failed login. Some
	// backends answer 200 with an error body.
	if login.AccessToken == "" || login.ServerID == "" || login.User.ID == "" {
		return Credential{}, fmt.Errorf("%w: login response missing token fields", ErrLoginFailed)
	}

	return Credential{
		Kind:          KindToken,
		AccessToken:   login.AccessToken,
		ServerID:      login.ServerID,
		BackendUserID: login.User.ID,
	}, nil
}
