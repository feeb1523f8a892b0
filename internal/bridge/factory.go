package bridge

import (
	"net/http"
	"time"

	"github.com/lunatria/starlight/internal/config"
	"github.com/lunatria/starlight/internal/observability"
)

// DefaultLoginTimeout bounds a backend login when the service config
// does not set one.
const DefaultLoginTimeout = 10 * time.Second

// New creates the bridge for a service config.
func New(svc config.ServiceConfig, logger observability.Logger) (Bridge, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	timeout := svc.LoginTimeout.Duration()
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}

	switch svc.Kind {
	case KindToken:
		client := &http.Client{Timeout: timeout}
		return newTokenBridge(svc, client, logger), nil
	case KindCookie:
		// The session cookie rides on the 302 itself, so the client
		// must hand redirects back instead of following them.
		client := &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
		return newCookieBridge(svc, client, logger), nil
	default:
		return nil, ErrUnknownKind
	}
}
