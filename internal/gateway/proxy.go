package gateway

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lunatria/starlight/internal/authz"
	"github.com/lunatria/starlight/internal/bridge"
	"github.com/lunatria/starlight/internal/config"
	"github.com/lunatria/starlight/internal/observability"
)

// proxyHandler is the per-service front door. Access control runs
// strictly before credential resolution; a denied request never reaches
// the bridge.
func (h *Handler) proxyHandler(svc config.ServiceConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		if err := authz.RequireServiceAccess(user, svc.Name); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no access to service"})
			return
		}

		if hasMarkerCookie(c, svc.Name) {
			// Already bridged this window. Cookie-kind browsers still
			// get sent to the backend; token-kind sessions are left
			// alone.
			if svc.Kind == bridge.KindCookie {
				c.Redirect(http.StatusFound, svc.PublicURL)
				return
			}
			c.Status(http.StatusNoContent)
			return
		}

		cred, err := h.resolver.Resolve(c.Request.Context(), user.UserID, svc.Name, c.Request.URL.Path)
		if err != nil {
			h.writeBridgeError(c, svc.Name, err)
			return
		}

		setMarkerCookie(c, svc.Name, h.domain)

		switch cred.Kind {
		case bridge.KindToken:
			c.Redirect(http.StatusFound, tokenBridgeURL(svc, cred))
		case bridge.KindCookie:
			name, value, ok := splitCookiePair(cred.Cookie)
			if !ok {
				h.logger.Error("malformed cached cookie credential",
					observability.String("service", svc.Name))
				c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "backend authentication failed"})
				return
			}
			setBackendCookie(c, name, value)
			c.Redirect(http.StatusFound, svc.PublicURL)
		default:
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "backend authentication failed"})
		}
	}
}

func (h *Handler) writeBridgeError(c *gin.Context, service string, err error) {
	switch {
	case errors.Is(err, bridge.ErrNoStoredCredential):
		c.AbortWithStatusJSON(http.StatusPreconditionFailed, gin.H{"error": "no stored credential for service"})
	case errors.Is(err, bridge.ErrUnknownService):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown service"})
	default:
		h.logger.Error("credential resolution failed",
			observability.String("service", service),
			observability.Error(err))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "backend authentication failed"})
	}
}

// tokenBridgeURL builds the public bridge page URL carrying the token
// identifiers as query parameters. The values are bearer material and
// must never be logged.
func tokenBridgeURL(svc config.ServiceConfig, cred bridge.Credential) string {
	params := url.Values{}
	params.Set("token", cred.AccessToken)
	params.Set("userId", cred.BackendUserID)
	params.Set("serverId", cred.ServerID)
	return svc.PublicURL + svc.BridgePath + "?" + params.Encode()
}

// splitCookiePair splits a "name=value" credential into its parts.
func splitCookiePair(pair string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(pair, "=")
	if !ok || name == "" {
		return "", "", false
	}
	return name, value, true
}
