package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// MarkerTTL is the lifetime of the per-service marker cookie and of the
// forwarded backend cookie.
const MarkerTTL = 24 * time.Hour

// markerCookieName is the "already bridged" marker for a service.
func markerCookieName(service string) string {
	return service + "_auth"
}

// hasMarkerCookie reports whether the request carries the service's
// marker cookie.
func hasMarkerCookie(c *gin.Context, service string) bool {
	v, err := c.Cookie(markerCookieName(service))
	return err == nil && v != ""
}

// setMarkerCookie marks the browser as bridged for a service. The
// marker is scoped to the parent domain and cross-site because the
// services live on sibling subdomains.
func setMarkerCookie(c *gin.Context, service, domain string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     markerCookieName(service),
		Value:    "true",
		Path:     "/",
		Domain:   "." + domain,
		MaxAge:   int(MarkerTTL / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// clearMarkerCookie drops the marker so the next visit re-bridges.
func clearMarkerCookie(c *gin.Context, service, domain string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     markerCookieName(service),
		Value:    "",
		Path:     "/",
		Domain:   "." + domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// setBackendCookie forwards the backend's own session cookie to the
// browser. No Domain attribute: the cookie must stay host-only with
// Lax, matching what the backend itself would have set.
func setBackendCookie(c *gin.Context, name, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(MarkerTTL / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookie installs the gateway's own session cookie, shared
// across the parent domain so every service subdomain sees it.
func setSessionCookie(c *gin.Context, name, value, domain string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   "." + domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie removes the gateway session cookie.
func clearSessionCookie(c *gin.Context, name, domain string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   "." + domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
