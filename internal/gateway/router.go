package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lunatria/starlight/internal/audit"
	"github.com/lunatria/starlight/internal/authz"
	"github.com/lunatria/starlight/internal/bridge"
	"github.com/lunatria/starlight/internal/config"
	"github.com/lunatria/starlight/internal/credentials"
	"github.com/lunatria/starlight/internal/identity"
	"github.com/lunatria/starlight/internal/observability"
	"github.com/lunatria/starlight/internal/session"
)

// DefaultLoginRatePerMinute bounds login attempts per client IP.
const DefaultLoginRatePerMinute = 10

// Handler wires the gateway's HTTP surface to its collaborators.
type Handler struct {
	cfg       *config.Config
	domain    string
	sessions  *session.Manager
	directory identity.Directory
	vault     *credentials.Vault
	resolver  *bridge.Resolver
	auditor   audit.Recorder
	limiter   *loginLimiter
	logger    observability.Logger
}

// NewHandler creates the gateway handler set.
func NewHandler(
	cfg *config.Config,
	sessions *session.Manager,
	directory identity.Directory,
	vault *credentials.Vault,
	resolver *bridge.Resolver,
	auditor audit.Recorder,
	logger observability.Logger,
) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Handler{
		cfg:       cfg,
		domain:    cfg.Domain.Name,
		sessions:  sessions,
		directory: directory,
		vault:     vault,
		resolver:  resolver,
		auditor:   auditor,
		limiter:   newLoginLimiter(DefaultLoginRatePerMinute),
		logger:    logger,
	}
}

// Register installs middleware and routes on the engine.
func (h *Handler) Register(engine *gin.Engine) {
	engine.Use(Recovery(h.logger))
	engine.Use(RequestID())
	engine.Use(Logging(h.logger))

	engine.GET("/healthz", h.healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := engine.Group("/auth")
	auth.POST("/login", h.loginHandler)
	auth.POST("/logout", h.logoutHandler)

	authed := engine.Group("/")
	authed.Use(SessionAuth(h.cfg.Session.CookieName, h.sessions, h.directory))

	for _, svc := range h.cfg.Services {
		handler := h.proxyHandler(svc)
		authed.Any("/"+svc.Name, handler)
		authed.Any("/"+svc.Name+"/*path", handler)
	}

	authed.POST("/services/:service/logout", h.serviceLogoutHandler)

	admin := authed.Group("/admin")
	admin.Use(h.adminOnly())
	admin.PUT("/credentials/:user/:service", h.putCredentialHandler)
	admin.DELETE("/credentials/:user/:service", h.deleteCredentialHandler)
	admin.GET("/audit", h.auditQueryHandler)
}

func (h *Handler) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// adminOnly gates a route group behind the admin role.
func (h *Handler) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if err := authz.RequireAdmin(user); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
