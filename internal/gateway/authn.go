package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lunatria/starlight/internal/bridge"
	"github.com/lunatria/starlight/internal/observability"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// loginHandler authenticates a user against the directory and installs
// the gateway session cookie.
func (h *Handler) loginHandler(c *gin.Context) {
	if !h.limiter.allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.directory.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		// Same answer for unknown user and bad password.
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := user.CheckPassword(req.Password); err != nil {
		h.logger.Warn("failed login attempt",
			observability.String("username", req.Username),
			observability.String("clientIP", c.ClientIP()))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.sessions.Issue(user.UserID)
	if err != nil {
		h.logger.Error("failed to issue session", observability.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	setSessionCookie(c, h.cfg.Session.CookieName, token, h.domain, h.sessions.TTL())
	c.JSON(http.StatusOK, gin.H{
		"userId":   user.UserID,
		"username": user.Username,
		"role":     user.Role,
	})
}

// logoutHandler drops the gateway session cookie.
func (h *Handler) logoutHandler(c *gin.Context) {
	clearSessionCookie(c, h.cfg.Session.CookieName, h.domain)
	c.Status(http.StatusNoContent)
}

// serviceLogoutHandler invalidates the caller's derived credential for
// one service and clears its marker cookie, forcing a fresh backend
// login on the next visit.
func (h *Handler) serviceLogoutHandler(c *gin.Context) {
	user, ok := currentIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	service := c.Param("service")
	if err := h.resolver.Invalidate(c.Request.Context(), user.UserID, service); err != nil {
		if errors.Is(err, bridge.ErrUnknownService) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown service"})
			return
		}
		h.logger.Error("failed to invalidate credential",
			observability.String("service", service),
			observability.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	clearMarkerCookie(c, service, h.domain)
	c.Status(http.StatusNoContent)
}
