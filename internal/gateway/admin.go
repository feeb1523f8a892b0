package gateway

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lunatria/starlight/internal/audit"
	"github.com/lunatria/starlight/internal/credentials"
	"github.com/lunatria/starlight/internal/observability"
)

type storeCredentialRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// putCredentialHandler stores (or replaces) a user's backend credential
// and drops any derived credential cached from the old one.
func (h *Handler) putCredentialHandler(c *gin.Context) {
	userID := c.Param("user")
	service := c.Param("service")

	if _, ok := h.resolver.Service(service); !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown service"})
		return
	}

	var req storeCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	secret := credentials.BasicCredential{Username: req.Username, Password: req.Password}
	if err := h.vault.Set(c.Request.Context(), userID, service, secret); err != nil {
		h.logger.Error("failed to store credential",
			observability.String("service", service),
			observability.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := h.resolver.Invalidate(c.Request.Context(), userID, service); err != nil {
		h.logger.Warn("failed to invalidate derived credential",
			observability.String("service", service),
			observability.Error(err))
	}

	c.Status(http.StatusNoContent)
}

// deleteCredentialHandler removes a user's stored backend credential
// together with its derived credential.
func (h *Handler) deleteCredentialHandler(c *gin.Context) {
	userID := c.Param("user")
	service := c.Param("service")

	if _, ok := h.resolver.Service(service); !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown service"})
		return
	}

	if err := h.vault.Delete(c.Request.Context(), userID, service); err != nil {
		h.logger.Error("failed to delete credential",
			observability.String("service", service),
			observability.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := h.resolver.Invalidate(c.Request.Context(), userID, service); err != nil {
		h.logger.Warn("failed to invalidate derived credential",
			observability.String("service", service),
			observability.Error(err))
	}

	c.Status(http.StatusNoContent)
}

// auditQueryHandler returns audit entries, newest first. All filters
// are optional and AND-combined.
func (h *Handler) auditQueryHandler(c *gin.Context) {
	filter := audit.Filter{
		UserID:  c.Query("userId"),
		Service: c.Query("service"),
		Status:  audit.Status(c.Query("status")),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	entries, err := h.auditor.Query(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("audit query failed", observability.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
