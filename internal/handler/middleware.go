package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDHeader = "X-User-ID"

// callerUserID is the identity injected by the upstream auth gateway.
// Authentication itself is not this service's job.
func callerUserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(userIDHeader))
}

// RequireAdmin guards admin-only endpoints with a static bearer token.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(token) == "" {
			Error(c, http.StatusServiceUnavailable, "admin token not configured", nil)
			c.Abort()
			return
		}
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			Error(c, http.StatusUnauthorized, "missing authorization", nil)
			c.Abort()
			return
		}
		presented := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			Error(c, http.StatusForbidden, "forbidden", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSchedulerKey guards the sweep trigger with the shared scheduler
// secret, passed as a query parameter by the external periodic caller.
func RequireSchedulerKey(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.Query("key"))
		if key == "" {
			Error(c, http.StatusUnauthorized, "missing scheduler key", nil)
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
			Error(c, http.StatusForbidden, "forbidden", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
