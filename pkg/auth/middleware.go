package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityKey = "auth.identity"

// Authenticate attaches the caller's identity when a valid bearer token is
// present. Anonymous and invalid requests pass through without one.
func Authenticate(v *Verifier, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("auth")
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}

		id, err := v.Verify(raw)
		if err != nil {
			logger.Debug("Rejected bearer token", zap.Error(err), zap.String("path", c.Request.URL.Path))
			c.Next()
			return
		}

		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func deny(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": msg})
}

// RequireUser aborts with 401 when no identity is attached.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Current(c); !ok {
			deny(c, http.StatusUnauthorized, "authentication required")
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 401 for anonymous callers and 403 for non-admins.
func RequireAdmin(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := Current(c)
		if !ok {
			deny(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !v.IsAdmin(id) {
			deny(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

// Current returns the identity attached by Authenticate.
func Current(c *gin.Context) (*Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := value.(*Identity)
	return id, ok && id != nil
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
