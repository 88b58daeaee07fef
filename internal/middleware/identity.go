// Package middleware provides Gin HTTP middleware for identity resolution,
// rate limiting, security headers, metrics, and audit logging.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RequestID → Metrics → RateLimit → Identity → Audit → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before identity resolution to block floods before any
// crypto work. Identity attaches the acting user to the request context; the
// audit middleware and the allocation engine read it from there.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/curiango/curiango/internal/audit"
	"github.com/curiango/curiango/internal/auth"
)

// IdentityMiddleware resolves the acting user from an optional Bearer token
// and attaches an audit.Actor to the request context. Authentication lives in
// the directory service, not here: a missing or invalid token is not an
// error, it just means the action is attributed to the system account.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := audit.Actor{IP: c.ClientIP()}

		if token := bearerToken(c); token != "" {
			if claims, err := auth.ValidateJWT(token); err == nil {
				actor.Name = claims.DisplayName()
				c.Set("username", claims.Username)
			}
		}

		c.Request = c.Request.WithContext(audit.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
