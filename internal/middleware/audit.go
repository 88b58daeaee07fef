// audit.go provides Gin middleware that records READ audit entries for GET
// endpoints when the deployment asks for them. Write operations are audited
// by the code that performs them (the allocation engine and the mutating
// handlers), with real before/after snapshots this middleware cannot see.
package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curiango/curiango/internal/audit"
	"github.com/curiango/curiango/internal/config"
	"github.com/curiango/curiango/internal/db/models"
)

// ReadAuditMiddleware records a READ trail entry for every successful GET
// request. Disabled unless audit.log_read_operations is set: read auditing is
// noisy and most deployments only want the write trail.
func ReadAuditMiddleware(rec *audit.Recorder, cfg *config.AuditConfig) gin.HandlerFunc {
	enabled := cfg != nil && cfg.LogReadOperations

	return func(c *gin.Context) {
		c.Next()

		if !enabled || rec == nil {
			return
		}
		if c.Request.Method != http.MethodGet {
			return
		}
		if c.Writer.Status() >= 400 {
			return
		}

		actor := audit.ActorFromContext(c.Request.Context())
		entry := &models.AuditLog{
			Actor:       actor.Name,
			Action:      models.ActionRead,
			Description: fmt.Sprintf("GET %s", c.Request.URL.Path),
		}
		if actor.IP != "" {
			ip := actor.IP
			entry.IPAddress = &ip
		}

		rec.Record(c.Request.Context(), entry)
	}
}
