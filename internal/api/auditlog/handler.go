// Package auditlog implements the HTTP handlers for querying the audit trail.
// The trail itself is append-only; these endpoints are read-only and entries
// can never be edited or deleted through the API.
package auditlog

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curiango/curiango/internal/db/models"
	"github.com/curiango/curiango/internal/db/repositories"
)

// Handlers handles audit trail endpoints
type Handlers struct {
	auditLog *repositories.AuditRepository
}

// NewHandlers creates a new Handlers instance
func NewHandlers(auditLog *repositories.AuditRepository) *Handlers {
	return &Handlers{auditLog: auditLog}
}

// @Summary      Query the audit trail
// @Description  Lists audit entries newest first. Actor and description match as case-insensitive substrings; action and table_name match exactly. Dates are YYYY-MM-DD and end_date is inclusive.
// @Tags         Audit
// @Security     Bearer
// @Produce      json
// @Param        actor        query  string  false  "Substring match on actor"
// @Param        action       query  string  false  "Exact action (CREATE, TRANSFER, ...)"
// @Param        table_name   query  string  false  "Exact table name"
// @Param        description  query  string  false  "Substring match on description"
// @Param        start_date   query  string  false  "Earliest entry date (YYYY-MM-DD)"
// @Param        end_date     query  string  false  "Latest entry date, inclusive (YYYY-MM-DD)"
// @Param        limit        query  int     false  "Page size (default 50, max 500)"
// @Param        offset       query  int     false  "Page offset"
// @Success      200  {object}  map[string]interface{}  "entries, total"
// @Router       /api/v1/audit [get]
// ListAuditHandler queries the audit trail
// GET /api/v1/audit
func (h *Handlers) ListAuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := repositories.AuditFilters{}

		if v := c.Query("actor"); v != "" {
			filters.Actor = &v
		}
		if v := c.Query("action"); v != "" {
			if !models.ValidAction(v) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
				return
			}
			filters.Action = &v
		}
		if v := c.Query("table_name"); v != "" {
			filters.TableName = &v
		}
		if v := c.Query("description"); v != "" {
			filters.Description = &v
		}
		if v := c.Query("start_date"); v != "" {
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, want YYYY-MM-DD"})
				return
			}
			filters.StartDate = &d
		}
		if v := c.Query("end_date"); v != "" {
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, want YYYY-MM-DD"})
				return
			}
			filters.EndDate = &d
		}
		filters.Limit = queryInt(c, "limit", 0)
		filters.Offset = queryInt(c, "offset", 0)

		entries, total, err := h.auditLog.List(c.Request.Context(), filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query audit trail"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries, "total": total})
	}
}

// @Summary      Get an audit entry
// @Tags         Audit
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Entry ID"
// @Success      200  {object}  models.AuditLog
// @Failure      404  {object}  map[string]interface{}  "Entry not found"
// @Router       /api/v1/audit/{id} [get]
// GetAuditHandler retrieves one audit entry with its snapshots
// GET /api/v1/audit/:id
func (h *Handlers) GetAuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
			return
		}

		entry, err := h.auditLog.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, repositories.ErrAuditNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "audit entry not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
