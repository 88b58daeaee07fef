// Package parameters implements the HTTP handlers for the key/value store
// behind document and email templates. Edits are audited with before/after
// values since a bad template silently degrades every notification sent.
package parameters

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curiango/curiango/internal/audit"
	"github.com/curiango/curiango/internal/db/models"
	"github.com/curiango/curiango/internal/db/repositories"
)

// Handlers handles parameter endpoints
type Handlers struct {
	params   *repositories.ParameterRepository
	recorder *audit.Recorder
}

// NewHandlers creates a new Handlers instance
func NewHandlers(params *repositories.ParameterRepository, recorder *audit.Recorder) *Handlers {
	return &Handlers{params: params, recorder: recorder}
}

// UpsertParameterRequest represents the request to create or replace a parameter
type UpsertParameterRequest struct {
	Value       *string `json:"value"`
	Kind        string  `json:"kind" binding:"required"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

// @Summary      List parameters
// @Tags         Parameters
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "parameters"
// @Router       /api/v1/parameters [get]
// ListParametersHandler lists all parameters
// GET /api/v1/parameters
func (h *Handlers) ListParametersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := h.params.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list parameters"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"parameters": params})
	}
}

// @Summary      Create or replace a parameter
// @Description  Upserts a template or setting by key. The previous value is kept in the audit trail.
// @Tags         Parameters
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        key    path  string                  true  "Parameter key"
// @Param        param  body  UpsertParameterRequest  true  "New value"
// @Success      200  {object}  models.Parameter
// @Failure      400  {object}  map[string]interface{}  "Invalid kind or payload"
// @Router       /api/v1/parameters/{key} [put]
// UpsertParameterHandler creates or replaces a parameter
// PUT /api/v1/parameters/:key
func (h *Handlers) UpsertParameterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		if key == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing parameter key"})
			return
		}

		var req UpsertParameterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		switch req.Kind {
		case models.ParameterText, models.ParameterHTML, models.ParameterEmail:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parameter kind"})
			return
		}

		previous, err := h.params.GetByKey(c.Request.Context(), key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}
		param := &models.Parameter{
			Key:         key,
			Value:       req.Value,
			Kind:        req.Kind,
			Description: req.Description,
			Active:      active,
		}
		if err := h.params.Upsert(c.Request.Context(), param); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save parameter"})
			return
		}

		h.recordEdit(c, key, previous, param)

		c.JSON(http.StatusOK, param)
	}
}

// recordEdit writes the before/after audit entry for a parameter change.
func (h *Handlers) recordEdit(c *gin.Context, key string, previous, updated *models.Parameter) {
	if h.recorder == nil {
		return
	}

	var old map[string]interface{}
	if previous != nil {
		old = map[string]interface{}{"value": previous.Value, "active": previous.Active}
	}

	actor := audit.ActorFromContext(c.Request.Context())
	table := "parameters"
	id := updated.ID
	entry := &models.AuditLog{
		Actor:       actor.Name,
		Action:      models.ActionUpdate,
		TableName:   &table,
		RecordID:    &id,
		Description: "Parameter " + key + " updated",
		OldData:     old,
		NewData:     map[string]interface{}{"value": updated.Value, "active": updated.Active},
	}
	if actor.IP != "" {
		ip := actor.IP
		entry.IPAddress = &ip
	}
	h.recorder.Record(c.Request.Context(), entry)
}
