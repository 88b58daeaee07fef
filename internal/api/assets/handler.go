// Package assets implements the HTTP handlers for asset records and the
// custody operations on them: allocation, transfer, return, and the composed
// event history. Custody transitions go through the allocation engine; the
// handlers here only translate between HTTP and the engine's contract.
package assets

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/curiango/curiango/internal/allocation"
	"github.com/curiango/curiango/internal/audit"
	"github.com/curiango/curiango/internal/db/models"
	"github.com/curiango/curiango/internal/db/repositories"
	"github.com/curiango/curiango/internal/documents"
)

// engine is the custody surface the handlers need. Satisfied by
// allocation.Engine; stubbed in tests.
type engine interface {
	Transfer(ctx context.Context, assetID, custodianID int, reason string) (*allocation.TransferResult, error)
	Return(ctx context.Context, assetID int) error
	ComposeHistory(ctx context.Context, assetID int) ([]allocation.Event, error)
}

// Handlers handles asset endpoints
type Handlers struct {
	assets       *repositories.AssetRepository
	maintenances *repositories.MaintenanceRepository
	notes        *repositories.AssetNoteRepository
	lookups      *repositories.LookupRepository
	engine       engine
	recorder     *audit.Recorder
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	assets *repositories.AssetRepository,
	maintenances *repositories.MaintenanceRepository,
	notes *repositories.AssetNoteRepository,
	lookups *repositories.LookupRepository,
	eng engine,
	recorder *audit.Recorder,
) *Handlers {
	return &Handlers{
		assets:       assets,
		maintenances: maintenances,
		notes:        notes,
		lookups:      lookups,
		engine:       eng,
		recorder:     recorder,
	}
}

// CreateAssetRequest represents the request to register a new asset
type CreateAssetRequest struct {
	Category       string   `json:"category" binding:"required"`
	Condition      string   `json:"condition"`
	BusinessUnitID *int     `json:"business_unit_id"`
	Value          *float64 `json:"value"`

	Phone    *models.PhoneDetails    `json:"phone,omitempty"`
	Computer *models.ComputerDetails `json:"computer,omitempty"`
	SIMCard  *models.SIMCardDetails  `json:"sim_card,omitempty"`
}

// TransferRequest represents the request to allocate or transfer an asset
type TransferRequest struct {
	EmployeeID int    `json:"employee_id" binding:"required"`
	Reason     string `json:"reason"`
}

// @Summary      Register an asset
// @Description  Registers a new asset with its category-specific detail record. SIM card assets never carry a business unit.
// @Tags         Assets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        asset  body  CreateAssetRequest  true  "Asset to register"
// @Success      201  {object}  models.Asset
// @Failure      400  {object}  map[string]interface{}  "Invalid category or payload"
// @Router       /api/v1/assets [post]
// CreateAssetHandler registers a new asset
// POST /api/v1/assets
func (h *Handlers) CreateAssetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAssetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !models.ValidCategory(req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset category"})
			return
		}
		if req.Condition != "" && !models.ValidCondition(req.Condition) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset condition"})
			return
		}

		asset := &models.Asset{
			Category:       req.Category,
			Condition:      req.Condition,
			BusinessUnitID: req.BusinessUnitID,
			Value:          req.Value,
			Details: models.AssetDetails{
				Phone:    req.Phone,
				Computer: req.Computer,
				SIMCard:  req.SIMCard,
			},
		}

		if err := h.assets.Create(c.Request.Context(), asset); err != nil {
			if errors.Is(err, repositories.ErrDuplicateField) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register asset"})
			return
		}

		h.record(c, models.ActionCreate, asset.ID,
			"Asset "+strconv.Itoa(asset.ID)+" registered: "+documents.Describe(asset),
			nil, map[string]interface{}{
				"category":  asset.Category,
				"condition": asset.Condition,
			})

		c.JSON(http.StatusCreated, asset)
	}
}

// @Summary      Get an asset
// @Description  Retrieves an asset with its category detail record.
// @Tags         Assets
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Asset ID"
// @Success      200  {object}  models.Asset
// @Failure      404  {object}  map[string]interface{}  "Asset not found"
// @Router       /api/v1/assets/{id} [get]
// GetAssetHandler retrieves one asset
// GET /api/v1/assets/:id
func (h *Handlers) GetAssetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		asset, err := h.assets.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, asset)
	}
}

// @Summary      List assets
// @Description  Lists assets with optional filtering, newest first.
// @Tags         Assets
// @Security     Bearer
// @Produce      json
// @Param        category     query  string  false  "Filter by category"
// @Param        condition    query  string  false  "Filter by condition"
// @Param        employee_id  query  int     false  "Filter by current custodian"
// @Param        limit        query  int     false  "Page size (default 50)"
// @Param        offset       query  int     false  "Page offset"
// @Success      200  {object}  map[string]interface{}  "assets, total"
// @Router       /api/v1/assets [get]
// ListAssetsHandler lists assets
// GET /api/v1/assets
func (h *Handlers) ListAssetsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := repositories.AssetFilters{}
		if v := c.Query("category"); v != "" {
			filters.Category = &v
		}
		if v := c.Query("condition"); v != "" {
			filters.Condition = &v
		}
		if v := c.Query("employee_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee_id"})
				return
			}
			filters.EmployeeID = &id
		}

		limit := queryInt(c, "limit", 50)
		offset := queryInt(c, "offset", 0)

		assets, total, err := h.assets.List(c.Request.Context(), filters, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assets"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"assets": assets, "total": total})
	}
}

// @Summary      Delete an asset
// @Description  Removes an asset. Assets with an open allocation cannot be deleted; return them first.
// @Tags         Assets
// @Security     Bearer
// @Param        id  path  int  true  "Asset ID"
// @Success      204
// @Failure      404  {object}  map[string]interface{}  "Asset not found"
// @Failure      409  {object}  map[string]interface{}  "Asset has an open allocation"
// @Router       /api/v1/assets/{id} [delete]
// DeleteAssetHandler removes an asset
// DELETE /api/v1/assets/:id
func (h *Handlers) DeleteAssetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		asset, err := h.assets.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		if err := h.assets.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}

		h.record(c, models.ActionDelete, id,
			"Asset "+strconv.Itoa(id)+" deleted: "+documents.Describe(asset),
			map[string]interface{}{
				"category":  asset.Category,
				"condition": asset.Condition,
			}, nil)

		c.Status(http.StatusNoContent)
	}
}

// @Summary      Allocate or transfer an asset
// @Description  Moves the asset to a new custodian, closing any open custody period. The responsibility document is generated and emailed best-effort; its failure is reported through document_generated=false, never as an error.
// @Tags         Allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id        path  int              true  "Asset ID"
// @Param        transfer  body  TransferRequest  true  "New custodian and reason"
// @Success      201  {object}  allocation.TransferResult
// @Failure      404  {object}  map[string]interface{}  "Asset or employee not found"
// @Router       /api/v1/assets/{id}/allocation [post]
// TransferHandler allocates or transfers an asset
// POST /api/v1/assets/:id/allocation
func (h *Handlers) TransferHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		var req TransferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := h.engine.Transfer(c.Request.Context(), id, req.EmployeeID, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

// CreateTransferRequest addresses the asset in the body instead of the path.
type CreateTransferRequest struct {
	AssetID    int    `json:"asset_id" binding:"required"`
	EmployeeID int    `json:"employee_id" binding:"required"`
	Reason     string `json:"reason"`
}

// @Summary      Record a transfer
// @Description  Body-addressed variant of the allocation endpoint, for clients that work from a transfer form rather than an asset page.
// @Tags         Allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        transfer  body  CreateTransferRequest  true  "Asset, new custodian, and reason"
// @Success      201  {object}  allocation.TransferResult
// @Failure      404  {object}  map[string]interface{}  "Asset or employee not found"
// @Router       /api/v1/transfers [post]
// CreateTransferHandler allocates or transfers an asset identified in the body
// POST /api/v1/transfers
func (h *Handlers) CreateTransferHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTransferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := h.engine.Transfer(c.Request.Context(), req.AssetID, req.EmployeeID, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

// @Summary      Return an asset
// @Description  Closes the asset's custody and clears its custodian. Returning an unallocated asset is a no-op success.
// @Tags         Allocations
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Asset ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Failure      404  {object}  map[string]interface{}  "Asset not found"
// @Router       /api/v1/assets/{id}/return [post]
// ReturnHandler returns an asset to stock
// POST /api/v1/assets/:id/return
func (h *Handlers) ReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		if err := h.engine.Return(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// @Summary      Asset event history
// @Description  Returns the asset's merged timeline of allocations, returns and maintenance events, newest first.
// @Tags         Allocations
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Asset ID"
// @Success      200  {object}  map[string]interface{}  "events"
// @Failure      404  {object}  map[string]interface{}  "Asset not found"
// @Router       /api/v1/assets/{id}/history [get]
// HistoryHandler returns the composed event history of an asset
// GET /api/v1/assets/:id/history
func (h *Handlers) HistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		events, err := h.engine.ComposeHistory(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

// CreateMaintenanceRequest represents the request to record a maintenance event
type CreateMaintenanceRequest struct {
	Kind        string  `json:"kind" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Notes       *string `json:"notes"`
}

// @Summary      Record a maintenance event
// @Description  Records a repair or service event on the asset. The event appears in the asset's composed history.
// @Tags         Maintenance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id     path  int                       true  "Asset ID"
// @Param        event  body  CreateMaintenanceRequest  true  "Maintenance event"
// @Success      201  {object}  models.Maintenance
// @Failure      404  {object}  map[string]interface{}  "Asset not found"
// @Router       /api/v1/assets/{id}/maintenances [post]
// CreateMaintenanceHandler records a maintenance event
// POST /api/v1/assets/:id/maintenances
func (h *Handlers) CreateMaintenanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		var req CreateMaintenanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if _, err := h.assets.Get(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}

		event := &models.Maintenance{
			AssetID:     id,
			Kind:        req.Kind,
			Description: req.Description,
			Notes:       req.Notes,
		}
		if err := h.maintenances.Create(c.Request.Context(), event); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record maintenance event"})
			return
		}

		h.record(c, models.ActionCreate, id,
			"Maintenance on asset "+strconv.Itoa(id)+": "+req.Description,
			nil, map[string]interface{}{
				"kind":        req.Kind,
				"description": req.Description,
			})

		c.JSON(http.StatusCreated, event)
	}
}

// @Summary      List maintenance events
// @Tags         Maintenance
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Asset ID"
// @Success      200  {object}  map[string]interface{}  "maintenances"
// @Router       /api/v1/assets/{id}/maintenances [get]
// ListMaintenancesHandler lists maintenance events for an asset
// GET /api/v1/assets/:id/maintenances
func (h *Handlers) ListMaintenancesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		events, err := h.maintenances.ListForAsset(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list maintenance events"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"maintenances": events})
	}
}

// CreateNoteRequest represents the request to attach a note to an asset
type CreateNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

// @Summary      Attach a note to an asset
// @Tags         Assets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                true  "Asset ID"
// @Param        note  body  CreateNoteRequest  true  "Note body"
// @Success      201  {object}  models.AssetNote
// @Router       /api/v1/assets/{id}/notes [post]
// CreateNoteHandler attaches a free-text note to an asset
// POST /api/v1/assets/:id/notes
func (h *Handlers) CreateNoteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		var req CreateNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if _, err := h.assets.Get(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}

		actor := audit.ActorFromContext(c.Request.Context())
		author := actor.DisplayName()
		note := &models.AssetNote{
			AssetID: id,
			Content: req.Content,
			Author:  &author,
		}
		if err := h.notes.Create(c.Request.Context(), note); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save note"})
			return
		}
		c.JSON(http.StatusCreated, note)
	}
}

// @Summary      List notes on an asset
// @Tags         Assets
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Asset ID"
// @Success      200  {object}  map[string]interface{}  "notes"
// @Router       /api/v1/assets/{id}/notes [get]
// ListNotesHandler lists notes attached to an asset
// GET /api/v1/assets/:id/notes
func (h *Handlers) ListNotesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		notes, err := h.notes.ListForAsset(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notes"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"notes": notes})
	}
}

// @Summary      Registration form lookups
// @Description  Returns the reference data needed to register an asset: active business units, brands, and carriers.
// @Tags         Assets
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "business_units, brands, carriers"
// @Router       /api/v1/lookups [get]
// LookupsHandler returns the reference tables used on asset registration
// GET /api/v1/lookups
func (h *Handlers) LookupsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		units, err := h.lookups.ListBusinessUnits(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load lookups"})
			return
		}
		brands, err := h.lookups.ListBrands(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load lookups"})
			return
		}
		carriers, err := h.lookups.ListCarriers(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load lookups"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"business_units": units,
			"brands":         brands,
			"carriers":       carriers,
		})
	}
}

// record writes an audit entry for a handler-level mutation.
func (h *Handlers) record(c *gin.Context, action string, assetID int, description string, old, updated map[string]interface{}) {
	if h.recorder == nil {
		return
	}

	actor := audit.ActorFromContext(c.Request.Context())
	table := "assets"
	id := assetID
	entry := &models.AuditLog{
		Actor:       actor.Name,
		Action:      action,
		TableName:   &table,
		RecordID:    &id,
		Description: description,
		OldData:     old,
		NewData:     updated,
	}
	if actor.IP != "" {
		entry.IPAddress = &actor.IP
	}
	h.recorder.Record(c.Request.Context(), entry)
}

// pathID parses the :id path parameter, responding 400 on garbage.
func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset id"})
		return 0, false
	}
	return id, true
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

// respondError maps domain sentinels to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
	case errors.Is(err, repositories.ErrEmployeeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
	case errors.Is(err, repositories.ErrAssetAllocated):
		c.JSON(http.StatusConflict, gin.H{"error": "asset has an open allocation"})
	case errors.Is(err, repositories.ErrDuplicateField):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
