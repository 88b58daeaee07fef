// Package allocation implements the asset custody state machine: transferring
// an asset between custodians, returning it to stock, and composing the
// per-asset event history.
//
// The mandatory state change of a transfer or return (close the open custody
// period, move the custodian pointer, open the new period) runs as one
// transaction with the asset row locked, so the schema-level guarantee of at
// most one open allocation per asset also holds under concurrent callers.
// Document generation, email delivery and audit trail writes are deliberately
// outside that guarantee: their failure is logged and absorbed, never
// propagated, and never rolls back a committed custody change.
package allocation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/curiango/curiango/internal/audit"
	"github.com/curiango/curiango/internal/db/models"
	"github.com/curiango/curiango/internal/db/repositories"
	"github.com/curiango/curiango/internal/telemetry"
)

// Sentinels surfaced to the API layer. Aliased from the repository package so
// handlers can match them without importing two packages.
var (
	ErrAssetNotFound    = repositories.ErrAssetNotFound
	ErrEmployeeNotFound = repositories.ErrEmployeeNotFound
)

const defaultDispatchTimeout = 15 * time.Second

// auditTable is the table name recorded on custody audit entries.
const auditTable = "assets"

// documentGenerator produces the responsibility term for an asset/custodian
// pair. Satisfied by documents.Generator.
type documentGenerator interface {
	Generate(ctx context.Context, asset *models.Asset, custodian *models.Employee) ([]byte, error)
}

// noticeDispatcher delivers allocation and return emails. Satisfied by
// notifications.Dispatcher.
type noticeDispatcher interface {
	SendAllocationNotice(ctx context.Context, asset *models.Asset, custodian *models.Employee, sector *models.Sector, document []byte) error
	SendReturnNotice(ctx context.Context, asset *models.Asset, custodian *models.Employee, sector *models.Sector) error
}

// trailRecorder writes audit entries. Satisfied by audit.Recorder.
type trailRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog)
}

// auditReader retrieves the audit entries used to date history events.
// Satisfied by repositories.AuditRepository.
type auditReader interface {
	ListForRecord(ctx context.Context, tableName string, recordID int) ([]*models.AuditLog, error)
}

// Engine orchestrates custody transitions.
type Engine struct {
	db           *sql.DB
	assets       *repositories.AssetRepository
	employees    *repositories.EmployeeRepository
	allocations  *repositories.AllocationRepository
	maintenances *repositories.MaintenanceRepository
	auditLog     auditReader
	recorder     trailRecorder
	generator    documentGenerator
	dispatcher   noticeDispatcher

	dispatchTimeout time.Duration
}

// Params collects the Engine's collaborators. Generator and Dispatcher may be
// nil, in which case transfers skip document delivery and leave the document
// flag unset.
type Params struct {
	DB           *sql.DB
	Assets       *repositories.AssetRepository
	Employees    *repositories.EmployeeRepository
	Allocations  *repositories.AllocationRepository
	Maintenances *repositories.MaintenanceRepository
	AuditLog     auditReader
	Recorder     trailRecorder
	Generator    documentGenerator
	Dispatcher   noticeDispatcher

	// DispatchTimeout bounds the best-effort document + email step inside a
	// transfer. Zero means the default of 15s.
	DispatchTimeout time.Duration
}

// NewEngine creates an Engine.
func NewEngine(p Params) *Engine {
	if p.DispatchTimeout <= 0 {
		p.DispatchTimeout = defaultDispatchTimeout
	}
	return &Engine{
		db:              p.DB,
		assets:          p.Assets,
		employees:       p.Employees,
		allocations:     p.Allocations,
		maintenances:    p.Maintenances,
		auditLog:        p.AuditLog,
		recorder:        p.Recorder,
		generator:       p.Generator,
		dispatcher:      p.Dispatcher,
		dispatchTimeout: p.DispatchTimeout,
	}
}

// TransferResult reports the outcome of a transfer.
type TransferResult struct {
	AllocationID      int  `json:"allocation_id"`
	DocumentGenerated bool `json:"document_generated"`
}

// Transfer moves an asset to a new custodian. Any open custody period is
// closed and a new one opened in the same transaction, with the asset row
// locked so concurrent transfers of the same asset serialize. The
// responsibility document is generated and emailed best-effort within the
// dispatch timeout; its failure leaves the document flag unset but never
// fails the transfer. The audit entry is written after commit.
func (e *Engine) Transfer(ctx context.Context, assetID, custodianID int, reason string) (*TransferResult, error) {
	custodian, sector, err := e.employees.GetWithSector(ctx, custodianID)
	if err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	asset, err := e.assets.GetForUpdate(ctx, tx, assetID)
	if err != nil {
		return nil, err
	}

	previousID := asset.CurrentEmployeeID
	previousName := e.employeeName(ctx, previousID)
	now := time.Now().UTC()

	open, err := e.allocations.GetOpenForAsset(ctx, tx, assetID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		if err := e.allocations.Close(ctx, tx, open.ID, now); err != nil {
			return nil, fmt.Errorf("failed to close open allocation: %w", err)
		}
	}

	if err := e.assets.UpdateCustodian(ctx, tx, assetID, &custodian.ID, &now); err != nil {
		return nil, err
	}

	alloc := &models.Allocation{
		AssetID:    assetID,
		EmployeeID: custodian.ID,
		StartedAt:  now,
	}
	if reason != "" {
		alloc.Reason = &reason
	}
	if err := e.allocations.Create(ctx, tx, alloc); err != nil {
		return nil, fmt.Errorf("failed to create allocation: %w", err)
	}

	if e.deliverDocument(ctx, asset, custodian, sector) {
		alloc.DocumentGenerated = true
		if err := e.allocations.SetDocumentGenerated(ctx, tx, alloc.ID, true); err != nil {
			return nil, fmt.Errorf("failed to flag document delivery: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	e.recordTransfer(ctx, asset, custodian, previousID, previousName, now)
	telemetry.TransfersTotal.WithLabelValues(asset.Category).Inc()

	return &TransferResult{AllocationID: alloc.ID, DocumentGenerated: alloc.DocumentGenerated}, nil
}

// Return closes the asset's custody. Returning an unallocated asset is a
// no-op success: nothing is written, no audit entry is recorded. The return
// notice to the former custodian is sent best-effort after commit.
func (e *Engine) Return(ctx context.Context, assetID int) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	asset, err := e.assets.GetForUpdate(ctx, tx, assetID)
	if err != nil {
		return err
	}

	open, err := e.allocations.GetOpenForAsset(ctx, tx, assetID)
	if err != nil {
		return err
	}
	if open == nil && asset.CurrentEmployeeID == nil {
		return nil
	}

	custodianID := asset.CurrentEmployeeID
	if custodianID == nil && open != nil {
		custodianID = &open.EmployeeID
	}

	var custodian *models.Employee
	var sector *models.Sector
	if custodianID != nil {
		custodian, sector, err = e.employees.GetWithSector(ctx, *custodianID)
		if err != nil && err != repositories.ErrEmployeeNotFound {
			return err
		}
	}

	now := time.Now().UTC()
	if open != nil {
		if err := e.allocations.Close(ctx, tx, open.ID, now); err != nil {
			return fmt.Errorf("failed to close allocation: %w", err)
		}
	}
	if err := e.assets.UpdateCustodian(ctx, tx, assetID, nil, nil); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit return: %w", err)
	}

	e.recordReturn(ctx, asset, custodian, custodianID)
	telemetry.ReturnsTotal.WithLabelValues(asset.Category).Inc()

	if custodian != nil && e.dispatcher != nil {
		noticeCtx, cancel := context.WithTimeout(ctx, e.dispatchTimeout)
		defer cancel()
		if err := e.dispatcher.SendReturnNotice(noticeCtx, asset, custodian, sector); err != nil {
			slog.Warn("failed to send return notice",
				"asset_id", asset.ID, "employee_id", custodian.ID, "error", err)
		}
	}

	return nil
}

// deliverDocument generates the responsibility term and emails it, bounded by
// the dispatch timeout. Reports whether both steps succeeded. Never returns
// an error: failures here must not disturb the surrounding transfer.
func (e *Engine) deliverDocument(ctx context.Context, asset *models.Asset, custodian *models.Employee, sector *models.Sector) bool {
	if e.generator == nil || e.dispatcher == nil {
		return false
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, e.dispatchTimeout)
	defer cancel()

	if err := e.assets.LoadDetails(dispatchCtx, asset); err != nil {
		slog.Warn("failed to load asset details for document",
			"asset_id", asset.ID, "error", err)
	}

	document, err := e.generator.Generate(dispatchCtx, asset, custodian)
	if err != nil {
		telemetry.DocumentFailuresTotal.Inc()
		slog.Warn("failed to generate responsibility document",
			"asset_id", asset.ID, "employee_id", custodian.ID, "error", err)
		return false
	}
	telemetry.DocumentsGeneratedTotal.Inc()

	if err := e.dispatcher.SendAllocationNotice(dispatchCtx, asset, custodian, sector, document); err != nil {
		telemetry.DocumentFailuresTotal.Inc()
		slog.Warn("failed to send allocation notice",
			"asset_id", asset.ID, "employee_id", custodian.ID, "error", err)
		return false
	}
	return true
}

// recordTransfer writes the TRANSFER audit entry after commit. The
// description distinguishes a first allocation from a transfer between
// custodians; history composition later matches on the custodian names it
// contains.
func (e *Engine) recordTransfer(ctx context.Context, asset *models.Asset, custodian *models.Employee, previousID *int, previousName string, at time.Time) {
	description := fmt.Sprintf("allocated to %s", custodian.Name)
	if previousID != nil {
		description = fmt.Sprintf("transferred from %s to %s", previousName, custodian.Name)
	}

	old := map[string]interface{}{
		"current_employee_id": previousID,
		"allocated_at":        asset.AllocatedAt,
	}
	if previousID != nil {
		old["employee_name"] = previousName
	}
	updated := map[string]interface{}{
		"current_employee_id": custodian.ID,
		"employee_name":       custodian.Name,
		"allocated_at":        at,
	}

	e.record(ctx, models.ActionTransfer, asset.ID,
		fmt.Sprintf("Asset %d %s", asset.ID, description), old, updated)
}

// recordReturn writes the REMOVE_ALLOCATION audit entry after commit.
func (e *Engine) recordReturn(ctx context.Context, asset *models.Asset, custodian *models.Employee, custodianID *int) {
	name := audit.SystemActor
	if custodian != nil {
		name = custodian.Name
	}

	old := map[string]interface{}{
		"current_employee_id": custodianID,
		"allocated_at":        asset.AllocatedAt,
		"employee_name":       name,
	}
	updated := map[string]interface{}{
		"current_employee_id": nil,
		"allocated_at":        nil,
	}

	e.record(ctx, models.ActionRemoveAllocation, asset.ID,
		fmt.Sprintf("Asset %d returned by %s", asset.ID, name), old, updated)
}

func (e *Engine) record(ctx context.Context, action string, assetID int, description string, old, updated map[string]interface{}) {
	if e.recorder == nil {
		return
	}

	actor := audit.ActorFromContext(ctx)
	table := auditTable
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
	e.recorder.Record(ctx, entry)
}

// employeeName resolves a custodian's display name for audit descriptions.
// Falls back to a numeric label when the row is gone.
func (e *Engine) employeeName(ctx context.Context, id *int) string {
	if id == nil {
		return ""
	}
	emp, err := e.employees.Get(ctx, *id)
	if err != nil {
		return fmt.Sprintf("employee %d", *id)
	}
	return emp.Name
}
