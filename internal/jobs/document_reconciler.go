// document_reconciler.go implements the DocumentReconciler background job, which
// periodically retries responsibility-document delivery for open allocations
// whose document never went out (generation or email failed during the
// transfer). Delivery state is persisted on the allocation row
// (document_generated column) so each document is sent at most once even
// across server restarts. The job is a no-op when notifications.enabled is
// false or when the SMTP host is not configured, so it is always safe to
// start regardless of deployment environment.
package jobs

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/curiango/curiango/internal/config"
	"github.com/curiango/curiango/internal/db/models"
	"github.com/curiango/curiango/internal/db/repositories"
	"github.com/curiango/curiango/internal/telemetry"
)

// reconcileBatchSize caps how many pending allocations one pass processes.
const reconcileBatchSize = 50

type documentGenerator interface {
	Generate(ctx context.Context, asset *models.Asset, custodian *models.Employee) ([]byte, error)
}

type noticeDispatcher interface {
	SendAllocationNotice(ctx context.Context, asset *models.Asset, custodian *models.Employee, sector *models.Sector, document []byte) error
}

// DocumentReconciler periodically redelivers responsibility documents that
// failed during the original transfer.
type DocumentReconciler struct {
	db          *sql.DB
	allocations *repositories.AllocationRepository
	assets      *repositories.AssetRepository
	employees   *repositories.EmployeeRepository
	generator   documentGenerator
	dispatcher  noticeDispatcher
	cfg         *config.NotificationsConfig
	interval    time.Duration
	stopChan    chan struct{}
}

// NewDocumentReconciler creates a new DocumentReconciler.
// cfg.ReconcileIntervalMinutes controls how often the pass runs (default 60m).
func NewDocumentReconciler(
	db *sql.DB,
	allocations *repositories.AllocationRepository,
	assets *repositories.AssetRepository,
	employees *repositories.EmployeeRepository,
	generator documentGenerator,
	dispatcher noticeDispatcher,
	cfg *config.NotificationsConfig,
) *DocumentReconciler {
	minutes := cfg.ReconcileIntervalMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return &DocumentReconciler{
		db:          db,
		allocations: allocations,
		assets:      assets,
		employees:   employees,
		generator:   generator,
		dispatcher:  dispatcher,
		cfg:         cfg,
		interval:    time.Duration(minutes) * time.Minute,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the background reconciliation loop.
// It runs an initial pass immediately, then repeats on the configured interval.
// The loop exits when ctx is cancelled or Stop() is called.
func (r *DocumentReconciler) Start(ctx context.Context) {
	if !r.cfg.Enabled {
		slog.Info("document reconciler disabled (notifications.enabled=false)")
		return
	}
	if r.cfg.SMTP.Host == "" {
		slog.Info("document reconciler disabled (notifications.smtp.host not set)")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("document reconciler started", "interval", r.interval)

	// Run once immediately on startup
	r.runPass(ctx)

	for {
		select {
		case <-ticker.C:
			r.runPass(ctx)
		case <-r.stopChan:
			slog.Info("document reconciler stopped")
			return
		case <-ctx.Done():
			slog.Info("document reconciler context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (r *DocumentReconciler) Stop() {
	close(r.stopChan)
}

// runPass redelivers the document for each open allocation still flagged as
// undelivered. Failures are logged and retried on the next pass.
func (r *DocumentReconciler) runPass(ctx context.Context) {
	pending, err := r.allocations.ListPendingDocuments(ctx, reconcileBatchSize)
	if err != nil {
		slog.Error("document reconciler: failed to list pending allocations", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	slog.Info("document reconciler: retrying delivery", "pending", len(pending))

	for _, alloc := range pending {
		if err := r.deliver(ctx, alloc); err != nil {
			slog.Warn("document reconciler: delivery failed, will retry",
				"allocation_id", alloc.ID, "asset_id", alloc.AssetID, "error", err)
			continue
		}
		if err := r.allocations.SetDocumentGenerated(ctx, r.db, alloc.ID, true); err != nil {
			slog.Error("document reconciler: failed to flag delivery",
				"allocation_id", alloc.ID, "error", err)
		}
	}
}

func (r *DocumentReconciler) deliver(ctx context.Context, alloc *models.Allocation) error {
	asset, err := r.assets.Get(ctx, alloc.AssetID)
	if err != nil {
		return err
	}
	custodian, sector, err := r.employees.GetWithSector(ctx, alloc.EmployeeID)
	if err != nil {
		return err
	}

	document, err := r.generator.Generate(ctx, asset, custodian)
	if err != nil {
		telemetry.DocumentFailuresTotal.Inc()
		return err
	}
	telemetry.DocumentsGeneratedTotal.Inc()

	return r.dispatcher.SendAllocationNotice(ctx, asset, custodian, sector, document)
}
