package allocation

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/curiango/curiango/internal/db/models"
)

var auditCols = []string{
	"id", "actor", "level", "action", "table_name", "record_id",
	"description", "old_data", "new_data", "ip_address", "created_at",
}

var maintenanceCols = []string{
	"id", "asset_id", "kind", "description", "notes", "created_at", "updated_at",
}

var allocationWithNameCols = []string{
	"id", "asset_id", "employee_id", "started_at", "ended_at",
	"reason", "document_generated", "created_at", "name",
}

// expectAssetExists covers the existence check at the top of ComposeHistory:
// the base row plus the detail load performed by Get.
func (f *engineFixture) expectAssetExists(assetID int) {
	now := time.Now()
	f.mock.ExpectQuery("SELECT id, category.*FROM assets WHERE id").
		WithArgs(assetID).
		WillReturnRows(sqlmock.NewRows(assetCols).
			AddRow(assetID, models.CategorySmartphone, models.ConditionUsed,
				nil, nil, nil, nil, now, now))
	f.expectPhoneDetailsMissing(assetID)
}

func TestComposeHistory_MergesAndOrdersNewestFirst(t *testing.T) {
	f := newEngine(t)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	bobStart := day.Add(10 * time.Hour)
	bobAudit := bobStart.Add(5 * time.Second) // trail timestamp differs from the row's
	bobEnd := day.Add(11 * time.Hour)
	maintAt := day.Add(11*time.Hour + 30*time.Minute)
	aliceStart := day.Add(12 * time.Hour)
	aliceAudit := aliceStart.Add(7 * time.Second)

	f.expectAssetExists(42)

	// Custody periods, newest first: Alice open, Bob closed.
	f.mock.ExpectQuery("SELECT a.id.*FROM allocations a.*JOIN employees e").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(allocationWithNameCols).
			AddRow(101, 42, 7, aliceStart, nil, "replacement", true, aliceStart, "Alice Jones").
			AddRow(90, 42, 5, bobStart, bobEnd, nil, true, bobStart, "Bob Smith"))

	f.mock.ExpectQuery(`SELECT \* FROM maintenances WHERE asset_id`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(maintenanceCols).
			AddRow(3, 42, "repair", "Screen replaced", nil, maintAt, maintAt))

	// Trail entries, newest first. The transfer to Alice names both
	// custodians, so it must date Alice's open event, not Bob's.
	f.mock.ExpectQuery("SELECT id, actor.*FROM audit_log.*WHERE table_name").
		WithArgs("assets", 42).
		WillReturnRows(sqlmock.NewRows(auditCols).
			AddRow(2, "admin", models.LevelInfo, models.ActionTransfer, "assets", 42,
				"Asset 42 transferred from Bob Smith to Alice Jones", nil, nil, nil, aliceAudit).
			AddRow(1, "admin", models.LevelInfo, models.ActionTransfer, "assets", 42,
				"Asset 42 allocated to Bob Smith", nil, nil, nil, bobAudit))

	events, err := f.engine.ComposeHistory(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}

	wantKinds := []string{EventAllocation, EventMaintenance, EventReturn, EventAllocation}
	for i, kind := range wantKinds {
		if events[i].Kind != kind {
			t.Errorf("events[%d].Kind = %q, want %q", i, events[i].Kind, kind)
		}
	}

	// Allocation events carry their trail timestamps; the close event has no
	// trail correlate left and falls back to the row's end timestamp.
	if !events[0].Timestamp.Equal(aliceAudit) {
		t.Errorf("events[0].Timestamp = %v, want trail time %v", events[0].Timestamp, aliceAudit)
	}
	if !events[2].Timestamp.Equal(bobEnd) {
		t.Errorf("events[2].Timestamp = %v, want %v", events[2].Timestamp, bobEnd)
	}
	if !events[3].Timestamp.Equal(bobAudit) {
		t.Errorf("events[3].Timestamp = %v, want trail time %v", events[3].Timestamp, bobAudit)
	}

	if events[0].Description != "Allocated to Alice Jones" {
		t.Errorf("events[0].Description = %q", events[0].Description)
	}
	if events[0].ActorName != "admin" {
		t.Errorf("events[0].ActorName = %q, want trail actor", events[0].ActorName)
	}
	if events[0].Note == nil || *events[0].Note != "replacement" {
		t.Error("allocation reason should surface as the event note")
	}
	if events[1].Description != "Screen replaced" {
		t.Errorf("events[1].Description = %q", events[1].Description)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestComposeHistory_ReturnEventUsesRemoveAllocationEntry(t *testing.T) {
	f := newEngine(t)

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	returnAudit := end.Add(3 * time.Second)

	f.expectAssetExists(42)
	f.mock.ExpectQuery("SELECT a.id.*FROM allocations a.*JOIN employees e").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(allocationWithNameCols).
			AddRow(90, 42, 5, start, end, nil, true, start, "Bob Smith"))
	f.mock.ExpectQuery(`SELECT \* FROM maintenances WHERE asset_id`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(maintenanceCols))
	f.mock.ExpectQuery("SELECT id, actor.*FROM audit_log.*WHERE table_name").
		WithArgs("assets", 42).
		WillReturnRows(sqlmock.NewRows(auditCols).
			AddRow(2, "admin", models.LevelInfo, models.ActionRemoveAllocation, "assets", 42,
				"Asset 42 returned by Bob Smith", nil, nil, nil, returnAudit).
			AddRow(1, "admin", models.LevelInfo, models.ActionTransfer, "assets", 42,
				"Asset 42 allocated to Bob Smith", nil, nil, nil, start))

	events, err := f.engine.ComposeHistory(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != EventReturn {
		t.Errorf("events[0].Kind = %q", events[0].Kind)
	}
	if !events[0].Timestamp.Equal(returnAudit) {
		t.Errorf("return event timestamp = %v, want trail time %v", events[0].Timestamp, returnAudit)
	}
}

func TestComposeHistory_NoTrailFallsBackToRowTimestamps(t *testing.T) {
	f := newEngine(t)

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	f.expectAssetExists(42)
	f.mock.ExpectQuery("SELECT a.id.*FROM allocations a.*JOIN employees e").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(allocationWithNameCols).
			AddRow(101, 42, 7, start, nil, nil, false, start, "Alice Jones"))
	f.mock.ExpectQuery(`SELECT \* FROM maintenances WHERE asset_id`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(maintenanceCols))
	f.mock.ExpectQuery("SELECT id, actor.*FROM audit_log.*WHERE table_name").
		WithArgs("assets", 42).
		WillReturnRows(sqlmock.NewRows(auditCols))

	events, err := f.engine.ComposeHistory(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !events[0].Timestamp.Equal(start) {
		t.Errorf("timestamp = %v, want row time %v", events[0].Timestamp, start)
	}
	if events[0].ActorName != "Alice Jones" {
		t.Errorf("ActorName = %q, want custodian name fallback", events[0].ActorName)
	}
}

func TestComposeHistory_AssetNotFound(t *testing.T) {
	f := newEngine(t)

	f.mock.ExpectQuery("SELECT id, category.*FROM assets WHERE id").
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	_, err := f.engine.ComposeHistory(context.Background(), 42)
	if !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("err = %v, want ErrAssetNotFound", err)
	}
}
