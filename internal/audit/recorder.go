package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/curiango/curiango/internal/db/models"
	"github.com/curiango/curiango/internal/safego"
	"github.com/curiango/curiango/internal/telemetry"
)

// store is the persistence surface the recorder needs. Satisfied by
// repositories.AuditRepository.
type store interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// Recorder writes audit trail entries. It never returns an error: a failed
// write is logged and counted, but the operation that produced the entry is
// already committed and must not be disturbed. Writes go through the root
// connection pool, never a caller's transaction, so a rolled-back operation
// cannot take its trail entry down with it and a failed trail write cannot
// poison the operation.
type Recorder struct {
	store   store
	shipper Shipper // optional fan-out to external destinations
}

// NewRecorder creates a Recorder. shipper may be nil.
func NewRecorder(s store, shipper Shipper) *Recorder {
	return &Recorder{store: s, shipper: shipper}
}

// Record persists an audit entry, attributing it to SystemActor when the actor
// is empty. The write uses its own timeout detached from the request context so
// a cancelled request still leaves a trail.
func (r *Recorder) Record(ctx context.Context, entry *models.AuditLog) {
	if entry.Actor == "" {
		entry.Actor = SystemActor
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.store.Create(writeCtx, entry); err != nil {
		telemetry.AuditWriteFailuresTotal.Inc()
		slog.Error("failed to write audit entry",
			"action", entry.Action,
			"actor", entry.Actor,
			"description", entry.Description,
			"error", err)
		return
	}

	if r.shipper != nil {
		shipped := toLogEntry(entry)
		safego.Go(func() {
			shipCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := r.shipper.Ship(shipCtx, shipped); err != nil {
				slog.Warn("failed to ship audit entry", "action", shipped.Action, "error", err)
			}
		})
	}
}

func toLogEntry(entry *models.AuditLog) *LogEntry {
	out := &LogEntry{
		Timestamp:   entry.CreatedAt,
		Actor:       entry.Actor,
		Level:       entry.Level,
		Action:      entry.Action,
		Description: entry.Description,
		OldData:     entry.OldData,
		NewData:     entry.NewData,
	}
	if entry.TableName != nil {
		out.TableName = *entry.TableName
	}
	if entry.RecordID != nil {
		out.RecordID = *entry.RecordID
	}
	if entry.IPAddress != nil {
		out.IPAddress = *entry.IPAddress
	}
	return out
}
