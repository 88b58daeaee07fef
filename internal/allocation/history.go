// history.go composes the per-asset event timeline out of custody periods and
// maintenance events. Allocation events are dated by their audit entry when
// one can be matched, since the trail records the true moment of the business
// event; the custody row's own timestamps are the fallback.
package allocation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/curiango/curiango/internal/db/models"
)

// Event kinds in a composed history.
const (
	EventAllocation  = "allocation"
	EventReturn      = "return"
	EventMaintenance = "maintenance"
)

// Event is one entry in an asset's composed history.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	ActorName   string    `json:"actor_name,omitempty"`
	Note        *string   `json:"note,omitempty"`
}

// ComposeHistory merges an asset's custody periods and maintenance events
// into one timeline, newest first. Recomputed on every call. The asset must
// exist; an asset with no events yields an empty slice.
func (e *Engine) ComposeHistory(ctx context.Context, assetID int) ([]Event, error) {
	if _, err := e.assets.Get(ctx, assetID); err != nil {
		return nil, err
	}

	allocations, err := e.allocations.ListForAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	maintenances, err := e.maintenances.ListForAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	trail, err := e.auditLog.ListForRecord(ctx, auditTable, assetID)
	if err != nil {
		return nil, err
	}

	matcher := newTrailMatcher(trail)
	events := make([]Event, 0, 2*len(allocations)+len(maintenances))

	for _, alloc := range allocations {
		name := ""
		if alloc.EmployeeName != nil {
			name = *alloc.EmployeeName
		}

		openEvent := Event{
			Timestamp:   alloc.CreatedAt,
			Kind:        EventAllocation,
			Description: fmt.Sprintf("Allocated to %s", name),
			ActorName:   name,
			Note:        alloc.Reason,
		}
		if entry := matcher.match(models.ActionTransfer, name); entry != nil {
			openEvent.Timestamp = entry.CreatedAt
			openEvent.ActorName = entry.Actor
		}
		events = append(events, openEvent)

		if alloc.EndedAt == nil {
			continue
		}
		closeEvent := Event{
			Timestamp:   *alloc.EndedAt,
			Kind:        EventReturn,
			Description: fmt.Sprintf("Returned by %s", name),
			ActorName:   name,
		}
		// A custody period ends either by an explicit return or by the
		// transfer that superseded it; either entry names this custodian.
		if entry := matcher.match(models.ActionRemoveAllocation, name); entry != nil {
			closeEvent.Timestamp = entry.CreatedAt
			closeEvent.ActorName = entry.Actor
		} else if entry := matcher.match(models.ActionTransfer, name); entry != nil {
			closeEvent.Timestamp = entry.CreatedAt
			closeEvent.ActorName = entry.Actor
		}
		events = append(events, closeEvent)
	}

	for _, m := range maintenances {
		events = append(events, Event{
			Timestamp:   m.CreatedAt,
			Kind:        EventMaintenance,
			Description: m.Description,
			Note:        m.Notes,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})

	return events, nil
}

// trailMatcher hands out audit entries by action and custodian name, each at
// most once, so repeated allocations to the same person date against distinct
// entries.
type trailMatcher struct {
	entries []*models.AuditLog
	used    []bool
}

func newTrailMatcher(entries []*models.AuditLog) *trailMatcher {
	return &trailMatcher{entries: entries, used: make([]bool, len(entries))}
}

func (m *trailMatcher) match(action, name string) *models.AuditLog {
	if name == "" {
		return nil
	}
	for i, entry := range m.entries {
		if m.used[i] || entry.Action != action {
			continue
		}
		if strings.Contains(entry.Description, name) {
			m.used[i] = true
			return entry
		}
	}
	return nil
}
