package store

import (
	"context"
	"errors"

	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/model"
)

// ErrNotAckable covers every acknowledgment failure: unknown id, already
// acknowledged, or an entry type that is never ackable. Callers cannot
// distinguish the causes, so a probe of the ack endpoint leaks nothing
// about which entries exist.
var ErrNotAckable = errors.New("log entry not found or not ackable")

// StatusStore holds one current-status record per component id.
type StatusStore interface {
	// Get returns the record for id; the bool reports whether it exists.
	Get(ctx context.Context, id string) (model.StatusRecord, bool, error)
	// Upsert inserts or replaces the record keyed by its ID.
	Upsert(ctx context.Context, rec model.StatusRecord) error
	// List returns all records ordered by id ascending.
	List(ctx context.Context) ([]model.StatusRecord, error)
}

// LogStore holds the bounded status-change history.
type LogStore interface {
	// Append stores a new entry and discards entries beyond the retention
	// bound, keeping only the most recent ones by timestamp.
	Append(ctx context.Context, entry model.LogEntry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]model.LogEntry, error)
	// Acknowledge flips an unacknowledged warning/alarm entry to
	// acknowledged and returns it. Any other state yields ErrNotAckable.
	Acknowledge(ctx context.Context, id string) (model.LogEntry, error)
}
