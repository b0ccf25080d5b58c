package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/model"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/store"
)

// Assembler joins current statuses with recent log history into the single
// payload the dashboard polls. Read-only; safe to call concurrently with
// ingestion.
type Assembler struct {
	statuses store.StatusStore
	logs     store.LogStore
	logLimit int
	now      func() time.Time
}

func NewAssembler(statuses store.StatusStore, logs store.LogStore, logLimit int) *Assembler {
	return &Assembler{
		statuses: statuses,
		logs:     logs,
		logLimit: logLimit,
		now:      time.Now,
	}
}

// Snapshot returns all statuses (by id), the newest log entries first, and
// a fresh assembly timestamp.
func (a *Assembler) Snapshot(ctx context.Context) (model.Snapshot, error) {
	statuses, err := a.statuses.List(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("list statuses: %w", err)
	}
	logs, err := a.logs.Recent(ctx, a.logLimit)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("list logs: %w", err)
	}
	return model.Snapshot{
		Statuses:    statuses,
		Logs:        logs,
		GeneratedAt: a.now().UnixMilli(),
	}, nil
}
