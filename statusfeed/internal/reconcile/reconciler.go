package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/FL-AZ-EIC/fezwd-backend/pkg/utils"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/model"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/store"
)

// ErrMissingFields is returned when a report lacks component or severity.
var ErrMissingFields = errors.New("component and severity are required")

// Reconciler turns authenticated reports into status updates and, when the
// effective status actually changed, log entries. The status read-modify-write
// for a given component id runs under a per-id lock: two racing reports for
// the same component cannot both observe the pre-update state and double-log,
// or leave the record and the log inconsistent.
type Reconciler struct {
	statuses store.StatusStore
	logs     store.LogStore
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReconciler(statuses store.StatusStore, logs store.LogStore) *Reconciler {
	return &Reconciler{
		statuses: statuses,
		logs:     logs,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Ingest applies one report. A report that does not change the observable
// (severity, detail) pair refreshes the record silently; a real change also
// appends a log entry and trims the history to its retention bound.
func (r *Reconciler) Ingest(ctx context.Context, req model.IngestRequest) error {
	if strings.TrimSpace(req.Component) == "" || strings.TrimSpace(req.Severity) == "" {
		return ErrMissingFields
	}

	id := utils.ComponentID(req.Component)
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, found, err := r.statuses.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load status: %w", err)
	}
	if !found {
		rec = model.StatusRecord{
			ID:       id,
			Severity: model.SeverityOK,
			Detail:   model.DetailPlaceholder,
		}
	}

	prev := rec
	before := fingerprint(rec)

	rec.Name = req.Component
	rec.Severity = req.Severity
	rec.Detail = resolveDetail(req)

	now := r.now()
	if req.UpdatedAt > 0 {
		rec.UpdatedAt = req.UpdatedAt
	} else {
		rec.UpdatedAt = now.UnixMilli()
	}

	changed := fingerprint(rec) != before

	if err := r.statuses.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("persist status: %w", err)
	}
	if !changed {
		return nil
	}

	entry := model.LogEntry{
		ID:           utils.NewEntryID(),
		Timestamp:    now.UnixMilli(),
		Type:         logType(req.Severity),
		Component:    rec.Name,
		Title:        logTitle(rec.Name, req.Severity, req.Reason),
		Acknowledged: req.Severity == model.SeverityOK,
	}
	if err := r.logs.Append(ctx, entry); err != nil {
		// Restore the pre-update record so the status never sits changed
		// without its log entry. A never-seen component rolls back to the
		// creation default, which fingerprints identically to absent, so a
		// retried report re-observes the change either way.
		if rbErr := r.statuses.Upsert(ctx, prev); rbErr != nil {
			slog.Error("status rollback failed after log append failure",
				"component", id, "err", rbErr)
		}
		return fmt.Errorf("append log entry: %w", err)
	}

	slog.Info("status change logged",
		"component", id, "severity", req.Severity, "type", entry.Type)
	return nil
}

func (r *Reconciler) lockFor(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

// fingerprint captures the observable part of a record. Updates that leave
// it unchanged are silent refreshes.
func fingerprint(rec model.StatusRecord) string {
	return rec.Severity + "\x00" + rec.Detail
}

func resolveDetail(req model.IngestRequest) string {
	if req.Detail != "" {
		return req.Detail
	}
	if req.Reason != "" {
		return req.Reason
	}
	return model.DetailPlaceholder
}

func logType(severity string) string {
	switch severity {
	case model.SeverityOK:
		return model.LogTypeOK
	case model.SeverityWarning:
		return model.LogTypeWarning
	case model.SeverityAlarm:
		return model.LogTypeAlarm
	default:
		return model.LogTypeInfo
	}
}

func logTitle(name, severity, reason string) string {
	var title string
	switch severity {
	case model.SeverityOK:
		title = fmt.Sprintf("%s is back to normal", name)
	case model.SeverityAlarm:
		title = fmt.Sprintf("%s raised an alarm", name)
	default:
		title = fmt.Sprintf("%s reported %s", name, severity)
	}
	if reason != "" {
		title += fmt.Sprintf(" (%s)", reason)
	}
	return title
}
