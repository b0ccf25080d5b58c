package model

// Severity labels reported by probes. The set is open: anything non-empty
// is stored as-is, these are just the values with dedicated log semantics.
const (
	SeverityOK      = "ok"
	SeverityWarning = "warning"
	SeverityAlarm   = "alarm"
)

// Log entry types. Mirrors the severity at logging time, with "info"
// covering severities outside the known set.
const (
	LogTypeOK      = "ok"
	LogTypeWarning = "warning"
	LogTypeAlarm   = "alarm"
	LogTypeInfo    = "info"
)

// DetailPlaceholder is stored when a report carries neither detail nor reason.
const DetailPlaceholder = "—"

// IngestRequest is the raw report body posted by a probe.
type IngestRequest struct {
	Component string `json:"component"`
	Severity  string `json:"severity"`
	Reason    string `json:"reason,omitempty"`
	Detail    string `json:"detail,omitempty"`
	UpdatedAt int64  `json:"updatedAt,omitempty"` // epoch ms, optional
}

// StatusRecord is the current health of one component. Exactly one record
// exists per ID; the ID is the case-folded component name.
type StatusRecord struct {
	ID        string `bson:"_id" json:"id"`
	Name      string `bson:"name" json:"name"` // display name, original casing
	Severity  string `bson:"severity" json:"severity"`
	Detail    string `bson:"detail" json:"detail"`
	UpdatedAt int64  `bson:"updated_at" json:"updatedAt"` // epoch ms
}

// LogEntry records one observed status change.
type LogEntry struct {
	ID           string `bson:"_id" json:"id"`
	Timestamp    int64  `bson:"timestamp" json:"timestamp"` // epoch ms, receipt-assigned
	Type         string `bson:"type" json:"type"`
	Component    string `bson:"component" json:"component"`
	Title        string `bson:"title" json:"title"`
	Acknowledged bool   `bson:"acknowledged" json:"acknowledged"`
}

// Ackable reports whether an operator may still acknowledge this entry.
// Only unacknowledged warning and alarm entries qualify; ok-typed entries
// start acknowledged and never become ackable.
func (e LogEntry) Ackable() bool {
	if e.Acknowledged {
		return false
	}
	return e.Type == LogTypeWarning || e.Type == LogTypeAlarm
}

// Snapshot is the consolidated read view served to the dashboard.
type Snapshot struct {
	Statuses    []StatusRecord `json:"statuses"`
	Logs        []LogEntry     `json:"logs"`
	GeneratedAt int64          `json:"generatedAt"` // epoch ms, assembly time
}
