package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ComponentID derives the stable storage key for a reported component name.
// Case-folded so "Redis" and "redis" reconcile into the same record.
func ComponentID(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewEntryID returns a fresh unique id for a log entry.
func NewEntryID() string {
	return uuid.NewString()
}
