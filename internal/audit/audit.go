// Package audit provides the append-only authentication audit log.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of an audited authentication attempt.
type Status string

// Statuses.
const (
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
)

// RetentionWindow is how long entries are kept before the store expires
// them. Expiry is enforced by the store (TTL index), not by this package.
const RetentionWindow = 90 * 24 * time.Hour

// DefaultQueryLimit bounds queries that do not specify a limit.
const DefaultQueryLimit = 100

// Entry is one audit record. Entries are never updated after creation.
type Entry struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	Service   string    `bson:"service" json:"service"`
	Status    Status    `bson:"status" json:"status"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	Path      string    `bson:"path,omitempty" json:"path,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// NewEntry creates an Entry with a fresh ID and timestamp.
func NewEntry(userID, service string, status Status, reason, path string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Service:   service,
		Status:    status,
		Reason:    reason,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}
}

// Filter selects entries in a query. Zero-valued fields are unconstrained;
// set fields are AND-combined.
type Filter struct {
	UserID  string
	Service string
	Status  Status
	Limit   int
}

// Recorder is the audit log interface.
type Recorder interface {
	// Record appends an entry. Write failures are propagated, never
	// swallowed.
	Record(ctx context.Context, entry Entry) error

	// Query returns matching entries, newest first. A zero limit uses
	// DefaultQueryLimit.
	Query(ctx context.Context, filter Filter) ([]Entry, error)
}

// Matches reports whether the entry satisfies the filter (ignoring Limit).
func (f Filter) Matches(entry Entry) bool {
	if f.UserID != "" && entry.UserID != f.UserID {
		return false
	}
	if f.Service != "" && entry.Service != f.Service {
		return false
	}
	if f.Status != "" && entry.Status != f.Status {
		return false
	}
	return true
}
