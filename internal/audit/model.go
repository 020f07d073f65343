package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what happened to a session.
type Kind string

const (
	KindLogin  Kind = "login"
	KindLogout Kind = "logout"
)

// DefaultListLimit caps how many events a listing returns.
const DefaultListLimit = 20

// Event records a single login or logout. Only the Discord subject id is kept.
type Event struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Kind      Kind      `db:"kind" json:"kind"`
	IPAddress string    `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent string    `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewEvent stamps a fresh event for userID.
func NewEvent(userID string, kind Kind, ipAddress, userAgent string, at time.Time) Event {
	return Event{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: at.UTC(),
	}
}

// Repository persists audit events.
type Repository interface {
	Record(ctx context.Context, event Event) error
	// ListByUser returns the newest events first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Event, error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
