package audit

import (
	"context"
	"log/slog"
	"time"
)

// Recorder writes audit events on a best-effort basis: failures are logged and
// never returned to the caller.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder wires a Recorder around repo.
func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger, now: time.Now}
}

// Record stores an event of kind for userID.
func (r *Recorder) Record(ctx context.Context, userID string, kind Kind, ipAddress, userAgent string) {
	event := NewEvent(userID, kind, ipAddress, userAgent, r.now())
	if err := r.repo.Record(ctx, event); err != nil {
		r.logger.Warn("audit record failed", "kind", kind, "user_id", userID, "error", err)
	}
}

// Recent returns the newest events for userID.
func (r *Recorder) Recent(ctx context.Context, userID string) ([]Event, error) {
	return r.repo.ListByUser(ctx, userID, DefaultListLimit)
}
