package audit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record inserts an event into login_events.
func (r *PostgresRepository) Record(ctx context.Context, event Event) error {
	const query = `
		INSERT INTO login_events (id, user_id, kind, ip_address, user_agent, created_at)
		VALUES (:id, :user_id, :kind, :ip_address, :user_agent, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}
	return nil
}

// ListByUser returns the most recent events for userID.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]Event, error) {
	const query = `
		SELECT id, user_id, kind, ip_address, user_agent, created_at
		FROM login_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	events := make([]Event, 0)
	if err := r.db.SelectContext(ctx, &events, query, userID, normalizeLimit(limit)); err != nil {
		return nil, fmt.Errorf("list login events: %w", err)
	}
	return events, nil
}
