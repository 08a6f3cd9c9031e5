package outbox

import (
	"context"

	"storefront-be/internal/db"
)

type Repository interface {
	Insert(ctx context.Context, q db.Querier, e *Event) error
	FetchPending(ctx context.Context, q db.Querier, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, q db.Querier, id int64) error
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, q db.Querier, e *Event) error {
	return q.QueryRowContext(ctx, `
		INSERT INTO outbox_events (event_id, aggregate_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, e.EventID, e.AggregateID, e.EventType, []byte(e.Payload)).Scan(&e.ID, &e.CreatedAt)
}

func (r *repository) FetchPending(ctx context.Context, q db.Querier, limit int) ([]Event, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, event_id, aggregate_id, event_type, payload, created_at, published_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.EventID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) MarkPublished(ctx context.Context, q db.Querier, id int64) error {
	_, err := q.ExecContext(ctx, `UPDATE outbox_events SET published_at = NOW() WHERE id = $1`, id)
	return err
}
