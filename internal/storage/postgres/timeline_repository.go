package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// timelineRepository — журнал событий заказа. Строки только добавляются;
// при равном occurred_at порядок задаёт id.
type timelineRepository struct {
	q querier
}

func (r *timelineRepository) Append(ctx context.Context, event domain.TimelineEvent) error {
	if event.OrderID == "" || event.Type == "" {
		return errors.New("timeline event requires order id and type")
	}
	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO timeline_events (order_id, kind, reason, occurred_at) VALUES ($1, $2, $3, $4)`,
		event.OrderID, event.Type, event.Reason, event.Occurred,
	)
	switch {
	case pgErrorCode(err) == pgForeignKeyViolation:
		return fmt.Errorf("timeline for order %s: %w", event.OrderID, domain.ErrOrderNotFound)
	case err != nil:
		return fmt.Errorf("append timeline event: %w", err)
	}
	return nil
}

func (r *timelineRepository) List(ctx context.Context, orderID string) ([]domain.TimelineEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT kind, reason, occurred_at
		FROM timeline_events
		WHERE order_id = $1
		ORDER BY occurred_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list timeline of order %s: %w", orderID, err)
	}
	defer rows.Close()

	events := []domain.TimelineEvent{}
	for rows.Next() {
		event := domain.TimelineEvent{OrderID: orderID}
		if err := rows.Scan(&event.Type, &event.Reason, &event.Occurred); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		event.Occurred = event.Occurred.UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline events: %w", err)
	}
	return events, nil
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)
