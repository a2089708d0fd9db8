package memory

import (
	"context"
	"sort"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// timelineRepository хранит события заказов в памяти.
type timelineRepository struct {
	h handle
}

// Append добавляет событие в хранилище.
func (r *timelineRepository) Append(_ context.Context, event domain.TimelineEvent) error {
	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}

	r.h.write(func(st *state) {
		events := append(st.timeline[event.OrderID], event)
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Occurred.Before(events[j].Occurred)
		})
		st.timeline[event.OrderID] = events
	})
	return nil
}

// List возвращает события заказа в хронологическом порядке.
func (r *timelineRepository) List(_ context.Context, orderID string) ([]domain.TimelineEvent, error) {
	var result []domain.TimelineEvent
	r.h.read(func(st *state) {
		events := st.timeline[orderID]
		result = make([]domain.TimelineEvent, len(events))
		copy(result, events)
	})
	return result, nil
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)
