package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestTimelineRepository_PostgresAppendAndList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repos := store.Repositories()
	ctx := context.Background()

	seedItemForIntegrationTest(t, store, "item-timeline", 5)
	orderedAt := time.Now().UTC().Add(-time.Minute).Round(time.Microsecond)
	order := sampleOrder("timeline-order", "account-timeline", orderedAt, "item-timeline")
	require.NoError(t, repos.Orders.Create(ctx, order))

	// Нулевое время заполняется автоматически.
	require.NoError(t, repos.Timeline.Append(ctx, domain.TimelineEvent{
		OrderID: order.ID,
		Type:    domain.TimelineOrderPlaced,
		Reason:  "placed",
	}))
	require.NoError(t, repos.Timeline.Append(ctx, domain.TimelineEvent{
		OrderID:  order.ID,
		Type:     domain.TimelineOrderCancelled,
		Reason:   "cancelled by account",
		Occurred: time.Now().UTC().Add(10 * time.Second),
	}))

	events, err := repos.Timeline.List(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.False(t, events[0].Occurred.After(events[1].Occurred), "events should be sorted by occurred asc")
	require.Equal(t, domain.TimelineOrderPlaced, events[0].Type)
	require.Equal(t, domain.TimelineOrderCancelled, events[1].Type)
}

func TestTimelineRepository_PostgresMissingOrder(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := store.Repositories().Timeline
	ctx := context.Background()

	err := repo.Append(ctx, domain.TimelineEvent{
		OrderID: "missing-order",
		Type:    domain.TimelineOrderPlaced,
		Reason:  "test",
	})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	require.Error(t, repo.Append(ctx, domain.TimelineEvent{OrderID: "missing-order"}), "type is required")

	events, err := repo.List(ctx, "missing-order")
	require.NoError(t, err)
	require.Empty(t, events)
}
