package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func seedItem(t *testing.T, store *memory.Store, id string, stock int64, createdAt time.Time) domain.Item {
	t.Helper()

	item := domain.Item{
		ID:         id,
		Name:       "item " + id,
		Category:   "kitchen",
		PriceMinor: 100,
		StockQty:   stock,
		SellStatus: domain.SellStatusSell,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, store.Repositories().Items.Create(context.Background(), item))
	return item
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedItem(t, store, "item-1", 5, time.Now().UTC())

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Items.DecrementStock(ctx, "item-1", 3); err != nil {
			return err
		}
		if err := repos.Orders.Create(ctx, domain.Order{ID: "order-1", AccountID: "acc-1", Status: domain.OrderStatusOrdered}); err != nil {
			return err
		}
		if _, err := repos.Outbox.Enqueue(ctx, domain.OutboxMessage{AggregateID: "order-1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	repos := store.Repositories()
	item, err := repos.Items.Get(ctx, "item-1")
	require.NoError(t, err)
	require.Equal(t, int64(5), item.StockQty)

	_, err = repos.Orders.Get(ctx, "order-1")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	stats, err := repos.Outbox.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
}

func TestStore_WithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedItem(t, store, "item-1", 5, time.Now().UTC())

	err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		_, err := repos.Items.DecrementStock(ctx, "item-1", 5)
		return err
	})
	require.NoError(t, err)

	item, err := store.Repositories().Items.Get(ctx, "item-1")
	require.NoError(t, err)
	require.Zero(t, item.StockQty)
	require.Equal(t, domain.SellStatusSoldOut, item.SellStatus)
}

func TestItemRepository_StockAdjustments(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedItem(t, store, "item-1", 2, time.Now().UTC())
	items := store.Repositories().Items

	_, err := items.DecrementStock(ctx, "item-1", 3)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, "item-1", stockErr.ItemID)
	require.Equal(t, int64(2), stockErr.Available)

	_, err = items.DecrementStock(ctx, "missing", 1)
	require.ErrorIs(t, err, domain.ErrItemNotFound)

	remaining, err := items.DecrementStock(ctx, "item-1", 2)
	require.NoError(t, err)
	require.Zero(t, remaining)

	total, err := items.IncrementStock(ctx, "item-1", 4)
	require.NoError(t, err)
	require.Equal(t, int64(4), total)

	item, err := items.Get(ctx, "item-1")
	require.NoError(t, err)
	require.Equal(t, domain.SellStatusSell, item.SellStatus)
}

func TestItemRepository_ConcurrentDecrementNeverOversells(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedItem(t, store, "item-1", 50, time.Now().UTC())
	items := store.Repositories().Items

	var (
		wg       sync.WaitGroup
		deducted atomic.Int64
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(qty int64) {
			defer wg.Done()
			if _, err := items.DecrementStock(ctx, "item-1", qty); err == nil {
				deducted.Add(qty)
			}
		}(int64(i%3 + 1))
	}
	wg.Wait()

	item, err := items.Get(ctx, "item-1")
	require.NoError(t, err)
	require.LessOrEqual(t, deducted.Load(), int64(50))
	require.Equal(t, int64(50)-deducted.Load(), item.StockQty)
}

func TestItemRepository_SearchOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedItem(t, store, fmt.Sprintf("item-%d", i), 1, base.Add(time.Duration(i)*time.Hour))
	}
	items := store.Repositories().Items

	page, err := items.Search(ctx, domain.ItemSearch{}, domain.PageRequest{Page: 0, Size: 2})
	require.NoError(t, err)
	require.Equal(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	require.Equal(t, "item-4", page.Items[0].ID)
	require.Equal(t, "item-3", page.Items[1].ID)

	empty, err := items.Search(ctx, domain.ItemSearch{Keyword: "nothing-like-this"}, domain.PageRequest{Size: 2})
	require.NoError(t, err)
	require.Empty(t, empty.Items)
	require.Zero(t, empty.Total)
}

func TestCartRepository_AccumulatesPerAccountAndItem(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedItem(t, store, "item-1", 10, time.Now().UTC())
	carts := store.Repositories().Carts
	now := time.Now().UTC()

	first, err := carts.Accumulate(ctx, domain.CartLine{ID: "line-1", AccountID: "acc-1", ItemID: "item-1", Quantity: 2, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	second, err := carts.Accumulate(ctx, domain.CartLine{ID: "line-2", AccountID: "acc-1", ItemID: "item-1", Quantity: 3, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, int64(5), second.Quantity)

	other, err := carts.Accumulate(ctx, domain.CartLine{ID: "line-3", AccountID: "acc-2", ItemID: "item-1", Quantity: 1, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.Equal(t, "line-3", other.ID)

	views, err := carts.ListByAccount(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, int64(5), views[0].Line.Quantity)
	require.Equal(t, int64(100), views[0].UnitPriceMinor)

	locked, err := carts.GetForUpdate(ctx, "line-1")
	require.NoError(t, err)
	require.Equal(t, "line-1", locked.ID)

	require.NoError(t, carts.Delete(ctx, "line-1"))
	require.ErrorIs(t, carts.Delete(ctx, "line-1"), domain.ErrCartLineNotFound)
	_, err = carts.GetForUpdate(ctx, "line-1")
	require.ErrorIs(t, err, domain.ErrCartLineNotFound)
	_, err = carts.Get(ctx, "line-1")
	require.ErrorIs(t, err, domain.ErrCartLineNotFound)

	// После удаления пара (аккаунт, товар) снова свободна.
	again, err := carts.Accumulate(ctx, domain.CartLine{ID: "line-4", AccountID: "acc-1", ItemID: "item-1", Quantity: 1, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.Equal(t, "line-4", again.ID)
}

func TestOrderRepository_ListByAccountNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	orders := store.Repositories().Orders
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, orders.Create(ctx, domain.Order{
			ID:        fmt.Sprintf("order-%d", i),
			AccountID: "acc-1",
			Status:    domain.OrderStatusOrdered,
			OrderedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, orders.Create(ctx, domain.Order{ID: "foreign", AccountID: "acc-2", OrderedAt: base}))

	page, err := orders.ListByAccount(ctx, "acc-1", domain.PageRequest{Page: 0, Size: 2})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Equal(t, []string{"order-2", "order-1"}, []string{page.Items[0].ID, page.Items[1].ID})

	require.NoError(t, orders.UpdateStatus(ctx, "order-0", domain.OrderStatusCancelled, base))
	got, err := orders.Get(ctx, "order-0")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, got.Status)
}

func TestOutboxRepository_PullPendingInEnqueueOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	outbox := store.Repositories().Outbox

	var ids []string
	for i := 0; i < 3; i++ {
		msg, err := outbox.Enqueue(ctx, domain.OutboxMessage{AggregateType: domain.AggregateOrder, AggregateID: fmt.Sprintf("order-%d", i)})
		require.NoError(t, err)
		require.NotEmpty(t, msg.ID)
		ids = append(ids, msg.ID)
	}

	require.NoError(t, outbox.MarkSent(ctx, ids[0]))
	require.ErrorIs(t, outbox.MarkFailed(ctx, "missing"), domain.ErrOutboxPublish)

	pending, err := outbox.PullPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, ids[1], pending[0].ID)
	require.Equal(t, ids[2], pending[1].ID)

	stats, err := outbox.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.PendingCount)
	require.False(t, stats.OldestPendingAt.IsZero())
}
