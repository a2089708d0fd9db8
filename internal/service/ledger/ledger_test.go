package ledger

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newTestLedger() *Ledger {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return New(logger.WithField("component", "ledger-test"))
}

func seed(t *testing.T, store *memory.Store, id string, stock int64) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.Repositories().Items.Create(context.Background(), domain.Item{
		ID:         id,
		Name:       "item " + id,
		PriceMinor: 100,
		StockQty:   stock,
		SellStatus: domain.SellStatusSell,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
}

func stockOf(t *testing.T, store *memory.Store, id string) int64 {
	t.Helper()
	item, err := store.Repositories().Items.Get(context.Background(), id)
	require.NoError(t, err)
	return item.StockQty
}

// recordingStock запоминает порядок обращений к товарам.
type recordingStock struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (r *recordingStock) DecrementStock(_ context.Context, itemID string, qty int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, itemID)
	if err := r.fail[itemID]; err != nil {
		return 0, err
	}
	return 100 - qty, nil
}

func (r *recordingStock) IncrementStock(_ context.Context, itemID string, qty int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, itemID)
	return 100 + qty, nil
}

func TestDeduct_Success(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "I1", 5)
	ledger := newTestLedger()

	remaining, err := ledger.Deduct(context.Background(), store.Repositories().Items, "I1", 3)
	require.NoError(t, err)
	require.Equal(t, int64(2), remaining)
	require.Equal(t, int64(2), stockOf(t, store, "I1"))
}

func TestDeduct_InsufficientStockCarriesItem(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "I1", 2)
	ledger := newTestLedger()

	_, err := ledger.Deduct(context.Background(), store.Repositories().Items, "I1", 3)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "I1", insufficient.ItemID)
	require.Equal(t, int64(3), insufficient.Requested)
	require.Equal(t, int64(2), insufficient.Available)
	require.Equal(t, int64(2), stockOf(t, store, "I1"))
}

func TestDeduct_RejectsNonPositiveQuantity(t *testing.T) {
	ledger := newTestLedger()
	stock := &recordingStock{}

	for _, qty := range []int64{0, -1} {
		_, err := ledger.Deduct(context.Background(), stock, "I1", qty)
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
		_, err = ledger.Restore(context.Background(), stock, "I1", qty)
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
	require.Empty(t, stock.calls, "repository must not be touched")
}

func TestDeduct_MissingItem(t *testing.T) {
	store := memory.NewStore()
	ledger := newTestLedger()

	_, err := ledger.Deduct(context.Background(), store.Repositories().Items, "missing", 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeduct_StorageFailureIsInternal(t *testing.T) {
	ledger := newTestLedger()
	stock := &recordingStock{fail: map[string]error{"I1": errors.New("connection reset")}}

	_, err := ledger.Deduct(context.Background(), stock, "I1", 1)
	require.ErrorIs(t, err, domain.ErrInternal)
	require.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestRestore_HasNoUpperCapButGuardsOverflow(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "I1", 1)
	ledger := newTestLedger()

	total, err := ledger.Restore(context.Background(), store.Repositories().Items, "I1", 1000)
	require.NoError(t, err)
	require.Equal(t, int64(1001), total)

	_, err = ledger.Restore(context.Background(), store.Repositories().Items, "I1", math.MaxInt64)
	require.ErrorIs(t, err, domain.ErrStockOverflow)
	require.Equal(t, int64(1001), stockOf(t, store, "I1"))
}

func TestConcurrentDeduct_NeverOversells(t *testing.T) {
	store := memory.NewStore()
	const initial = 25
	seed(t, store, "hot", initial)
	ledger := newTestLedger()

	var (
		wg       sync.WaitGroup
		deducted atomic.Int64
	)
	for i := 0; i < 100; i++ {
		qty := int64(i%3 + 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Deduct(context.Background(), store.Repositories().Items, "hot", qty); err == nil {
				deducted.Add(qty)
			}
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, deducted.Load(), int64(initial))
	require.Equal(t, int64(initial)-deducted.Load(), stockOf(t, store, "hot"))
}

func TestDeductAll_AscendingOrderAndMerge(t *testing.T) {
	ledger := newTestLedger()
	stock := &recordingStock{}

	err := ledger.DeductAll(context.Background(), stock, []Adjustment{
		{ItemID: "c", Qty: 1},
		{ItemID: "a", Qty: 2},
		{ItemID: "b", Qty: 1},
		{ItemID: "a", Qty: 1},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, stock.calls)
}

func TestDeductAll_StopsAtFirstFailure(t *testing.T) {
	ledger := newTestLedger()
	stock := &recordingStock{fail: map[string]error{
		"b": &domain.InsufficientStockError{ItemID: "b", Requested: 1},
	}}

	err := ledger.DeductAll(context.Background(), stock, []Adjustment{
		{ItemID: "c", Qty: 1},
		{ItemID: "b", Qty: 1},
		{ItemID: "a", Qty: 1},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "b", insufficient.ItemID)
	require.Equal(t, []string{"a", "b"}, stock.calls)
}

func TestDeductAll_RollsBackInsideTransaction(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "a", 5)
	seed(t, store, "b", 1)
	ledger := newTestLedger()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos domain.Repositories) error {
		return ledger.DeductAll(ctx, repos.Items, []Adjustment{{ItemID: "a", Qty: 2}, {ItemID: "b", Qty: 2}})
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	require.Equal(t, int64(5), stockOf(t, store, "a"))
	require.Equal(t, int64(1), stockOf(t, store, "b"))
}

func TestRestoreAll(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "a", 0)
	seed(t, store, "b", 1)
	ledger := newTestLedger()

	err := ledger.RestoreAll(context.Background(), store.Repositories().Items, []Adjustment{{ItemID: "b", Qty: 2}, {ItemID: "a", Qty: 3}})
	require.NoError(t, err)
	require.Equal(t, int64(3), stockOf(t, store, "a"))
	require.Equal(t, int64(3), stockOf(t, store, "b"))

	item, err := store.Repositories().Items.Get(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, domain.SellStatusSell, item.SellStatus)
}

func TestNormalize(t *testing.T) {
	ordered, err := Normalize(nil)
	require.NoError(t, err)
	require.Empty(t, ordered)

	_, err = Normalize([]Adjustment{{ItemID: "a", Qty: 0}})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = Normalize([]Adjustment{{ItemID: "a", Qty: math.MaxInt64}, {ItemID: "a", Qty: 1}})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}
