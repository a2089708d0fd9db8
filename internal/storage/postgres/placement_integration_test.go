package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/ledger"
	"github.com/vladislavdragonenkov/storefront/internal/service/ordering"
)

func TestPlaceFromCart_PostgresConcurrentCheckoutOfOneLine(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	seedItemForIntegrationTest(t, store, "item-1", 10)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	_, err := store.Repositories().Carts.Accumulate(ctx, domain.CartLine{
		ID: "line-1", AccountID: "acc-1", ItemID: "item-1", Quantity: 3, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	entry := logger.WithField("component", "test")
	engine := ordering.NewEngine(store, ledger.New(entry), entry)

	const attempts = 2
	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		orderIDs = make([]string, attempts)
		errs     = make([]error, attempts)
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			orderIDs[i], errs[i] = engine.PlaceFromCart(ctx, "acc-1", []string{"line-1"})
		}()
	}
	close(start)
	wg.Wait()

	placed := 0
	for i := range attempts {
		if errs[i] == nil {
			placed++
			assert.NotEmpty(t, orderIDs[i])
			continue
		}
		assert.ErrorIs(t, errs[i], domain.ErrCartLineNotFound)
	}
	assert.Equal(t, 1, placed, "one cart line becomes exactly one order")

	var orders int
	require.NoError(t, store.DB().QueryRowContext(ctx, `SELECT count(*) FROM orders`).Scan(&orders))
	assert.Equal(t, 1, orders)

	item, err := store.Repositories().Items.Get(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.StockQty, "stock is deducted once")

	_, err = store.Repositories().Carts.Get(ctx, "line-1")
	require.ErrorIs(t, err, domain.ErrCartLineNotFound)
}
