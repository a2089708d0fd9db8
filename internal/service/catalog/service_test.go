package catalog

import (
	"context"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return NewService(memory.NewStore(), logger.WithField("component", "catalog-test"))
}

func TestService_CreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.NewItem{
		Name:       "  Enamel mug ",
		Category:   "kitchen",
		PriceMinor: 1299,
		StockQty:   4,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Enamel mug", created.Name)
	require.Equal(t, domain.SellStatusSell, created.SellStatus)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestService_CreateWithoutStockIsSoldOut(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(context.Background(), domain.NewItem{Name: "Teapot", PriceMinor: 100})
	require.NoError(t, err)
	require.Equal(t, domain.SellStatusSoldOut, created.SellStatus)
}

func TestService_CreateValidates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.NewItem{Name: " ", PriceMinor: 1})
	require.ErrorIs(t, err, domain.ErrItemNameRequired)
	_, err = svc.Create(ctx, domain.NewItem{Name: "x", PriceMinor: -1})
	require.ErrorIs(t, err, domain.ErrItemPriceInvalid)
	_, err = svc.Create(ctx, domain.NewItem{Name: "x", StockQty: -1})
	require.ErrorIs(t, err, domain.ErrItemStockInvalid)
}

func TestService_GetMissing(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrItemNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_UpdateFollowsStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.NewItem{Name: "Bowl", PriceMinor: 500, StockQty: 2})
	require.NoError(t, err)

	zero := int64(0)
	updated, err := svc.Update(ctx, created.ID, domain.ItemUpdate{StockQty: &zero})
	require.NoError(t, err)
	require.Equal(t, domain.SellStatusSoldOut, updated.SellStatus)

	ten := int64(10)
	price := int64(650)
	updated, err = svc.Update(ctx, created.ID, domain.ItemUpdate{StockQty: &ten, PriceMinor: &price})
	require.NoError(t, err)
	require.Equal(t, domain.SellStatusSell, updated.SellStatus)
	require.Equal(t, int64(650), updated.PriceMinor)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.StockQty)
}

func TestService_UpdateErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	name := "x"
	_, err := svc.Update(ctx, "missing", domain.ItemUpdate{Name: &name})
	require.ErrorIs(t, err, domain.ErrItemNotFound)

	created, err := svc.Create(ctx, domain.NewItem{Name: "Bowl", PriceMinor: 500, StockQty: 2})
	require.NoError(t, err)

	negative := int64(-5)
	_, err = svc.Update(ctx, created.ID, domain.ItemUpdate{StockQty: &negative})
	require.ErrorIs(t, err, domain.ErrItemStockInvalid)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.StockQty, "failed update must not change the item")
}

func TestService_SearchDefaultsAndFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 0; i < 8; i++ {
		_, err := svc.Create(ctx, domain.NewItem{Name: "mug", Category: "kitchen", PriceMinor: 100, StockQty: 1})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, domain.NewItem{Name: "lamp", Description: "desk lamp", Category: "light", PriceMinor: 100, StockQty: 1})
	require.NoError(t, err)

	page, err := svc.Search(ctx, domain.ItemSearch{}, domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, domain.DefaultCatalogPageSize, page.Size)
	require.Len(t, page.Items, domain.DefaultCatalogPageSize)
	require.Equal(t, 9, page.Total)
	require.Equal(t, "lamp", page.Items[0].Name, "newest first")

	page, err = svc.Search(ctx, domain.ItemSearch{Keyword: "DESK", SearchBy: domain.SearchByDescription}, domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	page, err = svc.Search(ctx, domain.ItemSearch{Category: "garden"}, domain.PageRequest{})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, 0, page.Total)
}
