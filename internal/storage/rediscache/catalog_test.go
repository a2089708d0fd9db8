package rediscache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func quietLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger.WithField("component", "catalog-cache-test")
}

func openRedisForIntegrationTest(t *testing.T) *redis.Client {
	t.Helper()

	addr := strings.TrimSpace(os.Getenv("SHOP_REDIS_TEST_ADDR"))
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 500 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis is not available for integration tests: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedCatalog_FallsBackWhenRedisUnavailable(t *testing.T) {
	store := memory.NewStore()
	svc := catalog.NewService(store, quietLogger())

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	cached := NewCachedCatalog(svc, client, time.Minute, quietLogger())
	ctx := context.Background()

	created, err := cached.Create(ctx, domain.NewItem{Name: "Mug", PriceMinor: 100, StockQty: 3})
	require.NoError(t, err)

	got, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = cached.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrItemNotFound)

	cached.StockChanged(ctx, created.ID)
}

func TestCachedCatalog_InvalidatesOnStockChange(t *testing.T) {
	client := openRedisForIntegrationTest(t)
	store := memory.NewStore()
	svc := catalog.NewService(store, quietLogger())
	cached := NewCachedCatalog(svc, client, time.Minute, quietLogger())
	ctx := context.Background()

	created, err := cached.Create(ctx, domain.NewItem{Name: "Mug", PriceMinor: 100, StockQty: 3})
	require.NoError(t, err)
	t.Cleanup(func() { client.Del(context.Background(), itemKey(created.ID), generationKey(created.ID)) })

	first, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), first.StockQty)

	exists, err := client.Exists(ctx, itemKey(created.ID)).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), exists)

	// Списание мимо кеша: пока нет инвалидации, читается старое значение.
	_, err = store.Repositories().Items.DecrementStock(ctx, created.ID, 2)
	require.NoError(t, err)

	stale, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), stale.StockQty)

	cached.StockChanged(ctx, created.ID)

	fresh, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), fresh.StockQty)
}

func TestCachedCatalog_UpdateInvalidates(t *testing.T) {
	client := openRedisForIntegrationTest(t)
	svc := catalog.NewService(memory.NewStore(), quietLogger())
	cached := NewCachedCatalog(svc, client, 0, quietLogger())
	ctx := context.Background()

	created, err := cached.Create(ctx, domain.NewItem{Name: "Mug", PriceMinor: 100, StockQty: 3})
	require.NoError(t, err)
	t.Cleanup(func() { client.Del(context.Background(), itemKey(created.ID), generationKey(created.ID)) })

	_, err = cached.Get(ctx, created.ID)
	require.NoError(t, err)

	name := "Large mug"
	_, err = cached.Update(ctx, created.ID, domain.ItemUpdate{Name: &name})
	require.NoError(t, err)

	got, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Large mug", got.Name)
}

// invalidatingCatalog имитирует списание, зафиксированное между чтением
// карточки из хранилища и записью её в кеш.
type invalidatingCatalog struct {
	catalog.Catalog
	afterGet func()
}

func (c *invalidatingCatalog) Get(ctx context.Context, itemID string) (domain.Item, error) {
	item, err := c.Catalog.Get(ctx, itemID)
	if c.afterGet != nil {
		hook := c.afterGet
		c.afterGet = nil
		hook()
	}
	return item, err
}

func TestCachedCatalog_SkipsFillWhenInvalidatedDuringRead(t *testing.T) {
	client := openRedisForIntegrationTest(t)
	store := memory.NewStore()
	base := &invalidatingCatalog{Catalog: catalog.NewService(store, quietLogger())}
	cached := NewCachedCatalog(base, client, time.Minute, quietLogger())
	ctx := context.Background()

	created, err := cached.Create(ctx, domain.NewItem{Name: "Mug", PriceMinor: 100, StockQty: 3})
	require.NoError(t, err)
	t.Cleanup(func() { client.Del(context.Background(), itemKey(created.ID), generationKey(created.ID)) })

	base.afterGet = func() {
		_, err := store.Repositories().Items.DecrementStock(ctx, created.ID, 2)
		require.NoError(t, err)
		cached.StockChanged(ctx, created.ID)
	}

	read, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), read.StockQty)

	exists, err := client.Exists(ctx, itemKey(created.ID)).Result()
	require.NoError(t, err)
	require.Zero(t, exists, "card read before the invalidation must not be cached")

	fresh, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), fresh.StockQty)

	exists, err = client.Exists(ctx, itemKey(created.ID)).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), exists)
}
