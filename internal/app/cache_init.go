package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/storage/rediscache"
)

const redisPingTimeout = 2 * time.Second

// catalogLayer — каталог, который видит транспорт, и наблюдатель остатков для движка заказов.
type catalogLayer struct {
	catalog  catalog.Catalog
	observer domain.StockObserver
	redis    *redis.Client
}

// initCatalogCache оборачивает каталог Redis-кешем, если задан адрес.
// Недоступный Redis не мешает старту: сервис работает без кеша.
func initCatalogCache(ctx context.Context, cfg Config, base catalog.Catalog, logger *log.Entry) catalogLayer {
	if cfg.RedisAddr == "" {
		return catalogLayer{catalog: base}
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		DialTimeout: redisPingTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).WithField("redis_addr", cfg.RedisAddr).Warn("redis is unavailable, continuing without catalog cache")
		_ = client.Close()
		return catalogLayer{catalog: base}
	}

	cached := rediscache.NewCachedCatalog(base, client, cfg.CatalogCacheTTL, logger.WithField("component", "catalog-cache"))
	logger.WithField("redis_addr", cfg.RedisAddr).Info("catalog cache enabled")
	return catalogLayer{
		catalog:  cached,
		observer: cached,
		redis:    client,
	}
}

func (l catalogLayer) close(logger *log.Entry) {
	if l.redis == nil {
		return
	}
	if err := l.redis.Close(); err != nil {
		logger.WithError(err).Warn("failed to close redis client")
	}
}
