// Package rediscache кеширует карточки товаров в Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
)

// DefaultTTL — время жизни карточки в кеше по умолчанию.
const DefaultTTL = 10 * time.Minute

// errStaleRead — карточку инвалидировали, пока она читалась из хранилища.
var errStaleRead = errors.New("item changed during read")

// CachedCatalog кеширует Get поверх другого catalog.Catalog.
// Ошибки Redis не пробрасываются: при недоступном кеше чтение идёт в хранилище.
type CachedCatalog struct {
	next   catalog.Catalog
	client *redis.Client
	ttl    time.Duration
	logger *log.Entry
}

// NewCachedCatalog оборачивает next кешем.
func NewCachedCatalog(next catalog.Catalog, client *redis.Client, ttl time.Duration, logger *log.Entry) *CachedCatalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.New().WithField("component", "catalog-cache")
	}
	return &CachedCatalog{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func itemKey(itemID string) string {
	return fmt.Sprintf("item:%s", itemID)
}

// generationKey растёт при каждой инвалидации товара. Ключ живёт без TTL:
// после истечения INCR начал бы счёт заново и старое чтение прошло бы проверку.
func generationKey(itemID string) string {
	return fmt.Sprintf("item:%s:gen", itemID)
}

// Get читает карточку из кеша, при промахе из хранилища.
func (c *CachedCatalog) Get(ctx context.Context, itemID string) (domain.Item, error) {
	key := itemKey(itemID)

	val, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var item domain.Item
		if err := json.Unmarshal(val, &item); err == nil {
			return item, nil
		}
		c.logger.WithField("key", key).Warn("corrupted cache entry, falling back to store")
	case !errors.Is(err, redis.Nil):
		c.logger.WithError(err).WithField("key", key).Debug("cache read failed")
	}

	// Поколение читается до хранилища: если остаток изменится после чтения,
	// инвалидация увеличит поколение и запись в кеш не состоится.
	generation, genErr := c.client.Get(ctx, generationKey(itemID)).Result()

	item, err := c.next.Get(ctx, itemID)
	if err != nil {
		return domain.Item{}, err
	}

	if genErr == nil || errors.Is(genErr, redis.Nil) {
		c.fill(ctx, itemID, generation, item)
	}
	return item, nil
}

// fill кладёт карточку в кеш, только если с момента чтения поколения
// товар не инвалидировали.
func (c *CachedCatalog) fill(ctx context.Context, itemID, generation string, item domain.Item) {
	key := itemKey(itemID)
	data, err := json.Marshal(item)
	if err != nil {
		return
	}

	genKey := generationKey(itemID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleRead
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleRead), errors.Is(err, redis.TxFailedErr):
		c.logger.WithField("key", key).Debug("item changed during read, cache fill skipped")
	default:
		c.logger.WithError(err).WithField("key", key).Debug("cache write failed")
	}
}

// Create не кеширует: карточку прочитают при первом Get.
func (c *CachedCatalog) Create(ctx context.Context, fields domain.NewItem) (domain.Item, error) {
	return c.next.Create(ctx, fields)
}

// Update сбрасывает карточку из кеша после успешного обновления.
func (c *CachedCatalog) Update(ctx context.Context, itemID string, update domain.ItemUpdate) (domain.Item, error) {
	item, err := c.next.Update(ctx, itemID, update)
	if err != nil {
		return domain.Item{}, err
	}
	c.invalidate(ctx, itemID)
	return item, nil
}

// Search не кешируется: страницы зависят от остатков.
func (c *CachedCatalog) Search(ctx context.Context, criteria domain.ItemSearch, page domain.PageRequest) (domain.Page[domain.Item], error) {
	return c.next.Search(ctx, criteria, page)
}

// StockChanged реализует domain.StockObserver.
func (c *CachedCatalog) StockChanged(ctx context.Context, itemIDs ...string) {
	c.invalidate(ctx, itemIDs...)
}

func (c *CachedCatalog) invalidate(ctx context.Context, itemIDs ...string) {
	if len(itemIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		keys = append(keys, itemKey(id))
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range itemIDs {
			pipe.Incr(ctx, generationKey(id))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.logger.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}

var (
	_ catalog.Catalog      = (*CachedCatalog)(nil)
	_ domain.StockObserver = (*CachedCatalog)(nil)
)
