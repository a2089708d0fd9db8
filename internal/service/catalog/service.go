// Package catalog управляет карточками товаров.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Catalog — операции каталога, доступные транспорту и другим сервисам.
type Catalog interface {
	Get(ctx context.Context, itemID string) (domain.Item, error)
	Create(ctx context.Context, fields domain.NewItem) (domain.Item, error)
	Update(ctx context.Context, itemID string, update domain.ItemUpdate) (domain.Item, error)
	Search(ctx context.Context, criteria domain.ItemSearch, page domain.PageRequest) (domain.Page[domain.Item], error)
}

// Service — реализация Catalog поверх domain.Store.
type Service struct {
	store  domain.Store
	logger *log.Entry
	tracer trace.Tracer
	now    func() time.Time
}

// NewService создаёт сервис каталога.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Service{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("storefront/catalog"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get возвращает товар или domain.ErrItemNotFound.
func (s *Service) Get(ctx context.Context, itemID string) (domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "Catalog.Get", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	item, err := s.store.Repositories().Items.Get(ctx, strings.TrimSpace(itemID))
	if err != nil {
		return domain.Item{}, domain.Internal("catalog.get", err)
	}
	return item, nil
}

// Create добавляет товар. Товар без остатка сразу получает статус SOLD_OUT.
func (s *Service) Create(ctx context.Context, fields domain.NewItem) (domain.Item, error) {
	if err := fields.Validate(); err != nil {
		return domain.Item{}, err
	}

	now := s.now()
	item := domain.Item{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(fields.Name),
		Description: fields.Description,
		Category:    strings.TrimSpace(fields.Category),
		PriceMinor:  fields.PriceMinor,
		StockQty:    fields.StockQty,
		SellStatus:  sellStatusFor(fields.StockQty, domain.SellStatusSell),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Repositories().Items.Create(ctx, item); err != nil {
		s.logger.WithError(err).WithField("item_name", item.Name).Error("failed to create item")
		return domain.Item{}, domain.Internal("catalog.create", err)
	}

	s.logger.WithFields(log.Fields{
		"item_id": item.ID,
		"stock":   item.StockQty,
	}).Info("item created")
	return item, nil
}

// Update применяет частичное обновление под блокировкой строки товара.
// Если статус продажи не задан явно, он следует за остатком.
func (s *Service) Update(ctx context.Context, itemID string, update domain.ItemUpdate) (domain.Item, error) {
	var updated domain.Item
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		current, err := repos.Items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		next, err := update.Apply(current)
		if err != nil {
			return err
		}
		if update.SellStatus == nil {
			next.SellStatus = sellStatusFor(next.StockQty, current.SellStatus)
		}
		next.UpdatedAt = s.now()
		if err := repos.Items.Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return domain.Item{}, domain.Internal("catalog.update", err)
	}
	return updated, nil
}

// Search возвращает страницу каталога. Несовпадающие критерии дают пустую страницу.
func (s *Service) Search(ctx context.Context, criteria domain.ItemSearch, page domain.PageRequest) (domain.Page[domain.Item], error) {
	ctx, span := s.tracer.Start(ctx, "Catalog.Search", trace.WithAttributes(attribute.String("search.keyword", criteria.Keyword)))
	defer span.End()

	result, err := s.store.Repositories().Items.Search(ctx, criteria, page.Normalize(domain.DefaultCatalogPageSize))
	if err != nil {
		return domain.Page[domain.Item]{}, domain.Internal("catalog.search", err)
	}
	return result, nil
}

func sellStatusFor(stock int64, current domain.SellStatus) domain.SellStatus {
	switch {
	case stock == 0:
		return domain.SellStatusSoldOut
	case current == domain.SellStatusSoldOut:
		return domain.SellStatusSell
	default:
		return current
	}
}

var _ Catalog = (*Service)(nil)
