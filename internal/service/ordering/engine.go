// Package ordering превращает выбранные строки корзины или прямую покупку
// в заказ и отменяет заказы с возвратом остатка.
package ordering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/ledger"
	"github.com/vladislavdragonenkov/storefront/internal/service/ownership"
)

const (
	sourceCart   = "cart"
	sourceDirect = "direct"
)

const tracerName = "storefront/ordering"

// Engine — движок заказов. Каждая операция изменения выполняется
// в одной транзакции хранилища.
type Engine struct {
	store     domain.Store
	ledger    *ledger.Ledger
	guard     ownership.Guard
	observers []domain.StockObserver
	logger    *log.Entry
	metrics   *metrics.ShopMetrics
	tracer    trace.Tracer
	now       func() time.Time
}

// Option настраивает Engine.
type Option func(*Engine)

// WithGuard подменяет проверку владельца.
func WithGuard(guard ownership.Guard) Option {
	return func(e *Engine) {
		if guard != nil {
			e.guard = guard
		}
	}
}

// WithMetrics включает бизнес-метрики заказов.
func WithMetrics(m *metrics.ShopMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracerProvider пишет спаны движка в tp вместо глобального провайдера.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithStockObserver подписывает наблюдателя на изменения остатка.
// Наблюдатели вызываются после фиксации транзакции.
func WithStockObserver(observer domain.StockObserver) Option {
	return func(e *Engine) {
		if observer != nil {
			e.observers = append(e.observers, observer)
		}
	}
}

// NewEngine создаёт движок заказов.
func NewEngine(store domain.Store, stockLedger *ledger.Ledger, logger *log.Entry, opts ...Option) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "ordering")
	}
	if stockLedger == nil {
		stockLedger = ledger.New(logger.WithField("component", "ledger"))
	}
	e := &Engine{
		store:  store,
		ledger: stockLedger,
		guard:  ownership.NewGuard(),
		logger: logger,
		tracer: otel.Tracer(tracerName),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PlaceFromCart оформляет заказ из выбранных строк корзины.
// Все строки должны принадлежать accountID. Любая ошибка списания
// откатывает весь запрос: ни остаток, ни заказ не меняются.
func (e *Engine) PlaceFromCart(ctx context.Context, accountID string, lineIDs []string) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", domain.ErrAccountRequired
	}
	selected := dedupe(lineIDs)
	if len(selected) == 0 {
		return "", domain.ErrEmptySelection
	}

	ctx, span := e.tracer.Start(ctx, "Engine.PlaceFromCart", trace.WithAttributes(
		attribute.String("account.id", accountID),
		attribute.Int("cart.lines", len(selected)),
	))
	defer span.End()

	return e.place(ctx, span, sourceCart, accountID, func(ctx context.Context, repos domain.Repositories) ([]ledger.Adjustment, []string, error) {
		lines := make([]domain.CartLine, 0, len(selected))
		for _, id := range selected {
			line, err := repos.Carts.GetForUpdate(ctx, id)
			if err != nil {
				return nil, nil, err
			}
			if err := ownership.Require(e.guard, line.AccountID, accountID); err != nil {
				return nil, nil, err
			}
			lines = append(lines, line)
		}

		adjustments := make([]ledger.Adjustment, 0, len(lines))
		for _, line := range lines {
			adjustments = append(adjustments, ledger.Adjustment{ItemID: line.ItemID, Qty: line.Quantity})
		}
		return adjustments, selected, nil
	})
}

// PlaceDirect оформляет покупку одного товара мимо корзины.
func (e *Engine) PlaceDirect(ctx context.Context, accountID, itemID string, qty int64) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", domain.ErrAccountRequired
	}
	if qty < 1 {
		return "", domain.ErrInvalidQuantity
	}

	ctx, span := e.tracer.Start(ctx, "Engine.PlaceDirect", trace.WithAttributes(
		attribute.String("account.id", accountID),
		attribute.String("item.id", itemID),
		attribute.Int64("item.qty", qty),
	))
	defer span.End()

	return e.place(ctx, span, sourceDirect, accountID, func(context.Context, domain.Repositories) ([]ledger.Adjustment, []string, error) {
		return []ledger.Adjustment{{ItemID: itemID, Qty: qty}}, nil, nil
	})
}

// selection возвращает позиции будущего заказа в порядке выбора
// и строки корзины, которые нужно удалить после оформления.
type selection func(ctx context.Context, repos domain.Repositories) ([]ledger.Adjustment, []string, error)

func (e *Engine) place(ctx context.Context, span trace.Span, source, accountID string, selectLines selection) (string, error) {
	start := time.Now()
	if e.metrics != nil {
		e.metrics.PlacementStarted()
		defer e.metrics.PlacementFinished()
	}

	var order domain.Order
	err := e.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		adjustments, consumedLines, err := selectLines(ctx, repos)
		if err != nil {
			return err
		}

		if err := e.ledger.DeductAll(ctx, repos.Items, adjustments); err != nil {
			return err
		}

		now := e.now()
		order = domain.Order{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Status:    domain.OrderStatusOrdered,
			OrderedAt: now,
			UpdatedAt: now,
			Lines:     make([]domain.OrderLine, 0, len(adjustments)),
		}
		// Цена читается после списания: строка товара уже заблокирована транзакцией.
		for _, adj := range adjustments {
			item, err := repos.Items.Get(ctx, adj.ItemID)
			if err != nil {
				return err
			}
			order.Lines = append(order.Lines, domain.OrderLine{
				ID:             uuid.NewString(),
				OrderID:        order.ID,
				ItemID:         item.ID,
				ItemName:       item.Name,
				Quantity:       adj.Qty,
				UnitPriceMinor: item.PriceMinor,
			})
		}

		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		for _, lineID := range consumedLines {
			if err := repos.Carts.Delete(ctx, lineID); err != nil {
				return err
			}
		}
		return e.recordEvent(ctx, repos, order, domain.TimelineOrderPlaced, "placed from "+source, domain.EventOrderPlaced)
	})
	if e.metrics != nil {
		e.metrics.RecordOperationDuration("place_"+source, time.Since(start))
	}
	if err != nil {
		err = domain.Internal("ordering.place", err)
		e.rejected(span, err, "place order", log.Fields{"account_id": accountID, "source": source})
		if e.metrics != nil {
			e.metrics.RecordPlaceFailure(failureReason(err))
		}
		return "", err
	}

	var units int64
	itemIDs := make([]string, 0, len(order.Lines))
	for _, line := range order.Lines {
		units += line.Quantity
		itemIDs = append(itemIDs, line.ItemID)
	}
	if e.metrics != nil {
		e.metrics.RecordOrderPlaced(source)
		e.metrics.RecordUnitsDeducted(units)
		e.metrics.RecordTimelineEvent()
		e.metrics.RecordOutboxEvent()
	}
	e.notifyStockChanged(ctx, itemIDs)

	span.SetAttributes(attribute.String("order.id", order.ID))
	e.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"account_id":  accountID,
		"source":      source,
		"lines":       len(order.Lines),
		"total_minor": order.TotalMinor(),
	}).Info("order placed")
	return order.ID, nil
}

// Cancel отменяет заказ владельца и возвращает остаток по всем позициям.
// Повторная отмена возвращает domain.ErrInvalidState и не меняет остаток.
func (e *Engine) Cancel(ctx context.Context, orderID, accountID string) error {
	ctx, span := e.tracer.Start(ctx, "Engine.Cancel", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("account.id", accountID),
	))
	defer span.End()

	start := time.Now()
	var cancelled domain.Order
	err := e.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		order, err := repos.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := ownership.Require(e.guard, order.AccountID, accountID); err != nil {
			return err
		}
		if !order.CanCancel() {
			return fmt.Errorf("order %s is %s: %w", order.ID, order.Status, domain.ErrInvalidState)
		}

		adjustments := make([]ledger.Adjustment, 0, len(order.Lines))
		for _, line := range order.Lines {
			adjustments = append(adjustments, ledger.Adjustment{ItemID: line.ItemID, Qty: line.Quantity})
		}
		if err := e.ledger.RestoreAll(ctx, repos.Items, adjustments); err != nil {
			return err
		}

		now := e.now()
		if err := repos.Orders.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled, now); err != nil {
			return err
		}
		order.Status = domain.OrderStatusCancelled
		order.UpdatedAt = now
		cancelled = order
		return e.recordEvent(ctx, repos, order, domain.TimelineOrderCancelled, "cancelled by account", domain.EventOrderCancelled)
	})
	if e.metrics != nil {
		e.metrics.RecordOperationDuration("cancel", time.Since(start))
	}
	if err != nil {
		err = domain.Internal("ordering.cancel", err)
		e.rejected(span, err, "cancel order", log.Fields{"order_id": orderID, "account_id": accountID})
		return err
	}

	var units int64
	itemIDs := make([]string, 0, len(cancelled.Lines))
	for _, line := range cancelled.Lines {
		units += line.Quantity
		itemIDs = append(itemIDs, line.ItemID)
	}
	if e.metrics != nil {
		e.metrics.RecordOrderCancelled()
		e.metrics.RecordUnitsRestored(units)
		e.metrics.RecordTimelineEvent()
		e.metrics.RecordOutboxEvent()
	}
	e.notifyStockChanged(ctx, itemIDs)

	e.logger.WithFields(log.Fields{
		"order_id":   orderID,
		"account_id": accountID,
		"restored":   units,
	}).Info("order cancelled")
	return nil
}

// ListForAccount возвращает заказы аккаунта, новые первыми.
func (e *Engine) ListForAccount(ctx context.Context, accountID string, page domain.PageRequest) (domain.Page[domain.Order], error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return domain.Page[domain.Order]{}, domain.ErrAccountRequired
	}
	result, err := e.store.Repositories().Orders.ListByAccount(ctx, accountID, page.Normalize(domain.DefaultOrderPageSize))
	if err != nil {
		return domain.Page[domain.Order]{}, domain.Internal("ordering.list", err)
	}
	return result, nil
}

// Get возвращает заказ владельца вместе с timeline.
func (e *Engine) Get(ctx context.Context, orderID, accountID string) (domain.OrderDetails, error) {
	repos := e.store.Repositories()

	order, err := repos.Orders.Get(ctx, orderID)
	if err != nil {
		return domain.OrderDetails{}, domain.Internal("ordering.get", err)
	}
	if err := ownership.Require(e.guard, order.AccountID, accountID); err != nil {
		return domain.OrderDetails{}, err
	}

	timeline, err := repos.Timeline.List(ctx, orderID)
	if err != nil {
		return domain.OrderDetails{}, domain.Internal("ordering.timeline", err)
	}
	return domain.OrderDetails{Order: order, Timeline: timeline}, nil
}

func (e *Engine) recordEvent(ctx context.Context, repos domain.Repositories, order domain.Order, timelineType, note, eventType string) error {
	now := e.now()
	if err := repos.Timeline.Append(ctx, domain.TimelineEvent{
		OrderID:  order.ID,
		Type:     timelineType,
		Reason:   note,
		Occurred: now,
	}); err != nil {
		return fmt.Errorf("append timeline: %w", err)
	}

	payload, err := json.Marshal(domain.NewOrderEventPayload(order, now))
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	if _, err := repos.Outbox.Enqueue(ctx, domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: domain.AggregateOrder,
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		return fmt.Errorf("enqueue %s: %w", eventType, err)
	}
	return nil
}

func (e *Engine) notifyStockChanged(ctx context.Context, itemIDs []string) {
	if len(itemIDs) == 0 {
		return
	}
	for _, observer := range e.observers {
		observer.StockChanged(ctx, itemIDs...)
	}
}

func (e *Engine) rejected(span trace.Span, err error, op string, fields log.Fields) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	entry := e.logger.WithError(err).WithFields(fields)
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		entry = entry.WithField("item_id", insufficient.ItemID)
	}
	if errors.Is(err, domain.ErrInternal) {
		entry.Errorf("failed to %s", op)
		return
	}
	entry.Warnf("%s rejected", op)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	default:
		return "internal"
	}
}

// dedupe убирает пустые и повторные идентификаторы, сохраняя порядок выбора.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
