// Package ledger — примитивы изменения остатка: списание и возврат.
// Атомарность обеспечивает StockRepository, транзакционную границу задаёт вызывающий.
package ledger

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const tracerName = "storefront/ledger"

// Adjustment — изменение остатка одного товара.
type Adjustment struct {
	ItemID string
	Qty    int64
}

// Ledger выполняет списания и возвраты через переданный StockRepository.
// Репозиторий передаётся в каждый вызов, чтобы работать внутри транзакции вызывающего.
type Ledger struct {
	logger *log.Entry
	tracer trace.Tracer
}

// Option настраивает Ledger.
type Option func(*Ledger)

// WithTracerProvider пишет спаны списаний в tp вместо глобального провайдера.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Ledger) {
		if tp != nil {
			l.tracer = tp.Tracer(tracerName)
		}
	}
}

// New создаёт Ledger.
func New(logger *log.Entry, opts ...Option) *Ledger {
	if logger == nil {
		logger = log.New().WithField("component", "ledger")
	}
	l := &Ledger{
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Deduct списывает qty единиц товара. Возвращает новый остаток,
// *domain.InsufficientStockError при нехватке или domain.ErrItemNotFound.
func (l *Ledger) Deduct(ctx context.Context, stock domain.StockRepository, itemID string, qty int64) (int64, error) {
	if qty < 1 {
		return 0, domain.ErrInvalidQuantity
	}

	ctx, span := l.tracer.Start(ctx, "Ledger.Deduct", trace.WithAttributes(
		attribute.String("item.id", itemID),
		attribute.Int64("stock.qty", qty),
	))
	defer span.End()

	remaining, err := stock.DecrementStock(ctx, itemID, qty)
	if err != nil {
		endWithError(span, err)
		return 0, domain.Internal("ledger.deduct", err)
	}

	span.SetAttributes(attribute.Int64("stock.remaining", remaining))
	l.logger.WithFields(log.Fields{
		"item_id":   itemID,
		"qty":       qty,
		"remaining": remaining,
	}).Debug("stock deducted")
	return remaining, nil
}

// Restore возвращает qty единиц товара без верхней границы,
// кроме диапазона int64 (domain.ErrStockOverflow).
func (l *Ledger) Restore(ctx context.Context, stock domain.StockRepository, itemID string, qty int64) (int64, error) {
	if qty < 1 {
		return 0, domain.ErrInvalidQuantity
	}

	ctx, span := l.tracer.Start(ctx, "Ledger.Restore", trace.WithAttributes(
		attribute.String("item.id", itemID),
		attribute.Int64("stock.qty", qty),
	))
	defer span.End()

	total, err := stock.IncrementStock(ctx, itemID, qty)
	if err != nil {
		endWithError(span, err)
		return 0, domain.Internal("ledger.restore", err)
	}

	span.SetAttributes(attribute.Int64("stock.total", total))
	l.logger.WithFields(log.Fields{
		"item_id": itemID,
		"qty":     qty,
		"total":   total,
	}).Debug("stock restored")
	return total, nil
}

// DeductAll списывает пакет в порядке возрастания item id и останавливается
// на первой ошибке. Откат уже сделанных списаний — дело транзакции вызывающего.
func (l *Ledger) DeductAll(ctx context.Context, stock domain.StockRepository, adjustments []Adjustment) error {
	ordered, err := Normalize(adjustments)
	if err != nil {
		return err
	}
	for _, adj := range ordered {
		if _, err := l.Deduct(ctx, stock, adj.ItemID, adj.Qty); err != nil {
			return err
		}
	}
	return nil
}

// RestoreAll возвращает пакет в порядке возрастания item id.
func (l *Ledger) RestoreAll(ctx context.Context, stock domain.StockRepository, adjustments []Adjustment) error {
	ordered, err := Normalize(adjustments)
	if err != nil {
		return err
	}
	for _, adj := range ordered {
		if _, err := l.Restore(ctx, stock, adj.ItemID, adj.Qty); err != nil {
			return err
		}
	}
	return nil
}

// Normalize складывает изменения одного товара и сортирует результат по item id.
// Фиксированный порядок блокировок исключает взаимоблокировку двух заказов
// с одинаковыми товарами.
func Normalize(adjustments []Adjustment) ([]Adjustment, error) {
	merged := make(map[string]int64, len(adjustments))
	for _, adj := range adjustments {
		if adj.Qty < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		sum := merged[adj.ItemID] + adj.Qty
		if sum < merged[adj.ItemID] {
			return nil, domain.ErrInvalidQuantity
		}
		merged[adj.ItemID] = sum
	}

	ordered := make([]Adjustment, 0, len(merged))
	for itemID, qty := range merged {
		ordered = append(ordered, Adjustment{ItemID: itemID, Qty: qty})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ItemID < ordered[j].ItemID
	})
	return ordered, nil
}

func endWithError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
