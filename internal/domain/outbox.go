package domain

import "time"

const (
	// AggregateOrder — тип агрегата для событий заказа.
	AggregateOrder = "order"

	// EventOrderPlaced публикуется после фиксации нового заказа.
	EventOrderPlaced = "order.placed"
	// EventOrderCancelled публикуется после отмены заказа.
	EventOrderCancelled = "order.cancelled"
)

// OutboxStatus — состояние сообщения в outbox.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	// OutboxStatusFailed — попытки исчерпаны, копия ушла в DLQ.
	OutboxStatusFailed OutboxStatus = "failed"
)

// DefaultOutboxPullLimit — размер выборки PullPending при limit<=0.
const DefaultOutboxPullLimit = 100

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OrderEventPayload — тело событий order.placed / order.cancelled.
type OrderEventPayload struct {
	OrderID    string           `json:"order_id"`
	AccountID  string           `json:"account_id"`
	Status     OrderStatus      `json:"status"`
	TotalMinor int64            `json:"total_minor"`
	Lines      []OrderEventLine `json:"lines"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// OrderEventLine — позиция в теле события.
type OrderEventLine struct {
	ItemID         string `json:"item_id"`
	Quantity       int64  `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
}

// NewOrderEventPayload собирает тело события из заказа.
func NewOrderEventPayload(order Order, occurred time.Time) OrderEventPayload {
	lines := make([]OrderEventLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderEventLine{
			ItemID:         line.ItemID,
			Quantity:       line.Quantity,
			UnitPriceMinor: line.UnitPriceMinor,
		})
	}
	return OrderEventPayload{
		OrderID:    order.ID,
		AccountID:  order.AccountID,
		Status:     order.Status,
		TotalMinor: order.TotalMinor(),
		Lines:      lines,
		OccurredAt: occurred,
	}
}
