package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusOrdered — заказ оформлен, остаток списан.
	OrderStatusOrdered OrderStatus = "ORDERED"
	// OrderStatusCancelled — заказ отменён, остаток возвращён. Терминальный статус.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusOrdered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// OrderLine — неизменяемая позиция заказа. Цена фиксируется в момент оформления.
type OrderLine struct {
	ID             string
	OrderID        string
	ItemID         string
	ItemName       string
	Quantity       int64
	UnitPriceMinor int64
}

// Order агрегирует заказ и его позиции в порядке оформления.
type Order struct {
	ID        string
	AccountID string
	Status    OrderStatus
	Lines     []OrderLine
	OrderedAt time.Time
	UpdatedAt time.Time
}

// TotalMinor возвращает сумму заказа по зафиксированным ценам.
func (o Order) TotalMinor() int64 {
	var total int64
	for _, line := range o.Lines {
		total += line.Quantity * line.UnitPriceMinor
	}
	return total
}

// CanCancel сообщает, допустим ли переход в CANCELLED.
func (o Order) CanCancel() bool {
	return o.Status == OrderStatusOrdered
}

// Clone возвращает копию заказа с независимым срезом позиций.
func (o Order) Clone() Order {
	dst := o
	dst.Lines = append([]OrderLine(nil), o.Lines...)
	return dst
}

// OrderDetails — заказ вместе с его timeline.
type OrderDetails struct {
	Order    Order
	Timeline []TimelineEvent
}
