package domain

import "time"

const (
	// TimelineOrderPlaced — заказ оформлен.
	TimelineOrderPlaced = "OrderPlaced"
	// TimelineOrderCancelled — заказ отменён владельцем.
	TimelineOrderCancelled = "OrderCancelled"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
