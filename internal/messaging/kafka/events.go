package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "shop.order.events"
	TopicDeadLetterQueue = "shop.dlq" // Dead Letter Queue для сообщений, не ушедших после всех попыток
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
	HeaderEventType     = "x-event-type"
)

// OrderEnvelope — формат сообщения в topic событий заказа.
// Payload содержит domain.OrderEventPayload.
type OrderEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// NewOrderEnvelope заворачивает outbox-сообщение в конверт.
func NewOrderEnvelope(msg domain.OutboxMessage, publishedAt time.Time) OrderEnvelope {
	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage(`null`)
	}
	return OrderEnvelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       payload,
		PublishedAt:   publishedAt,
	}
}

// Order разбирает payload конверта.
func (e OrderEnvelope) Order() (domain.OrderEventPayload, error) {
	var payload domain.OrderEventPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return domain.OrderEventPayload{}, fmt.Errorf("unmarshal %s payload: %w", e.EventType, err)
	}
	return payload, nil
}

// ParseOrderEnvelope разбирает значение сообщения из topic событий заказа.
func ParseOrderEnvelope(value []byte) (OrderEnvelope, error) {
	var envelope OrderEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return OrderEnvelope{}, fmt.Errorf("failed to unmarshal order envelope: %w", err)
	}
	return envelope, nil
}

// DeadLetter — сообщение, отправленное в DLQ вместо исходного topic.
type DeadLetter struct {
	OriginalTopic string `json:"original_topic"`
	OriginalKey   string `json:"original_key"`
	OriginalValue string `json:"original_value"`
	EventID       string `json:"event_id,omitempty"`
	EventType     string `json:"event_type,omitempty"`
	AggregateID   string `json:"aggregate_id,omitempty"`
	ErrorMessage  string `json:"error_message"`
	Attempts      int    `json:"attempts"`
	FailedAt      string `json:"failed_at"`
}

func jsonString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %T: %w", v, err)
	}
	return string(data), nil
}
