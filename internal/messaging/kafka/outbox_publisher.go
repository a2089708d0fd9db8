package kafka

import (
	"errors"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

var errNoProducer = errors.New("kafka producer is not configured")

// partitionKey держит события одного заказа в одной партиции.
func partitionKey(event domain.OutboxMessage) string {
	if event.AggregateID != "" {
		return event.AggregateID
	}
	return event.ID
}

// OutboxTopicPublisher доставляет outbox-сообщения в topic событий заказа.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher пустой topic заменяет на TopicOrderEvents.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic, now: time.Now}
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errNoProducer
	}
	_, err := p.producer.PublishJSON(p.topic, partitionKey(event),
		NewOrderEnvelope(event, p.now().UTC()),
		Headers{HeaderEventType: event.EventType},
	)
	return err
}

// DeadLetterPublisher пишет в DLQ сообщения, которые не удалось доставить.
type DeadLetterPublisher struct {
	producer    *Producer
	sourceTopic string
	dlqTopic    string
	now         func() time.Time
}

func NewDeadLetterPublisher(producer *Producer, sourceTopic, dlqTopic string) *DeadLetterPublisher {
	if sourceTopic == "" {
		sourceTopic = TopicOrderEvents
	}
	if dlqTopic == "" {
		dlqTopic = TopicDeadLetterQueue
	}
	return &DeadLetterPublisher{producer: producer, sourceTopic: sourceTopic, dlqTopic: dlqTopic, now: time.Now}
}

// PublishDeadLetter кладёт в письмо исходный конверт целиком, чтобы
// dlq-reprocess мог вернуть его в sourceTopic без outbox-таблицы.
func (p *DeadLetterPublisher) PublishDeadLetter(event domain.OutboxMessage, attempts int, cause error) error {
	if p == nil || p.producer == nil {
		return errNoProducer
	}

	now := p.now().UTC()
	original, err := jsonString(NewOrderEnvelope(event, now))
	if err != nil {
		return err
	}

	letter := DeadLetter{
		OriginalTopic: p.sourceTopic,
		OriginalKey:   partitionKey(event),
		OriginalValue: original,
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateID:   event.AggregateID,
		Attempts:      attempts,
		FailedAt:      now.Format(time.RFC3339),
	}
	if cause != nil {
		letter.ErrorMessage = cause.Error()
	}

	_, err = p.producer.PublishJSON(p.dlqTopic, letter.OriginalKey, letter, Headers{
		HeaderOriginalTopic: letter.OriginalTopic,
		HeaderRetryCount:    strconv.Itoa(attempts),
		HeaderErrorMessage:  letter.ErrorMessage,
		HeaderFailedAt:      letter.FailedAt,
	})
	return err
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
