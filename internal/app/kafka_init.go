package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
)

// initKafkaProducer инициализирует Kafka producer, если список брокеров не пуст.
// Возвращает nil, nil при пустом списке.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers, logger.WithField("component", "kafka-producer"))
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// closeKafka закрывает Kafka producer, если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// newOutboxPublishers собирает publisher для outbox worker. Без Kafka события
// только логируются и помечаются отправленными, DLQ отсутствует.
func newOutboxPublishers(cfg Config, producer *kafka.Producer, logger *log.Entry) (domain.OutboxPublisher, outbox.DeadLetterPublisher) {
	if producer == nil {
		return logPublisher{logger: logger.WithField("component", "outbox-log-publisher")}, nil
	}

	topicPublisher := kafka.NewOutboxPublisher(producer, cfg.OrderEventsTopic)
	guarded := outbox.NewBreakerPublisher(topicPublisher, "kafka-"+cfg.OrderEventsTopic, logger.WithField("component", "outbox-breaker"))
	return guarded, kafka.NewDeadLetterPublisher(producer, cfg.OrderEventsTopic, cfg.DLQTopic)
}

// logPublisher пишет события в лог, когда брокер не настроен.
type logPublisher struct {
	logger *log.Entry
}

func (p logPublisher) Publish(event domain.OutboxMessage) error {
	p.logger.WithFields(log.Fields{
		"event_id":     event.ID,
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID,
	}).Debug("order event emitted without broker")
	return nil
}
