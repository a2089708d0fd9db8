package kafka

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// DefaultClientID подставляется, когда вызывающий не задал свой.
const DefaultClientID = "storefront"

// Headers — заголовки Kafka-записи. В записи они идут в порядке ключей,
// поэтому одно и то же событие всегда кодируется одинаково.
type Headers map[string]string

func (h Headers) records() []sarama.RecordHeader {
	if len(h) == 0 {
		return nil
	}
	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]sarama.RecordHeader, 0, len(keys))
	for _, key := range keys {
		out = append(out, sarama.RecordHeader{Key: []byte(key), Value: []byte(h[key])})
	}
	return out
}

// Delivery — куда брокер записал сообщение.
type Delivery struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Producer отправляет JSON-события магазина в Kafka синхронно:
// вызов возвращается только после подтверждения всех реплик.
type Producer struct {
	sync   sarama.SyncProducer
	logger *log.Entry
	now    func() time.Time
}

// NewProducerConfig настраивает идемпотентный producer с ожиданием всех реплик.
func NewProducerConfig(clientID string) *sarama.Config {
	if clientID == "" {
		clientID = DefaultClientID
	}
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.Idempotent = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond
	cfg.Producer.Compression = sarama.CompressionSnappy
	// Идемпотентный producer требует не больше одного запроса в полёте.
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// NewProducer подключается к брокерам.
func NewProducer(brokers []string, logger *log.Entry) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka producer: no brokers configured")
	}
	sync, err := sarama.NewSyncProducer(brokers, NewProducerConfig(DefaultClientID))
	if err != nil {
		return nil, fmt.Errorf("kafka producer: connect to %v: %w", brokers, err)
	}
	return NewProducerFromSync(sync, logger), nil
}

// NewProducerFromSync строит Producer поверх готового SyncProducer, в тестах это mocks.SyncProducer.
func NewProducerFromSync(sync sarama.SyncProducer, logger *log.Entry) *Producer {
	if logger == nil {
		logger = log.WithField("component", "kafka-producer")
	}
	return &Producer{sync: sync, logger: logger, now: time.Now}
}

// PublishJSON кодирует value в JSON и пишет его в topic под ключом key.
func (p *Producer) PublishJSON(topic, key string, value any, headers Headers) (Delivery, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return Delivery{}, fmt.Errorf("encode %s event: %w", topic, err)
	}

	partition, offset, err := p.sync.SendMessage(&sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(body),
		Headers:   headers.records(),
		Timestamp: p.now().UTC(),
	})
	entry := p.logger.WithFields(log.Fields{"topic": topic, "key": key})
	if err != nil {
		entry.WithError(err).Warn("kafka write rejected")
		return Delivery{}, fmt.Errorf("write to %s: %w", topic, err)
	}

	entry.WithFields(log.Fields{"partition": partition, "offset": offset}).Debug("kafka write acknowledged")
	return Delivery{Topic: topic, Partition: partition, Offset: offset}, nil
}

// Close дожидается отправки буфера и закрывает соединения.
func (p *Producer) Close() error {
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
