package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

type offsetClient interface {
	GetOffset(topic string, partition int32, time int64) (int64, error)
	Partitions(topic string) ([]int32, error)
	Close() error
}

type partitionConsumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

type partitionConsumerSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error)
	Close() error
}

// replayProducer реализуется *kafka.Producer.
type replayProducer interface {
	PublishJSON(topic, key string, value any, headers kafka.Headers) (kafka.Delivery, error)
	Close() error
}

type saramaConsumerAdapter struct {
	consumer sarama.Consumer
}

func (a saramaConsumerAdapter) ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error) {
	return a.consumer.ConsumePartition(topic, partition, offset)
}

func (a saramaConsumerAdapter) Close() error {
	if a.consumer == nil {
		return nil
	}
	return a.consumer.Close()
}

var errNotEnvelope = errors.New("original value is not an order event envelope")

// replayJob — событие, восстановленное из письма DLQ.
type replayJob struct {
	topic    string
	key      string
	envelope kafka.OrderEnvelope
	attempts int
}

func (j replayJob) headers() kafka.Headers {
	headers := kafka.Headers{kafka.HeaderRetryCount: strconv.Itoa(j.attempts)}
	if j.envelope.EventType != "" {
		headers[kafka.HeaderEventType] = j.envelope.EventType
	}
	return headers
}

// decodeDeadLetter достаёт исходный конверт из письма. Id события
// сохраняется, published_at выставляется заново: потребители
// дедуплицируют повтор по id.
func decodeDeadLetter(value []byte, fallbackTopic string, now time.Time) (replayJob, error) {
	var letter kafka.DeadLetter
	if err := json.Unmarshal(value, &letter); err != nil {
		return replayJob{}, fmt.Errorf("decode dead letter: %w", err)
	}
	if strings.TrimSpace(letter.OriginalValue) == "" {
		return replayJob{}, errors.New("dead letter carries no original value")
	}

	envelope, err := kafka.ParseOrderEnvelope([]byte(letter.OriginalValue))
	if err != nil {
		return replayJob{}, err
	}
	if envelope.ID == "" || envelope.EventType == "" || len(envelope.Payload) == 0 {
		return replayJob{}, errNotEnvelope
	}
	envelope.PublishedAt = now
	if et := strings.TrimSpace(letter.EventType); et != "" {
		envelope.EventType = et
	}

	return replayJob{
		topic:    firstNonEmpty(letter.OriginalTopic, fallbackTopic),
		key:      firstNonEmpty(letter.OriginalKey, letter.AggregateID, envelope.AggregateID, envelope.ID),
		envelope: envelope,
		attempts: letter.Attempts,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

type replayStats struct {
	scanned  int
	replayed int
	skipped  int
}

func (s *replayStats) add(other replayStats) {
	s.scanned += other.scanned
	s.replayed += other.replayed
	s.skipped += other.skipped
}

// replayer проходит DLQ по партициям и в режиме execute возвращает
// события в исходный topic. Без execute только логирует кандидатов.
type replayer struct {
	cfg      config
	client   offsetClient
	consumer partitionConsumerSource
	producer replayProducer
	logger   *log.Entry
	now      func() time.Time
}

func newReplayer(cfg config, client offsetClient, consumer partitionConsumerSource, producer replayProducer) (*replayer, error) {
	if client == nil || consumer == nil {
		return nil, errors.New("kafka client and consumer are required")
	}
	if cfg.execute && producer == nil {
		return nil, errors.New("execute mode needs a producer")
	}
	return &replayer{
		cfg:      cfg,
		client:   client,
		consumer: consumer,
		producer: producer,
		logger:   log.WithField("component", "dlq-reprocess"),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run сканирует партиции по возрастанию номера, пока не наберёт limit писем.
func (r *replayer) Run(ctx context.Context) (replayStats, error) {
	var total replayStats

	partitions, err := r.client.Partitions(r.cfg.sourceTopic)
	if err != nil {
		return total, fmt.Errorf("partitions of %s: %w", r.cfg.sourceTopic, err)
	}
	if len(partitions) == 0 {
		r.logger.WithField("topic", r.cfg.sourceTopic).Warn("dlq topic has no partitions")
		return total, nil
	}
	slices.Sort(partitions)

	for _, partition := range partitions {
		budget := r.cfg.limit - total.scanned
		if budget <= 0 {
			break
		}
		stats, err := r.scanPartition(ctx, partition, budget)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// bounds возвращает диапазон офсетов для сканирования. Верхняя граница
// фиксируется на старте: письма, пришедшие позже, не трогаем.
func (r *replayer) bounds(partition int32, budget int) (start, end int64, err error) {
	oldest, err := r.client.GetOffset(r.cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return 0, 0, fmt.Errorf("oldest offset of partition %d: %w", partition, err)
	}
	newest, err := r.client.GetOffset(r.cfg.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return 0, 0, fmt.Errorf("newest offset of partition %d: %w", partition, err)
	}
	start = oldest
	if r.cfg.fromNewest {
		start = max(newest-int64(budget), oldest)
	}
	return start, newest, nil
}

func (r *replayer) scanPartition(ctx context.Context, partition int32, budget int) (replayStats, error) {
	var stats replayStats

	start, end, err := r.bounds(partition, budget)
	if err != nil || end <= start {
		return stats, err
	}

	pc, err := r.consumer.ConsumePartition(r.cfg.sourceTopic, partition, start)
	if err != nil {
		return stats, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(r.cfg.idleTimeout)
	defer idle.Stop()

	for stats.scanned < budget {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-idle.C:
			return stats, nil
		case cerr := <-pc.Errors():
			if cerr != nil {
				return stats, fmt.Errorf("partition %d: %w", partition, cerr)
			}
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil || msg.Offset >= end {
				return stats, nil
			}
			idle.Reset(r.cfg.idleTimeout)

			stats.scanned++
			replayed, err := r.handle(msg)
			if err != nil {
				return stats, err
			}
			if replayed {
				stats.replayed++
			} else {
				stats.skipped++
			}
			if msg.Offset+1 >= end {
				return stats, nil
			}
		}
	}
	return stats, nil
}

// handle возвращает false для писем, которые пропущены фильтром или не разобраны.
func (r *replayer) handle(msg *sarama.ConsumerMessage) (bool, error) {
	entry := r.logger.WithFields(log.Fields{"partition": msg.Partition, "offset": msg.Offset})

	job, err := decodeDeadLetter(msg.Value, r.cfg.targetTopic, r.now())
	if err != nil {
		entry.WithError(err).Warn("dead letter skipped")
		return false, nil
	}
	if r.cfg.eventType != "" && job.envelope.EventType != r.cfg.eventType {
		return false, nil
	}

	entry = entry.WithFields(log.Fields{
		"target_topic": job.topic,
		"key":          job.key,
		"event_type":   job.envelope.EventType,
		"attempts":     job.attempts,
	})
	if !r.cfg.execute {
		entry.Info("dlq replay candidate")
		return true, nil
	}

	if _, err := r.producer.PublishJSON(job.topic, job.key, job.envelope, job.headers()); err != nil {
		return false, fmt.Errorf("replay %s: %w", job.envelope.ID, err)
	}
	entry.Debug("dead letter replayed")
	return true, nil
}
