// Package outbox доставляет события заказов из transactional outbox в брокер.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
	maxRetryDelay         = 30 * time.Second
)

// DeadLetterPublisher принимает сообщения, исчерпавшие попытки публикации.
type DeadLetterPublisher interface {
	PublishDeadLetter(event domain.OutboxMessage, attempts int, cause error) error
}

// DeliveryRecorder учитывает исходы доставки и размер очереди (обычно metrics.OutboxMetrics).
type DeliveryRecorder interface {
	RecordDelivery(result string)
	SetBacklog(pending int, oldestAge time.Duration)
}

const (
	resultSent       = "sent"
	resultRetryError = "retry_error"
	resultFailed     = "failed"
	resultDeferred   = "deferred"
	resultDLQFailed  = "dlq_failed"
)

// Option настраивает Worker.
type Option func(*Worker)

// WithLogger задаёт logger воркера.
func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDLQPublisher задаёт получателя сообщений, исчерпавших попытки.
func WithDLQPublisher(publisher DeadLetterPublisher) Option {
	return func(w *Worker) {
		w.deadLetters = publisher
	}
}

// WithRecorder подключает учёт доставки.
func WithRecorder(recorder DeliveryRecorder) Option {
	return func(w *Worker) {
		w.recorder = recorder
	}
}

// WithPollInterval задаёт паузу между опросами пустой очереди.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithBatchSize задаёт число сообщений, забираемых за один проход.
func WithBatchSize(batchSize int) Option {
	return func(w *Worker) {
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// WithMaxAttempts задаёт число попыток публикации одного сообщения.
func WithMaxAttempts(maxAttempts int) Option {
	return func(w *Worker) {
		if maxAttempts > 0 {
			w.maxAttempts = maxAttempts
		}
	}
}

// WithRetryBaseDelay задаёт задержку перед второй попыткой; дальше она удваивается.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) {
		w.retryBaseDelay = max(delay, 0)
	}
}

// Pass — итог одного прохода по очереди.
type Pass struct {
	Pulled   int
	Sent     int
	Failed   int
	Deferred int
}

// drained сообщает, что очередь могла опустеть и можно ждать следующего тика.
func (p Pass) drained(batchSize int) bool {
	return p.Pulled < batchSize || p.Deferred > 0
}

// Worker публикует pending-сообщения из outbox в брокер.
type Worker struct {
	repo           domain.OutboxRepository
	publisher      domain.OutboxPublisher
	deadLetters    DeadLetterPublisher
	recorder       DeliveryRecorder
	logger         *log.Entry
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
}

// NewWorker создаёт outbox worker.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		repo:           repo,
		publisher:      publisher,
		logger:         log.WithField("component", "outbox-worker"),
		pollInterval:   defaultPollInterval,
		batchSize:      defaultBatchSize,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Run опрашивает outbox до отмены ctx. Пока проходы забирают полный батч,
// следующий запускается без ожидания тика.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		wait := w.pollInterval
		if pass := w.ProcessOnce(ctx); !pass.drained(w.batchSize) {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// ProcessOnce забирает один батч и пытается доставить каждое сообщение.
// Отказ circuit breaker останавливает проход: оставшиеся сообщения ждут следующего.
func (w *Worker) ProcessOnce(ctx context.Context) Pass {
	var pass Pass
	if ctx.Err() != nil {
		return pass
	}
	defer w.refreshBacklog(ctx)

	events, err := w.repo.PullPending(ctx, w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return pass
	}
	pass.Pulled = len(events)

	for i, event := range events {
		entry := w.logger.WithFields(log.Fields{"outbox_id": event.ID, "event_type": event.EventType})

		err := w.deliver(ctx, event)
		switch {
		case err == nil:
			pass.Sent++
			// Отметка переживает остановку воркера, иначе доставленное
			// сообщение уйдёт повторно после рестарта.
			if markErr := w.repo.MarkSent(context.WithoutCancel(ctx), event.ID); markErr != nil {
				entry.WithError(markErr).Warn("failed to mark outbox message as sent")
			}
		case isBreakerRejection(err) || ctx.Err() != nil:
			pass.Deferred = len(events) - i
			w.record(resultDeferred)
			entry.WithError(err).Warn("outbox publishing paused")
			return pass
		default:
			pass.Failed++
			w.record(resultFailed)
			entry.WithError(err).Error("outbox message undeliverable")
			w.bury(ctx, entry, event, err)
		}
	}
	return pass
}

// deliver публикует событие с экспоненциальной паузой между попытками.
func (w *Worker) deliver(ctx context.Context, event domain.OutboxMessage) error {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, w.backoff(attempt-1)); err != nil {
				return err
			}
		}

		err := w.publisher.Publish(event)
		if err == nil {
			w.record(resultSent)
			return nil
		}
		if isBreakerRejection(err) {
			return err
		}
		lastErr = err
		w.record(resultRetryError)
	}
	return fmt.Errorf("publish failed after %d attempts: %w", w.maxAttempts, lastErr)
}

// bury переводит сообщение в failed и копирует его в DLQ, если она настроена.
func (w *Worker) bury(ctx context.Context, entry *log.Entry, event domain.OutboxMessage, cause error) {
	if w.deadLetters != nil {
		if err := w.deadLetters.PublishDeadLetter(event, w.maxAttempts, cause); err != nil {
			w.record(resultDLQFailed)
			entry.WithError(err).Warn("failed to publish outbox message to DLQ")
		}
	}
	if err := w.repo.MarkFailed(context.WithoutCancel(ctx), event.ID); err != nil {
		entry.WithError(err).Warn("failed to mark outbox message as failed")
	}
}

// backoff возвращает паузу после n-й неудачной попытки: base * 2^(n-1), не больше maxRetryDelay.
func (w *Worker) backoff(n int) time.Duration {
	if w.retryBaseDelay <= 0 {
		return 0
	}
	delay := w.retryBaseDelay
	for i := 1; i < n && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

func (w *Worker) refreshBacklog(ctx context.Context) {
	if w.recorder == nil {
		return
	}
	stats, err := w.repo.Stats(context.WithoutCancel(ctx))
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}

	var age time.Duration
	if stats.PendingCount > 0 && !stats.OldestPendingAt.IsZero() {
		age = time.Since(stats.OldestPendingAt)
	}
	w.recorder.SetBacklog(stats.PendingCount, age)
}

func (w *Worker) record(result string) {
	if w.recorder != nil {
		w.recorder.RecordDelivery(result)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
