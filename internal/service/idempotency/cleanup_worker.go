// Package idempotency чистит хранилище ключей идемпотентности от просроченных записей.
package idempotency

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultCleanupInterval  = 10 * time.Minute
	defaultCleanupBatchSize = 500
	// defaultMaxBatches ограничивает один проход, чтобы длинный хвост
	// не держал соединение с базой между тиками.
	defaultMaxBatches = 100
)

// ExpiredKeyDeleter удаляет просроченные ключи порциями не больше limit.
type ExpiredKeyDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// SweepRecorder принимает итоги проходов очистки.
type SweepRecorder interface {
	RecordSweep(deleted int, err error)
}

// Sweep — итог одного прохода очистки.
type Sweep struct {
	Deleted int
	Batches int
	// Truncated — проход остановлен по лимиту порций, хвост доберёт следующий тик.
	Truncated bool
}

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupWorker)

// WithLogger задаёт logger воркера.
func WithLogger(logger *log.Entry) CleanupOption {
	return func(w *CleanupWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithInterval задаёт паузу между проходами.
func WithInterval(interval time.Duration) CleanupOption {
	return func(w *CleanupWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithBatchSize задаёт размер одной порции удаления.
func WithBatchSize(batchSize int) CleanupOption {
	return func(w *CleanupWorker) {
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// WithMaxBatches ограничивает число порций за проход.
func WithMaxBatches(maxBatches int) CleanupOption {
	return func(w *CleanupWorker) {
		if maxBatches > 0 {
			w.maxBatches = maxBatches
		}
	}
}

// WithRecorder подключает учёт проходов (обычно metrics.CleanupMetrics).
func WithRecorder(recorder SweepRecorder) CleanupOption {
	return func(w *CleanupWorker) {
		w.recorder = recorder
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) CleanupOption {
	return func(w *CleanupWorker) {
		if now != nil {
			w.now = now
		}
	}
}

// CleanupWorker периодически удаляет просроченные idempotency-ключи.
type CleanupWorker struct {
	repo       ExpiredKeyDeleter
	recorder   SweepRecorder
	logger     *log.Entry
	interval   time.Duration
	batchSize  int
	maxBatches int
	now        func() time.Time
}

// NewCleanupWorker создаёт воркер очистки.
func NewCleanupWorker(repo ExpiredKeyDeleter, options ...CleanupOption) *CleanupWorker {
	w := &CleanupWorker{
		repo:       repo,
		logger:     log.WithField("component", "idempotency-cleanup"),
		interval:   defaultCleanupInterval,
		batchSize:  defaultCleanupBatchSize,
		maxBatches: defaultMaxBatches,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Run выполняет проход сразу и затем каждые interval до отмены ctx.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.repo == nil {
		w.logger.Warn("idempotency cleanup is disabled: no repository")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.runOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *CleanupWorker) runOnce(ctx context.Context) {
	sweep, err := w.Sweep(ctx)
	if errors.Is(err, context.Canceled) {
		return
	}
	if w.recorder != nil {
		w.recorder.RecordSweep(sweep.Deleted, err)
	}

	entry := w.logger.WithFields(log.Fields{"deleted": sweep.Deleted, "batches": sweep.Batches})
	switch {
	case err != nil:
		entry.WithError(err).Warn("idempotency cleanup sweep failed")
	case sweep.Truncated:
		entry.Info("idempotency cleanup sweep hit batch limit")
	case sweep.Deleted > 0:
		entry.Debug("idempotency cleanup sweep completed")
	}
}

// Sweep удаляет ключи, истёкшие к моменту вызова, пока порции заполнены
// целиком и не превышен лимит порций.
func (w *CleanupWorker) Sweep(ctx context.Context) (Sweep, error) {
	var sweep Sweep
	before := w.now()

	for sweep.Batches < w.maxBatches {
		if err := ctx.Err(); err != nil {
			return sweep, err
		}

		deleted, err := w.repo.DeleteExpired(ctx, before, w.batchSize)
		if err != nil {
			return sweep, err
		}
		sweep.Batches++
		sweep.Deleted += deleted

		if deleted < w.batchSize {
			return sweep, nil
		}
	}

	sweep.Truncated = true
	return sweep, nil
}
