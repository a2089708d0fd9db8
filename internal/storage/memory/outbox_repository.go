package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// outboxRecord хранит сообщение и служебные поля для in-memory реализации.
type outboxRecord struct {
	msg        domain.OutboxMessage
	seq        int64
	status     domain.OutboxStatus
	attemptCnt int
	createdAt  time.Time
	updatedAt  time.Time
}

// outboxRepository — in-memory хранилище для transactional outbox.
type outboxRepository struct {
	h handle
}

// Enqueue сохраняет событие со статусом `pending` и возвращает его с идентификатором.
func (r *outboxRepository) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	r.h.write(func(st *state) {
		st.outboxSeq++
		st.outbox[msg.ID] = &outboxRecord{
			msg:       msg,
			seq:       st.outboxSeq,
			status:    domain.OutboxStatusPending,
			createdAt: now,
			updatedAt: now,
		}
	})
	return msg, nil
}

// PullPending возвращает до limit сообщений со статусом `pending` в порядке постановки.
func (r *outboxRepository) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = domain.DefaultOutboxPullLimit
	}

	var pending []*outboxRecord
	r.h.read(func(st *state) {
		for _, rec := range st.outbox {
			if rec.status == domain.OutboxStatusPending {
				copied := *rec
				pending = append(pending, &copied)
			}
		}
	})

	sort.Slice(pending, func(i, j int) bool { return pending[i].seq < pending[j].seq })
	if len(pending) > limit {
		pending = pending[:limit]
	}

	result := make([]domain.OutboxMessage, 0, len(pending))
	for _, rec := range pending {
		result = append(result, rec.msg)
	}
	return result, nil
}

func (r *outboxRepository) Stats(context.Context) (domain.OutboxStats, error) {
	var stats domain.OutboxStats
	r.h.read(func(st *state) {
		for _, rec := range st.outbox {
			if rec.status != domain.OutboxStatusPending {
				continue
			}
			stats.PendingCount++
			if stats.OldestPendingAt.IsZero() || rec.createdAt.Before(stats.OldestPendingAt) {
				stats.OldestPendingAt = rec.createdAt
			}
		}
	})
	return stats, nil
}

// MarkSent обновляет статус события после успешной публикации.
func (r *outboxRepository) MarkSent(_ context.Context, id string) error {
	return r.markStatus(id, domain.OutboxStatusSent)
}

// MarkFailed фиксирует ошибку публикации.
func (r *outboxRepository) MarkFailed(_ context.Context, id string) error {
	return r.markStatus(id, domain.OutboxStatusFailed)
}

func (r *outboxRepository) markStatus(id string, status domain.OutboxStatus) (err error) {
	r.h.write(func(st *state) {
		record, ok := st.outbox[id]
		if !ok {
			err = domain.ErrOutboxPublish
			return
		}
		record.status = status
		record.attemptCnt++
		record.updatedAt = time.Now().UTC()
	})
	return err
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
