package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// idempotencyRepository не участвует в транзакциях Store:
// ключи переживают любую отдельную операцию.
type idempotencyRepository struct {
	mu      sync.Mutex
	records map[domain.IdempotencyKey]domain.IdempotencyRecord
}

// NewIdempotencyRepository создаёт in-memory реализацию IdempotencyRepository.
func NewIdempotencyRepository() domain.IdempotencyRepository {
	return &idempotencyRepository{records: make(map[domain.IdempotencyKey]domain.IdempotencyRecord)}
}

func (r *idempotencyRepository) Claim(_ context.Context, claim domain.IdempotencyRecord) (domain.IdempotencyRecord, error) {
	claim, err := domain.PrepareClaim(claim)
	if err != nil {
		return domain.IdempotencyRecord{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.records[claim.Key]; ok && !current.Expired(claim.CreatedAt) {
		return copyRecord(current), current.ConflictError(claim.Method, claim.RequestHash)
	}
	r.records[claim.Key] = copyRecord(claim)
	return copyRecord(claim), nil
}

func (r *idempotencyRepository) Get(_ context.Context, key domain.IdempotencyKey) (domain.IdempotencyRecord, error) {
	key = domain.NewIdempotencyKey(key.AccountID, key.Value)
	if err := key.Validate(); err != nil {
		return domain.IdempotencyRecord{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[key]
	if !ok {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
	}
	return copyRecord(record), nil
}

func (r *idempotencyRepository) Complete(_ context.Context, key domain.IdempotencyKey, status domain.IdempotencyStatus, response []byte, code int) error {
	if !status.Terminal() {
		return fmt.Errorf("complete idempotency key %s with non-terminal status %q", key, status)
	}
	key = domain.NewIdempotencyKey(key.AccountID, key.Value)
	if err := key.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[key]
	if !ok {
		return domain.ErrIdempotencyKeyNotFound
	}
	record.Status = status
	record.Response = append([]byte(nil), response...)
	record.Code = code
	record.UpdatedAt = time.Now().UTC()
	r.records[key] = record
	return nil
}

// DeleteExpired удаляет записи в порядке истечения срока, начиная с самых старых.
func (r *idempotencyRepository) DeleteExpired(_ context.Context, before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	expired := make([]domain.IdempotencyRecord, 0)
	for _, record := range r.records {
		if record.Expired(before) {
			expired = append(expired, record)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	for _, record := range expired {
		delete(r.records, record.Key)
	}
	return len(expired), nil
}

func copyRecord(src domain.IdempotencyRecord) domain.IdempotencyRecord {
	dst := src
	dst.Response = append([]byte(nil), src.Response...)
	return dst
}

var _ domain.IdempotencyRepository = (*idempotencyRepository)(nil)
