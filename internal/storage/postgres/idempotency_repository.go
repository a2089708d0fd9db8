package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const idempotencyColumns = `account_id, key, method, request_hash, status, response, code, expires_at, created_at, updated_at`

// idempotencyRepository работает напрямую с пулом, вне транзакций Store.
type idempotencyRepository struct {
	q querier
}

// NewIdempotencyRepository создаёт PostgreSQL-реализацию IdempotencyRepository.
func NewIdempotencyRepository(store *Store) domain.IdempotencyRepository {
	return &idempotencyRepository{q: store.DB()}
}

// Claim вставляет запись или замещает просроченную одной командой:
// при живой записи ON CONFLICT ... WHERE не обновляет строку и RETURNING пуст.
func (r *idempotencyRepository) Claim(ctx context.Context, claim domain.IdempotencyRecord) (domain.IdempotencyRecord, error) {
	claim, err := domain.PrepareClaim(claim)
	if err != nil {
		return domain.IdempotencyRecord{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.q.QueryRowContext(ctx, `
		INSERT INTO idempotency_keys (`+idempotencyColumns+`)
		VALUES ($1, $2, $3, $4, $5, NULL, 0, $6, $7, $7)
		ON CONFLICT (account_id, key) DO UPDATE
		SET method       = EXCLUDED.method,
		    request_hash = EXCLUDED.request_hash,
		    status       = EXCLUDED.status,
		    response     = NULL,
		    code         = 0,
		    expires_at   = EXCLUDED.expires_at,
		    created_at   = EXCLUDED.created_at,
		    updated_at   = EXCLUDED.updated_at
		WHERE idempotency_keys.expires_at <= EXCLUDED.created_at
		RETURNING `+idempotencyColumns,
		claim.Key.AccountID,
		claim.Key.Value,
		claim.Method,
		claim.RequestHash,
		string(claim.Status),
		claim.ExpiresAt,
		claim.CreatedAt,
	)
	stored, err := scanIdempotencyRecord(row)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.IdempotencyRecord{}, fmt.Errorf("claim idempotency key %s: %w", claim.Key, err)
	}

	current, err := r.Get(ctx, claim.Key)
	if err != nil {
		// Запись удалили между INSERT и SELECT: ключ всё равно считался занятым.
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyAlreadyExists
	}
	return current, current.ConflictError(claim.Method, claim.RequestHash)
}

func (r *idempotencyRepository) Get(ctx context.Context, key domain.IdempotencyKey) (domain.IdempotencyRecord, error) {
	key = domain.NewIdempotencyKey(key.AccountID, key.Value)
	if err := key.Validate(); err != nil {
		return domain.IdempotencyRecord{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	record, err := scanIdempotencyRecord(r.q.QueryRowContext(ctx,
		`SELECT `+idempotencyColumns+` FROM idempotency_keys WHERE account_id = $1 AND key = $2`,
		key.AccountID, key.Value,
	))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
	case err != nil:
		return domain.IdempotencyRecord{}, fmt.Errorf("get idempotency key %s: %w", key, err)
	}
	return record, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key domain.IdempotencyKey, status domain.IdempotencyStatus, response []byte, code int) error {
	if !status.Terminal() {
		return fmt.Errorf("complete idempotency key %s with non-terminal status %q", key, status)
	}
	key = domain.NewIdempotencyKey(key.AccountID, key.Value)
	if err := key.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE idempotency_keys
		SET status = $3, response = $4, code = $5, updated_at = $6
		WHERE account_id = $1 AND key = $2
	`, key.AccountID, key.Value, string(status), response, code, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("complete idempotency key %s: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("idempotency rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrIdempotencyKeyNotFound
	}
	return nil
}

// DeleteExpired удаляет не более limit записей, начиная с самых старых; limit<=0 снимает ограничение.
func (r *idempotencyRepository) DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// LIMIT NULL в PostgreSQL означает отсутствие ограничения.
	var batch sql.NullInt64
	if limit > 0 {
		batch = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	res, err := r.q.ExecContext(ctx, `
		DELETE FROM idempotency_keys
		WHERE (account_id, key) IN (
			SELECT account_id, key
			FROM idempotency_keys
			WHERE expires_at <= $1
			ORDER BY expires_at
			LIMIT $2
		)
	`, before, batch)
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency keys: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("idempotency rows affected: %w", err)
	}
	return int(affected), nil
}

func scanIdempotencyRecord(row rowScanner) (domain.IdempotencyRecord, error) {
	var (
		record domain.IdempotencyRecord
		status string
	)
	err := row.Scan(
		&record.Key.AccountID,
		&record.Key.Value,
		&record.Method,
		&record.RequestHash,
		&status,
		&record.Response,
		&record.Code,
		&record.ExpiresAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return domain.IdempotencyRecord{}, err
	}

	record.Status = domain.IdempotencyStatus(status)
	if !record.Status.Valid() {
		return domain.IdempotencyRecord{}, fmt.Errorf("invalid idempotency status %q for key %s", status, record.Key)
	}
	return record, nil
}

var _ domain.IdempotencyRepository = (*idempotencyRepository)(nil)
