package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cartRepository struct {
	q querier
}

// Accumulate опирается на уникальность (account_id, item_id):
// повторное добавление увеличивает количество существующей строки.
func (r *cartRepository) Accumulate(ctx context.Context, line domain.CartLine) (domain.CartLine, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var result domain.CartLine
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO cart_lines (id, account_id, item_id, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (account_id, item_id) DO UPDATE
		SET quantity = cart_lines.quantity + EXCLUDED.quantity,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, account_id, item_id, quantity, created_at, updated_at
	`,
		line.ID, line.AccountID, line.ItemID, line.Quantity, line.CreatedAt, line.UpdatedAt,
	).Scan(&result.ID, &result.AccountID, &result.ItemID, &result.Quantity, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		if isOutOfRange(err) {
			return domain.CartLine{}, domain.ErrInvalidQuantity
		}
		return domain.CartLine{}, fmt.Errorf("upsert cart line: %w", err)
	}
	return result, nil
}

func (r *cartRepository) Get(ctx context.Context, id string) (domain.CartLine, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate держит строку до конца транзакции: параллельное оформление
// той же строки дождётся коммита и увидит, что строки уже нет.
func (r *cartRepository) GetForUpdate(ctx context.Context, id string) (domain.CartLine, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *cartRepository) get(ctx context.Context, id, lock string) (domain.CartLine, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var line domain.CartLine
	err := r.q.QueryRowContext(ctx, `
		SELECT id, account_id, item_id, quantity, created_at, updated_at
		FROM cart_lines
		WHERE id = $1`+lock, id).Scan(&line.ID, &line.AccountID, &line.ItemID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CartLine{}, domain.ErrCartLineNotFound
		}
		return domain.CartLine{}, fmt.Errorf("get cart line: %w", err)
	}
	return line, nil
}

func (r *cartRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.CartLineView, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT c.id, c.account_id, c.item_id, c.quantity, c.created_at, c.updated_at,
		       i.name, i.price_minor, i.stock_qty, i.sell_status
		FROM cart_lines c
		JOIN items i ON i.id = c.item_id
		WHERE c.account_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	views := make([]domain.CartLineView, 0)
	for rows.Next() {
		var (
			view   domain.CartLineView
			status string
		)
		if err := rows.Scan(
			&view.Line.ID,
			&view.Line.AccountID,
			&view.Line.ItemID,
			&view.Line.Quantity,
			&view.Line.CreatedAt,
			&view.Line.UpdatedAt,
			&view.ItemName,
			&view.UnitPriceMinor,
			&view.StockQty,
			&status,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		view.SellStatus = domain.SellStatus(status)
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart rows: %w", err)
	}
	return views, nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, id string, qty int64, updatedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE cart_lines SET quantity = $2, updated_at = $3 WHERE id = $1
	`, id, qty, updatedAt)
	if err != nil {
		return fmt.Errorf("update cart line quantity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for cart line: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (r *cartRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM cart_lines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for cart line: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
