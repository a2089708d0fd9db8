package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type itemRepository struct {
	q querier
}

const itemColumns = `id, name, description, category, price_minor, stock_qty, sell_status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var (
		item   domain.Item
		status string
	)
	if err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Category,
		&item.PriceMinor,
		&item.StockQty,
		&status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return domain.Item{}, err
	}
	item.SellStatus = domain.SellStatus(status)
	return item, nil
}

func (r *itemRepository) Create(ctx context.Context, item domain.Item) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		item.ID, item.Name, item.Description, item.Category,
		item.PriceMinor, item.StockQty, string(item.SellStatus), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("item %s already exists: %w", item.ID, err)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *itemRepository) Get(ctx context.Context, id string) (domain.Item, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate нужен админскому обновлению, чтобы не затереть
// параллельное списание устаревшим stock_qty.
func (r *itemRepository) GetForUpdate(ctx context.Context, id string) (domain.Item, error) {
	return r.get(ctx, id, true)
}

func (r *itemRepository) get(ctx context.Context, id string, forUpdate bool) (domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	item, err := scanItem(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Item{}, domain.ErrItemNotFound
		}
		return domain.Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (r *itemRepository) Update(ctx context.Context, item domain.Item) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE items
		SET name = $2,
		    description = $3,
		    category = $4,
		    price_minor = $5,
		    stock_qty = $6,
		    sell_status = $7,
		    updated_at = $8
		WHERE id = $1
	`,
		item.ID, item.Name, item.Description, item.Category,
		item.PriceMinor, item.StockQty, string(item.SellStatus), item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for item update: %w", err)
	}
	if affected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// buildItemFilter собирает WHERE по критериям поиска.
func buildItemFilter(criteria domain.ItemSearch) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if keyword := strings.TrimSpace(criteria.Keyword); keyword != "" {
		pattern := "%" + escapeLike(keyword) + "%"
		switch criteria.SearchBy {
		case domain.SearchByName:
			add("name ILIKE $%d", pattern)
		case domain.SearchByDescription:
			add("description ILIKE $%d", pattern)
		default:
			args = append(args, pattern)
			conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
		}
	}
	if criteria.Category != "" {
		add("lower(category) = lower($%d)", criteria.Category)
	}
	if criteria.SellStatus != "" {
		add("sell_status = $%d", string(criteria.SellStatus))
	}
	if !criteria.CreatedSince.IsZero() {
		add("created_at >= $%d", criteria.CreatedSince)
	}
	if !criteria.CreatedUntil.IsZero() {
		add("created_at <= $%d", criteria.CreatedUntil)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *itemRepository) Search(ctx context.Context, criteria domain.ItemSearch, page domain.PageRequest) (domain.Page[domain.Item], error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	where, args := buildItemFilter(criteria)
	result := domain.Page[domain.Item]{Items: []domain.Item{}, Page: page.Page, Size: page.Size}

	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&result.Total); err != nil {
		return domain.Page[domain.Item]{}, fmt.Errorf("count items: %w", err)
	}
	if result.Total == 0 {
		return result, nil
	}

	args = append(args, page.Size, page.Offset())
	rows, err := r.q.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM items%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, itemColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return domain.Page[domain.Item]{}, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return domain.Page[domain.Item]{}, fmt.Errorf("scan item: %w", err)
		}
		result.Items = append(result.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Item]{}, fmt.Errorf("iterate item rows: %w", err)
	}

	return result, nil
}

// DecrementStock — атомарное условное списание: строка меняется только при stock_qty >= qty.
// Ноль затронутых строк означает либо отсутствие товара, либо нехватку остатка.
func (r *itemRepository) DecrementStock(ctx context.Context, itemID string, qty int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var remaining int64
	err := r.q.QueryRowContext(ctx, `
		UPDATE items
		SET stock_qty = stock_qty - $2,
		    sell_status = CASE WHEN stock_qty - $2 = 0 THEN 'SOLD_OUT' ELSE sell_status END,
		    updated_at = NOW()
		WHERE id = $1 AND stock_qty >= $2
		RETURNING stock_qty
	`, itemID, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	var available int64
	if err := r.q.QueryRowContext(ctx, `SELECT stock_qty FROM items WHERE id = $1`, itemID).Scan(&available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrItemNotFound
		}
		return 0, fmt.Errorf("read stock after failed decrement: %w", err)
	}
	return 0, &domain.InsufficientStockError{ItemID: itemID, Requested: qty, Available: available}
}

func (r *itemRepository) IncrementStock(ctx context.Context, itemID string, qty int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var total int64
	err := r.q.QueryRowContext(ctx, `
		UPDATE items
		SET stock_qty = stock_qty + $2,
		    sell_status = CASE WHEN sell_status = 'SOLD_OUT' AND stock_qty + $2 > 0 THEN 'SELL' ELSE sell_status END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING stock_qty
	`, itemID, qty).Scan(&total)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, domain.ErrItemNotFound
		case isOutOfRange(err):
			return 0, domain.ErrStockOverflow
		default:
			return 0, fmt.Errorf("increment stock: %w", err)
		}
	}
	return total, nil
}

var _ domain.ItemRepository = (*itemRepository)(nil)
