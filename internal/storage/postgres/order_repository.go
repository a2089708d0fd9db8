package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type orderRepository struct {
	q querier
}

// Create вставляет заказ и позиции. Атомарность обеспечивает внешняя транзакция.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO orders (id, account_id, status, ordered_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`, order.ID, order.AccountID, string(order.Status), order.OrderedAt, order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order %s already exists: %w", order.ID, err)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for position, line := range order.Lines {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO order_lines (
				id, order_id, position, item_id, item_name, quantity, unit_price_minor
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			line.ID, order.ID, position, line.ItemID, line.ItemName, line.Quantity, line.UnitPriceMinor,
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate блокирует строку заказа до конца транзакции,
// чтобы две параллельные отмены не вернули остаток дважды.
func (r *orderRepository) GetForUpdate(ctx context.Context, id string) (domain.Order, error) {
	return r.get(ctx, id, true)
}

func (r *orderRepository) get(ctx context.Context, id string, forUpdate bool) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `SELECT id, account_id, status, ordered_at, updated_at FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		order  domain.Order
		status string
	)
	err := r.q.QueryRowContext(ctx, query, id).Scan(&order.ID, &order.AccountID, &status, &order.OrderedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines
	return order, nil
}

func (r *orderRepository) ListByAccount(ctx context.Context, accountID string, page domain.PageRequest) (domain.Page[domain.Order], error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result := domain.Page[domain.Order]{Items: []domain.Order{}, Page: page.Page, Size: page.Size}
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE account_id = $1`, accountID).Scan(&result.Total); err != nil {
		return domain.Page[domain.Order]{}, fmt.Errorf("count orders: %w", err)
	}
	if result.Total == 0 {
		return result, nil
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, account_id, status, ordered_at, updated_at
		FROM orders
		WHERE account_id = $1
		ORDER BY ordered_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, accountID, page.Size, page.Offset())
	if err != nil {
		return domain.Page[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}

	for rows.Next() {
		var (
			order  domain.Order
			status string
		)
		if err := rows.Scan(&order.ID, &order.AccountID, &status, &order.OrderedAt, &order.UpdatedAt); err != nil {
			_ = rows.Close()
			return domain.Page[domain.Order]{}, fmt.Errorf("scan order: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		result.Items = append(result.Items, order)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return domain.Page[domain.Order]{}, fmt.Errorf("iterate order rows: %w", err)
	}
	_ = rows.Close()

	// Позиции читаем после закрытия курсора: на одном соединении транзакции
	// нельзя держать два открытых результата.
	for i := range result.Items {
		lines, err := r.loadLines(ctx, result.Items[i].ID)
		if err != nil {
			return domain.Page[domain.Order]{}, err
		}
		result.Items[i].Lines = lines
	}

	return result, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
	`, id, string(status), updatedAt)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for order status: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, order_id, item_id, item_name, quantity, unit_price_minor
		FROM order_lines
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ItemID, &line.ItemName, &line.Quantity, &line.UnitPriceMinor); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return lines, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
