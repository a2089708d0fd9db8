package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepository хранит заказы вместе с позициями.
type orderRepository struct {
	h handle
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepository) Create(_ context.Context, order domain.Order) (err error) {
	r.h.write(func(st *state) {
		if _, exists := st.orders[order.ID]; exists {
			err = fmt.Errorf("order %s already exists", order.ID)
			return
		}
		// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
		st.orders[order.ID] = order.Clone()
	})
	return err
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepository) Get(_ context.Context, id string) (order domain.Order, err error) {
	r.h.read(func(st *state) {
		stored, ok := st.orders[id]
		if !ok {
			err = domain.ErrOrderNotFound
			return
		}
		order = stored.Clone()
	})
	return order, err
}

// GetForUpdate совпадает с Get: внутри транзакции хранилище уже заблокировано целиком.
func (r *orderRepository) GetForUpdate(ctx context.Context, id string) (domain.Order, error) {
	return r.Get(ctx, id)
}

// ListByAccount возвращает заказы аккаунта, новые первыми.
func (r *orderRepository) ListByAccount(_ context.Context, accountID string, page domain.PageRequest) (domain.Page[domain.Order], error) {
	var result []domain.Order
	r.h.read(func(st *state) {
		result = make([]domain.Order, 0)
		for _, order := range st.orders {
			if order.AccountID != accountID {
				continue
			}
			result = append(result, order.Clone())
		}
	})

	sort.Slice(result, func(i, j int) bool {
		if !result[i].OrderedAt.Equal(result[j].OrderedAt) {
			return result[i].OrderedAt.After(result[j].OrderedAt)
		}
		return result[i].ID > result[j].ID
	})

	return domain.Paginate(result, page), nil
}

func (r *orderRepository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus, updatedAt time.Time) (err error) {
	r.h.write(func(st *state) {
		order, ok := st.orders[id]
		if !ok {
			err = domain.ErrOrderNotFound
			return
		}
		order.Status = status
		order.UpdatedAt = updatedAt
		st.orders[id] = order
	})
	return err
}

var _ domain.OrderRepository = (*orderRepository)(nil)
