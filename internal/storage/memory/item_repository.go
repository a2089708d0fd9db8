package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type itemRepository struct {
	h handle
}

func (r *itemRepository) Create(_ context.Context, item domain.Item) (err error) {
	r.h.write(func(st *state) {
		if _, exists := st.items[item.ID]; exists {
			err = fmt.Errorf("item %s already exists", item.ID)
			return
		}
		st.items[item.ID] = item
	})
	return err
}

func (r *itemRepository) Get(_ context.Context, id string) (item domain.Item, err error) {
	r.h.read(func(st *state) {
		var ok bool
		item, ok = st.items[id]
		if !ok {
			err = domain.ErrItemNotFound
		}
	})
	return item, err
}

// GetForUpdate совпадает с Get: транзакция in-memory хранилища и так эксклюзивна.
func (r *itemRepository) GetForUpdate(ctx context.Context, id string) (domain.Item, error) {
	return r.Get(ctx, id)
}

func (r *itemRepository) Update(_ context.Context, item domain.Item) (err error) {
	r.h.write(func(st *state) {
		current, ok := st.items[item.ID]
		if !ok {
			err = domain.ErrItemNotFound
			return
		}
		item.CreatedAt = current.CreatedAt
		st.items[item.ID] = item
	})
	return err
}

// Search фильтрует каталог и сортирует по created_at DESC, id DESC.
func (r *itemRepository) Search(_ context.Context, criteria domain.ItemSearch, page domain.PageRequest) (domain.Page[domain.Item], error) {
	var matched []domain.Item
	r.h.read(func(st *state) {
		matched = make([]domain.Item, 0, len(st.items))
		for _, item := range st.items {
			if criteria.Matches(item) {
				matched = append(matched, item)
			}
		}
	})

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	return domain.Paginate(matched, page), nil
}

// DecrementStock проверяет и списывает остаток за одну операцию под блокировкой.
func (r *itemRepository) DecrementStock(_ context.Context, itemID string, qty int64) (remaining int64, err error) {
	r.h.write(func(st *state) {
		item, ok := st.items[itemID]
		if !ok {
			err = domain.ErrItemNotFound
			return
		}
		if item.StockQty < qty {
			err = &domain.InsufficientStockError{ItemID: itemID, Requested: qty, Available: item.StockQty}
			return
		}
		item.StockQty -= qty
		if item.StockQty == 0 {
			item.SellStatus = domain.SellStatusSoldOut
		}
		item.UpdatedAt = time.Now().UTC()
		st.items[itemID] = item
		remaining = item.StockQty
	})
	return remaining, err
}

func (r *itemRepository) IncrementStock(_ context.Context, itemID string, qty int64) (total int64, err error) {
	r.h.write(func(st *state) {
		item, ok := st.items[itemID]
		if !ok {
			err = domain.ErrItemNotFound
			return
		}
		if item.StockQty > math.MaxInt64-qty {
			err = domain.ErrStockOverflow
			return
		}
		item.StockQty += qty
		if item.SellStatus == domain.SellStatusSoldOut && item.StockQty > 0 {
			item.SellStatus = domain.SellStatusSell
		}
		item.UpdatedAt = time.Now().UTC()
		st.items[itemID] = item
		total = item.StockQty
	})
	return total, err
}

var _ domain.ItemRepository = (*itemRepository)(nil)
