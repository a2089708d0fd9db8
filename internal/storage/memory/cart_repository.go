package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cartRepository struct {
	h handle
}

// Accumulate создаёт строку или прибавляет количество к строке той же пары (аккаунт, товар).
func (r *cartRepository) Accumulate(_ context.Context, line domain.CartLine) (result domain.CartLine, err error) {
	r.h.write(func(st *state) {
		byItem := st.cartIndex[line.AccountID]
		if byItem == nil {
			byItem = make(map[string]string)
			st.cartIndex[line.AccountID] = byItem
		}

		if existingID, ok := byItem[line.ItemID]; ok {
			existing := st.cartLines[existingID]
			if existing.Quantity > math.MaxInt64-line.Quantity {
				err = domain.ErrInvalidQuantity
				return
			}
			existing.Quantity += line.Quantity
			existing.UpdatedAt = line.UpdatedAt
			st.cartLines[existingID] = existing
			result = existing
			return
		}

		st.cartLines[line.ID] = line
		byItem[line.ItemID] = line.ID
		result = line
	})
	return result, err
}

func (r *cartRepository) Get(_ context.Context, id string) (line domain.CartLine, err error) {
	r.h.read(func(st *state) {
		var ok bool
		line, ok = st.cartLines[id]
		if !ok {
			err = domain.ErrCartLineNotFound
		}
	})
	return line, err
}

// GetForUpdate совпадает с Get: транзакция in-memory хранилища и так исключительная.
func (r *cartRepository) GetForUpdate(ctx context.Context, id string) (domain.CartLine, error) {
	return r.Get(ctx, id)
}

// ListByAccount возвращает строки корзины с данными товаров в порядке добавления.
func (r *cartRepository) ListByAccount(_ context.Context, accountID string) ([]domain.CartLineView, error) {
	var views []domain.CartLineView
	r.h.read(func(st *state) {
		byItem := st.cartIndex[accountID]
		views = make([]domain.CartLineView, 0, len(byItem))
		for _, lineID := range byItem {
			line := st.cartLines[lineID]
			item := st.items[line.ItemID]
			views = append(views, domain.CartLineView{
				Line:           line,
				ItemName:       item.Name,
				UnitPriceMinor: item.PriceMinor,
				StockQty:       item.StockQty,
				SellStatus:     item.SellStatus,
			})
		}
	})

	sort.Slice(views, func(i, j int) bool {
		if !views[i].Line.CreatedAt.Equal(views[j].Line.CreatedAt) {
			return views[i].Line.CreatedAt.Before(views[j].Line.CreatedAt)
		}
		return views[i].Line.ID < views[j].Line.ID
	})

	return views, nil
}

func (r *cartRepository) SetQuantity(_ context.Context, id string, qty int64, updatedAt time.Time) (err error) {
	r.h.write(func(st *state) {
		line, ok := st.cartLines[id]
		if !ok {
			err = domain.ErrCartLineNotFound
			return
		}
		line.Quantity = qty
		line.UpdatedAt = updatedAt
		st.cartLines[id] = line
	})
	return err
}

func (r *cartRepository) Delete(_ context.Context, id string) (err error) {
	r.h.write(func(st *state) {
		line, ok := st.cartLines[id]
		if !ok {
			err = domain.ErrCartLineNotFound
			return
		}
		delete(st.cartLines, id)
		if byItem := st.cartIndex[line.AccountID]; byItem != nil {
			delete(byItem, line.ItemID)
			if len(byItem) == 0 {
				delete(st.cartIndex, line.AccountID)
			}
		}
	})
	return err
}

var _ domain.CartRepository = (*cartRepository)(nil)
