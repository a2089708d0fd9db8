package domain

import "time"

// CartLine — строка корзины: одна на пару (аккаунт, товар).
type CartLine struct {
	ID        string
	AccountID string
	ItemID    string
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLineView — строка корзины вместе с актуальными данными товара.
type CartLineView struct {
	Line           CartLine
	ItemName       string
	UnitPriceMinor int64
	StockQty       int64
	SellStatus     SellStatus
}

// SubtotalMinor возвращает стоимость строки по текущей цене.
func (v CartLineView) SubtotalMinor() int64 {
	return v.Line.Quantity * v.UnitPriceMinor
}
