package domain

import (
	"context"
	"strings"
	"time"
)

// SellStatus описывает доступность товара к продаже.
type SellStatus string

const (
	// SellStatusSell — товар продаётся.
	SellStatusSell SellStatus = "SELL"
	// SellStatusSoldOut — остаток исчерпан.
	SellStatusSoldOut SellStatus = "SOLD_OUT"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s SellStatus) Valid() bool {
	switch s {
	case SellStatusSell, SellStatusSoldOut:
		return true
	default:
		return false
	}
}

// Item — карточка товара в каталоге.
type Item struct {
	ID          string
	Name        string
	Description string
	Category    string
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	StockQty   int64
	SellStatus SellStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewItem — поля для создания товара.
type NewItem struct {
	Name        string
	Description string
	Category    string
	PriceMinor  int64
	StockQty    int64
}

// Validate проверяет инварианты новой карточки.
func (n NewItem) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrItemNameRequired
	}
	if n.PriceMinor < 0 {
		return ErrItemPriceInvalid
	}
	if n.StockQty < 0 {
		return ErrItemStockInvalid
	}
	return nil
}

// ItemUpdate — частичное обновление карточки, nil означает "не менять".
type ItemUpdate struct {
	Name        *string
	Description *string
	Category    *string
	PriceMinor  *int64
	StockQty    *int64
	SellStatus  *SellStatus
}

// Apply применяет обновление к копии товара и проверяет результат.
func (u ItemUpdate) Apply(item Item) (Item, error) {
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return Item{}, ErrItemNameRequired
		}
		item.Name = *u.Name
	}
	if u.Description != nil {
		item.Description = *u.Description
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.PriceMinor != nil {
		if *u.PriceMinor < 0 {
			return Item{}, ErrItemPriceInvalid
		}
		item.PriceMinor = *u.PriceMinor
	}
	if u.StockQty != nil {
		if *u.StockQty < 0 {
			return Item{}, ErrItemStockInvalid
		}
		item.StockQty = *u.StockQty
	}
	if u.SellStatus != nil {
		if !u.SellStatus.Valid() {
			return Item{}, ErrSellStatusInvalid
		}
		item.SellStatus = *u.SellStatus
	}
	return item, nil
}

// SearchField задаёт, по какому полю ищется ключевое слово.
type SearchField string

const (
	SearchByAny         SearchField = ""
	SearchByName        SearchField = "name"
	SearchByDescription SearchField = "description"
)

// ItemSearch — критерии поиска по каталогу. Пустые поля не фильтруют.
type ItemSearch struct {
	Keyword      string
	SearchBy     SearchField
	Category     string
	SellStatus   SellStatus
	CreatedSince time.Time
	CreatedUntil time.Time
}

// DateWindowSince переводит относительное окно ("1d", "1w", "1m", "6m")
// в нижнюю границу даты создания. Пустое или неизвестное окно — нулевое время.
func DateWindowSince(window string, now time.Time) time.Time {
	switch strings.ToLower(strings.TrimSpace(window)) {
	case "1d":
		return now.AddDate(0, 0, -1)
	case "1w":
		return now.AddDate(0, 0, -7)
	case "1m":
		return now.AddDate(0, -1, 0)
	case "6m":
		return now.AddDate(0, -6, 0)
	default:
		return time.Time{}
	}
}

// Matches проверяет товар против критериев (используется in-memory хранилищем).
func (s ItemSearch) Matches(item Item) bool {
	if s.Category != "" && !strings.EqualFold(item.Category, s.Category) {
		return false
	}
	if s.SellStatus != "" && item.SellStatus != s.SellStatus {
		return false
	}
	if !s.CreatedSince.IsZero() && item.CreatedAt.Before(s.CreatedSince) {
		return false
	}
	if !s.CreatedUntil.IsZero() && item.CreatedAt.After(s.CreatedUntil) {
		return false
	}

	keyword := strings.ToLower(strings.TrimSpace(s.Keyword))
	if keyword == "" {
		return true
	}
	name := strings.Contains(strings.ToLower(item.Name), keyword)
	description := strings.Contains(strings.ToLower(item.Description), keyword)
	switch s.SearchBy {
	case SearchByName:
		return name
	case SearchByDescription:
		return description
	default:
		return name || description
	}
}

// StockObserver получает идентификаторы товаров, остаток которых изменился
// после фиксации транзакции.
type StockObserver interface {
	StockChanged(ctx context.Context, itemIDs ...string)
}
