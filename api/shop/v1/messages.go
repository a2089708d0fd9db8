package shopv1

import "time"

// Item — карточка товара.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	PriceMinor  int64     `json:"price_minor"`
	StockQty    int64     `json:"stock_qty"`
	SellStatus  string    `json:"sell_status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CartLine — строка корзины с актуальной ценой товара.
type CartLine struct {
	ID             string `json:"id"`
	ItemID         string `json:"item_id"`
	ItemName       string `json:"item_name"`
	Quantity       int64  `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	SubtotalMinor  int64  `json:"subtotal_minor"`
	StockQty       int64  `json:"stock_qty"`
	SellStatus     string `json:"sell_status"`
}

// OrderLine — позиция заказа с ценой на момент оформления.
type OrderLine struct {
	ID             string `json:"id"`
	ItemID         string `json:"item_id"`
	ItemName       string `json:"item_name"`
	Quantity       int64  `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
}

// Order — заказ аккаунта.
type Order struct {
	ID         string      `json:"id"`
	AccountID  string      `json:"account_id"`
	Status     string      `json:"status"`
	TotalMinor int64       `json:"total_minor"`
	Lines      []OrderLine `json:"lines"`
	OrderedAt  time.Time   `json:"ordered_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TimelineEvent — событие жизненного цикла заказа.
type TimelineEvent struct {
	Type       string    `json:"type"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AddCartLineRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int64  `json:"quantity"`
}

type AddCartLineResponse struct {
	LineID string `json:"line_id"`
}

type ListCartLinesRequest struct{}

type ListCartLinesResponse struct {
	Lines      []CartLine `json:"lines"`
	TotalMinor int64      `json:"total_minor"`
}

type UpdateCartLineRequest struct {
	LineID   string `json:"line_id" validate:"required"`
	Quantity int64  `json:"quantity"`
}

type UpdateCartLineResponse struct{}

type RemoveCartLineRequest struct {
	LineID string `json:"line_id" validate:"required"`
}

type RemoveCartLineResponse struct{}

// PlaceOrderFromCartRequest — оформление выбранных строк корзины.
// Пустой список отклоняется сервером как пустой выбор.
type PlaceOrderFromCartRequest struct {
	LineIDs []string `json:"line_ids" validate:"dive,required"`
}

type PlaceDirectOrderRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int64  `json:"quantity"`
}

type PlaceOrderResponse struct {
	OrderID string `json:"order_id"`
}

type CancelOrderRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

type CancelOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type GetOrderRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

type GetOrderResponse struct {
	Order    Order           `json:"order"`
	Timeline []TimelineEvent `json:"timeline"`
}

// ListOrdersRequest — страница истории заказов, нумерация с нуля.
type ListOrdersRequest struct {
	Page     int `json:"page" validate:"gte=0"`
	PageSize int `json:"page_size" validate:"gte=0,lte=100"`
}

type ListOrdersResponse struct {
	Orders     []Order `json:"orders"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
}

type GetItemRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

type GetItemResponse struct {
	Item Item `json:"item"`
}

// SearchItemsRequest — фильтры каталога. DateWindow задаёт относительное окно
// по дате создания и имеет приоритет над CreatedSince.
type SearchItemsRequest struct {
	Keyword      string     `json:"keyword,omitempty" validate:"max=200"`
	SearchBy     string     `json:"search_by,omitempty" validate:"omitempty,oneof=name description"`
	Category     string     `json:"category,omitempty"`
	SellStatus   string     `json:"sell_status,omitempty" validate:"omitempty,oneof=SELL SOLD_OUT"`
	DateWindow   string     `json:"date_window,omitempty" validate:"omitempty,oneof=1d 1w 1m 6m"`
	CreatedSince *time.Time `json:"created_since,omitempty"`
	CreatedUntil *time.Time `json:"created_until,omitempty"`
	Admin        bool       `json:"admin,omitempty"`
	Page         int        `json:"page" validate:"gte=0"`
	PageSize     int        `json:"page_size" validate:"gte=0,lte=100"`
}

type SearchItemsResponse struct {
	Items      []Item `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}

type CreateItemRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty" validate:"max=100"`
	PriceMinor  int64  `json:"price_minor" validate:"gte=0"`
	StockQty    int64  `json:"stock_qty" validate:"gte=0"`
}

type CreateItemResponse struct {
	Item Item `json:"item"`
}

// UpdateItemRequest — частичное обновление, отсутствующие поля не меняются.
type UpdateItemRequest struct {
	ItemID      string  `json:"item_id" validate:"required"`
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100"`
	PriceMinor  *int64  `json:"price_minor,omitempty" validate:"omitempty,gte=0"`
	StockQty    *int64  `json:"stock_qty,omitempty" validate:"omitempty,gte=0"`
	SellStatus  *string `json:"sell_status,omitempty" validate:"omitempty,oneof=SELL SOLD_OUT"`
}

type UpdateItemResponse struct {
	Item Item `json:"item"`
}
