package domain

import (
	"context"
	"time"
)

// StockRepository — атомарные операции над остатком товара.
type StockRepository interface {
	// DecrementStock уменьшает остаток, только если его хватает.
	// Возвращает новый остаток, ErrItemNotFound или *InsufficientStockError.
	DecrementStock(ctx context.Context, itemID string, qty int64) (int64, error)
	// IncrementStock безусловно увеличивает остаток. ErrStockOverflow при выходе за int64.
	IncrementStock(ctx context.Context, itemID string, qty int64) (int64, error)
}

// ItemRepository описывает требования к хранилищу каталога.
type ItemRepository interface {
	StockRepository
	Create(ctx context.Context, item Item) error
	// Get возвращает товар или ErrItemNotFound.
	Get(ctx context.Context, id string) (Item, error)
	// GetForUpdate читает товар с блокировкой строки до конца транзакции.
	GetForUpdate(ctx context.Context, id string) (Item, error)
	// Update перезаписывает изменяемые поля товара.
	Update(ctx context.Context, item Item) error
	// Search возвращает страницу товаров, упорядоченных по created_at DESC, id DESC.
	Search(ctx context.Context, criteria ItemSearch, page PageRequest) (Page[Item], error)
}

// CartRepository описывает требования к хранилищу корзин.
type CartRepository interface {
	// Accumulate создаёт строку или прибавляет количество к существующей
	// строке той же пары (аккаунт, товар). Возвращает итоговую строку.
	Accumulate(ctx context.Context, line CartLine) (CartLine, error)
	// Get возвращает строку или ErrCartLineNotFound.
	Get(ctx context.Context, id string) (CartLine, error)
	// GetForUpdate читает строку с блокировкой до конца транзакции.
	GetForUpdate(ctx context.Context, id string) (CartLine, error)
	ListByAccount(ctx context.Context, accountID string) ([]CartLineView, error)
	SetQuantity(ctx context.Context, id string, qty int64, updatedAt time.Time) error
	// Delete удаляет строку или возвращает ErrCartLineNotFound.
	Delete(ctx context.Context, id string) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет заказ вместе с позициями.
	Create(ctx context.Context, order Order) error
	// Get возвращает заказ или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// GetForUpdate читает заказ с блокировкой строки до конца транзакции.
	GetForUpdate(ctx context.Context, id string) (Order, error)
	// ListByAccount возвращает заказы аккаунта, новые первыми.
	ListByAccount(ctx context.Context, accountID string, page PageRequest) (Page[Order], error)
	UpdateStatus(ctx context.Context, id string, status OrderStatus, updatedAt time.Time) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	// Claim занимает ключ записью в статусе processing. Просроченная запись
	// замещается. Если ключ занят, возвращается действующая запись и
	// ErrIdempotencyKeyAlreadyExists либо ErrIdempotencyHashMismatch.
	Claim(ctx context.Context, claim IdempotencyRecord) (IdempotencyRecord, error)
	Get(ctx context.Context, key IdempotencyKey) (IdempotencyRecord, error)
	// Complete фиксирует итог обработки: status должен быть терминальным.
	Complete(ctx context.Context, key IdempotencyKey, status IdempotencyStatus, response []byte, code int) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// Repositories — набор репозиториев, привязанных к одному соединению или транзакции.
type Repositories struct {
	Items    ItemRepository
	Carts    CartRepository
	Orders   OrderRepository
	Outbox   OutboxRepository
	Timeline TimelineRepository
}

// Store — хранилище с транзакционной границей.
type Store interface {
	// Repositories возвращает репозитории вне транзакции (для чтения).
	Repositories() Repositories
	// WithinTx выполняет fn в одной транзакции. Ошибка fn откатывает все изменения.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
}
