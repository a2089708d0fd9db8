package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — общий вид ошибки для отсутствующих сущностей.
	ErrNotFound = errors.New("not found")
	// ErrItemNotFound возвращается, если товар не найден в каталоге.
	ErrItemNotFound = fmt.Errorf("item %w", ErrNotFound)
	// ErrCartLineNotFound возвращается, если строка корзины не найдена.
	ErrCartLineNotFound = fmt.Errorf("cart line %w", ErrNotFound)
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)

	// ErrForbidden — сущность принадлежит другому аккаунту.
	ErrForbidden = errors.New("forbidden: entity belongs to another account")
	// ErrInvalidQuantity — количество должно быть положительным.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrEmptySelection — заказ из корзины без выбранных строк.
	ErrEmptySelection = fmt.Errorf("no cart lines selected: %w", ErrInvalidQuantity)
	// ErrInsufficientStock — списание превышает доступный остаток.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidState — операция недопустима для текущего статуса заказа.
	ErrInvalidState = errors.New("invalid order state")
	// ErrStockOverflow — возврат остатка вышел за пределы int64.
	ErrStockOverflow = errors.New("stock quantity overflow")
	// ErrInternal — непрозрачная ошибка хранилища.
	ErrInternal = errors.New("internal error")

	// ErrAccountRequired — запрос без идентификатора аккаунта.
	ErrAccountRequired = errors.New("account_id is required")
	// ErrInvalidItem — общий вид ошибок валидации карточки товара.
	ErrInvalidItem = errors.New("invalid item")
	// ErrItemNameRequired — товар без названия.
	ErrItemNameRequired = fmt.Errorf("%w: name is required", ErrInvalidItem)
	// ErrItemPriceInvalid — цена товара отрицательная.
	ErrItemPriceInvalid = fmt.Errorf("%w: price must be non-negative", ErrInvalidItem)
	// ErrItemStockInvalid — остаток товара отрицательный.
	ErrItemStockInvalid = fmt.Errorf("%w: stock must be non-negative", ErrInvalidItem)
	// ErrSellStatusInvalid — неизвестный статус продажи.
	ErrSellStatusInvalid = fmt.Errorf("%w: unknown sell status", ErrInvalidItem)

	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой hash запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже использовался.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ использован с другим payload.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyNotFound — ключ не найден.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// InsufficientStockError несёт идентификатор товара, на котором сорвалось списание.
type InsufficientStockError struct {
	ItemID    string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d", e.ItemID, e.Requested, e.Available)
}

// Is позволяет сравнивать через errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InternalError оборачивает сбой хранилища и скрывает детали от вызывающего.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Is позволяет сравнивать через errors.Is(err, ErrInternal).
func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

// Internal превращает неожиданную ошибку в ErrInternal.
// Доменные ошибки возвращаются без изменений.
func Internal(op string, err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	return &InternalError{Op: op, Err: err}
}

// IsDomainError сообщает, относится ли ошибка к доменным видам.
func IsDomainError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrStockOverflow),
		errors.Is(err, ErrInvalidItem),
		errors.Is(err, ErrInternal):
		return true
	default:
		return false
	}
}
