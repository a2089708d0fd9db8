package domain

import (
	"strings"
	"time"
)

// DefaultIdempotencyTTL — срок хранения ответа по idempotency-key.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStatus описывает жизненный цикл ключа идемпотентности.
type IdempotencyStatus string

const (
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	IdempotencyStatusDone       IdempotencyStatus = "done"
	IdempotencyStatusFailed     IdempotencyStatus = "failed"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s IdempotencyStatus) Valid() bool {
	return s == IdempotencyStatusProcessing || s.Terminal()
}

// Terminal сообщает, что ответ по ключу зафиксирован и может быть повторён.
func (s IdempotencyStatus) Terminal() bool {
	return s == IdempotencyStatusDone || s == IdempotencyStatusFailed
}

// IdempotencyKey — клиентский ключ в пространстве аккаунта.
// Одинаковые ключи разных аккаунтов независимы.
type IdempotencyKey struct {
	AccountID string
	Value     string
}

// NewIdempotencyKey нормализует пробелы вокруг частей ключа.
func NewIdempotencyKey(accountID, value string) IdempotencyKey {
	return IdempotencyKey{
		AccountID: strings.TrimSpace(accountID),
		Value:     strings.TrimSpace(value),
	}
}

// Validate проверяет, что ключ задан.
func (k IdempotencyKey) Validate() error {
	if k.Value == "" {
		return ErrIdempotencyKeyRequired
	}
	return nil
}

func (k IdempotencyKey) String() string {
	return k.AccountID + ":" + k.Value
}

// IdempotencyRecord хранит результат мутирующего RPC, выполненного с idempotency-key.
// Code содержит gRPC-код завершения, Response — сериализованный ответ или ошибку.
type IdempotencyRecord struct {
	Key         IdempotencyKey
	Method      string
	RequestHash string
	Status      IdempotencyStatus
	Response    []byte
	Code        int
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expired сообщает, что запись больше не защищает ключ и его можно занять заново.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Matches проверяет, что повторный запрос совпадает с исходным.
func (r IdempotencyRecord) Matches(method, requestHash string) bool {
	return r.Method == method && r.RequestHash == requestHash
}

// NewIdempotencyClaim готовит запись processing со сроком жизни ttl от now.
// При ttl<=0 используется DefaultIdempotencyTTL.
func NewIdempotencyClaim(key IdempotencyKey, method, requestHash string, now time.Time, ttl time.Duration) IdempotencyRecord {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	now = now.UTC()
	return IdempotencyRecord{
		Key:         key,
		Method:      method,
		RequestHash: strings.TrimSpace(requestHash),
		Status:      IdempotencyStatusProcessing,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// PrepareClaim проверяет заявку на ключ и дополняет пустые временные поля.
// Репозитории считают CreatedAt текущим моментом при сравнении со сроком жизни.
func PrepareClaim(claim IdempotencyRecord) (IdempotencyRecord, error) {
	claim.Key = NewIdempotencyKey(claim.Key.AccountID, claim.Key.Value)
	if err := claim.Key.Validate(); err != nil {
		return IdempotencyRecord{}, err
	}
	claim.RequestHash = strings.TrimSpace(claim.RequestHash)
	if claim.RequestHash == "" {
		return IdempotencyRecord{}, ErrIdempotencyRequestHashRequired
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}
	if claim.ExpiresAt.IsZero() {
		claim.ExpiresAt = claim.CreatedAt.Add(DefaultIdempotencyTTL)
	}
	claim.Status = IdempotencyStatusProcessing
	claim.UpdatedAt = claim.CreatedAt
	claim.Response = nil
	claim.Code = 0
	return claim, nil
}

// ConflictError выбирает ошибку для занятого ключа.
func (r IdempotencyRecord) ConflictError(method, requestHash string) error {
	if !r.Matches(method, requestHash) {
		return ErrIdempotencyHashMismatch
	}
	return ErrIdempotencyKeyAlreadyExists
}
