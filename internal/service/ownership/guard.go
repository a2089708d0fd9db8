// Package ownership проверяет, что сущность принадлежит запрашивающему аккаунту.
package ownership

import (
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Guard решает, может ли аккаунт requester изменять сущность владельца owner.
type Guard interface {
	Authorize(ownerAccountID, requestingAccountID string) bool
}

// AccountGuard сравнивает стабильные идентификаторы аккаунтов.
// Пустой идентификатор не авторизует никого.
type AccountGuard struct{}

// NewGuard возвращает guard по умолчанию.
func NewGuard() AccountGuard {
	return AccountGuard{}
}

// Authorize реализует Guard.
func (AccountGuard) Authorize(ownerAccountID, requestingAccountID string) bool {
	owner := strings.TrimSpace(ownerAccountID)
	if owner == "" || owner != strings.TrimSpace(requestingAccountID) {
		return false
	}
	return true
}

// Require возвращает domain.ErrForbidden, если guard отказал.
func Require(guard Guard, ownerAccountID, requestingAccountID string) error {
	if guard == nil || !guard.Authorize(ownerAccountID, requestingAccountID) {
		return domain.ErrForbidden
	}
	return nil
}

var _ Guard = AccountGuard{}
