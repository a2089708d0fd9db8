// Package cart управляет корзиной аккаунта. Корзина не резервирует остаток.
package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/ownership"
)

// Service реализует операции корзины.
type Service struct {
	store   domain.Store
	guard   ownership.Guard
	logger  *log.Entry
	metrics *metrics.ShopMetrics
	now     func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithGuard подменяет проверку владельца.
func WithGuard(guard ownership.Guard) Option {
	return func(s *Service) {
		if guard != nil {
			s.guard = guard
		}
	}
}

// WithMetrics включает бизнес-метрики корзины.
func WithMetrics(m *metrics.ShopMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService создаёт сервис корзины.
func NewService(store domain.Store, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cart")
	}
	s := &Service{
		store:  store,
		guard:  ownership.NewGuard(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddLine добавляет товар в корзину. Повторное добавление того же товара
// увеличивает количество существующей строки. Возвращает идентификатор строки.
func (s *Service) AddLine(ctx context.Context, accountID, itemID string, qty int64) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", domain.ErrAccountRequired
	}
	if qty < 1 {
		return "", domain.ErrInvalidQuantity
	}

	var line domain.CartLine
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Items.Get(ctx, itemID); err != nil {
			return err
		}
		now := s.now()
		var err error
		line, err = repos.Carts.Accumulate(ctx, domain.CartLine{
			ID:        uuid.NewString(),
			AccountID: accountID,
			ItemID:    itemID,
			Quantity:  qty,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		return "", s.fail(err, "add cart line", log.Fields{"account_id": accountID, "item_id": itemID})
	}

	if s.metrics != nil {
		s.metrics.RecordCartLineAdded()
	}
	s.logger.WithFields(log.Fields{
		"account_id": accountID,
		"line_id":    line.ID,
		"item_id":    itemID,
		"quantity":   line.Quantity,
	}).Debug("cart line added")
	return line.ID, nil
}

// ListLines возвращает строки корзины вместе с актуальными данными товаров.
func (s *Service) ListLines(ctx context.Context, accountID string) ([]domain.CartLineView, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, domain.ErrAccountRequired
	}
	views, err := s.store.Repositories().Carts.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, domain.Internal("cart.list", err)
	}
	return views, nil
}

// UpdateQuantity перезаписывает количество строки владельца.
// Для нулевого или отрицательного количества нужен RemoveLine.
func (s *Service) UpdateQuantity(ctx context.Context, lineID, accountID string, qty int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		line, err := repos.Carts.Get(ctx, lineID)
		if err != nil {
			return err
		}
		if err := ownership.Require(s.guard, line.AccountID, accountID); err != nil {
			return err
		}
		if qty < 1 {
			return domain.ErrInvalidQuantity
		}
		return repos.Carts.SetQuantity(ctx, lineID, qty, s.now())
	})
	if err != nil {
		return s.fail(err, "update cart line", log.Fields{"account_id": accountID, "line_id": lineID})
	}
	return nil
}

// RemoveLine удаляет строку владельца. Отсутствующая строка не ошибка.
func (s *Service) RemoveLine(ctx context.Context, lineID, accountID string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		line, err := repos.Carts.Get(ctx, lineID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ownership.Require(s.guard, line.AccountID, accountID); err != nil {
			return err
		}
		if err := repos.Carts.Delete(ctx, lineID); !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return s.fail(err, "remove cart line", log.Fields{"account_id": accountID, "line_id": lineID})
	}
	return nil
}

func (s *Service) fail(err error, op string, fields log.Fields) error {
	err = domain.Internal("cart."+strings.ReplaceAll(op, " ", "_"), err)
	entry := s.logger.WithError(err).WithFields(fields)
	if errors.Is(err, domain.ErrInternal) {
		entry.Errorf("failed to %s", op)
	} else {
		entry.Warnf("%s rejected", op)
	}
	return err
}
