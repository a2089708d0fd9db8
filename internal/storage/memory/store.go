package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// state — все данные in-memory хранилища, участвующие в транзакциях.
type state struct {
	items     map[string]domain.Item
	cartLines map[string]domain.CartLine
	// cartIndex: accountID -> itemID -> lineID.
	cartIndex map[string]map[string]string
	orders    map[string]domain.Order
	outbox    map[string]*outboxRecord
	outboxSeq int64
	timeline  map[string][]domain.TimelineEvent
}

func newState() *state {
	return &state{
		items:     make(map[string]domain.Item),
		cartLines: make(map[string]domain.CartLine),
		cartIndex: make(map[string]map[string]string),
		orders:    make(map[string]domain.Order),
		outbox:    make(map[string]*outboxRecord),
		timeline:  make(map[string][]domain.TimelineEvent),
	}
}

// snapshot копирует состояние для отката транзакции.
// Заказы и строки корзины хранятся значениями, поэтому достаточно копии карт.
func (s *state) snapshot() *state {
	dst := &state{
		items:     make(map[string]domain.Item, len(s.items)),
		cartLines: make(map[string]domain.CartLine, len(s.cartLines)),
		cartIndex: make(map[string]map[string]string, len(s.cartIndex)),
		orders:    make(map[string]domain.Order, len(s.orders)),
		outbox:    make(map[string]*outboxRecord, len(s.outbox)),
		outboxSeq: s.outboxSeq,
		timeline:  make(map[string][]domain.TimelineEvent, len(s.timeline)),
	}
	for k, v := range s.items {
		dst.items[k] = v
	}
	for k, v := range s.cartLines {
		dst.cartLines[k] = v
	}
	for account, byItem := range s.cartIndex {
		inner := make(map[string]string, len(byItem))
		for k, v := range byItem {
			inner[k] = v
		}
		dst.cartIndex[account] = inner
	}
	for k, v := range s.orders {
		dst.orders[k] = v.Clone()
	}
	for k, v := range s.outbox {
		rec := *v
		dst.outbox[k] = &rec
	}
	for k, v := range s.timeline {
		dst.timeline[k] = append([]domain.TimelineEvent(nil), v...)
	}
	return dst
}

// Store — in-memory реализация domain.Store для локальной разработки и тестов.
// Транзакция держит эксклюзивную блокировку всего хранилища до завершения,
// поэтому транзакции выполняются строго последовательно.
type Store struct {
	mu   sync.RWMutex
	data *state
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{data: newState()}
}

// handle определяет, как репозиторий получает доступ к состоянию:
// вне транзакции через блокировки, внутри — напрямую (блокировка уже взята).
type handle struct {
	store *Store
	inTx  bool
}

func (h handle) read(fn func(st *state)) {
	if h.inTx {
		fn(h.store.data)
		return
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	fn(h.store.data)
}

func (h handle) write(fn func(st *state)) {
	if h.inTx {
		fn(h.store.data)
		return
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	fn(h.store.data)
}

func (s *Store) repositories(h handle) domain.Repositories {
	return domain.Repositories{
		Items:    &itemRepository{h: h},
		Carts:    &cartRepository{h: h},
		Orders:   &orderRepository{h: h},
		Outbox:   &outboxRepository{h: h},
		Timeline: &timelineRepository{h: h},
	}
}

// Repositories возвращает репозитории вне транзакции.
func (s *Store) Repositories() domain.Repositories {
	return s.repositories(handle{store: s})
}

// WithinTx выполняет fn под эксклюзивной блокировкой и откатывает состояние при ошибке.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.data.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.data = backup
			panic(p)
		}
		if err != nil {
			s.data = backup
		}
	}()

	return fn(ctx, s.repositories(handle{store: s, inTx: true}))
}

// Ping всегда успешен для in-memory хранилища.
func (s *Store) Ping(context.Context) error {
	return nil
}

var _ domain.Store = (*Store)(nil)
