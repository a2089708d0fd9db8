package outbox

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// BreakerPublisher защищает брокер от шторма повторов: после серии ошибок
// публикация отклоняется сразу, пока breaker не перейдёт в half-open.
type BreakerPublisher struct {
	next domain.OutboxPublisher
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerPublisher оборачивает publisher в circuit breaker.
func NewBreakerPublisher(next domain.OutboxPublisher, name string, logger *log.Entry) *BreakerPublisher {
	if logger == nil {
		logger = log.WithField("component", "outbox-breaker")
	}
	if name == "" {
		name = "outbox-publisher"
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	}

	return &BreakerPublisher{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Publish отправляет событие через breaker. В открытом состоянии
// возвращает gobreaker.ErrOpenState без обращения к брокеру.
func (p *BreakerPublisher) Publish(event domain.OutboxMessage) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.next.Publish(event)
	})
	return err
}

// State возвращает текущее состояние breaker.
func (p *BreakerPublisher) State() gobreaker.State {
	return p.cb.State()
}

var _ domain.OutboxPublisher = (*BreakerPublisher)(nil)
