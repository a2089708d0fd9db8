package health

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type funcChecker struct {
	name string
	fn   func(ctx context.Context) error
}

// Func превращает функцию в проверку: ошибка означает unhealthy.
func Func(name string, fn func(ctx context.Context) error) Checker {
	return funcChecker{name: name, fn: fn}
}

func (c funcChecker) Check(ctx context.Context) Check {
	start := time.Now()
	err := c.fn(ctx)

	check := Check{Name: c.name, Status: StatusHealthy, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	return check
}

// Pinger реализуют *sql.DB и хранилища со своим PingContext.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func Ping(name string, pinger Pinger) Checker {
	return Func(name, pinger.PingContext)
}

// OutboxStatsSource — источник состояния очереди outbox.
type OutboxStatsSource interface {
	Stats(ctx context.Context) (domain.OutboxStats, error)
}

// OutboxBacklogChecker переводит сервис в degraded, когда события заказов
// копятся в outbox: слишком много pending или самое старое слишком давнее.
// Нулевой порог отключает своё условие.
type OutboxBacklogChecker struct {
	source     OutboxStatsSource
	maxPending int
	maxAge     time.Duration
	now        func() time.Time
}

func NewOutboxBacklogChecker(source OutboxStatsSource, maxPending int, maxAge time.Duration) *OutboxBacklogChecker {
	return &OutboxBacklogChecker{source: source, maxPending: maxPending, maxAge: maxAge, now: time.Now}
}

func (c *OutboxBacklogChecker) Check(ctx context.Context) Check {
	start := time.Now()
	stats, err := c.source.Stats(ctx)
	check := Check{Name: "outbox", Status: StatusHealthy, DurationMs: time.Since(start).Milliseconds()}

	switch {
	case err != nil:
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	case c.maxPending > 0 && stats.PendingCount > c.maxPending:
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("%d pending messages, limit %d", stats.PendingCount, c.maxPending)
	case c.maxAge > 0 && stats.PendingCount > 0 && !stats.OldestPendingAt.IsZero():
		if age := c.now().Sub(stats.OldestPendingAt); age > c.maxAge {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("oldest pending message waits %s", age.Truncate(time.Second))
		}
	}
	return check
}
