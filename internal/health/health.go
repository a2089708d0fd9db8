// Package health сводит проверки зависимостей магазина в probes для оркестратора.
//
// Обязательная зависимость (хранилище) при отказе делает сервис unhealthy
// и снимает его с трафика. Отказ необязательной (кэш каталога) и растущий
// backlog outbox только помечают сервис degraded.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultCheckTimeout = 2 * time.Second

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// severity упорядочивает статусы: сводный статус равен худшему.
func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Check — результат одной проверки.
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	Optional   bool   `json:"optional,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Report — тело ответа /healthz.
type Report struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Failing возвращает имена непрошедших проверок по алфавиту.
func (r Report) Failing() []string {
	var names []string
	for name, check := range r.Checks {
		if check.Status != StatusHealthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

type Checker interface {
	Check(ctx context.Context) Check
}

type registration struct {
	checker  Checker
	optional bool
}

// Option настраивает регистрацию проверки.
type Option func(*registration)

// Optional понижает отказ проверки до degraded.
func Optional() Option {
	return func(r *registration) { r.optional = true }
}

// Handler хранит зарегистрированные проверки и отдаёт probes.
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]registration
	version string
	started time.Time
	timeout time.Duration
	now     func() time.Time
}

func NewHandler(version string) *Handler {
	return &Handler{
		checks:  make(map[string]registration),
		version: version,
		started: time.Now(),
		timeout: defaultCheckTimeout,
		now:     time.Now,
	}
}

// Register добавляет или заменяет проверку под именем name.
func (h *Handler) Register(name string, checker Checker, opts ...Option) {
	reg := registration{checker: checker}
	for _, opt := range opts {
		opt(&reg)
	}

	h.mu.Lock()
	h.checks[name] = reg
	h.mu.Unlock()
}

func (h *Handler) snapshot() map[string]registration {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]registration, len(h.checks))
	for name, reg := range h.checks {
		out[name] = reg
	}
	return out
}

// Evaluate запускает проверки параллельно с общим таймаутом.
func (h *Handler) Evaluate(ctx context.Context) Report {
	regs := h.snapshot()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]Check, len(regs))
	)
	group, groupCtx := errgroup.WithContext(ctx)
	for name, reg := range regs {
		group.Go(func() error {
			check := reg.checker.Check(groupCtx)
			check.Optional = reg.optional
			if reg.optional && check.Status == StatusUnhealthy {
				check.Status = StatusDegraded
			}
			mu.Lock()
			results[name] = check
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	overall := StatusHealthy
	for _, check := range results {
		if check.Status.severity() > overall.severity() {
			overall = check.Status
		}
	}

	now := h.now()
	return Report{
		Status:        overall,
		Timestamp:     now.UTC(),
		Checks:        results,
		Version:       h.version,
		UptimeSeconds: int64(now.Sub(h.started).Seconds()),
	}
}

// ServeHTTP отдаёт полный отчёт; 503 только для unhealthy.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := h.Evaluate(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(report.Status))
	_ = json.NewEncoder(w).Encode(report)
}

// ReadinessHandler — probe для балансировщика: degraded трафик не снимает.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	status := h.Evaluate(r.Context()).Status
	w.WriteHeader(httpStatus(status))
	if status == StatusUnhealthy {
		_, _ = w.Write([]byte("not ready"))
		return
	}
	_, _ = w.Write([]byte("ready"))
}

// LivenessHandler отвечает 200, пока процесс обслуживает HTTP.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func httpStatus(status Status) int {
	if status == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
