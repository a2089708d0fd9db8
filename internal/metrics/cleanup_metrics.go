package metrics

import "github.com/prometheus/client_golang/prometheus"

// CleanupMetrics — метрики очистки просроченных idempotency-ключей.
type CleanupMetrics struct {
	sweeps      *prometheus.CounterVec
	deleted     prometheus.Counter
	lastDeleted prometheus.Gauge
}

// NewCleanupMetrics регистрирует метрики в DefaultRegisterer.
func NewCleanupMetrics() *CleanupMetrics {
	return NewCleanupMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCleanupMetricsWithRegisterer регистрирует метрики в переданном реестре.
func NewCleanupMetricsWithRegisterer(registerer prometheus.Registerer) *CleanupMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CleanupMetrics{
		sweeps: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_idempotency_cleanup_runs_total",
			Help: "Total number of idempotency cleanup sweeps by result",
		}, []string{"result"}),
		deleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_idempotency_cleanup_deleted_total",
			Help: "Total number of deleted expired idempotency keys",
		}),
		lastDeleted: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_idempotency_cleanup_last_deleted",
			Help: "Number of keys deleted by the last successful sweep",
		}),
	}
}

// RecordSweep учитывает завершённый проход очистки.
func (m *CleanupMetrics) RecordSweep(deleted int, err error) {
	if m == nil {
		return
	}
	if deleted > 0 {
		m.deleted.Add(float64(deleted))
	}
	if err != nil {
		m.sweeps.WithLabelValues("error").Inc()
		return
	}
	m.sweeps.WithLabelValues("ok").Inc()
	m.lastDeleted.Set(float64(deleted))
}
