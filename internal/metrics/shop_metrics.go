package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShopMetrics — метрики заказов, склада и корзины.
type ShopMetrics struct {
	ordersPlaced    *prometheus.CounterVec
	ordersCancelled prometheus.Counter
	placeFailures   *prometheus.CounterVec

	unitsDeducted prometheus.Counter
	unitsRestored prometheus.Counter

	cartLinesAdded prometheus.Counter

	operationDuration  *prometheus.HistogramVec
	placementsInFlight prometheus.Gauge

	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter
}

// NewShopMetrics регистрирует метрики в DefaultRegisterer.
func NewShopMetrics() *ShopMetrics {
	return NewShopMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewShopMetricsWithRegisterer регистрирует метрики в переданном реестре.
func NewShopMetricsWithRegisterer(registerer prometheus.Registerer) *ShopMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ShopMetrics{
		ordersPlaced: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_orders_placed_total",
			Help: "Total number of orders placed",
		}, []string{"source"}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		placeFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_order_place_failures_total",
			Help: "Total number of rejected order placements by reason",
		}, []string{"reason"}),
		unitsDeducted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_stock_units_deducted_total",
			Help: "Total number of stock units deducted by orders",
		}),
		unitsRestored: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_stock_units_restored_total",
			Help: "Total number of stock units restored by cancellations",
		}),
		cartLinesAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_cart_lines_added_total",
			Help: "Total number of add-to-cart operations",
		}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "shop_operation_duration_seconds",
			Help:    "Duration of order engine operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		placementsInFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_order_placements_in_flight",
			Help: "Number of order placements currently in progress",
		}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
	}
}

// RecordOrderPlaced учитывает оформленный заказ; source — "cart" или "direct".
func (m *ShopMetrics) RecordOrderPlaced(source string) {
	m.ordersPlaced.WithLabelValues(source).Inc()
}

// RecordOrderCancelled учитывает отменённый заказ.
func (m *ShopMetrics) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

// RecordPlaceFailure учитывает отказ в оформлении.
func (m *ShopMetrics) RecordPlaceFailure(reason string) {
	m.placeFailures.WithLabelValues(reason).Inc()
}

// RecordUnitsDeducted учитывает списанные единицы товара.
func (m *ShopMetrics) RecordUnitsDeducted(units int64) {
	m.unitsDeducted.Add(float64(units))
}

// RecordUnitsRestored учитывает возвращённые на склад единицы.
func (m *ShopMetrics) RecordUnitsRestored(units int64) {
	m.unitsRestored.Add(float64(units))
}

// RecordCartLineAdded учитывает добавление в корзину.
func (m *ShopMetrics) RecordCartLineAdded() {
	m.cartLinesAdded.Inc()
}

// RecordOperationDuration записывает длительность операции.
func (m *ShopMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// PlacementStarted увеличивает число оформлений в процессе.
func (m *ShopMetrics) PlacementStarted() {
	m.placementsInFlight.Inc()
}

// PlacementFinished уменьшает число оформлений в процессе.
func (m *ShopMetrics) PlacementFinished() {
	m.placementsInFlight.Dec()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *ShopMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *ShopMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
