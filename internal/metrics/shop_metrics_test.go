package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewShopMetricsWithRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewShopMetricsWithRegisterer(reg)

	if metrics.ordersPlaced == nil || metrics.ordersCancelled == nil || metrics.placeFailures == nil {
		t.Fatal("order counters should not be nil")
	}
	if metrics.unitsDeducted == nil || metrics.unitsRestored == nil {
		t.Fatal("stock counters should not be nil")
	}
	if metrics.operationDuration == nil {
		t.Fatal("operation duration histogram should not be nil")
	}
	if metrics.placementsInFlight == nil {
		t.Fatal("in-flight gauge should not be nil")
	}
}

func TestNewShopMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewShopMetricsWithRegisterer(reg)
	second := NewShopMetricsWithRegisterer(reg)

	first.RecordOrderCancelled()
	second.RecordOrderCancelled()

	metric := &dto.Metric{}
	if err := first.ordersCancelled.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected shared counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordOrderPlacedBySource(t *testing.T) {
	metrics := NewShopMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOrderPlaced("cart")
	metrics.RecordOrderPlaced("cart")
	metrics.RecordOrderPlaced("direct")

	metric := &dto.Metric{}
	if err := metrics.ordersPlaced.WithLabelValues("cart").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected cart orders 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordStockUnits(t *testing.T) {
	metrics := NewShopMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordUnitsDeducted(5)
	metrics.RecordUnitsRestored(2)

	deducted := &dto.Metric{}
	if err := metrics.unitsDeducted.Write(deducted); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if deducted.Counter.GetValue() != 5.0 {
		t.Errorf("expected deducted 5.0, got %f", deducted.Counter.GetValue())
	}

	restored := &dto.Metric{}
	if err := metrics.unitsRestored.Write(restored); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if restored.Counter.GetValue() != 2.0 {
		t.Errorf("expected restored 2.0, got %f", restored.Counter.GetValue())
	}
}

func TestRecordOperationDuration(t *testing.T) {
	metrics := NewShopMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOperationDuration("place_from_cart", 50*time.Millisecond)
	metrics.RecordOperationDuration("place_from_cart", 150*time.Millisecond)
	metrics.RecordOperationDuration("cancel", 10*time.Millisecond)

	metric := &dto.Metric{}
	observer := metrics.operationDuration.WithLabelValues("place_from_cart")
	if err := observer.(prometheus.Histogram).Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("expected 2 samples, got %d", metric.Histogram.GetSampleCount())
	}
	sum := metric.Histogram.GetSampleSum()
	if sum < 0.19 || sum > 0.21 {
		t.Errorf("expected sum around 0.2, got %f", sum)
	}
}

func TestPlacementsInFlight(t *testing.T) {
	metrics := NewShopMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.PlacementStarted()
	metrics.PlacementStarted()
	metrics.PlacementFinished()

	metric := &dto.Metric{}
	if err := metrics.placementsInFlight.Write(metric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if metric.Gauge.GetValue() != 1.0 {
		t.Errorf("expected 1 placement in flight, got %f", metric.Gauge.GetValue())
	}
}

func TestRecordPlaceFailureAndEvents(t *testing.T) {
	metrics := NewShopMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordPlaceFailure("insufficient_stock")
	metrics.RecordTimelineEvent()
	metrics.RecordOutboxEvent()
	metrics.RecordOutboxEvent()
	metrics.RecordCartLineAdded()

	failure := &dto.Metric{}
	if err := metrics.placeFailures.WithLabelValues("insufficient_stock").Write(failure); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if failure.Counter.GetValue() != 1.0 {
		t.Errorf("expected 1 failure, got %f", failure.Counter.GetValue())
	}

	outbox := &dto.Metric{}
	if err := metrics.outboxEvents.Write(outbox); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if outbox.Counter.GetValue() != 2.0 {
		t.Errorf("expected 2 outbox events, got %f", outbox.Counter.GetValue())
	}
}
