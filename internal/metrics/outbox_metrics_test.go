package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestOutboxMetrics(t *testing.T) {
	metrics := NewOutboxMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordDelivery("sent")
	metrics.RecordDelivery("sent")
	metrics.RecordDelivery("deferred")
	metrics.SetBacklog(4, -time.Second)

	sent := &dto.Metric{}
	if err := metrics.deliveries.WithLabelValues("sent").Write(sent); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if sent.Counter.GetValue() != 2.0 {
		t.Errorf("expected 2 sent, got %f", sent.Counter.GetValue())
	}

	pending := &dto.Metric{}
	if err := metrics.pending.Write(pending); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if pending.Gauge.GetValue() != 4.0 {
		t.Errorf("expected 4 pending, got %f", pending.Gauge.GetValue())
	}

	age := &dto.Metric{}
	if err := metrics.oldestAge.Write(age); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if age.Gauge.GetValue() != 0 {
		t.Errorf("negative age must clamp to zero, got %f", age.Gauge.GetValue())
	}

	var disabled *OutboxMetrics
	disabled.RecordDelivery("sent")
	disabled.SetBacklog(1, time.Second)
}
