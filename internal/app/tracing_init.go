package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const (
	tracingServiceName     = "storefront"
	tracingShutdownTimeout = 5 * time.Second
)

// initTracing ставит глобальный TracerProvider. Без OTLP-адреса спаны
// создаются и сэмплируются, но никуда не отправляются.
func initTracing(ctx context.Context, cfg Config, logger *log.Entry) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", tracingServiceName),
		attribute.String("service.version", version.Version()),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TraceSampleRatio))),
	}
	if cfg.OTLPEndpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.WithFields(log.Fields{
		"otlp_endpoint": cfg.OTLPEndpoint,
		"sample_ratio":  cfg.TraceSampleRatio,
	}).Info("tracing initialized")
	return tp, nil
}

// shutdownTracing отправляет накопленные спаны и останавливает провайдер.
func shutdownTracing(tp *sdktrace.TracerProvider, logger *log.Entry) {
	if tp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("failed to flush traces")
	}
}
