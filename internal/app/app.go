package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	shopv1 "github.com/vladislavdragonenkov/storefront/api/shop/v1"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/ledger"
	"github.com/vladislavdragonenkov/storefront/internal/service/ordering"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const gracefulStopTimeout = 5 * time.Second

// Run поднимает хранилище, фоновые воркеры, gRPC и HTTP-серверы и блокируется
// до отмены ctx или ошибки gRPC-сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	logger.WithFields(version.Current().Fields()).Info("starting storefront")

	tracerProvider, err := initTracing(ctx, cfg, logger.WithField("layer", "tracing"))
	if err != nil {
		return err
	}
	defer shutdownTracing(tracerProvider, logger)

	deps, err := initRuntimeDependencies(ctx, cfg, logger.WithField("layer", "storage"))
	if err != nil {
		return err
	}
	defer deps.close(logger)

	shopMetrics := metrics.NewShopMetrics()
	catalogService := catalog.NewService(deps.store, logger.WithField("component", "catalog"))
	catalogs := initCatalogCache(ctx, cfg, catalogService, logger)
	defer catalogs.close(logger)

	engineOpts := []ordering.Option{ordering.WithMetrics(shopMetrics), ordering.WithTracerProvider(tracerProvider)}
	if catalogs.observer != nil {
		engineOpts = append(engineOpts, ordering.WithStockObserver(catalogs.observer))
	}
	engine := ordering.NewEngine(
		deps.store,
		ledger.New(logger.WithField("component", "ledger"), ledger.WithTracerProvider(tracerProvider)),
		logger.WithField("component", "ordering"),
		engineOpts...,
	)
	carts := cart.NewService(deps.store, logger.WithField("component", "cart"), cart.WithMetrics(shopMetrics))

	// Ошибка уже залогирована: без брокера события остаются в логе.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	publisher, dlq := newOutboxPublishers(cfg, kafkaProducer, logger)
	workerOpts := []outbox.Option{
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		outbox.WithRecorder(metrics.NewOutboxMetrics()),
	}
	if dlq != nil {
		workerOpts = append(workerOpts, outbox.WithDLQPublisher(dlq))
	}
	outboxRepo := deps.store.Repositories().Outbox
	outboxWorker := outbox.NewWorker(outboxRepo, publisher, workerOpts...)
	cleanupWorker := idempotency.NewCleanupWorker(
		deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
		idempotency.WithRecorder(metrics.NewCleanupMetrics()),
	)

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		outboxWorker.Run(workersCtx)
	}()
	go func() {
		defer workers.Done()
		cleanupWorker.Run(workersCtx)
	}()
	defer shutdownWorkers(stopWorkers, &workers, logger)

	shopService := grpcsvc.NewShopService(
		catalogs.catalog,
		carts,
		engine,
		deps.idempotencyRepo,
		logger.WithField("layer", "grpc"),
	)
	grpcMetrics := registerGRPCMetrics(logger)
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	shopv1.RegisterShopServiceServer(grpcServer, shopService)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(shopv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	grpcMetrics.InitializeMetrics(grpcServer)

	healthHandler := healthcheck.NewHandler(version.Version())
	healthHandler.Register("storage", deps.storageChecker)
	healthHandler.Register("outbox", healthcheck.NewOutboxBacklogChecker(outboxRepo, cfg.OutboxMaxPending, cfg.OutboxMaxAge))
	if catalogs.redis != nil {
		client := catalogs.redis
		healthHandler.Register("redis", healthcheck.Func("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}), healthcheck.Optional())
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gRPC сервер слушает %s", lis.Addr())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем gRPC сервер")
		healthServer.Shutdown()
		stopGRPC(grpcServer, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// registerGRPCMetrics регистрирует метрики gRPC-сервера, переиспользуя уже
// зарегистрированный коллектор при повторном запуске в одном процессе.
func registerGRPCMetrics(logger *log.Entry) *promgrpc.ServerMetrics {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				return existing
			}
		}
		logger.WithError(err).Warn("failed to register grpc metrics")
	}
	return grpcMetrics
}

// stopGRPC пытается остановить сервер мягко и прерывает соединения по таймауту.
func stopGRPC(server *grpc.Server, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(gracefulStopTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}

// shutdownWorkers останавливает фоновые воркеры и ждёт их завершения.
func shutdownWorkers(cancel context.CancelFunc, workers *sync.WaitGroup, logger *log.Entry) {
	if cancel != nil {
		cancel()
	}
	if workers == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("background workers stopped")
	case <-time.After(gracefulStopTimeout):
		logger.Warn("background workers did not stop in time")
	}
}

// startMetricsServer запускает HTTP-обработчики /metrics и health probes.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), gracefulStopTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
