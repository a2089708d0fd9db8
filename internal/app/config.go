package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// StorageDriverMemory — in-memory хранилище для локального запуска и тестов.
	StorageDriverMemory = "memory"
	// StorageDriverPostgres — PostgreSQL через pgx.
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска приложения.
// Значения читаются из переменных окружения, опционально поверх YAML-файла.
type Config struct {
	GRPCAddr    string `yaml:"grpc_addr" env:"SHOP_GRPC_ADDR" env-default:":50051" env-description:"gRPC listen address" validate:"required"`
	MetricsAddr string `yaml:"metrics_addr" env:"SHOP_METRICS_ADDR" env-default:":9090" env-description:"HTTP address for /metrics and health probes" validate:"required"`
	LogLevel    string `yaml:"log_level" env:"SHOP_LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error" validate:"oneof=debug info warn error"`

	StorageDriver       string `yaml:"storage_driver" env:"SHOP_STORAGE_DRIVER" env-default:"memory" env-description:"memory or postgres" validate:"oneof=memory postgres"`
	PostgresDSN         string `yaml:"postgres_dsn" env:"SHOP_POSTGRES_DSN" env-description:"PostgreSQL DSN, required for the postgres driver" validate:"required_if=StorageDriver postgres"`
	PostgresAutoMigrate bool   `yaml:"postgres_auto_migrate" env:"SHOP_POSTGRES_AUTO_MIGRATE" env-default:"true" env-description:"apply embedded migrations on start"`

	RedisAddr       string        `yaml:"redis_addr" env:"SHOP_REDIS_ADDR" env-description:"Redis address for the catalog cache, empty disables the cache" validate:"omitempty,hostname_port"`
	CatalogCacheTTL time.Duration `yaml:"catalog_cache_ttl" env:"SHOP_CATALOG_CACHE_TTL" env-default:"10m" env-description:"catalog cache entry TTL" validate:"gt=0"`

	KafkaBrokers     []string `yaml:"kafka_brokers" env:"KAFKA_BROKERS" env-separator:"," env-description:"comma separated Kafka brokers, empty disables publishing"`
	OrderEventsTopic string   `yaml:"order_events_topic" env:"SHOP_ORDER_EVENTS_TOPIC" env-default:"shop.order.events" env-description:"topic for order events" validate:"required"`
	DLQTopic         string   `yaml:"dlq_topic" env:"SHOP_DLQ_TOPIC" env-default:"shop.dlq" env-description:"dead letter topic" validate:"required"`

	OutboxPollInterval time.Duration `yaml:"outbox_poll_interval" env:"SHOP_OUTBOX_POLL_INTERVAL" env-default:"1s" validate:"gt=0"`
	OutboxBatchSize    int           `yaml:"outbox_batch_size" env:"SHOP_OUTBOX_BATCH_SIZE" env-default:"100" validate:"gt=0"`
	OutboxMaxAttempts  int           `yaml:"outbox_max_attempts" env:"SHOP_OUTBOX_MAX_ATTEMPTS" env-default:"3" validate:"gt=0"`
	OutboxRetryDelay   time.Duration `yaml:"outbox_retry_delay" env:"SHOP_OUTBOX_RETRY_DELAY" env-default:"100ms" validate:"gte=0"`
	OutboxMaxPending   int           `yaml:"outbox_max_pending" env:"SHOP_OUTBOX_MAX_PENDING" env-default:"1000" env-description:"backlog size that marks readiness degraded, 0 disables" validate:"gte=0"`
	OutboxMaxAge       time.Duration `yaml:"outbox_max_age" env:"SHOP_OUTBOX_MAX_AGE" env-default:"5m" env-description:"oldest pending event age that marks readiness degraded, 0 disables" validate:"gte=0"`

	OTLPEndpoint     string  `yaml:"otlp_endpoint" env:"SHOP_OTLP_ENDPOINT" env-description:"OTLP/HTTP collector host:port, empty keeps spans in process" validate:"omitempty,hostname_port"`
	TraceSampleRatio float64 `yaml:"trace_sample_ratio" env:"SHOP_TRACE_SAMPLE_RATIO" env-default:"1" env-description:"share of root traces to sample" validate:"gte=0,lte=1"`

	IdempotencyCleanupInterval  time.Duration `yaml:"idempotency_cleanup_interval" env:"SHOP_IDEMPOTENCY_CLEANUP_INTERVAL" env-default:"1h" validate:"gt=0"`
	IdempotencyCleanupBatchSize int           `yaml:"idempotency_cleanup_batch_size" env:"SHOP_IDEMPOTENCY_CLEANUP_BATCH_SIZE" env-default:"500" validate:"gt=0"`
}

// DefaultConfig возвращает значения по умолчанию, совпадающие с env-default.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:                    ":50051",
		MetricsAddr:                 ":9090",
		LogLevel:                    "info",
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		CatalogCacheTTL:             10 * time.Minute,
		OrderEventsTopic:            "shop.order.events",
		DLQTopic:                    "shop.dlq",
		OutboxPollInterval:          time.Second,
		OutboxBatchSize:             100,
		OutboxMaxAttempts:           3,
		OutboxRetryDelay:            100 * time.Millisecond,
		OutboxMaxPending:            1000,
		OutboxMaxAge:                5 * time.Minute,
		TraceSampleRatio:            1,
		IdempotencyCleanupInterval:  time.Hour,
		IdempotencyCleanupBatchSize: 500,
	}
}

// LoadConfig читает конфигурацию из окружения. Если path не пуст, сначала
// читается YAML-файл, переменные окружения имеют приоритет над ним.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	var err error
	if strings.TrimSpace(path) != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Usage возвращает описание всех переменных окружения.
func Usage() (string, error) {
	header := "Storefront configuration (environment variables):"
	return cleanenv.GetDescription(&Config{}, &header)
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.GRPCAddr = strings.TrimSpace(c.GRPCAddr)
	c.MetricsAddr = strings.TrimSpace(c.MetricsAddr)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.PostgresDSN = strings.TrimSpace(c.PostgresDSN)
	c.RedisAddr = strings.TrimSpace(c.RedisAddr)
	c.OTLPEndpoint = strings.TrimSpace(c.OTLPEndpoint)
	c.OrderEventsTopic = strings.TrimSpace(c.OrderEventsTopic)
	c.DLQTopic = strings.TrimSpace(c.DLQTopic)
	c.KafkaBrokers = splitBrokers(c.KafkaBrokers)
}

// splitBrokers убирает пробелы и пустые элементы из списка брокеров.
func splitBrokers(raw []string) []string {
	brokers := make([]string, 0, len(raw))
	for _, broker := range raw {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	if len(brokers) == 0 {
		return nil
	}
	return brokers
}
