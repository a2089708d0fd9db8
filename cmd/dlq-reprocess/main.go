// Команда dlq-reprocess возвращает события заказов из DLQ в исходный topic.
// По умолчанию работает всухую и только печатает кандидатов; -execute включает запись.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
	brokersEnv         = "KAFKA_BROKERS"
	clientID           = "storefront-dlq-reprocess"
)

type config struct {
	brokers     []string
	sourceTopic string
	targetTopic string
	eventType   string
	limit       int
	execute     bool
	fromNewest  bool
	idleTimeout time.Duration
}

// newReplayDependencies подменяется в тестах.
var newReplayDependencies = func(cfg config) (offsetClient, partitionConsumerSource, replayProducer, error) {
	clientConfig := sarama.NewConfig()
	clientConfig.ClientID = clientID
	clientConfig.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.brokers, clientConfig)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("kafka client: %w", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("kafka consumer: %w", err)
	}
	source := saramaConsumerAdapter{consumer: consumer}
	if !cfg.execute {
		return client, source, nil, nil
	}

	// Повтор идёт через тот же идемпотентный producer, что и у сервиса.
	sync, err := sarama.NewSyncProducer(cfg.brokers, kafka.NewProducerConfig(clientID))
	if err != nil {
		_ = source.Close()
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return client, source, kafka.NewProducerFromSync(sync, log.WithField("component", "dlq-producer")), nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fail("dlq replay: %v", err)
	}
}

func parseConfig(args []string, output io.Writer) (config, error) {
	var (
		cfg        config
		brokerList string
	)

	fs := flag.NewFlagSet("dlq-reprocess", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&brokerList, "brokers", "", "comma-separated Kafka brokers (default $"+brokersEnv+")")
	fs.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "dead letter topic to scan")
	fs.StringVar(&cfg.targetTopic, "target-topic", kafka.TopicOrderEvents, "topic for letters that do not name their original topic")
	fs.StringVar(&cfg.eventType, "event-type", "", "replay only this event type, e.g. order.placed")
	fs.IntVar(&cfg.limit, "limit", defaultReplayLimit, "maximum letters to scan")
	fs.BoolVar(&cfg.execute, "execute", false, "publish replays instead of a dry run")
	fs.BoolVar(&cfg.fromNewest, "from-newest", false, "start each partition limit letters before its end")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "stop reading a partition after this much silence")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(brokerList) == "" {
		brokerList = os.Getenv(brokersEnv)
	}
	cfg.brokers = parseBrokers(brokerList)
	cfg.sourceTopic = strings.TrimSpace(cfg.sourceTopic)
	cfg.targetTopic = strings.TrimSpace(cfg.targetTopic)
	cfg.eventType = strings.TrimSpace(cfg.eventType)

	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch {
	case len(c.brokers) == 0:
		return fmt.Errorf("kafka brokers are required (-brokers or %s)", brokersEnv)
	case c.sourceTopic == "":
		return errors.New("source-topic is required")
	case c.targetTopic == "":
		return errors.New("target-topic is required")
	case c.sourceTopic == c.targetTopic:
		return errors.New("source-topic and target-topic must differ")
	case c.limit <= 0:
		return errors.New("limit must be > 0")
	case c.idleTimeout <= 0:
		return errors.New("idle-timeout must be > 0")
	}
	return nil
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, part := range strings.Split(raw, ",") {
		if broker := strings.TrimSpace(part); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func run(ctx context.Context, cfg config) error {
	client, consumer, producer, err := newReplayDependencies(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if producer != nil {
			_ = producer.Close()
		}
		if consumer != nil {
			_ = consumer.Close()
		}
		if client != nil {
			_ = client.Close()
		}
	}()

	r, err := newReplayer(cfg, client, consumer, producer)
	if err != nil {
		return err
	}

	mode := "dry-run"
	if cfg.execute {
		mode = "execute"
	}
	logger := r.logger.WithFields(log.Fields{
		"mode":         mode,
		"source_topic": cfg.sourceTopic,
		"event_type":   cfg.eventType,
		"limit":        cfg.limit,
	})
	logger.Info("dlq replay started")

	stats, err := r.Run(ctx)
	logger.WithFields(log.Fields{
		"scanned":  stats.scanned,
		"replayed": stats.replayed,
		"skipped":  stats.skipped,
	}).Info("dlq replay finished")
	return err
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
