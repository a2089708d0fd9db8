// Команда loadtest устраивает давку покупателей за одним товаром и
// проверяет, что витрина не продала больше остатка.
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

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	shopv1 "github.com/vladislavdragonenkov/storefront/api/shop/v1"
)

type loadMode string

const (
	modeBuyNow    loadMode = "buy-now"
	modeBuyCancel loadMode = "buy-cancel"
	modeCart      loadMode = "cart"
)

func parseMode(raw string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(raw)); mode {
	case modeBuyNow, modeBuyCancel, modeCart:
		return mode, nil
	}
	return "", fmt.Errorf("unknown mode %q: want %s, %s or %s", raw, modeBuyNow, modeBuyCancel, modeCart)
}

type config struct {
	addr        string
	total       int
	concurrency int
	connections int
	timeout     time.Duration
	mode        loadMode
	itemID      string
	stock       int64
	qty         int64
	priceMinor  int64
	accountTag  string
	outputPath  string
}

func parseConfig(args []string, output io.Writer) (config, error) {
	var (
		cfg  config
		mode string
	)

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.addr, "addr", "localhost:50051", "storefront gRPC address")
	fs.IntVar(&cfg.total, "total", 400, "buyers in the run")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "buyers in flight at once")
	fs.IntVar(&cfg.connections, "connections", 20, "gRPC connections shared by buyers")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "deadline of each RPC")
	fs.StringVar(&mode, "mode", string(modeBuyNow), "buy-now, buy-cancel or cart")
	fs.StringVar(&cfg.itemID, "item-id", "", "buy an existing item instead of creating one")
	fs.Int64Var(&cfg.stock, "stock", 100, "stock of the created item")
	fs.Int64Var(&cfg.qty, "qty", 1, "units per purchase")
	fs.Int64Var(&cfg.priceMinor, "price-minor", 1000, "price of the created item in minor units")
	fs.StringVar(&cfg.accountTag, "account-tag", "load", "prefix of buyer account ids")
	fs.StringVar(&cfg.outputPath, "output", "", "write the JSON report to this file")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	parsed, err := parseMode(mode)
	if err != nil {
		return config{}, err
	}
	cfg.mode = parsed
	cfg.itemID = strings.TrimSpace(cfg.itemID)
	cfg.accountTag = strings.TrimSpace(cfg.accountTag)
	return cfg, cfg.validate()
}

func (c config) validate() error {
	creating := c.itemID == ""
	switch {
	case c.total <= 0:
		return errors.New("total must be > 0")
	case c.concurrency <= 0:
		return errors.New("concurrency must be > 0")
	case c.connections <= 0:
		return errors.New("connections must be > 0")
	case c.timeout <= 0:
		return errors.New("timeout must be > 0")
	case c.qty <= 0:
		return errors.New("qty must be > 0")
	case creating && c.stock < 0:
		return errors.New("stock must be >= 0")
	case creating && c.priceMinor < 0:
		return errors.New("price-minor must be >= 0")
	case c.accountTag == "":
		return errors.New("account-tag is required")
	}
	return nil
}

// dial открывает n соединений, чтобы нагрузка не упиралась в один HTTP/2 поток.
func dial(addr string, n int) ([]shopClient, func(), error) {
	conns := make([]*grpc.ClientConn, 0, n)
	closeAll := func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}

	clients := make([]shopClient, 0, n)
	for range n {
		conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		conns = append(conns, conn)
		clients = append(clients, shopv1.NewShopServiceClient(conn))
	}
	return clients, closeAll, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.WithError(err).Fatal("invalid loadtest flags")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !execute(ctx, cfg, os.Stdout) {
		stop()
		os.Exit(1)
	}
}

// execute возвращает false, если прогон не удался или витрина продала лишнее.
func execute(ctx context.Context, cfg config, out io.Writer) bool {
	logger := log.WithFields(log.Fields{"addr": cfg.addr, "mode": cfg.mode, "buyers": cfg.total})

	clients, closeAll, err := dial(cfg.addr, cfg.connections)
	if err != nil {
		logger.WithError(err).Error("loadtest could not connect")
		return false
	}
	defer closeAll()

	result, err := run(ctx, cfg, clients)
	if err != nil {
		logger.WithError(err).Error("loadtest aborted")
		return false
	}

	printReport(out, result)
	if cfg.outputPath != "" {
		if err := writeReport(cfg.outputPath, result); err != nil {
			logger.WithError(err).Error("loadtest report not written")
			return false
		}
	}
	if !result.Passed() {
		logger.WithField("stock", result.Stock).Error("stock does not reconcile")
	}
	return result.Passed()
}
