package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	shopv1 "github.com/vladislavdragonenkov/storefront/api/shop/v1"
)

const (
	accountHeader     = "x-account-id"
	idempotencyHeader = "idempotency-key"
)

// shopClient — часть ShopServiceClient, которую дёргает нагрузка.
type shopClient interface {
	CreateItem(ctx context.Context, in *shopv1.CreateItemRequest, opts ...grpc.CallOption) (*shopv1.CreateItemResponse, error)
	GetItem(ctx context.Context, in *shopv1.GetItemRequest, opts ...grpc.CallOption) (*shopv1.GetItemResponse, error)
	AddCartLine(ctx context.Context, in *shopv1.AddCartLineRequest, opts ...grpc.CallOption) (*shopv1.AddCartLineResponse, error)
	PlaceOrderFromCart(ctx context.Context, in *shopv1.PlaceOrderFromCartRequest, opts ...grpc.CallOption) (*shopv1.PlaceOrderResponse, error)
	PlaceDirectOrder(ctx context.Context, in *shopv1.PlaceDirectOrderRequest, opts ...grpc.CallOption) (*shopv1.PlaceOrderResponse, error)
	CancelOrder(ctx context.Context, in *shopv1.CancelOrderRequest, opts ...grpc.CallOption) (*shopv1.CancelOrderResponse, error)
}

// callOpts — metadata одного RPC.
type callOpts struct {
	account string
	key     string
}

// invoke выполняет RPC с таймаутом и metadata. Непустой series
// попадает в статистику вместе с кодом ответа.
func invoke[T any](ctx context.Context, rec *recorder, timeout time.Duration, seriesName string, opts callOpts, call func(context.Context) (*T, error)) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var md []string
	if opts.account != "" {
		md = append(md, accountHeader, opts.account)
	}
	if opts.key != "" {
		md = append(md, idempotencyHeader, opts.key)
	}
	if len(md) > 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, md...)
	}

	start := time.Now()
	resp, err := call(ctx)
	if seriesName != "" && rec != nil {
		rec.observe(seriesName, time.Since(start), status.Code(err))
	}
	return resp, err
}

// buyer — один покупатель со своим аккаунтом.
type buyer struct {
	client  shopClient
	cfg     config
	rec     *recorder
	account string
	itemID  string
}

func (b buyer) opts(key string) callOpts {
	return callOpts{account: b.account, key: key}
}

// buyNow покупает товар напрямую. Ключ идемпотентности делает повтор безопасным.
func (b buyer) buyNow(ctx context.Context) (string, error) {
	resp, err := invoke(ctx, b.rec, b.cfg.timeout, "PlaceDirectOrder", b.opts(b.account+"-buy"),
		func(ctx context.Context) (*shopv1.PlaceOrderResponse, error) {
			return b.client.PlaceDirectOrder(ctx, &shopv1.PlaceDirectOrderRequest{ItemID: b.itemID, Quantity: b.cfg.qty})
		})
	if err != nil {
		return "", err
	}
	return resp.OrderID, nil
}

func (b buyer) buyViaCart(ctx context.Context) (string, error) {
	line, err := invoke(ctx, b.rec, b.cfg.timeout, "AddCartLine", b.opts(""),
		func(ctx context.Context) (*shopv1.AddCartLineResponse, error) {
			return b.client.AddCartLine(ctx, &shopv1.AddCartLineRequest{ItemID: b.itemID, Quantity: b.cfg.qty})
		})
	if err != nil {
		return "", err
	}

	resp, err := invoke(ctx, b.rec, b.cfg.timeout, "PlaceOrderFromCart", b.opts(""),
		func(ctx context.Context) (*shopv1.PlaceOrderResponse, error) {
			return b.client.PlaceOrderFromCart(ctx, &shopv1.PlaceOrderFromCartRequest{LineIDs: []string{line.LineID}})
		})
	if err != nil {
		return "", err
	}
	return resp.OrderID, nil
}

func (b buyer) cancel(ctx context.Context, orderID string) error {
	_, err := invoke(ctx, b.rec, b.cfg.timeout, "CancelOrder", b.opts(""),
		func(ctx context.Context) (*shopv1.CancelOrderResponse, error) {
			return b.client.CancelOrder(ctx, &shopv1.CancelOrderRequest{OrderID: orderID})
		})
	return err
}

// play проигрывает сценарий режима и пишет его итог в серию scenario.
func (b buyer) play(ctx context.Context) {
	start := time.Now()
	code := codes.OK
	defer func() { b.rec.observe(scenarioSeries, time.Since(start), code) }()

	var (
		orderID string
		err     error
	)
	if b.cfg.mode == modeCart {
		orderID, err = b.buyViaCart(ctx)
	} else {
		orderID, err = b.buyNow(ctx)
	}
	if err == nil && b.cfg.mode == modeBuyCancel {
		err = b.cancel(ctx, orderID)
	}
	code = status.Code(err)
}

// run готовит товар, прогоняет cfg.total покупателей через cfg.concurrency
// воркеров и сверяет итоговый остаток.
func run(ctx context.Context, cfg config, clients []shopClient) (report, error) {
	if len(clients) == 0 {
		return report{}, errors.New("no shop clients")
	}

	runID := uuid.NewString()
	item, err := prepareItem(ctx, clients[0], cfg, runID)
	if err != nil {
		return report{}, err
	}

	rec := newRecorder()
	startedAt := time.Now()

	buyers := make(chan buyer)
	var wg sync.WaitGroup
	for w := range cfg.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range buyers {
				b.client = clients[w%len(clients)]
				b.play(ctx)
			}
		}()
	}
	for i := range cfg.total {
		buyers <- buyer{
			cfg:     cfg,
			rec:     rec,
			account: fmt.Sprintf("%s-%s-%d", cfg.accountTag, runID, i),
			itemID:  item.ID,
		}
	}
	close(buyers)
	wg.Wait()

	result := rec.report(startedAt, time.Since(startedAt))
	result.RunID = runID
	result.Mode = string(cfg.mode)

	final, err := invoke(ctx, nil, cfg.timeout, "", callOpts{}, func(ctx context.Context) (*shopv1.GetItemResponse, error) {
		return clients[0].GetItem(ctx, &shopv1.GetItemRequest{ItemID: item.ID})
	})
	if err != nil {
		return result, fmt.Errorf("read final stock of %s: %w", item.ID, err)
	}
	result.Stock = reconcile(cfg.mode, cfg.qty, item, final.Item.StockQty, result.Accepted)
	return result, nil
}

// prepareItem берёт существующий товар или заводит новый под прогон.
func prepareItem(ctx context.Context, client shopClient, cfg config, runID string) (shopv1.Item, error) {
	if cfg.itemID != "" {
		resp, err := invoke(ctx, nil, cfg.timeout, "", callOpts{}, func(ctx context.Context) (*shopv1.GetItemResponse, error) {
			return client.GetItem(ctx, &shopv1.GetItemRequest{ItemID: cfg.itemID})
		})
		if err != nil {
			return shopv1.Item{}, fmt.Errorf("get item %s: %w", cfg.itemID, err)
		}
		return resp.Item, nil
	}

	resp, err := invoke(ctx, nil, cfg.timeout, "", callOpts{key: "loadtest-item-" + runID}, func(ctx context.Context) (*shopv1.CreateItemResponse, error) {
		return client.CreateItem(ctx, &shopv1.CreateItemRequest{
			Name:       "loadtest " + runID,
			Category:   "loadtest",
			PriceMinor: cfg.priceMinor,
			StockQty:   cfg.stock,
		})
	})
	if err != nil {
		return shopv1.Item{}, fmt.Errorf("create item: %w", err)
	}
	return resp.Item, nil
}
