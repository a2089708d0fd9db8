package grpcsvc_test

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	shopv1 "github.com/vladislavdragonenkov/storefront/api/shop/v1"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/service/ledger"
	"github.com/vladislavdragonenkov/storefront/internal/service/ordering"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

const bufSize = 1024 * 1024

type testEnv struct {
	client shopv1.ShopServiceClient
	store  *memory.Store
}

func newTestServer(t *testing.T) testEnv {
	t.Helper()

	listener := bufconn.Listen(bufSize)
	logger := loggerForTests()
	store := memory.NewStore()

	service := grpcsvc.NewShopService(
		catalog.NewService(store, logger),
		cart.NewService(store, logger),
		ordering.NewEngine(store, ledger.New(logger), logger),
		memory.NewIdempotencyRepository(),
		logger,
	)

	server := grpc.NewServer()
	shopv1.RegisterShopServiceServer(server, service)

	go func() {
		if err := server.Serve(listener); err != nil {
			logger.WithError(err).Error("grpc serve failed")
		}
	}()

	dialer := func(context.Context, string) (net.Conn, error) {
		return listener.Dial()
	}

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
	})

	return testEnv{client: shopv1.NewShopServiceClient(conn), store: store}
}

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.PanicLevel)
	return logger.WithField("component", "test")
}

func accountCtx(accountID string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), grpcsvc.AccountIDHeader, accountID)
}

func idemCtx(accountID, key string) context.Context {
	return metadata.AppendToOutgoingContext(accountCtx(accountID), "idempotency-key", key)
}

func createItem(t *testing.T, client shopv1.ShopServiceClient, name string, price, stock int64) shopv1.Item {
	t.Helper()

	resp, err := client.CreateItem(context.Background(), &shopv1.CreateItemRequest{
		Name:       name,
		Category:   "kitchen",
		PriceMinor: price,
		StockQty:   stock,
	})
	require.NoError(t, err)
	return resp.Item
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, status.Code(err), "unexpected status: %v", err)
}

func TestShopService_CartToOrderAndCancel(t *testing.T) {
	env := newTestServer(t)
	ctx := accountCtx("account-a")

	kettle := createItem(t, env.client, "Kettle", 2500, 3)
	mug := createItem(t, env.client, "Mug", 400, 10)

	kettleLine, err := env.client.AddCartLine(ctx, &shopv1.AddCartLineRequest{ItemID: kettle.ID, Quantity: 2})
	require.NoError(t, err)
	mugLine, err := env.client.AddCartLine(ctx, &shopv1.AddCartLineRequest{ItemID: mug.ID, Quantity: 3})
	require.NoError(t, err)

	cartResp, err := env.client.ListCartLines(ctx, &shopv1.ListCartLinesRequest{})
	require.NoError(t, err)
	require.Len(t, cartResp.Lines, 2)
	require.Equal(t, int64(2*2500+3*400), cartResp.TotalMinor)

	placed, err := env.client.PlaceOrderFromCart(ctx, &shopv1.PlaceOrderFromCartRequest{
		LineIDs: []string{kettleLine.LineID, mugLine.LineID},
	})
	require.NoError(t, err)
	require.NotEmpty(t, placed.OrderID)

	item, err := env.client.GetItem(context.Background(), &shopv1.GetItemRequest{ItemID: kettle.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), item.Item.StockQty)

	cartResp, err = env.client.ListCartLines(ctx, &shopv1.ListCartLinesRequest{})
	require.NoError(t, err)
	require.Empty(t, cartResp.Lines, "consumed cart lines must be removed")

	order, err := env.client.GetOrder(ctx, &shopv1.GetOrderRequest{OrderID: placed.OrderID})
	require.NoError(t, err)
	require.Equal(t, string(domain.OrderStatusOrdered), order.Order.Status)
	require.Equal(t, int64(2*2500+3*400), order.Order.TotalMinor)
	require.Len(t, order.Order.Lines, 2)
	require.Equal(t, kettle.ID, order.Order.Lines[0].ItemID)
	require.Len(t, order.Timeline, 1)

	cancelled, err := env.client.CancelOrder(ctx, &shopv1.CancelOrderRequest{OrderID: placed.OrderID})
	require.NoError(t, err)
	require.Equal(t, string(domain.OrderStatusCancelled), cancelled.Status)

	item, err = env.client.GetItem(context.Background(), &shopv1.GetItemRequest{ItemID: kettle.ID})
	require.NoError(t, err)
	require.Equal(t, int64(3), item.Item.StockQty, "cancel must restore stock")

	_, err = env.client.CancelOrder(ctx, &shopv1.CancelOrderRequest{OrderID: placed.OrderID})
	requireCode(t, err, codes.FailedPrecondition)

	history, err := env.client.ListOrders(ctx, &shopv1.ListOrdersRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, history.Total)
	require.Equal(t, domain.DefaultOrderPageSize, history.PageSize)
}

func TestShopService_RequiresAccount(t *testing.T) {
	env := newTestServer(t)

	_, err := env.client.ListCartLines(context.Background(), &shopv1.ListCartLinesRequest{})
	requireCode(t, err, codes.Unauthenticated)

	_, err = env.client.PlaceDirectOrder(accountCtx("   "), &shopv1.PlaceDirectOrderRequest{ItemID: "x", Quantity: 1})
	requireCode(t, err, codes.Unauthenticated)
}

func TestShopService_InsufficientStockNamesItem(t *testing.T) {
	env := newTestServer(t)
	item := createItem(t, env.client, "Lamp", 1000, 1)

	_, err := env.client.PlaceDirectOrder(accountCtx("account-a"), &shopv1.PlaceDirectOrderRequest{ItemID: item.ID, Quantity: 2})
	requireCode(t, err, codes.FailedPrecondition)
	require.Contains(t, status.Convert(err).Message(), item.ID)

	got, err := env.client.GetItem(context.Background(), &shopv1.GetItemRequest{ItemID: item.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Item.StockQty)
}

func TestShopService_OwnershipAndNotFound(t *testing.T) {
	env := newTestServer(t)
	item := createItem(t, env.client, "Chair", 5000, 5)

	line, err := env.client.AddCartLine(accountCtx("owner"), &shopv1.AddCartLineRequest{ItemID: item.ID, Quantity: 1})
	require.NoError(t, err)
	placed, err := env.client.PlaceDirectOrder(accountCtx("owner"), &shopv1.PlaceDirectOrderRequest{ItemID: item.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = env.client.UpdateCartLine(accountCtx("intruder"), &shopv1.UpdateCartLineRequest{LineID: line.LineID, Quantity: 0})
	requireCode(t, err, codes.PermissionDenied)

	_, err = env.client.RemoveCartLine(accountCtx("intruder"), &shopv1.RemoveCartLineRequest{LineID: line.LineID})
	requireCode(t, err, codes.PermissionDenied)

	_, err = env.client.PlaceOrderFromCart(accountCtx("intruder"), &shopv1.PlaceOrderFromCartRequest{LineIDs: []string{line.LineID}})
	requireCode(t, err, codes.PermissionDenied)

	_, err = env.client.CancelOrder(accountCtx("intruder"), &shopv1.CancelOrderRequest{OrderID: placed.OrderID})
	requireCode(t, err, codes.PermissionDenied)

	_, err = env.client.GetOrder(accountCtx("intruder"), &shopv1.GetOrderRequest{OrderID: placed.OrderID})
	requireCode(t, err, codes.PermissionDenied)

	_, err = env.client.GetOrder(accountCtx("owner"), &shopv1.GetOrderRequest{OrderID: "missing"})
	requireCode(t, err, codes.NotFound)

	_, err = env.client.GetItem(context.Background(), &shopv1.GetItemRequest{ItemID: "missing"})
	requireCode(t, err, codes.NotFound)

	_, err = env.client.RemoveCartLine(accountCtx("owner"), &shopv1.RemoveCartLineRequest{LineID: "missing"})
	require.NoError(t, err, "removing an absent line is a no-op")
}

func TestShopService_Validation(t *testing.T) {
	env := newTestServer(t)
	ctx := accountCtx("account-a")
	item := createItem(t, env.client, "Plate", 300, 4)

	_, err := env.client.AddCartLine(ctx, &shopv1.AddCartLineRequest{Quantity: 1})
	requireCode(t, err, codes.InvalidArgument)

	_, err = env.client.AddCartLine(ctx, &shopv1.AddCartLineRequest{ItemID: item.ID, Quantity: 0})
	requireCode(t, err, codes.InvalidArgument)

	_, err = env.client.PlaceOrderFromCart(ctx, &shopv1.PlaceOrderFromCartRequest{})
	requireCode(t, err, codes.InvalidArgument)

	_, err = env.client.SearchItems(context.Background(), &shopv1.SearchItemsRequest{SellStatus: "GONE"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = env.client.CreateItem(context.Background(), &shopv1.CreateItemRequest{Name: "Cup", PriceMinor: -1})
	requireCode(t, err, codes.InvalidArgument)

	blank := "  "
	_, err = env.client.UpdateItem(context.Background(), &shopv1.UpdateItemRequest{ItemID: item.ID, Name: &blank})
	requireCode(t, err, codes.InvalidArgument)
}

func TestShopService_IdempotentPlacement(t *testing.T) {
	env := newTestServer(t)
	item := createItem(t, env.client, "Vase", 1500, 5)
	req := &shopv1.PlaceDirectOrderRequest{ItemID: item.ID, Quantity: 2}

	first, err := env.client.PlaceDirectOrder(idemCtx("account-a", "buy-1"), req)
	require.NoError(t, err)
	second, err := env.client.PlaceDirectOrder(idemCtx("account-a", "buy-1"), req)
	require.NoError(t, err)
	require.Equal(t, first.OrderID, second.OrderID, "replay must return the cached order id")

	got, err := env.client.GetItem(context.Background(), &shopv1.GetItemRequest{ItemID: item.ID})
	require.NoError(t, err)
	require.Equal(t, int64(3), got.Item.StockQty, "replay must not deduct twice")

	_, err = env.client.PlaceDirectOrder(idemCtx("account-a", "buy-1"), &shopv1.PlaceDirectOrderRequest{ItemID: item.ID, Quantity: 1})
	requireCode(t, err, codes.AlreadyExists)

	other, err := env.client.PlaceDirectOrder(idemCtx("account-b", "buy-1"), req)
	require.NoError(t, err, "keys are scoped per account")
	require.NotEqual(t, first.OrderID, other.OrderID)
}

func TestShopService_IdempotentFailureReplay(t *testing.T) {
	env := newTestServer(t)
	item := createItem(t, env.client, "Rug", 9000, 1)
	req := &shopv1.PlaceDirectOrderRequest{ItemID: item.ID, Quantity: 2}

	_, err := env.client.PlaceDirectOrder(idemCtx("account-a", "rug"), req)
	requireCode(t, err, codes.FailedPrecondition)

	_, err = env.client.PlaceDirectOrder(idemCtx("account-a", "rug"), req)
	requireCode(t, err, codes.FailedPrecondition)
	require.Contains(t, status.Convert(err).Message(), item.ID)
}

func TestShopService_SearchPageSizes(t *testing.T) {
	env := newTestServer(t)
	for i := 0; i < 8; i++ {
		createItem(t, env.client, fmt.Sprintf("Spoon %d", i), 100, int64(i))
	}

	storefront, err := env.client.SearchItems(context.Background(), &shopv1.SearchItemsRequest{Keyword: "spoon"})
	require.NoError(t, err)
	require.Equal(t, domain.DefaultCatalogPageSize, storefront.PageSize)
	require.Len(t, storefront.Items, domain.DefaultCatalogPageSize)
	require.Equal(t, 8, storefront.Total)
	require.Equal(t, 2, storefront.TotalPages)

	admin, err := env.client.SearchItems(context.Background(), &shopv1.SearchItemsRequest{Admin: true, SellStatus: "SOLD_OUT"})
	require.NoError(t, err)
	require.Equal(t, domain.DefaultAdminPageSize, admin.PageSize)
	require.Equal(t, 1, admin.Total, "only the zero-stock item is sold out")
	require.True(t, strings.HasPrefix(admin.Items[0].Name, "Spoon"))

	empty, err := env.client.SearchItems(context.Background(), &shopv1.SearchItemsRequest{Keyword: "no-such-thing", DateWindow: "1w"})
	require.NoError(t, err)
	require.Empty(t, empty.Items)
	require.Zero(t, empty.Total)
}

func TestShopService_UpdateItemFlipsSellStatus(t *testing.T) {
	env := newTestServer(t)
	item := createItem(t, env.client, "Towel", 700, 2)

	zero := int64(0)
	updated, err := env.client.UpdateItem(context.Background(), &shopv1.UpdateItemRequest{ItemID: item.ID, StockQty: &zero})
	require.NoError(t, err)
	require.Equal(t, string(domain.SellStatusSoldOut), updated.Item.SellStatus)

	_, err = env.client.UpdateItem(context.Background(), &shopv1.UpdateItemRequest{ItemID: "missing", StockQty: &zero})
	requireCode(t, err, codes.NotFound)
}
