package grpcsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	shopv1 "github.com/vladislavdragonenkov/storefront/api/shop/v1"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
)

// AccountIDHeader — metadata с идентификатором аккаунта, проставляемый gateway после аутентификации.
const AccountIDHeader = "x-account-id"

// CartService — операции корзины, которые нужны транспорту.
type CartService interface {
	AddLine(ctx context.Context, accountID, itemID string, qty int64) (string, error)
	ListLines(ctx context.Context, accountID string) ([]domain.CartLineView, error)
	UpdateQuantity(ctx context.Context, lineID, accountID string, qty int64) error
	RemoveLine(ctx context.Context, lineID, accountID string) error
}

// OrderService — операции заказов, которые нужны транспорту.
type OrderService interface {
	PlaceFromCart(ctx context.Context, accountID string, lineIDs []string) (string, error)
	PlaceDirect(ctx context.Context, accountID, itemID string, qty int64) (string, error)
	Cancel(ctx context.Context, orderID, accountID string) error
	Get(ctx context.Context, orderID, accountID string) (domain.OrderDetails, error)
	ListForAccount(ctx context.Context, accountID string, page domain.PageRequest) (domain.Page[domain.Order], error)
}

// ShopService реализует gRPC API витрины поверх каталога, корзины и движка заказов.
type ShopService struct {
	shopv1.UnimplementedShopServiceServer

	catalog  catalog.Catalog
	carts    CartService
	orders   OrderService
	idemRepo domain.IdempotencyRepository
	validate *validator.Validate
	logger   *log.Entry
	now      func() time.Time
}

// NewShopService конструирует сервис. idemRepo может быть nil, тогда
// idempotency-key игнорируется.
func NewShopService(
	items catalog.Catalog,
	carts CartService,
	orders OrderService,
	idemRepo domain.IdempotencyRepository,
	logger *log.Entry,
) *ShopService {
	if logger == nil {
		logger = log.New().WithField("component", "shop-service")
	}
	return &ShopService{
		catalog:  items,
		carts:    carts,
		orders:   orders,
		idemRepo: idemRepo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddCartLine добавляет товар в корзину аккаунта.
func (s *ShopService) AddCartLine(ctx context.Context, req *shopv1.AddCartLineRequest) (*shopv1.AddCartLineResponse, error) {
	accountID, err := s.accountAndValidate(ctx, req)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, shopv1.ShopService_AddCartLine_FullMethodName, accountID, req,
		func(ctx context.Context) (*shopv1.AddCartLineResponse, error) {
			lineID, err := s.carts.AddLine(ctx, accountID, req.ItemID, req.Quantity)
			if err != nil {
				return nil, toStatus(err)
			}
			return &shopv1.AddCartLineResponse{LineID: lineID}, nil
		})
}

// ListCartLines возвращает корзину аккаунта с текущими ценами.
func (s *ShopService) ListCartLines(ctx context.Context, req *shopv1.ListCartLinesRequest) (*shopv1.ListCartLinesResponse, error) {
	accountID, err := s.accountAndValidate(ctx, req)
	if err != nil {
		return nil, err
	}

	views, err := s.carts.ListLines(ctx, accountID)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &shopv1.ListCartLinesResponse{Lines: make([]shopv1.CartLine, 0, len(views))}
	for _, view := range views {
		resp.Lines = append(resp.Lines, toCartLine(view))
		resp.TotalMinor += view.SubtotalMinor()
	}
	return resp, nil
}

// UpdateCartLine меняет количество в строке корзины.
func (s *ShopService) UpdateCartLine(ctx context.Context, req *shopv1.UpdateCartLineRequest) (*shopv1.UpdateCartLineResponse, error) {
	accountID, err := s.accountAndValidate(ctx, req)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, shopv1.ShopService_UpdateCartLine_FullMethodName, accountID, req,
		func(ctx context.Context) (*shopv1.UpdateCartLineResponse, error) {
			if err := s.carts.UpdateQuantity(ctx, req.LineID, accountID, req.Quantity); err != nil {
				return nil, toStatus(err)
			}
			return &shopv1.UpdateCartLineResponse{}, nil
		})
}

// RemoveCartLine удаляет строку корзины.
func (s *ShopService) RemoveCartLine(ctx context.Context, req *shopv1.RemoveCartLineRequest) (*shopv1.RemoveCartLineResponse, error) {
	accountID, err := s.accountAndValidate(ctx, req)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, shopv1.ShopService_RemoveCartLine_FullMethodName, accountID, req,
		func(ctx context.Context) (*shopv1.RemoveCartLineResponse, error) {
			if err := s.carts.RemoveLine(ctx, req.LineID, accountID); err != nil {
				return nil, toStatus(err)
			}
			return &shopv1.RemoveCartLineResponse{}, nil
		})
}

// PlaceOrderFromCart оформляет заказ из выбранных строк корзины.
func (s *ShopService) PlaceOrderFromCart(ctx context.Context, req *shopv1.PlaceOrderFromCartRequest) (*shopv1.PlaceOrderResponse, error) {
	accountID, err := s.accountAndValidate(ctx, req)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, shopv1.ShopService_PlaceOrderFromCart_FullMethodName, accountID, req,
		func(ctx context.Context) (*shopv1.PlaceOrderResponse, error) {
			orderID, err := s.orders.PlaceFromCart(ctx, accountID, req.LineIDs)
			if err != nil {
				return nil, toStatus(err)
			}
			return &shopv1.PlaceOrderResponse{OrderID: orderID}, nil
		})
}

// PlaceDirectOrder оформляет заказ на один товар ("купить сейчас").
func (s *ShopService) PlaceDirectOrder(ctx context.Context, req *shopv1.PlaceDirectOrderRequest) (*shopv1.PlaceOrderResponse, error) {
	accountID, err := s.accountAndValidate(ctx, req)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, shopv1.ShopService_PlaceDirectOrder_FullMethodName, accountID, req,
		func(ctx context.Context) (*shopv1.PlaceOrderResponse, error) {
			orderID, err := s.orders.PlaceDirect(ctx, accountID, req.ItemID, req.Quantity)
			if err != nil {
				return nil, toStatus(err)
			}
			return &shopv1.PlaceOrderResponse{OrderID: orderID}, nil
		})
}

// CancelOrder отменяет заказ аккаунта.
func (s *ShopService) CancelOrder(ctx context.Context, req *shopv1.CancelOrderRequest) (*shopv1.CancelOrderResponse, error) {
	accountID, err := s.accountAndValidate(ctx, req)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, shopv1.ShopService_CancelOrder_FullMethodName, accountID, req,
		func(ctx context.Context) (*shopv1.CancelOrderResponse, error) {
			if err := s.orders.Cancel(ctx, req.OrderID, accountID); err != nil {
				return nil, toStatus(err)
			}
			return &shopv1.CancelOrderResponse{
				OrderID: req.OrderID,
				Status:  string(domain.OrderStatusCancelled),
			}, nil
		})
}

// GetOrder возвращает заказ с timeline.
func (s *ShopService) GetOrder(ctx context.Context, req *shopv1.GetOrderRequest) (*shopv1.GetOrderResponse, error) {
	accountID, err := s.accountAndValidate(ctx, req)
	if err != nil {
		return nil, err
	}

	details, err := s.orders.Get(ctx, req.OrderID, accountID)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &shopv1.GetOrderResponse{
		Order:    toOrder(details.Order),
		Timeline: make([]shopv1.TimelineEvent, 0, len(details.Timeline)),
	}
	for _, event := range details.Timeline {
		resp.Timeline = append(resp.Timeline, shopv1.TimelineEvent{
			Type:       event.Type,
			Reason:     event.Reason,
			OccurredAt: event.Occurred,
		})
	}
	return resp, nil
}

// ListOrders возвращает историю заказов аккаунта, новые первыми.
func (s *ShopService) ListOrders(ctx context.Context, req *shopv1.ListOrdersRequest) (*shopv1.ListOrdersResponse, error) {
	accountID, err := s.accountAndValidate(ctx, req)
	if err != nil {
		return nil, err
	}

	page, err := s.orders.ListForAccount(ctx, accountID, domain.PageRequest{Page: req.Page, Size: req.PageSize})
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &shopv1.ListOrdersResponse{
		Orders:     make([]shopv1.Order, 0, len(page.Items)),
		Page:       page.Page,
		PageSize:   page.Size,
		Total:      page.Total,
		TotalPages: page.TotalPages(),
	}
	for _, order := range page.Items {
		resp.Orders = append(resp.Orders, toOrder(order))
	}
	return resp, nil
}

// GetItem возвращает карточку товара. Аккаунт не требуется.
func (s *ShopService) GetItem(ctx context.Context, req *shopv1.GetItemRequest) (*shopv1.GetItemResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	item, err := s.catalog.Get(ctx, req.ItemID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &shopv1.GetItemResponse{Item: toItem(item)}, nil
}

// SearchItems ищет товары. Для admin-выдачи страница по умолчанию меньше.
func (s *ShopService) SearchItems(ctx context.Context, req *shopv1.SearchItemsRequest) (*shopv1.SearchItemsResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	criteria := domain.ItemSearch{
		Keyword:    strings.TrimSpace(req.Keyword),
		SearchBy:   domain.SearchField(req.SearchBy),
		Category:   strings.TrimSpace(req.Category),
		SellStatus: domain.SellStatus(req.SellStatus),
	}
	if req.CreatedSince != nil {
		criteria.CreatedSince = req.CreatedSince.UTC()
	}
	if req.CreatedUntil != nil {
		criteria.CreatedUntil = req.CreatedUntil.UTC()
	}
	if since := domain.DateWindowSince(req.DateWindow, s.now()); !since.IsZero() {
		criteria.CreatedSince = since
	}

	defaultSize := domain.DefaultCatalogPageSize
	if req.Admin {
		defaultSize = domain.DefaultAdminPageSize
	}
	pageReq := domain.PageRequest{Page: req.Page, Size: req.PageSize}.Normalize(defaultSize)

	page, err := s.catalog.Search(ctx, criteria, pageReq)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &shopv1.SearchItemsResponse{
		Items:      make([]shopv1.Item, 0, len(page.Items)),
		Page:       page.Page,
		PageSize:   page.Size,
		Total:      page.Total,
		TotalPages: page.TotalPages(),
	}
	for _, item := range page.Items {
		resp.Items = append(resp.Items, toItem(item))
	}
	return resp, nil
}

// CreateItem добавляет товар в каталог.
func (s *ShopService) CreateItem(ctx context.Context, req *shopv1.CreateItemRequest) (*shopv1.CreateItemResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, shopv1.ShopService_CreateItem_FullMethodName, "", req,
		func(ctx context.Context) (*shopv1.CreateItemResponse, error) {
			item, err := s.catalog.Create(ctx, domain.NewItem{
				Name:        req.Name,
				Description: req.Description,
				Category:    req.Category,
				PriceMinor:  req.PriceMinor,
				StockQty:    req.StockQty,
			})
			if err != nil {
				return nil, toStatus(err)
			}
			return &shopv1.CreateItemResponse{Item: toItem(item)}, nil
		})
}

// UpdateItem частично обновляет карточку товара.
func (s *ShopService) UpdateItem(ctx context.Context, req *shopv1.UpdateItemRequest) (*shopv1.UpdateItemResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, shopv1.ShopService_UpdateItem_FullMethodName, "", req,
		func(ctx context.Context) (*shopv1.UpdateItemResponse, error) {
			update := domain.ItemUpdate{
				Name:        req.Name,
				Description: req.Description,
				Category:    req.Category,
				PriceMinor:  req.PriceMinor,
				StockQty:    req.StockQty,
			}
			if req.SellStatus != nil {
				sellStatus := domain.SellStatus(*req.SellStatus)
				update.SellStatus = &sellStatus
			}

			item, err := s.catalog.Update(ctx, req.ItemID, update)
			if err != nil {
				return nil, toStatus(err)
			}
			return &shopv1.UpdateItemResponse{Item: toItem(item)}, nil
		})
}

func (s *ShopService) accountAndValidate(ctx context.Context, req any) (string, error) {
	accountID, err := readAccountID(ctx)
	if err != nil {
		return "", err
	}
	if err := s.validateRequest(req); err != nil {
		return "", err
	}
	return accountID, nil
}

func (s *ShopService) validateRequest(req any) error {
	if req == nil {
		return status.Error(codes.InvalidArgument, "request is required")
	}
	if err := s.validate.Struct(req); err != nil {
		return status.Error(codes.InvalidArgument, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		rule := fieldErr.Tag()
		if fieldErr.Param() != "" {
			rule += "=" + fieldErr.Param()
		}
		parts = append(parts, fieldErr.Namespace()+" failed "+rule)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func readAccountID(ctx context.Context) (string, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(AccountIDHeader)
		if len(values) > 0 && strings.TrimSpace(values[0]) != "" {
			return strings.TrimSpace(values[0]), nil
		}
	}
	return "", toStatus(domain.ErrAccountRequired)
}

var _ shopv1.ShopServiceServer = (*ShopService)(nil)
