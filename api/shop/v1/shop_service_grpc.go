package shopv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName — полное имя gRPC сервиса.
const ServiceName = "shop.v1.ShopService"

const (
	ShopService_AddCartLine_FullMethodName        = "/shop.v1.ShopService/AddCartLine"
	ShopService_ListCartLines_FullMethodName      = "/shop.v1.ShopService/ListCartLines"
	ShopService_UpdateCartLine_FullMethodName     = "/shop.v1.ShopService/UpdateCartLine"
	ShopService_RemoveCartLine_FullMethodName     = "/shop.v1.ShopService/RemoveCartLine"
	ShopService_PlaceOrderFromCart_FullMethodName = "/shop.v1.ShopService/PlaceOrderFromCart"
	ShopService_PlaceDirectOrder_FullMethodName   = "/shop.v1.ShopService/PlaceDirectOrder"
	ShopService_CancelOrder_FullMethodName        = "/shop.v1.ShopService/CancelOrder"
	ShopService_GetOrder_FullMethodName           = "/shop.v1.ShopService/GetOrder"
	ShopService_ListOrders_FullMethodName         = "/shop.v1.ShopService/ListOrders"
	ShopService_GetItem_FullMethodName            = "/shop.v1.ShopService/GetItem"
	ShopService_SearchItems_FullMethodName        = "/shop.v1.ShopService/SearchItems"
	ShopService_CreateItem_FullMethodName         = "/shop.v1.ShopService/CreateItem"
	ShopService_UpdateItem_FullMethodName         = "/shop.v1.ShopService/UpdateItem"
)

// ShopServiceClient — клиент API витрины. Все вызовы идут через JSON-кодек.
type ShopServiceClient interface {
	AddCartLine(ctx context.Context, in *AddCartLineRequest, opts ...grpc.CallOption) (*AddCartLineResponse, error)
	ListCartLines(ctx context.Context, in *ListCartLinesRequest, opts ...grpc.CallOption) (*ListCartLinesResponse, error)
	UpdateCartLine(ctx context.Context, in *UpdateCartLineRequest, opts ...grpc.CallOption) (*UpdateCartLineResponse, error)
	RemoveCartLine(ctx context.Context, in *RemoveCartLineRequest, opts ...grpc.CallOption) (*RemoveCartLineResponse, error)
	PlaceOrderFromCart(ctx context.Context, in *PlaceOrderFromCartRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error)
	PlaceDirectOrder(ctx context.Context, in *PlaceDirectOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error)
	CancelOrder(ctx context.Context, in *CancelOrderRequest, opts ...grpc.CallOption) (*CancelOrderResponse, error)
	GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error)
	ListOrders(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error)
	GetItem(ctx context.Context, in *GetItemRequest, opts ...grpc.CallOption) (*GetItemResponse, error)
	SearchItems(ctx context.Context, in *SearchItemsRequest, opts ...grpc.CallOption) (*SearchItemsResponse, error)
	CreateItem(ctx context.Context, in *CreateItemRequest, opts ...grpc.CallOption) (*CreateItemResponse, error)
	UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*UpdateItemResponse, error)
}

type shopServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewShopServiceClient создаёт клиент поверх соединения.
func NewShopServiceClient(cc grpc.ClientConnInterface) ShopServiceClient {
	return &shopServiceClient{cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *shopServiceClient) AddCartLine(ctx context.Context, in *AddCartLineRequest, opts ...grpc.CallOption) (*AddCartLineResponse, error) {
	out := new(AddCartLineResponse)
	err := c.cc.Invoke(ctx, ShopService_AddCartLine_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) ListCartLines(ctx context.Context, in *ListCartLinesRequest, opts ...grpc.CallOption) (*ListCartLinesResponse, error) {
	out := new(ListCartLinesResponse)
	err := c.cc.Invoke(ctx, ShopService_ListCartLines_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) UpdateCartLine(ctx context.Context, in *UpdateCartLineRequest, opts ...grpc.CallOption) (*UpdateCartLineResponse, error) {
	out := new(UpdateCartLineResponse)
	err := c.cc.Invoke(ctx, ShopService_UpdateCartLine_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) RemoveCartLine(ctx context.Context, in *RemoveCartLineRequest, opts ...grpc.CallOption) (*RemoveCartLineResponse, error) {
	out := new(RemoveCartLineResponse)
	err := c.cc.Invoke(ctx, ShopService_RemoveCartLine_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) PlaceOrderFromCart(ctx context.Context, in *PlaceOrderFromCartRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error) {
	out := new(PlaceOrderResponse)
	err := c.cc.Invoke(ctx, ShopService_PlaceOrderFromCart_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) PlaceDirectOrder(ctx context.Context, in *PlaceDirectOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error) {
	out := new(PlaceOrderResponse)
	err := c.cc.Invoke(ctx, ShopService_PlaceDirectOrder_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) CancelOrder(ctx context.Context, in *CancelOrderRequest, opts ...grpc.CallOption) (*CancelOrderResponse, error) {
	out := new(CancelOrderResponse)
	err := c.cc.Invoke(ctx, ShopService_CancelOrder_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error) {
	out := new(GetOrderResponse)
	err := c.cc.Invoke(ctx, ShopService_GetOrder_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) ListOrders(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	out := new(ListOrdersResponse)
	err := c.cc.Invoke(ctx, ShopService_ListOrders_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) GetItem(ctx context.Context, in *GetItemRequest, opts ...grpc.CallOption) (*GetItemResponse, error) {
	out := new(GetItemResponse)
	err := c.cc.Invoke(ctx, ShopService_GetItem_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) SearchItems(ctx context.Context, in *SearchItemsRequest, opts ...grpc.CallOption) (*SearchItemsResponse, error) {
	out := new(SearchItemsResponse)
	err := c.cc.Invoke(ctx, ShopService_SearchItems_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) CreateItem(ctx context.Context, in *CreateItemRequest, opts ...grpc.CallOption) (*CreateItemResponse, error) {
	out := new(CreateItemResponse)
	err := c.cc.Invoke(ctx, ShopService_CreateItem_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *shopServiceClient) UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*UpdateItemResponse, error) {
	out := new(UpdateItemResponse)
	err := c.cc.Invoke(ctx, ShopService_UpdateItem_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ShopServiceServer — серверная часть API витрины.
// Реализации должны встраивать UnimplementedShopServiceServer.
type ShopServiceServer interface {
	// AddCartLine добавляет товар в корзину или увеличивает количество в существующей строке.
	AddCartLine(context.Context, *AddCartLineRequest) (*AddCartLineResponse, error)
	// ListCartLines возвращает корзину аккаунта.
	ListCartLines(context.Context, *ListCartLinesRequest) (*ListCartLinesResponse, error)
	// UpdateCartLine меняет количество в строке корзины.
	UpdateCartLine(context.Context, *UpdateCartLineRequest) (*UpdateCartLineResponse, error)
	// RemoveCartLine удаляет строку корзины.
	RemoveCartLine(context.Context, *RemoveCartLineRequest) (*RemoveCartLineResponse, error)
	// PlaceOrderFromCart оформляет заказ из выбранных строк корзины.
	PlaceOrderFromCart(context.Context, *PlaceOrderFromCartRequest) (*PlaceOrderResponse, error)
	// PlaceDirectOrder оформляет заказ на один товар, минуя корзину.
	PlaceDirectOrder(context.Context, *PlaceDirectOrderRequest) (*PlaceOrderResponse, error)
	// CancelOrder отменяет заказ и возвращает остаток.
	CancelOrder(context.Context, *CancelOrderRequest) (*CancelOrderResponse, error)
	// GetOrder возвращает заказ с timeline.
	GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error)
	// ListOrders возвращает историю заказов аккаунта.
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
	// GetItem возвращает карточку товара.
	GetItem(context.Context, *GetItemRequest) (*GetItemResponse, error)
	// SearchItems ищет товары в каталоге.
	SearchItems(context.Context, *SearchItemsRequest) (*SearchItemsResponse, error)
	// CreateItem добавляет товар в каталог.
	CreateItem(context.Context, *CreateItemRequest) (*CreateItemResponse, error)
	// UpdateItem частично обновляет карточку товара.
	UpdateItem(context.Context, *UpdateItemRequest) (*UpdateItemResponse, error)
	mustEmbedUnimplementedShopServiceServer()
}

// UnimplementedShopServiceServer отвечает codes.Unimplemented на все методы.
type UnimplementedShopServiceServer struct{}

func (UnimplementedShopServiceServer) AddCartLine(context.Context, *AddCartLineRequest) (*AddCartLineResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddCartLine not implemented")
}

func (UnimplementedShopServiceServer) ListCartLines(context.Context, *ListCartLinesRequest) (*ListCartLinesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListCartLines not implemented")
}

func (UnimplementedShopServiceServer) UpdateCartLine(context.Context, *UpdateCartLineRequest) (*UpdateCartLineResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateCartLine not implemented")
}

func (UnimplementedShopServiceServer) RemoveCartLine(context.Context, *RemoveCartLineRequest) (*RemoveCartLineResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveCartLine not implemented")
}

func (UnimplementedShopServiceServer) PlaceOrderFromCart(context.Context, *PlaceOrderFromCartRequest) (*PlaceOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PlaceOrderFromCart not implemented")
}

func (UnimplementedShopServiceServer) PlaceDirectOrder(context.Context, *PlaceDirectOrderRequest) (*PlaceOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PlaceDirectOrder not implemented")
}

func (UnimplementedShopServiceServer) CancelOrder(context.Context, *CancelOrderRequest) (*CancelOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelOrder not implemented")
}

func (UnimplementedShopServiceServer) GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetOrder not implemented")
}

func (UnimplementedShopServiceServer) ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListOrders not implemented")
}

func (UnimplementedShopServiceServer) GetItem(context.Context, *GetItemRequest) (*GetItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetItem not implemented")
}

func (UnimplementedShopServiceServer) SearchItems(context.Context, *SearchItemsRequest) (*SearchItemsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchItems not implemented")
}

func (UnimplementedShopServiceServer) CreateItem(context.Context, *CreateItemRequest) (*CreateItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateItem not implemented")
}

func (UnimplementedShopServiceServer) UpdateItem(context.Context, *UpdateItemRequest) (*UpdateItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateItem not implemented")
}

func (UnimplementedShopServiceServer) mustEmbedUnimplementedShopServiceServer() {}

// RegisterShopServiceServer регистрирует реализацию на gRPC сервере.
func RegisterShopServiceServer(s grpc.ServiceRegistrar, srv ShopServiceServer) {
	s.RegisterService(&ShopService_ServiceDesc, srv)
}

func _ShopService_AddCartLine_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AddCartLineRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).AddCartLine(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_AddCartLine_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).AddCartLine(ctx, req.(*AddCartLineRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_ListCartLines_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListCartLinesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).ListCartLines(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_ListCartLines_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).ListCartLines(ctx, req.(*ListCartLinesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_UpdateCartLine_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateCartLineRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).UpdateCartLine(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_UpdateCartLine_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).UpdateCartLine(ctx, req.(*UpdateCartLineRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_RemoveCartLine_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RemoveCartLineRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).RemoveCartLine(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_RemoveCartLine_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).RemoveCartLine(ctx, req.(*RemoveCartLineRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_PlaceOrderFromCart_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PlaceOrderFromCartRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).PlaceOrderFromCart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_PlaceOrderFromCart_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).PlaceOrderFromCart(ctx, req.(*PlaceOrderFromCartRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_PlaceDirectOrder_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PlaceDirectOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).PlaceDirectOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_PlaceDirectOrder_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).PlaceDirectOrder(ctx, req.(*PlaceDirectOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_CancelOrder_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CancelOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).CancelOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_CancelOrder_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).CancelOrder(ctx, req.(*CancelOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_GetOrder_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).GetOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_GetOrder_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).GetOrder(ctx, req.(*GetOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_ListOrders_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListOrdersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).ListOrders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_ListOrders_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).ListOrders(ctx, req.(*ListOrdersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_GetItem_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).GetItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_GetItem_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).GetItem(ctx, req.(*GetItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_SearchItems_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SearchItemsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).SearchItems(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_SearchItems_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).SearchItems(ctx, req.(*SearchItemsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_CreateItem_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).CreateItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_CreateItem_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).CreateItem(ctx, req.(*CreateItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ShopService_UpdateItem_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServiceServer).UpdateItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShopService_UpdateItem_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServiceServer).UpdateItem(ctx, req.(*UpdateItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ShopService_ServiceDesc — дескриптор сервиса для grpc.ServiceRegistrar.
var ShopService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShopServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AddCartLine",
			Handler:    _ShopService_AddCartLine_Handler,
		},
		{
			MethodName: "ListCartLines",
			Handler:    _ShopService_ListCartLines_Handler,
		},
		{
			MethodName: "UpdateCartLine",
			Handler:    _ShopService_UpdateCartLine_Handler,
		},
		{
			MethodName: "RemoveCartLine",
			Handler:    _ShopService_RemoveCartLine_Handler,
		},
		{
			MethodName: "PlaceOrderFromCart",
			Handler:    _ShopService_PlaceOrderFromCart_Handler,
		},
		{
			MethodName: "PlaceDirectOrder",
			Handler:    _ShopService_PlaceDirectOrder_Handler,
		},
		{
			MethodName: "CancelOrder",
			Handler:    _ShopService_CancelOrder_Handler,
		},
		{
			MethodName: "GetOrder",
			Handler:    _ShopService_GetOrder_Handler,
		},
		{
			MethodName: "ListOrders",
			Handler:    _ShopService_ListOrders_Handler,
		},
		{
			MethodName: "GetItem",
			Handler:    _ShopService_GetItem_Handler,
		},
		{
			MethodName: "SearchItems",
			Handler:    _ShopService_SearchItems_Handler,
		},
		{
			MethodName: "CreateItem",
			Handler:    _ShopService_CreateItem_Handler,
		},
		{
			MethodName: "UpdateItem",
			Handler:    _ShopService_UpdateItem_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shop/v1/shop_service.go",
}
