package grpcsvc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// toStatus переводит доменную ошибку в gRPC статус. Детали внутренних
// сбоев наружу не уходят.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return status.Errorf(codes.FailedPrecondition, "insufficient stock for item %s", stockErr.ItemID)
	case errors.Is(err, domain.ErrInternal):
		return status.Error(codes.Internal, "internal error")
	case errors.Is(err, domain.ErrAccountRequired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrStockOverflow):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
