package grpcsvc

import (
	shopv1 "github.com/vladislavdragonenkov/storefront/api/shop/v1"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func toItem(item domain.Item) shopv1.Item {
	return shopv1.Item{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		PriceMinor:  item.PriceMinor,
		StockQty:    item.StockQty,
		SellStatus:  string(item.SellStatus),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func toCartLine(view domain.CartLineView) shopv1.CartLine {
	return shopv1.CartLine{
		ID:             view.Line.ID,
		ItemID:         view.Line.ItemID,
		ItemName:       view.ItemName,
		Quantity:       view.Line.Quantity,
		UnitPriceMinor: view.UnitPriceMinor,
		SubtotalMinor:  view.SubtotalMinor(),
		StockQty:       view.StockQty,
		SellStatus:     string(view.SellStatus),
	}
}

func toOrder(order domain.Order) shopv1.Order {
	lines := make([]shopv1.OrderLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, shopv1.OrderLine{
			ID:             line.ID,
			ItemID:         line.ItemID,
			ItemName:       line.ItemName,
			Quantity:       line.Quantity,
			UnitPriceMinor: line.UnitPriceMinor,
		})
	}
	return shopv1.Order{
		ID:         order.ID,
		AccountID:  order.AccountID,
		Status:     string(order.Status),
		TotalMinor: order.TotalMinor(),
		Lines:      lines,
		OrderedAt:  order.OrderedAt,
		UpdatedAt:  order.UpdatedAt,
	}
}
