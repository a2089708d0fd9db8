package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestNewItemValidate(t *testing.T) {
	tests := []struct {
		name string
		item domain.NewItem
		want error
	}{
		{name: "valid", item: domain.NewItem{Name: "mug", PriceMinor: 100, StockQty: 1}},
		{name: "blank name", item: domain.NewItem{Name: "  "}, want: domain.ErrItemNameRequired},
		{name: "negative price", item: domain.NewItem{Name: "mug", PriceMinor: -1}, want: domain.ErrItemPriceInvalid},
		{name: "negative stock", item: domain.NewItem{Name: "mug", StockQty: -1}, want: domain.ErrItemStockInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.item.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestItemUpdateApply(t *testing.T) {
	item := domain.Item{ID: "item-1", Name: "mug", PriceMinor: 100, StockQty: 5, SellStatus: domain.SellStatusSell}

	price := int64(150)
	name := "big mug"
	updated, err := domain.ItemUpdate{Name: &name, PriceMinor: &price}.Apply(item)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if updated.Name != "big mug" || updated.PriceMinor != 150 || updated.StockQty != 5 {
		t.Fatalf("unexpected item after update: %+v", updated)
	}

	badStatus := domain.SellStatus("GONE")
	if _, err := (domain.ItemUpdate{SellStatus: &badStatus}).Apply(item); !errors.Is(err, domain.ErrSellStatusInvalid) {
		t.Fatalf("expected ErrSellStatusInvalid, got %v", err)
	}

	negative := int64(-1)
	if _, err := (domain.ItemUpdate{StockQty: &negative}).Apply(item); !errors.Is(err, domain.ErrItemStockInvalid) {
		t.Fatalf("expected ErrItemStockInvalid, got %v", err)
	}
}

func TestItemSearchMatches(t *testing.T) {
	created := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	item := domain.Item{
		Name:        "Blue Mug",
		Description: "ceramic cup",
		Category:    "kitchen",
		SellStatus:  domain.SellStatusSell,
		CreatedAt:   created,
	}

	tests := []struct {
		name     string
		criteria domain.ItemSearch
		want     bool
	}{
		{name: "empty criteria", criteria: domain.ItemSearch{}, want: true},
		{name: "keyword in name", criteria: domain.ItemSearch{Keyword: "mug"}, want: true},
		{name: "keyword in description", criteria: domain.ItemSearch{Keyword: "CERAMIC"}, want: true},
		{name: "keyword only by name", criteria: domain.ItemSearch{Keyword: "ceramic", SearchBy: domain.SearchByName}, want: false},
		{name: "category", criteria: domain.ItemSearch{Category: "Kitchen"}, want: true},
		{name: "other category", criteria: domain.ItemSearch{Category: "garden"}, want: false},
		{name: "sell status", criteria: domain.ItemSearch{SellStatus: domain.SellStatusSoldOut}, want: false},
		{name: "created since", criteria: domain.ItemSearch{CreatedSince: created.Add(time.Hour)}, want: false},
		{name: "created until", criteria: domain.ItemSearch{CreatedUntil: created.Add(time.Hour)}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.criteria.Matches(item); got != tt.want {
				t.Fatalf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateWindowSince(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if got := domain.DateWindowSince("1w", now); !got.Equal(now.AddDate(0, 0, -7)) {
		t.Fatalf("unexpected 1w bound %v", got)
	}
	if got := domain.DateWindowSince("6m", now); !got.Equal(now.AddDate(0, -6, 0)) {
		t.Fatalf("unexpected 6m bound %v", got)
	}
	if got := domain.DateWindowSince("all", now); !got.IsZero() {
		t.Fatalf("unknown window must be zero, got %v", got)
	}
}

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5, 6, 7}

	page := domain.Paginate(all, domain.PageRequest{Page: 1, Size: 3})
	if len(page.Items) != 3 || page.Items[0] != 4 || page.Total != 7 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.TotalPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", page.TotalPages())
	}

	empty := domain.Paginate(all, domain.PageRequest{Page: 5, Size: 3})
	if len(empty.Items) != 0 || empty.Total != 7 {
		t.Fatalf("page beyond range must be empty: %+v", empty)
	}

	req := domain.PageRequest{Page: -1, Size: 0}.Normalize(domain.DefaultOrderPageSize)
	if req.Page != 0 || req.Size != domain.DefaultOrderPageSize {
		t.Fatalf("unexpected normalized request %+v", req)
	}
}
