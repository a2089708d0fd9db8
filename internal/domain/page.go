package domain

const (
	// DefaultOrderPageSize — размер страницы истории заказов.
	DefaultOrderPageSize = 4
	// DefaultCatalogPageSize — размер страницы витрины.
	DefaultCatalogPageSize = 6
	// DefaultAdminPageSize — размер страницы в админском списке товаров.
	DefaultAdminPageSize = 3
	// MaxPageSize ограничивает размер страницы сверху.
	MaxPageSize = 100
)

// PageRequest — номер страницы (с нуля) и её размер.
type PageRequest struct {
	Page int
	Size int
}

// Normalize подставляет размер по умолчанию и отсекает некорректные значения.
func (p PageRequest) Normalize(defaultSize int) PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset возвращает смещение первой записи страницы.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page — страница результатов с общим количеством записей.
type Page[T any] struct {
	Items []T
	Page  int
	Size  int
	Total int
}

// TotalPages возвращает количество страниц.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}

// Paginate нарезает уже отсортированный срез в страницу.
func Paginate[T any](all []T, req PageRequest) Page[T] {
	page := Page[T]{Items: []T{}, Page: req.Page, Size: req.Size, Total: len(all)}
	start := req.Offset()
	if start >= len(all) {
		return page
	}
	end := start + req.Size
	if end > len(all) {
		end = len(all)
	}
	page.Items = append(page.Items, all[start:end]...)
	return page
}
