package apiresponse

// PaginatedResult is a page of items produced by a repository.
type PaginatedResult interface {
	Total() int64
	PerPage() int
	CurrentPage() int
}

// PageInfo summarises a PaginatedResult for clients.
type PageInfo struct {
	Pages   int64 `json:"pages"`
	Items   int64 `json:"items"`
	Current int   `json:"current"`
	Limit   int   `json:"limit"`
}

// NewPageInfo derives page counts from p. Pages is ceil(total/perPage), or
// 0 when perPage is not positive.
func NewPageInfo(p PaginatedResult) PageInfo {
	total := p.Total()
	perPage := p.PerPage()

	var pages int64
	if perPage > 0 {
		pages = (total + int64(perPage) - 1) / int64(perPage)
	}

	return PageInfo{
		Pages:   pages,
		Items:   total,
		Current: p.CurrentPage(),
		Limit:   perPage,
	}
}

// Page is a ready-made PaginatedResult carrying its items.
type Page[T any] struct {
	Items   []T
	total   int64
	perPage int
	current int
}

// NewPage wraps one page of items.
func NewPage[T any](items []T, total int64, perPage, current int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, total: total, perPage: perPage, current: current}
}

func (p Page[T]) Total() int64     { return p.total }
func (p Page[T]) PerPage() int     { return p.perPage }
func (p Page[T]) CurrentPage() int { return p.current }
