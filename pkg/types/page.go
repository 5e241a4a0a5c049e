package types

// Pagination is the caller-facing pagination descriptor. Two shapes
// coexist: the offset form (Offset/Limit) and the page form
// (PageNo/PageSize). The page form wins when PageNo or PageSize is set.
// Callers never branch on shape; Normalize produces the one canonical
// window used internally.
type Pagination struct {
	Offset   int
	Limit    int
	PageNo   int
	PageSize int
}

// Page is the canonical pagination window. Count <= 0 means unbounded.
type Page struct {
	Start    int
	Count    int
	PageNo   int
	PageSize int
}

// Normalize collapses both pagination shapes into a canonical window.
// When only the offset form is given, PageNo is derived from Offset/Limit
// so both directions stay consistent.
func (p Pagination) Normalize() Page {
	if p.PageNo > 0 || p.PageSize > 0 {
		pageNo := p.PageNo
		if pageNo < 1 {
			pageNo = 1
		}
		size := p.PageSize
		if size < 0 {
			size = 0
		}
		return Page{
			Start:    (pageNo - 1) * size,
			Count:    size,
			PageNo:   pageNo,
			PageSize: size,
		}
	}

	start := p.Offset
	if start < 0 {
		start = 0
	}
	out := Page{Start: start, Count: p.Limit, PageNo: 1, PageSize: p.Limit}
	if p.Limit > 0 {
		out.PageNo = start/p.Limit + 1
	}
	return out
}

// Bounded reports whether the window limits the result set.
func (p Page) Bounded() bool {
	return p.Count > 0
}

// PageInfo describes the returned page relative to the full filtered set.
type PageInfo struct {
	PageNo     int `json:"pageNo"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// PageResult is the uniform paginated read result. Total always reflects
// the unpaginated filtered count; Pagination is nil for unbounded reads.
type PageResult struct {
	Data       []Entity  `json:"data"`
	Total      int       `json:"total"`
	Pagination *PageInfo `json:"pagination,omitempty"`
}

// NewPageResult assembles a PageResult for the given window and total.
// TotalPages is ceil(total/pageSize).
func NewPageResult(data []Entity, total int, window Page) *PageResult {
	res := &PageResult{Data: data, Total: total}
	if window.Bounded() {
		res.Pagination = &PageInfo{
			PageNo:     window.PageNo,
			PageSize:   window.PageSize,
			TotalPages: (total + window.PageSize - 1) / window.PageSize,
		}
	}
	return res
}
