package catalog

// Page is one page's worth of results plus the total match count. Pages of
// the same spec (differing only in page number) concatenate in page order to
// the full result sequence, which is what infinite accumulation relies on.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NewPage assembles the response envelope for a fetched page.
func NewPage[T any](spec QuerySpec, items []T, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Total: total, Page: spec.Page, Limit: spec.Limit}
}

// TotalPages is ceil(Total / Limit).
func (p Page[T]) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// HasMore reports whether pages beyond this one exist. The decision uses this
// envelope's Total, so concurrent writes between fetches can skip or repeat a
// trailing page; pagination here is eventually consistent, not linearizable.
func (p Page[T]) HasMore() bool {
	return p.Page < p.TotalPages()
}

// NextPage returns the page number to fetch after this one, or false once all
// rows are covered.
func (p Page[T]) NextPage() (int, bool) {
	if !p.HasMore() {
		return 0, false
	}
	return p.Page + 1, true
}
