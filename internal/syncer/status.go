package syncer

import (
	"github.com/avolkov/vitrine/internal/catalog"
	"github.com/avolkov/vitrine/pkg/models"
)

// Mode selects how pages for one query are held in the cache.
type Mode string

const (
	// ModePaged caches a single envelope per query signature.
	ModePaged Mode = "paged"
	// ModeInfinite accumulates consecutive envelopes for infinite scroll.
	ModeInfinite Mode = "infinite"
)

// Status is the fetch state of one cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Signature returns the deterministic cache key for a query. In infinite mode
// the page number is not part of the key: the accumulation owns all pages.
func Signature(spec catalog.QuerySpec, mode Mode) string {
	if mode == ModeInfinite {
		spec = spec.WithPage(1)
	}
	return string(mode) + "|" + spec.Values().Encode()
}

// View is a read-only copy of one cache entry handed to consumers. Mutating
// a View has no effect on the cache.
type View struct {
	Pages  []catalog.Page[models.Product]
	Status Status
	Err    error
	Stale  bool
}

// Products flattens the accumulated pages in page order.
func (v View) Products() []models.Product {
	var out []models.Product
	for _, p := range v.Pages {
		out = append(out, p.Data...)
	}
	return out
}

// entry is one cached query. All fields are guarded by the Synchronizer mutex.
type entry struct {
	spec   catalog.QuerySpec
	mode   Mode
	pages  []catalog.Page[models.Product]
	status Status
	err    error
	stale  bool
}

func (e *entry) view() View {
	return View{
		Pages:  clonePages(e.pages),
		Status: e.status,
		Err:    e.err,
		Stale:  e.stale,
	}
}

// contains reports whether any cached page holds the product.
func (e *entry) contains(id int64) bool {
	for _, page := range e.pages {
		for _, p := range page.Data {
			if p.ID == id {
				return true
			}
		}
	}
	return false
}

// remove drops the product from every page and decrements each envelope's
// total. Reports whether anything changed.
func (e *entry) remove(id int64) bool {
	removed := false
	for i := range e.pages {
		data := e.pages[i].Data
		for j, p := range data {
			if p.ID == id {
				e.pages[i].Data = append(data[:j:j], data[j+1:]...)
				removed = true
				break
			}
		}
	}
	if removed {
		for i := range e.pages {
			if e.pages[i].Total > 0 {
				e.pages[i].Total--
			}
		}
	}
	return removed
}

func clonePages(pages []catalog.Page[models.Product]) []catalog.Page[models.Product] {
	out := make([]catalog.Page[models.Product], len(pages))
	for i, p := range pages {
		data := make([]models.Product, len(p.Data))
		copy(data, p.Data)
		p.Data = data
		out[i] = p
	}
	return out
}
