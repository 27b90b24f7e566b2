// Package syncer maintains a client-side, page-keyed cache of product
// listings. Reads are deduplicated per query signature, deletes are applied
// optimistically with rollback on failure, and confirmed writes invalidate
// affected entries without evicting their data.
package syncer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/avolkov/vitrine/internal/catalog"
	"github.com/avolkov/vitrine/internal/metrics"
	"github.com/avolkov/vitrine/pkg/models"
)

// refetchTimeout bounds background reconciliation fetches.
const refetchTimeout = 30 * time.Second

// API is the slice of the product client the synchronizer depends on.
type API interface {
	ListProducts(ctx context.Context, spec catalog.QuerySpec) (*catalog.Page[models.Product], error)
	DeleteProduct(ctx context.Context, id int64) error
	UploadPhoto(ctx context.Context, id int64, filename, mimeType string, r io.Reader) (*models.Product, error)
	DeletePhoto(ctx context.Context, id int64) (*models.Product, error)
}

// Synchronizer owns the listing cache. Construct one per application with
// New and tear it down with Close; there is no package-level instance.
//
// All cache edits happen while holding mu and never span a network call, so
// consumers never observe a half-applied mutation.
type Synchronizer struct {
	api    API
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	group singleflight.Group
	wg    sync.WaitGroup // background refetches
}

// New creates a Synchronizer on top of the given API client.
func New(api API, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		api:     api,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Close waits for in-flight background refetches to finish. The cache must
// not be used afterwards.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

// Peek returns the current view of a cached query without fetching.
func (s *Synchronizer) Peek(spec catalog.QuerySpec, mode Mode) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[Signature(spec, mode)]
	if !ok {
		return View{}, false
	}
	return e.view(), true
}

// Query serves one page in paged mode: from cache when fresh, otherwise via a
// deduplicated fetch. On fetch failure the last-good page is returned
// alongside the error so callers can keep displaying it.
func (s *Synchronizer) Query(ctx context.Context, spec catalog.QuerySpec) (catalog.Page[models.Product], error) {
	sig := Signature(spec, ModePaged)

	s.mu.Lock()
	e := s.ensureEntry(sig, spec, ModePaged)
	if e.status == StatusSuccess && !e.stale {
		page := firstPage(e)
		s.mu.Unlock()
		metrics.CacheHits.Inc()
		return page, nil
	}
	prev := e.status
	e.status = StatusFetching
	s.mu.Unlock()
	metrics.CacheMisses.Inc()

	page, err := s.fetchPage(ctx, sig, spec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			// The requester went away mid-fetch; discard the outcome.
			e.status = prev
			return firstPage(e), err
		}
		e.status = StatusError
		e.err = err
		return firstPage(e), err
	}

	e.pages = []catalog.Page[models.Product]{*page}
	e.status = StatusSuccess
	e.err = nil
	e.stale = false
	return firstPage(e), nil
}

// Pages serves an infinite accumulation: the loaded pages when any exist
// (scheduling a background refresh if the entry is stale), otherwise page 1
// is fetched first.
func (s *Synchronizer) Pages(ctx context.Context, spec catalog.QuerySpec) (View, error) {
	sig := Signature(spec, ModeInfinite)
	first := spec.WithPage(1)

	s.mu.Lock()
	e := s.ensureEntry(sig, first, ModeInfinite)
	if len(e.pages) > 0 {
		if e.stale && e.status != StatusFetching {
			e.status = StatusFetching
			s.refetchAsync(sig)
		}
		v := e.view()
		s.mu.Unlock()
		metrics.CacheHits.Inc()
		return v, nil
	}
	prev := e.status
	e.status = StatusFetching
	s.mu.Unlock()
	metrics.CacheMisses.Inc()

	page, err := s.fetchPage(ctx, sig, first)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			e.status = prev
			return e.view(), err
		}
		e.status = StatusError
		e.err = err
		return e.view(), err
	}

	e.pages = []catalog.Page[models.Product]{*page}
	e.status = StatusSuccess
	e.err = nil
	e.stale = false
	return e.view(), nil
}

// FetchNext extends an infinite accumulation by one page. It reports whether
// a page was fetched. While a fetch for the accumulation is outstanding, or
// when all rows are already covered, it returns false without issuing a
// request; a scroll trigger can therefore fire repeatedly without enqueueing
// duplicate fetches.
func (s *Synchronizer) FetchNext(ctx context.Context, spec catalog.QuerySpec) (bool, error) {
	sig := Signature(spec, ModeInfinite)

	s.mu.Lock()
	e := s.ensureEntry(sig, spec.WithPage(1), ModeInfinite)
	if e.status == StatusFetching {
		s.mu.Unlock()
		return false, nil
	}
	if len(e.pages) == 0 {
		s.mu.Unlock()
		_, err := s.Pages(ctx, spec)
		return err == nil, err
	}
	last := e.pages[len(e.pages)-1]
	next, ok := last.NextPage()
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	prev := e.status
	e.status = StatusFetching
	s.mu.Unlock()

	page, err := s.fetchPage(ctx, fmt.Sprintf("%s#%d", sig, next), spec.WithPage(next))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			e.status = prev
			return false, err
		}
		e.status = StatusError
		e.err = err
		return false, err
	}

	// Append only if the accumulation still expects this page; a concurrent
	// reconciliation may have replaced the entry's contents.
	if n := len(e.pages); n > 0 && e.pages[n-1].Page == next-1 {
		e.pages = append(e.pages, *page)
	}
	e.status = StatusSuccess
	e.err = nil
	return true, nil
}

// HasMore reports whether an infinite accumulation has pages left to fetch.
// An accumulation that has not loaded anything yet reports true.
func (s *Synchronizer) HasMore(spec catalog.QuerySpec) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[Signature(spec, ModeInfinite)]
	if !ok || len(e.pages) == 0 {
		return true
	}
	return e.pages[len(e.pages)-1].HasMore()
}

// DeleteProduct removes the product optimistically from every cached entry,
// then confirms with the server. On success the affected entries are marked
// stale and reconciled in the background; on failure every entry is restored
// to its exact pre-delete state and the error is surfaced.
func (s *Synchronizer) DeleteProduct(ctx context.Context, id int64) error {
	m := s.beginDelete(id)

	if err := s.api.DeleteProduct(ctx, id); err != nil {
		s.rollbackDelete(m)
		s.logger.Warn("optimistic delete rolled back",
			zap.Int64("product", id),
			zap.Int("entries", len(m.snapshots)),
			zap.Error(err),
		)
		return err
	}

	s.commitDelete(m)
	return nil
}

// AttachPhoto uploads a photo and, once the server confirms, invalidates
// every cached entry containing the product so the new photoUrl is refetched
// rather than guessed. Not optimistic.
func (s *Synchronizer) AttachPhoto(ctx context.Context, id int64, filename, mimeType string, r io.Reader) (*models.Product, error) {
	p, err := s.api.UploadPhoto(ctx, id, filename, mimeType, r)
	if err != nil {
		return nil, err
	}
	s.invalidateProduct(id)
	return p, nil
}

// DetachPhoto clears a photo server-side, then invalidates entries containing
// the product. Not optimistic.
func (s *Synchronizer) DetachPhoto(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.api.DeletePhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateProduct(id)
	return p, nil
}

// beginDelete snapshots and edits every entry containing the product. The
// whole edit happens under the lock, before any network traffic.
func (s *Synchronizer) beginDelete(id int64) *deleteMutation {
	m := &deleteMutation{
		productID: id,
		state:     MutationPending,
		snapshots: make(map[string][]catalog.Page[models.Product]),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for sig, e := range s.entries {
		if !e.contains(id) {
			continue
		}
		m.snapshots[sig] = clonePages(e.pages)
		e.remove(id)
	}
	return m
}

// commitDelete marks every affected entry stale and schedules reconciliation
// so totals catch up with the server.
func (s *Synchronizer) commitDelete(m *deleteMutation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.state = MutationCommitted
	for sig := range m.snapshots {
		s.invalidateLocked(sig)
	}
}

// rollbackDelete restores every snapshotted entry to its pre-delete pages.
func (s *Synchronizer) rollbackDelete(m *deleteMutation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.state = MutationRolledBack
	for sig, pages := range m.snapshots {
		if e, ok := s.entries[sig]; ok {
			e.pages = pages
		}
	}
	metrics.OptimisticRollbacks.Inc()
}

// invalidateProduct marks stale every entry whose pages contain the product.
func (s *Synchronizer) invalidateProduct(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sig, e := range s.entries {
		if e.contains(id) {
			s.invalidateLocked(sig)
		}
	}
}

// invalidateLocked marks an entry stale and schedules a background refetch
// unless one is already running. Entries are never evicted: their data keeps
// serving until replaced.
func (s *Synchronizer) invalidateLocked(sig string) {
	e, ok := s.entries[sig]
	if !ok {
		return
	}
	e.stale = true
	if e.status != StatusFetching {
		e.status = StatusFetching
		s.refetchAsync(sig)
	}
}

// refetchAsync reconciles an entry with the server off the caller's goroutine.
func (s *Synchronizer) refetchAsync(sig string) {
	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
		defer cancel()
		s.refetch(ctx, sig)
	}()
}

// refetch re-fetches every page an entry holds. For infinite accumulations
// the pages are walked from 1 until either the previous depth is restored or
// the server reports no more rows.
func (s *Synchronizer) refetch(ctx context.Context, sig string) {
	s.mu.Lock()
	e, ok := s.entries[sig]
	if !ok {
		s.mu.Unlock()
		return
	}
	spec := e.spec
	mode := e.mode
	depth := len(e.pages)
	if depth == 0 {
		depth = 1
	}
	s.mu.Unlock()

	var pages []catalog.Page[models.Product]
	if mode == ModePaged {
		page, err := s.fetchPage(ctx, sig, spec)
		if err != nil {
			s.recordRefetchError(sig, err)
			return
		}
		pages = []catalog.Page[models.Product]{*page}
	} else {
		for i := 1; i <= depth; i++ {
			page, err := s.fetchPage(ctx, fmt.Sprintf("%s#reconcile#%d", sig, i), spec.WithPage(i))
			if err != nil {
				s.recordRefetchError(sig, err)
				return
			}
			pages = append(pages, *page)
			if !page.HasMore() {
				break
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.pages = pages
	e.status = StatusSuccess
	e.err = nil
	e.stale = false
}

// recordRefetchError keeps the stale data in place and surfaces the error on
// the entry.
func (s *Synchronizer) recordRefetchError(sig string, err error) {
	s.logger.Warn("cache reconciliation failed", zap.String("signature", sig), zap.Error(err))
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[sig]; ok {
		e.status = StatusError
		e.err = err
	}
}

// fetchPage issues one listing fetch, deduplicated by key: concurrent calls
// for the same key share a single network request.
func (s *Synchronizer) fetchPage(ctx context.Context, key string, spec catalog.QuerySpec) (*catalog.Page[models.Product], error) {
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.api.ListProducts(ctx, spec)
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Page[models.Product]), nil
}

// ensureEntry returns the entry for sig, creating an idle one if absent.
// Callers must hold mu.
func (s *Synchronizer) ensureEntry(sig string, spec catalog.QuerySpec, mode Mode) *entry {
	e, ok := s.entries[sig]
	if !ok {
		e = &entry{spec: spec, mode: mode, status: StatusIdle}
		s.entries[sig] = e
	}
	return e
}

// firstPage copies the entry's first page, or returns a zero page when the
// entry holds nothing. Callers must hold mu.
func firstPage(e *entry) catalog.Page[models.Product] {
	if len(e.pages) == 0 {
		return catalog.Page[models.Product]{}
	}
	return clonePages(e.pages[:1])[0]
}
