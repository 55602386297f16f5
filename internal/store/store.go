// Package store holds the in-memory mirrors of backend resource collections.
//
// A Resource keeps one list slice and one "current" record plus the
// loading/error/pagination metadata around them. Every action follows the
// same contract: loading on and error cleared before the call, the slice
// replaced wholesale on success, the error recorded and prior data kept on
// failure. Each slice carries a request sequence number so that a response
// older than the newest request of that slice is dropped.
package store

import (
	"context"
	"io"
	"log"
	"sync"

	"commerce-storefront/internal/apiclient"
	"commerce-storefront/internal/domain"
)

// Pagination mirrors the paging metadata of the last applied list response.
type Pagination struct {
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	CurrentPage   int   `json:"currentPage"`
	Size          int   `json:"size"`
}

// State is a read-only snapshot of a Resource. Error is empty when unset.
type State[S, D any, C Criteria] struct {
	Items      []S        `json:"items"`
	Current    *D         `json:"current"`
	Filters    Filters[C] `json:"filters"`
	Pagination Pagination `json:"pagination"`
	IsLoading  bool       `json:"isLoading"`
	Error      string     `json:"error,omitempty"`
}

// Lister fetches one page of the resource.
type Lister[S any, C Criteria] func(ctx context.Context, f Filters[C]) (domain.Page[S], error)

// Options configure a Resource.
type Options[C Criteria] struct {
	Name         string
	Defaults     Filters[C]
	ListFallback string
	Logger       *log.Logger
}

// Resource is the generic store. S is the list item type, D the detail type.
type Resource[S, D any, C Criteria] struct {
	name         string
	list         Lister[S, C]
	defaults     Filters[C]
	listFallback string
	logger       *log.Logger

	mu         sync.Mutex
	state      State[S, D, C]
	inflight   int
	listSeq    uint64
	currentSeq uint64
	subs       map[int]func(State[S, D, C])
	nextSub    int
	version    uint64

	// notifyMu serialises delivery; delivered is the newest version handed
	// to subscribers.
	notifyMu  sync.Mutex
	delivered uint64
}

func NewResource[S, D any, C Criteria](list Lister[S, C], opts Options[C]) *Resource[S, D, C] {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	defaults := opts.Defaults
	if defaults.Size <= 0 {
		defaults.Size = DefaultPageSize
	}
	return &Resource[S, D, C]{
		name:         opts.Name,
		list:         list,
		defaults:     defaults,
		listFallback: opts.ListFallback,
		logger:       logger,
		state: State[S, D, C]{
			Items:   []S{},
			Filters: defaults,
		},
		subs: make(map[int]func(State[S, D, C])),
	}
}

// Snapshot returns a copy of the current state. Records with a Clone method
// are deep-copied.
func (r *Resource[S, D, C]) Snapshot() State[S, D, C] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// cloner is implemented by records holding pointers or slices; snapshots use
// it to hand out copies that share no memory with the store.
type cloner[T any] interface {
	Clone() T
}

func cloneValue[T any](v T) T {
	if c, ok := any(v).(cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// clonePtr keeps the store's copy apart from the one returned to callers.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := cloneValue(*p)
	return &v
}

func (r *Resource[S, D, C]) snapshotLocked() State[S, D, C] {
	out := r.state
	out.Items = make([]S, len(r.state.Items))
	for i, item := range r.state.Items {
		out.Items[i] = cloneValue(item)
	}
	out.Current = clonePtr(r.state.Current)
	return out
}

// Subscribe registers fn to receive every new state; call the returned
// function to stop. States arrive in the order they were produced and a state
// older than one already delivered is skipped. fn runs while delivery is
// serialised, so it must not call actions of the same store synchronously.
func (r *Resource[S, D, C]) Subscribe(fn func(State[S, D, C])) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// unlockAndNotify releases the lock and publishes the state it guarded.
func (r *Resource[S, D, C]) unlockAndNotify() {
	r.version++
	version := r.version
	snap := r.snapshotLocked()
	subs := make([]func(State[S, D, C]), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	if version < r.delivered {
		return
	}
	r.delivered = version
	for _, fn := range subs {
		fn(snap)
	}
}

func (r *Resource[S, D, C]) beginLocked() {
	r.inflight++
	r.state.IsLoading = true
	r.state.Error = ""
}

func (r *Resource[S, D, C]) endLocked() {
	r.inflight--
	r.state.IsLoading = r.inflight > 0
}

func (r *Resource[S, D, C]) applyPageLocked(page domain.Page[S]) {
	items := page.Content
	if items == nil {
		items = []S{}
	}
	r.state.Items = items
	r.state.Pagination = Pagination{
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		CurrentPage:   page.Number,
		Size:          page.Size,
	}
}

// FetchList re-reads the list with the current filters.
func (r *Resource[S, D, C]) FetchList(ctx context.Context) error {
	r.mu.Lock()
	r.beginLocked()
	r.listSeq++
	seq := r.listSeq
	filters := r.state.Filters
	r.unlockAndNotify()

	page, err := r.list(ctx, filters)

	r.mu.Lock()
	r.endLocked()
	switch {
	case seq != r.listSeq:
		r.logger.Printf("store %s: dropped stale list response seq=%d latest=%d", r.name, seq, r.listSeq)
	case err != nil:
		r.state.Error = apiclient.Message(err, r.listFallback)
		r.logger.Printf("store %s: list error=%v", r.name, err)
	default:
		r.applyPageLocked(page)
	}
	r.unlockAndNotify()
	return err
}

// SetFilters replaces the criteria, returns to the first page and re-fetches.
func (r *Resource[S, D, C]) SetFilters(ctx context.Context, c C) error {
	r.mu.Lock()
	r.state.Filters.Criteria = c
	r.state.Filters.Page = 0
	r.mu.Unlock()
	return r.FetchList(ctx)
}

// ClearFilters restores the default filters and re-fetches.
func (r *Resource[S, D, C]) ClearFilters(ctx context.Context) error {
	r.mu.Lock()
	r.state.Filters = r.defaults
	r.mu.Unlock()
	return r.FetchList(ctx)
}

// Load replaces the whole filter set and re-fetches once. Zero fields fall
// back to the defaults.
func (r *Resource[S, D, C]) Load(ctx context.Context, f Filters[C]) error {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Size <= 0 {
		f.Size = r.defaults.Size
	}
	if f.SortBy == "" {
		f.SortBy = r.defaults.SortBy
	}
	if f.SortDirection == "" {
		f.SortDirection = r.defaults.SortDirection
	} else {
		f.SortDirection = NormalizeDirection(f.SortDirection)
	}
	r.mu.Lock()
	r.state.Filters = f
	r.mu.Unlock()
	return r.FetchList(ctx)
}

// SetPage moves to page p (zero-based) and re-fetches.
func (r *Resource[S, D, C]) SetPage(ctx context.Context, p int) error {
	if p < 0 {
		p = 0
	}
	r.mu.Lock()
	r.state.Filters.Page = p
	r.mu.Unlock()
	return r.FetchList(ctx)
}

// SetPageSize changes the page size, returns to the first page and re-fetches.
func (r *Resource[S, D, C]) SetPageSize(ctx context.Context, size int) error {
	if size <= 0 {
		size = r.defaults.Size
	}
	r.mu.Lock()
	r.state.Filters.Size = size
	r.state.Filters.Page = 0
	r.mu.Unlock()
	return r.FetchList(ctx)
}

// SetSort changes the ordering, returns to the first page and re-fetches.
func (r *Resource[S, D, C]) SetSort(ctx context.Context, sortBy, direction string) error {
	r.mu.Lock()
	r.state.Filters.SortBy = sortBy
	r.state.Filters.SortDirection = NormalizeDirection(direction)
	r.state.Filters.Page = 0
	r.mu.Unlock()
	return r.FetchList(ctx)
}

// ClearError drops the error message.
func (r *Resource[S, D, C]) ClearError() {
	r.mu.Lock()
	r.state.Error = ""
	r.unlockAndNotify()
}

// LoadCurrent replaces Current with the result of get.
func (r *Resource[S, D, C]) LoadCurrent(ctx context.Context, fallback string, get func(ctx context.Context) (*D, error)) (*D, error) {
	r.mu.Lock()
	r.beginLocked()
	r.currentSeq++
	seq := r.currentSeq
	r.unlockAndNotify()

	d, err := get(ctx)

	r.mu.Lock()
	r.endLocked()
	switch {
	case seq != r.currentSeq:
		r.logger.Printf("store %s: dropped stale detail response seq=%d latest=%d", r.name, seq, r.currentSeq)
	case err != nil:
		r.state.Error = apiclient.Message(err, fallback)
		r.logger.Printf("store %s: detail error=%v", r.name, err)
	default:
		r.state.Current = clonePtr(d)
	}
	r.unlockAndNotify()
	return d, err
}

// Mutate runs a server-side change and then re-reads the list with the
// current filters. Both happen inside one loading period and the list is
// published only once the re-read lands. A failed re-read is recorded in the
// state but does not turn the successful mutation into an error.
func (r *Resource[S, D, C]) Mutate(ctx context.Context, fallback string, do func(ctx context.Context) error) error {
	_, err := r.mutate(ctx, fallback, false, func(ctx context.Context) (*D, error) {
		return nil, do(ctx)
	})
	return err
}

// MutateCurrent is Mutate for changes that answer with the changed record;
// that record becomes Current together with the refreshed list.
func (r *Resource[S, D, C]) MutateCurrent(ctx context.Context, fallback string, do func(ctx context.Context) (*D, error)) (*D, error) {
	return r.mutate(ctx, fallback, true, do)
}

func (r *Resource[S, D, C]) mutate(ctx context.Context, fallback string, setCurrent bool, do func(ctx context.Context) (*D, error)) (*D, error) {
	r.mu.Lock()
	r.beginLocked()
	r.unlockAndNotify()

	d, err := do(ctx)
	if err != nil {
		r.mu.Lock()
		r.endLocked()
		r.state.Error = apiclient.Message(err, fallback)
		r.logger.Printf("store %s: mutation error=%v", r.name, err)
		r.unlockAndNotify()
		return nil, err
	}

	r.mu.Lock()
	r.listSeq++
	listSeq := r.listSeq
	var curSeq uint64
	if setCurrent {
		r.currentSeq++
		curSeq = r.currentSeq
	}
	filters := r.state.Filters
	r.mu.Unlock()

	page, listErr := r.list(ctx, filters)

	r.mu.Lock()
	r.endLocked()
	if setCurrent && curSeq == r.currentSeq {
		r.state.Current = clonePtr(d)
	}
	switch {
	case listSeq != r.listSeq:
		r.logger.Printf("store %s: dropped stale refresh seq=%d latest=%d", r.name, listSeq, r.listSeq)
	case listErr != nil:
		r.state.Error = apiclient.Message(listErr, r.listFallback)
		r.logger.Printf("store %s: refresh after mutation error=%v", r.name, listErr)
	default:
		r.applyPageLocked(page)
	}
	r.unlockAndNotify()
	return d, nil
}
