// Package feed implements an incremental, deduplicated merchant feed: pages
// accumulate as the caller advances, search input is debounced and resets the
// feed, and completions belonging to an abandoned search are discarded so the
// visible rows always match the latest intent.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"merchant-collections/internal/core/domain"
)

// State is the lifecycle of the feed.
type State int

const (
	// StateIdle means no fetch has run for the current search term.
	StateIdle State = iota
	// StateLoading means a fetch is in flight.
	StateLoading
	// StateLoaded means at least one page is loaded and more may exist.
	StateLoaded
	// StateExhausted means every row matching the current term is loaded.
	StateExhausted
)

// Fetcher loads one page of merchants for a search term. It returns the page
// plus the exact total count of matching rows.
type Fetcher func(ctx context.Context, term string, page, pageSize int) ([]domain.Merchant, int64, error)

// Controller accumulates pages of merchants. All methods are safe for
// concurrent use. The zero value is not usable; construct with New.
type Controller struct {
	mu       sync.Mutex
	fetch    Fetcher
	pageSize int
	debounce time.Duration

	state      State
	term       string       // Term the accumulated rows belong to
	pending    string       // Term typed but not yet applied (debouncing)
	generation uint64       // Bumped on every reset; stale fetches lose
	page       int          // Next page to request, zero-based
	total      int64        // Total from the last completed fetch
	inFlight   bool
	rows       []domain.Merchant
	seen       map[uuid.UUID]struct{}
	status     *domain.MerchantStatus
	timer      *time.Timer
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize sets the page size. Default 20.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithDebounce sets the search debounce interval. Default 400ms.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// New creates a feed controller over the given fetcher.
func New(fetch Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetch:    fetch,
		pageSize: 20,
		debounce: 400 * time.Millisecond,
		seen:     make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Term returns the search term the accumulated rows belong to.
func (c *Controller) Term() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.term
}

// Total returns the total count reported by the last completed fetch.
func (c *Controller) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// SetSearch schedules a feed reset to the given term after the debounce
// interval. Repeated calls within the interval supersede each other; only
// the last term is applied. A zero debounce applies immediately.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = term
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.debounce == 0 {
		c.applySearchLocked(term)
		return
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.pending == term {
			c.applySearchLocked(term)
		}
	})
}

// applySearchLocked resets the feed for a new term. Caller holds c.mu.
func (c *Controller) applySearchLocked(term string) {
	if term == c.term && c.state != StateIdle {
		return
	}
	c.term = term
	c.generation++
	c.page = 0
	c.total = 0
	c.rows = nil
	c.seen = make(map[uuid.UUID]struct{})
	c.state = StateIdle
}

// SetStatusFilter sets the client-side status filter. The filter is a pure
// pass over the accumulated rows; it never triggers a fetch and never
// discards accumulated rows.
func (c *Controller) SetStatusFilter(status *domain.MerchantStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

// Rows returns the accumulated rows with the status filter applied.
func (c *Controller) Rows() []domain.Merchant {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == nil {
		out := make([]domain.Merchant, len(c.rows))
		copy(out, c.rows)
		return out
	}
	out := make([]domain.Merchant, 0, len(c.rows))
	for _, m := range c.rows {
		if m.Status() == *c.status {
			out = append(out, m)
		}
	}
	return out
}

// LoadNext fetches the next page for the current term. It is a no-op when a
// fetch is already in flight or the feed is exhausted. The fetch runs on the
// calling goroutine; a completion belonging to a superseded term or
// generation is discarded without touching the accumulated rows.
func (c *Controller) LoadNext(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight || c.state == StateExhausted {
		c.mu.Unlock()
		return nil
	}
	term := c.term
	gen := c.generation
	page := c.page
	c.inFlight = true
	c.state = StateLoading
	c.mu.Unlock()

	batch, total, err := c.fetch(ctx, term, page, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	// Last writer wins: a reset after dispatch invalidates this completion.
	if gen != c.generation {
		return nil
	}

	if err != nil {
		if c.page == 0 {
			c.state = StateIdle
		} else {
			c.state = StateLoaded
		}
		return err
	}

	for _, m := range batch {
		if _, dup := c.seen[m.ID]; dup {
			continue
		}
		c.seen[m.ID] = struct{}{}
		c.rows = append(c.rows, m)
	}
	c.page++
	c.total = total

	if len(batch) < c.pageSize || int64(len(c.rows)) >= total {
		c.state = StateExhausted
	} else {
		c.state = StateLoaded
	}
	return nil
}

// Drain loads pages until the feed is exhausted and returns the accumulated
// rows with the status filter applied. Used by full exports.
func (c *Controller) Drain(ctx context.Context) ([]domain.Merchant, error) {
	for {
		c.mu.Lock()
		done := c.state == StateExhausted
		c.mu.Unlock()
		if done {
			return c.Rows(), nil
		}
		if err := c.LoadNext(ctx); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}
