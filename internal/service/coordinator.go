package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/transport"
)

// DefaultPageSize is the page size used before the user picks one.
const DefaultPageSize = 20

// TransportInterface is the backend the coordinator issues searches against.
type TransportInterface interface {
	ListRestaurants(ctx context.Context, l domain.Listing) ([]domain.Restaurant, error)
	QueryRestaurants(ctx context.Context, q domain.Query) ([]domain.Restaurant, error)
	GetByID(ctx context.Context, id int) (domain.Restaurant, error)
	Nearby(ctx context.Context, n domain.Nearby) ([]domain.Restaurant, error)
	SemanticSearch(ctx context.Context, s domain.Semantic) ([]domain.RankedRestaurant, error)
	ImageSearch(ctx context.Context, img domain.Image) ([]domain.Restaurant, error)
	ListCountries(ctx context.Context) ([]string, error)
}

// StalePolicy decides what happens when an older request completes after a
// newer one was issued.
type StalePolicy int

const (
	// StaleLastWriteWins applies every completion in the order it arrives.
	StaleLastWriteWins StalePolicy = iota
	// StaleDiscard drops completions of requests that are no longer the latest.
	StaleDiscard
)

func (p StalePolicy) String() string {
	if p == StaleDiscard {
		return "discard"
	}
	return "last-write-wins"
}

// ParseStalePolicy accepts "last-write-wins" (or empty) and "discard".
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-write-wins", "lww":
		return StaleLastWriteWins, nil
	case "discard":
		return StaleDiscard, nil
	}
	return StaleLastWriteWins, fmt.Errorf("unknown stale response policy %q", s)
}

// State is a snapshot of the session's search state.
type State struct {
	Results  domain.ResultSet
	Loading  bool
	Err      string
	Page     int
	PageSize int
	Mode     domain.Mode
	Request  domain.Request
}

// Ranked reports whether the results carry similarity scores.
func (s State) Ranked() bool { return s.Results.IsRanked() }

// Paginable reports whether the last search can move between pages.
func (s State) Paginable() bool { return s.Mode.Paginable() }

// HasSearch reports whether any search has been issued since the last clear.
func (s State) HasSearch() bool { return s.Mode != "" }

// CoordinatorOption configures the Coordinator.
type CoordinatorOption func(*Coordinator)

// WithStalePolicy sets how late completions are handled.
func WithStalePolicy(p StalePolicy) CoordinatorOption {
	return func(c *Coordinator) {
		c.policy = p
	}
}

// WithDefaultPageSize sets the initial page size.
func WithDefaultPageSize(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.state.PageSize = n
		}
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(l *zap.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// Coordinator owns one session's search state. Every operation blocks until
// the backend answers, records the outcome in the state, and returns the
// error it recorded.
type Coordinator struct {
	transport TransportInterface
	policy    StalePolicy
	logger    *zap.Logger

	mu         sync.Mutex
	state      State
	generation uint64
}

// NewCoordinator creates a coordinator with empty results on page 1.
func NewCoordinator(t TransportInterface, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		transport: t,
		logger:    zap.NewNop(),
		state: State{
			Results:  domain.EmptyResults(),
			Page:     1,
			PageSize: DefaultPageSize,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Results = s.Results.Clone()
	return s
}

// Policy returns the stale response policy in effect.
func (c *Coordinator) Policy() StalePolicy {
	return c.policy
}

// Countries passes through to the backend; it never touches the state.
func (c *Coordinator) Countries(ctx context.Context) ([]string, error) {
	return c.transport.ListCountries(ctx)
}

// Browse lists every restaurant, one page at a time.
func (c *Coordinator) Browse(ctx context.Context, page, limit int) error {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = c.State().PageSize
	}
	return c.listing(ctx, domain.ModeBrowse, domain.Listing{Page: page, Limit: limit})
}

// SearchListing runs a filtered, paginable listing.
func (c *Coordinator) SearchListing(ctx context.Context, l domain.Listing) error {
	if l.Page < 1 {
		l.Page = 1
	}
	if l.Limit < 1 {
		l.Limit = c.State().PageSize
	}
	return c.listing(ctx, domain.ModeListing, l)
}

func (c *Coordinator) listing(ctx context.Context, mode domain.Mode, l domain.Listing) error {
	return c.run(ctx, pending{mode: mode, request: l, page: l.Page, pageSize: l.Limit}, func(ctx context.Context) (domain.ResultSet, error) {
		items, err := c.transport.ListRestaurants(ctx, l)
		return domain.PlainResults(items), err
	})
}

// SearchQuery runs a free-text search.
func (c *Coordinator) SearchQuery(ctx context.Context, q domain.Query) error {
	return c.run(ctx, pending{mode: domain.ModeQuery, request: q, page: 1, pageSize: q.Limit}, func(ctx context.Context) (domain.ResultSet, error) {
		items, err := c.transport.QueryRestaurants(ctx, q)
		return domain.PlainResults(items), err
	})
}

// GetByID looks up one restaurant; success yields a single-element result.
func (c *Coordinator) GetByID(ctx context.Context, id int) error {
	return c.run(ctx, pending{mode: domain.ModeRestaurantID, request: domain.ByID{ID: id}, page: 1}, func(ctx context.Context) (domain.ResultSet, error) {
		r, err := c.transport.GetByID(ctx, id)
		if err != nil {
			return domain.EmptyResults(), err
		}
		return domain.PlainResults([]domain.Restaurant{r}), nil
	})
}

// SearchNearby runs a radius search around a point.
func (c *Coordinator) SearchNearby(ctx context.Context, n domain.Nearby) error {
	return c.run(ctx, pending{mode: domain.ModeNearby, request: n, page: 1, pageSize: n.Limit}, func(ctx context.Context) (domain.ResultSet, error) {
		items, err := c.transport.Nearby(ctx, n)
		return domain.PlainResults(items), err
	})
}

// SemanticSearch runs a similarity search; the results are ranked.
func (c *Coordinator) SemanticSearch(ctx context.Context, s domain.Semantic) error {
	return c.run(ctx, pending{mode: domain.ModeSemantic, request: s, page: 1, pageSize: s.Limit}, func(ctx context.Context) (domain.ResultSet, error) {
		items, err := c.transport.SemanticSearch(ctx, s)
		return domain.RankedResults(items), err
	})
}

// ImageSearch runs a photo search near a point.
func (c *Coordinator) ImageSearch(ctx context.Context, img domain.Image) error {
	return c.run(ctx, pending{mode: domain.ModeImage, request: img, page: 1}, func(ctx context.Context) (domain.ResultSet, error) {
		items, err := c.transport.ImageSearch(ctx, img)
		return domain.PlainResults(items), err
	})
}

// Submit dispatches a request to the matching search operation.
func (c *Coordinator) Submit(ctx context.Context, req domain.Request) error {
	switch r := req.(type) {
	case domain.Listing:
		return c.SearchListing(ctx, r)
	case domain.Query:
		return c.SearchQuery(ctx, r)
	case domain.ByID:
		return c.GetByID(ctx, r.ID)
	case domain.Nearby:
		return c.SearchNearby(ctx, r)
	case domain.Semantic:
		return c.SemanticSearch(ctx, r)
	case domain.Image:
		return c.ImageSearch(ctx, r)
	case nil:
		return domain.NewDomainError(domain.ErrCodeValidation, "no search request")
	}
	return domain.NewDomainError(domain.ErrCodeInternalError, fmt.Sprintf("unsupported search request %T", req))
}

// SetPage re-issues the last listing with a new page. Searches that cannot
// paginate are left untouched. With no search yet only the page is recorded.
func (c *Coordinator) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		return domain.ErrInvalidPage
	}

	c.mu.Lock()
	mode, last := c.state.Mode, c.state.Request
	if mode == "" {
		c.state.Page = page
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if !mode.Paginable() {
		return nil
	}
	l, ok := last.(domain.Listing)
	if !ok {
		return nil
	}
	l.Page = page
	return c.listing(ctx, mode, l)
}

// SetPageSize re-issues the last search with a new limit. Listings restart on
// page 1; photo searches and id lookups ignore the change.
func (c *Coordinator) SetPageSize(ctx context.Context, size int) error {
	if size < 1 {
		return domain.ErrInvalidPageSize
	}

	c.mu.Lock()
	mode, last := c.state.Mode, c.state.Request
	switch mode {
	case domain.ModeImage, domain.ModeRestaurantID:
		c.mu.Unlock()
		return nil
	case "":
		c.state.PageSize = size
		c.state.Page = 1
		c.mu.Unlock()
		return nil
	}
	c.state.PageSize = size
	c.state.Page = 1
	c.mu.Unlock()

	switch r := last.(type) {
	case domain.Listing:
		r.Page = 1
		r.Limit = size
		return c.listing(ctx, mode, r)
	case domain.Query:
		r.Limit = size
		return c.SearchQuery(ctx, r)
	case domain.Nearby:
		r.Limit = size
		return c.SearchNearby(ctx, r)
	case domain.Semantic:
		r.Limit = size
		return c.SemanticSearch(ctx, r)
	}
	return nil
}

// Clear drops the results and forgets the last search.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.state = State{
		Results:  domain.EmptyResults(),
		Page:     1,
		PageSize: c.state.PageSize,
	}
}

type pending struct {
	mode     domain.Mode
	request  domain.Request
	page     int
	pageSize int
}

func (c *Coordinator) run(ctx context.Context, p pending, fetch func(context.Context) (domain.ResultSet, error)) error {
	gen := c.begin(p)

	results, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.policy == StaleDiscard && gen != c.generation {
		c.logger.Debug("discarding stale response",
			zap.String("mode", string(p.mode)),
			zap.Uint64("generation", gen),
			zap.Uint64("latest", c.generation),
		)
		return err
	}

	c.state.Loading = false
	c.state.Mode = p.mode
	c.state.Request = p.request
	// Page and size follow the attempted request even when it fails, so a
	// retry or the pager starts from what was asked for.
	c.state.Page = p.page
	if p.pageSize > 0 {
		c.state.PageSize = p.pageSize
	}

	if err != nil {
		c.state.Results = domain.EmptyResults()
		c.state.Err = transport.Message(err)
		c.logger.Warn("search failed",
			zap.String("mode", string(p.mode)),
			zap.Error(err),
		)
		return err
	}

	c.state.Results = results
	c.state.Err = ""
	c.logger.Debug("search completed",
		zap.String("mode", string(p.mode)),
		zap.Int("page", p.page),
		zap.Int("results", results.Len()),
	)
	return nil
}

func (c *Coordinator) begin(p pending) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.state.Loading = true
	c.state.Err = ""
	c.state.Mode = p.mode
	c.state.Request = p.request
	return c.generation
}
