package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"stockwizard/internal/domain"
)

// Search defaults
const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultSearchLimit = 8
)

// SearchState is the lifecycle state of a SearchController
type SearchState string

// SearchState constants
const (
	SearchIdle       SearchState = "idle"
	SearchDebouncing SearchState = "debouncing"
	SearchQuerying   SearchState = "querying"
	SearchDisplaying SearchState = "displaying"
)

// Search actions offered for a match
const (
	ActionAdd  = "add"
	ActionView = "view"
)

// SearchMatch is a ticker hit annotated with watchlist membership
type SearchMatch struct {
	domain.TickerMatch
	Tracked bool   `json:"tracked"`
	Action  string `json:"action"`
}

// SearchResult is what a Search call resolves to. Stale results were
// superseded by a newer query or a dismiss and must not be displayed.
type SearchResult struct {
	Query   string        `json:"query"`
	State   SearchState   `json:"state"`
	Matches []SearchMatch `json:"matches"`
	Error   string        `json:"error,omitempty"`
	Stale   bool          `json:"stale"`
}

// SelectOutcome describes what selecting a search match did
type SelectOutcome struct {
	Symbol string `json:"symbol"`
	Action string `json:"action"` // "added" or "view"
	Path   string `json:"path,omitempty"`
}

// SearchController debounces ticker lookups and keeps only the newest
// request. Every Search or Dismiss takes a new token; a request whose token
// is no longer current is discarded, whether it is still waiting out the
// debounce or already querying.
type SearchController struct {
	searcher domain.TickerSearcher
	debounce time.Duration
	limit    int

	mu         sync.Mutex
	token      uint64
	superseded chan struct{}
	state      SearchState
	last       *SearchResult
}

// NewSearchController creates a controller. Non-positive debounce and
// limit fall back to the defaults.
func NewSearchController(searcher domain.TickerSearcher, debounce time.Duration, limit int) *SearchController {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &SearchController{
		searcher: searcher,
		debounce: debounce,
		limit:    limit,
		state:    SearchIdle,
	}
}

// State returns the current state
func (c *SearchController) State() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Last returns the result currently displayed, if any
func (c *SearchController) Last() *SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	cp := *c.last
	return &cp
}

// Search waits out the debounce, queries the searcher and annotates matches
// with isTracked. A blank query returns the controller to idle.
func (c *SearchController) Search(ctx context.Context, query string, isTracked func(string) bool) (SearchResult, error) {
	query = strings.TrimSpace(query)

	token, superseded := c.begin(query)
	if query == "" {
		return SearchResult{Query: query, State: SearchIdle, Matches: []SearchMatch{}}, nil
	}

	timer := time.NewTimer(c.debounce)
	defer timer.Stop()

	select {
	case <-superseded:
		return c.stale(query), nil
	case <-ctx.Done():
		c.abandon(token)
		return SearchResult{}, ctx.Err()
	case <-timer.C:
	}

	if !c.transition(token, SearchQuerying) {
		return c.stale(query), nil
	}

	matches, err := c.searcher.Search(ctx, query, c.limit)

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token {
		return c.stale(query), nil
	}

	result := SearchResult{Query: query, State: SearchDisplaying, Matches: []SearchMatch{}}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.state = SearchIdle
			return SearchResult{}, err
		}
		result.Error = "Search failed. Please try again."
	} else {
		for _, m := range matches {
			result.Matches = append(result.Matches, annotate(m, isTracked))
		}
	}

	c.state = SearchDisplaying
	c.last = &result
	return result, nil
}

// Dismiss invalidates any pending request and returns to idle
func (c *SearchController) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.advanceLocked()
	c.state = SearchIdle
	c.last = nil
}

// Select acts on a search match: an untracked symbol is added through
// store, a tracked one yields a view navigation. The controller is
// dismissed either way.
func (c *SearchController) Select(ctx context.Context, symbol string, store *WatchlistStore) (SelectOutcome, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return SelectOutcome{}, fmt.Errorf("%w: symbol is required", domain.ErrValidationFailed)
	}

	tracked, err := store.Tracked(ctx, symbol)
	if err != nil {
		return SelectOutcome{}, err
	}
	if tracked {
		c.Dismiss()
		return SelectOutcome{Symbol: symbol, Action: ActionView, Path: StockPath(symbol)}, nil
	}

	if err := store.Add(ctx, symbol); err != nil {
		return SelectOutcome{}, err
	}
	c.Dismiss()
	return SelectOutcome{Symbol: symbol, Action: "added"}, nil
}

// StockPath is the detail page location of symbol
func StockPath(symbol string) string {
	return "/api/stocks/" + domain.NormalizeSymbol(symbol)
}

func annotate(m domain.TickerMatch, isTracked func(string) bool) SearchMatch {
	tracked := isTracked != nil && isTracked(m.Symbol)
	action := ActionAdd
	if tracked {
		action = ActionView
	}
	return SearchMatch{TickerMatch: m, Tracked: tracked, Action: action}
}

// begin takes a new token, superseding whatever was pending
func (c *SearchController) begin(query string) (uint64, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.advanceLocked()
	if query == "" {
		c.state = SearchIdle
		c.last = nil
	} else {
		c.state = SearchDebouncing
	}
	return c.token, c.superseded
}

func (c *SearchController) advanceLocked() {
	if c.superseded != nil {
		close(c.superseded)
	}
	c.superseded = make(chan struct{})
	c.token++
}

func (c *SearchController) transition(token uint64, to SearchState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		return false
	}
	c.state = to
	return true
}

func (c *SearchController) abandon(token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == c.token {
		c.state = SearchIdle
	}
}

func (c *SearchController) stale(query string) SearchResult {
	return SearchResult{Query: query, Matches: []SearchMatch{}, Stale: true}
}
