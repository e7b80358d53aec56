package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"stockwizard/internal/domain"
)

// ViewKey identifies a mounted view of a session
type ViewKey string

// Fixed view keys. Stock detail views use StockView.
const (
	ViewDashboard ViewKey = "dashboard"
	ViewWatchlist ViewKey = "watchlist"
	ViewPortfolio ViewKey = "portfolio"
)

const stockViewPrefix = "stock:"

// StockView returns the view key of a stock detail page
func StockView(symbol string) ViewKey {
	return ViewKey(stockViewPrefix + domain.NormalizeSymbol(symbol))
}

// ParseViewKey validates a view key such as "watchlist" or "stock:AAPL"
func ParseViewKey(s string) (ViewKey, error) {
	s = strings.TrimSpace(s)
	switch ViewKey(strings.ToLower(s)) {
	case ViewDashboard, ViewWatchlist, ViewPortfolio:
		return ViewKey(strings.ToLower(s)), nil
	}
	if len(s) > len(stockViewPrefix) && strings.EqualFold(s[:len(stockViewPrefix)], stockViewPrefix) {
		return StockView(s[len(stockViewPrefix):]), nil
	}
	return "", fmt.Errorf("%w: unknown view %q", domain.ErrValidationFailed, s)
}

// Symbol returns the stock symbol of a detail view key, "" for other views
func (k ViewKey) Symbol() string {
	if s, ok := strings.CutPrefix(string(k), stockViewPrefix); ok {
		return s
	}
	return ""
}

// Snapshot is the data a view is rendered from
type Snapshot struct {
	Symbols   []string
	Quotes    []domain.Quote
	Err       error
	FetchedAt time.Time
}

type mountedView struct {
	generation uint64
	snapshot   *Snapshot
}

// Session holds the per-identity state: the watchlist mirror, the search
// controller and the set of mounted views. A refresh result is applied only
// to views still mounted at the generation they had when the refresh began,
// and an older refresh never overwrites a newer one.
type Session struct {
	UID       uuid.UUID
	Watchlist *WatchlistStore
	Search    *SearchController

	quotes domain.QuoteProvider
	now    func() time.Time

	mu         sync.Mutex
	views      map[ViewKey]*mountedView
	generation uint64
	refreshSeq uint64
	appliedSeq uint64

	refreshing atomic.Bool
	lastAccess atomic.Int64
}

// NewSession creates a session with no mounted views
func NewSession(uid uuid.UUID, users domain.UserRepository, quotes domain.QuoteProvider, searcher domain.TickerSearcher, debounce time.Duration) *Session {
	s := &Session{
		UID:       uid,
		Watchlist: NewWatchlistStore(uid, users),
		Search:    NewSearchController(searcher, debounce, 0),
		quotes:    quotes,
		now:       time.Now,
		views:     make(map[ViewKey]*mountedView),
	}
	s.Touch(s.now())
	return s
}

// Touch records client activity at t
func (s *Session) Touch(t time.Time) {
	s.lastAccess.Store(t.UnixNano())
}

// LastAccess returns the time of the latest client activity
func (s *Session) LastAccess() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

// Mount registers a view and returns its generation. Mounting an already
// mounted view keeps its generation and snapshot.
func (s *Session) Mount(key ViewKey) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.views[key]; ok {
		return v.generation
	}
	s.generation++
	s.views[key] = &mountedView{generation: s.generation}
	return s.generation
}

// Unmount removes a view. Refreshes started before the unmount are not
// applied to it, even if the view is mounted again.
func (s *Session) Unmount(key ViewKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.views[key]; !ok {
		return false
	}
	delete(s.views, key)
	s.generation++
	return true
}

// Mounted returns the keys of every mounted view
func (s *Session) Mounted() []ViewKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]ViewKey, 0, len(s.views))
	for k := range s.views {
		keys = append(keys, k)
	}
	return keys
}

// HasMountedViews reports whether any view is mounted
func (s *Session) HasMountedViews() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views) > 0
}

// View returns the latest snapshot applied to key
func (s *Session) View(key ViewKey) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[key]
	if !ok || v.snapshot == nil {
		return Snapshot{}, false
	}
	return *v.snapshot, true
}

// Open mounts key, refreshes and returns the snapshot the view renders.
// A failed quote fetch still yields a snapshot carrying the error.
func (s *Session) Open(ctx context.Context, key ViewKey) (Snapshot, error) {
	s.Mount(key)
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, domain.ErrFetchFailed) {
		return Snapshot{}, err
	}
	snap, ok := s.View(key)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: view %s was closed", domain.ErrNotFound, key)
	}
	return snap, nil
}

// Refresh re-fetches quotes for every watchlist symbol and every mounted
// stock view in one batch and applies the result to all mounted views.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.refreshSeq++
	seq := s.refreshSeq
	gens := make(map[ViewKey]uint64, len(s.views))
	extra := make([]string, 0)
	for k, v := range s.views {
		gens[k] = v.generation
		if sym := k.Symbol(); sym != "" {
			extra = append(extra, sym)
		}
	}
	s.mu.Unlock()

	symbols := domain.NormalizeSymbols(append(s.Watchlist.Symbols(), extra...))
	quotes, err := s.quotes.GetLatest(ctx, symbols)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[WARN] Quote refresh failed for session %s: %v", s.UID, err)
		quotes = []domain.Quote{}
		if !errors.Is(err, domain.ErrFetchFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
		}
	}

	snap := &Snapshot{
		Symbols:   symbols,
		Quotes:    quotes,
		Err:       err,
		FetchedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.appliedSeq {
		return err
	}
	s.appliedSeq = seq
	for k, gen := range gens {
		v, ok := s.views[k]
		if !ok || v.generation != gen {
			continue
		}
		v.snapshot = snap
	}
	return err
}

// TryRefresh refreshes unless a TryRefresh is already outstanding.
// It reports whether a refresh ran.
func (s *Session) TryRefresh(ctx context.Context) (bool, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return false, nil
	}
	defer s.refreshing.Store(false)

	return true, s.Refresh(ctx)
}

// Track adds symbol to the watchlist and re-renders every mounted view
func (s *Session) Track(ctx context.Context, symbol string) error {
	if err := s.Watchlist.Add(ctx, symbol); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx)
	return nil
}

// Untrack removes symbol from the watchlist and re-renders every mounted
// view. It reports false without re-rendering when symbol was not tracked.
func (s *Session) Untrack(ctx context.Context, symbol string) (bool, error) {
	removed, err := s.Watchlist.Remove(ctx, symbol)
	if err != nil || !removed {
		return removed, err
	}
	s.refreshAfterMutation(ctx)
	return true, nil
}

// Toggle adds symbol when untracked and removes it otherwise.
// It reports whether symbol is tracked afterwards.
func (s *Session) Toggle(ctx context.Context, symbol string) (bool, error) {
	tracked, err := s.Watchlist.Tracked(ctx, symbol)
	if err != nil {
		return false, err
	}
	if tracked {
		_, err := s.Untrack(ctx, symbol)
		return err != nil, err
	}
	if err := s.Track(ctx, symbol); err != nil {
		return false, err
	}
	return true, nil
}

// Close unmounts every view and dismisses the search
func (s *Session) Close() {
	s.mu.Lock()
	for k := range s.views {
		delete(s.views, k)
	}
	s.generation++
	s.mu.Unlock()

	s.Search.Dismiss()
}

func (s *Session) refreshAfterMutation(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, domain.ErrFetchFailed) {
		log.Printf("[WARN] Refresh after watchlist change failed for %s: %v", s.UID, err)
	}
}
