package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"stockwizard/internal/domain"
)

// WatchlistStore is the session's in-memory mirror of the remote watchlist.
// Mutations are applied optimistically, written to the remote store as the
// full array, and rolled back to the last confirmed list when the write
// fails. The mutex serializes mutations, so every write is built from the
// current list.
type WatchlistStore struct {
	uid  uuid.UUID
	repo domain.UserRepository

	mu        sync.Mutex
	loaded    bool
	symbols   []string
	confirmed []string
}

// NewWatchlistStore creates an empty, unloaded store for uid
func NewWatchlistStore(uid uuid.UUID, repo domain.UserRepository) *WatchlistStore {
	return &WatchlistStore{uid: uid, repo: repo}
}

// Load fetches the profile and replaces the local list with its watchlist,
// uppercased and de-duplicated in first-seen order.
func (s *WatchlistStore) Load(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(s.symbols), nil
}

// EnsureLoaded loads the list from the remote store unless it is already held
func (s *WatchlistStore) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ensureLoadedLocked(ctx)
}

// Seed replaces the local list with symbols already known to be stored
func (s *WatchlistStore) Seed(symbols []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setConfirmed(domain.NormalizeSymbols(symbols))
}

// Symbols returns a copy of the current list
func (s *WatchlistStore) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.symbols)
}

// Contains reports whether symbol is in the held list, ignoring case.
// It does not load; use Tracked when the store may not be loaded yet.
func (s *WatchlistStore) Contains(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Contains(s.symbols, domain.NormalizeSymbol(symbol))
}

// Tracked loads the list if needed and reports whether symbol is tracked
func (s *WatchlistStore) Tracked(ctx context.Context, symbol string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return false, err
	}
	return slices.Contains(s.symbols, domain.NormalizeSymbol(symbol)), nil
}

// Add appends symbol and persists the list.
// It returns ErrAlreadyTracked when present and ErrSyncFailed (after
// rolling back) when the remote write fails.
func (s *WatchlistStore) Add(ctx context.Context, symbol string) error {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", domain.ErrValidationFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}
	if slices.Contains(s.symbols, symbol) {
		return fmt.Errorf("%w: %s is already in your watchlist", domain.ErrAlreadyTracked, symbol)
	}

	next := append(slices.Clone(s.symbols), symbol)
	return s.commitLocked(ctx, next, "add "+symbol)
}

// Remove drops symbol and persists the list. Removing an untracked symbol
// is a no-op and makes no remote write.
func (s *WatchlistStore) Remove(ctx context.Context, symbol string) (removed bool, err error) {
	symbol = domain.NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return false, err
	}
	if !slices.Contains(s.symbols, symbol) {
		return false, nil
	}

	next := slices.DeleteFunc(slices.Clone(s.symbols), func(x string) bool { return x == symbol })
	if err := s.commitLocked(ctx, next, "remove "+symbol); err != nil {
		return false, err
	}
	return true, nil
}

// commitLocked applies next locally, writes it remotely and either confirms
// it or restores the last confirmed list.
func (s *WatchlistStore) commitLocked(ctx context.Context, next []string, op string) error {
	s.symbols = next

	if err := s.repo.UpdateWatchlist(ctx, s.uid, next); err != nil {
		s.symbols = slices.Clone(s.confirmed)
		return fmt.Errorf("%w: failed to %s: %v", domain.ErrSyncFailed, op, err)
	}

	s.confirmed = slices.Clone(next)
	return nil
}

func (s *WatchlistStore) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

func (s *WatchlistStore) loadLocked(ctx context.Context) error {
	user, err := s.repo.GetByID(ctx, s.uid)
	if err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}
	s.setConfirmed(domain.NormalizeSymbols(user.Watchlist))
	return nil
}

func (s *WatchlistStore) setConfirmed(symbols []string) {
	s.symbols = symbols
	s.confirmed = slices.Clone(symbols)
	s.loaded = true
}
