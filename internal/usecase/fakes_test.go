package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"stockwizard/internal/domain"
)

var errStoreDown = errors.New("connection refused")

// fakeUsers stores a single watchlist per uid and records every full write
type fakeUsers struct {
	mu        sync.Mutex
	watchlist map[uuid.UUID][]string
	writes    [][]string
	failWrite error
	onWrite   func()
}

func newFakeUsers(uid uuid.UUID, symbols ...string) *fakeUsers {
	return &fakeUsers{watchlist: map[uuid.UUID][]string{uid: symbols}}
}

func (r *fakeUsers) Create(ctx context.Context, user *domain.UserProfile) error {
	return nil
}

func (r *fakeUsers) GetByID(ctx context.Context, uid uuid.UUID) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watchlist[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.UserProfile{UID: uid, Watchlist: slices.Clone(w)}, nil
}

func (r *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeUsers) MergeUpdate(ctx context.Context, uid uuid.UUID, patch domain.ProfilePatch) error {
	return nil
}

func (r *fakeUsers) UpdateWatchlist(ctx context.Context, uid uuid.UUID, symbols []string) error {
	if r.onWrite != nil {
		r.onWrite()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	r.watchlist[uid] = slices.Clone(symbols)
	r.writes = append(r.writes, slices.Clone(symbols))
	return nil
}

func (r *fakeUsers) AddToWatchlist(ctx context.Context, uid uuid.UUID, symbol string) error {
	return nil
}

func (r *fakeUsers) RemoveFromWatchlist(ctx context.Context, uid uuid.UUID, symbol string) error {
	return nil
}

func (r *fakeUsers) stored(uid uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.watchlist[uid])
}

func (r *fakeUsers) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

// fakeQuotes returns a quote with close 100 for every requested symbol
type fakeQuotes struct {
	mu    sync.Mutex
	calls [][]string
	err   error
	gate  chan struct{}
}

func (q *fakeQuotes) GetLatest(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	q.mu.Lock()
	q.calls = append(q.calls, slices.Clone(symbols))
	gate := q.gate
	err := q.err
	q.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quote, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, domain.Quote{Symbol: s, Open: 90, Close: 100})
	}
	return out, nil
}

func (q *fakeQuotes) History(ctx context.Context, symbol string, r domain.HistoryRange) ([]domain.Quote, error) {
	return nil, domain.ErrFetchFailed
}

func (q *fakeQuotes) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

func (q *fakeQuotes) lastCall() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.calls) == 0 {
		return nil
	}
	return q.calls[len(q.calls)-1]
}

// fakeSearcher answers every query with a single match named after it
type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	err     error
	gate    chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]domain.TickerMatch, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	gate := f.gate
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return []domain.TickerMatch{{Symbol: domain.NormalizeSymbol(query), Name: query + " Inc", Exchange: "NASDAQ"}}, nil
}

func (f *fakeSearcher) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.queries)
}

// fakeAuth is a minimal identity event source
type fakeAuth struct {
	mu   sync.Mutex
	subs []func(domain.AuthEvent)
}

func (a *fakeAuth) Subscribe(fn func(domain.AuthEvent)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subs = append(a.subs, fn)
	return func() {}
}

func (a *fakeAuth) emit(ev domain.AuthEvent) {
	a.mu.Lock()
	subs := slices.Clone(a.subs)
	a.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
