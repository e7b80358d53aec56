package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockwizard/internal/domain"
)

var errStoreDown = errors.New("connection refused")

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.UserProfile
	failNext error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.UserProfile)}
}

func (r *fakeUserRepo) fail() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrValidationFailed
		}
	}
	cp := *user
	r.users[user.UID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, uid uuid.UUID) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) MergeUpdate(ctx context.Context, uid uuid.UUID, patch domain.ProfilePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	u, ok := r.users[uid]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	if patch.Preferences != nil {
		u.Preferences = *patch.Preferences
	}
	if patch.AvatarBase64 != nil {
		u.AvatarBase64 = patch.AvatarBase64
	}
	if patch.ProStatus != nil {
		u.ProStatus = *patch.ProStatus
	}
	if patch.BillingPeriod != nil {
		u.BillingPeriod = *patch.BillingPeriod
	}
	if patch.UpgradeDate != nil {
		t := *patch.UpgradeDate
		u.UpgradeDate = &t
	}
	return nil
}

func (r *fakeUserRepo) UpdateWatchlist(ctx context.Context, uid uuid.UUID, symbols []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail(); err != nil {
		return err
	}
	r.users[uid].Watchlist = append([]string(nil), symbols...)
	return nil
}

func (r *fakeUserRepo) AddToWatchlist(ctx context.Context, uid uuid.UUID, symbol string) error {
	return errors.New("not used")
}

func (r *fakeUserRepo) RemoveFromWatchlist(ctx context.Context, uid uuid.UUID, symbol string) error {
	return errors.New("not used")
}

type fakeAssetRepo struct {
	mu      sync.Mutex
	assets  []*domain.Asset
	updates int
	failErr error
}

func (r *fakeAssetRepo) Save(ctx context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	cp := *asset
	r.assets = append(r.assets, &cp)
	return nil
}

func (r *fakeAssetRepo) Update(ctx context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	for i, a := range r.assets {
		if a.ID == asset.ID && a.UserID == asset.UserID {
			cp := *asset
			r.assets[i] = &cp
			r.updates++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeAssetRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.assets {
		if a.ID == id && a.UserID == userID {
			r.assets = append(r.assets[:i], r.assets[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeAssetRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assets {
		if a.ID == id && a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeAssetRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Asset{}
	for _, a := range r.assets {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeAlertRepo struct {
	alerts    []*domain.PriceAlert
	triggered []uuid.UUID
}

func (r *fakeAlertRepo) Save(ctx context.Context, alert *domain.PriceAlert) error {
	cp := *alert
	r.alerts = append(r.alerts, &cp)
	return nil
}

func (r *fakeAlertRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.PriceAlert, error) {
	var out []*domain.PriceAlert
	for _, a := range r.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) GetActive(ctx context.Context) ([]*domain.PriceAlert, error) {
	var out []*domain.PriceAlert
	for _, a := range r.alerts {
		if a.Status == domain.AlertActive {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error {
	for _, a := range r.alerts {
		if a.ID == id {
			a.Status = domain.AlertTriggered
			a.TriggeredAt = &at
			r.triggered = append(r.triggered, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeAlertRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	for i, a := range r.alerts {
		if a.ID == id && a.UserID == userID {
			r.alerts = append(r.alerts[:i], r.alerts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeQuotes struct {
	mu     sync.Mutex
	prices map[string]float64
	err    error
	calls  [][]string
}

func (f *fakeQuotes) GetLatest(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), symbols...))
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Quote
	for _, s := range symbols {
		if p, ok := f.prices[s]; ok {
			out = append(out, domain.Quote{Symbol: s, Open: p, Close: p})
		}
	}
	return out, nil
}

func (f *fakeQuotes) History(ctx context.Context, symbol string, r domain.HistoryRange) ([]domain.Quote, error) {
	return nil, f.err
}

type fakeNotifier struct {
	sent []domain.PriceAlert
	err  error
}

func (n *fakeNotifier) SendAlert(alert domain.PriceAlert, price float64) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, alert)
	return nil
}

type fakeCache struct {
	entries map[string]domain.Quote
	expiry  map[string]time.Time
	getErr  error
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]domain.Quote{}, expiry: map[string]time.Time{}}
}

func (c *fakeCache) Get(ctx context.Context, symbol string, now time.Time) (*domain.Quote, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	q, ok := c.entries[symbol]
	if !ok || !c.expiry[symbol].After(now) {
		return nil, nil
	}
	return &q, nil
}

func (c *fakeCache) Put(ctx context.Context, quote domain.Quote, expiresAt time.Time) error {
	c.entries[quote.Symbol] = quote
	c.expiry[quote.Symbol] = expiresAt
	c.puts++
	return nil
}

func (c *fakeCache) Purge(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
