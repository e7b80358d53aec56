package http

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockwizard/internal/domain"
)

var errStoreDown = errors.New("connection refused")

type memUsers struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*domain.UserProfile
	failWrite error
}

func (r *memUsers) Create(ctx context.Context, user *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("%w: an account with this email already exists", domain.ErrValidationFailed)
		}
	}
	cp := *user
	r.users[user.UID] = &cp
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, uid uuid.UUID) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	cp.Watchlist = slices.Clone(u.Watchlist)
	return &cp, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
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

func (r *memUsers) MergeUpdate(ctx context.Context, uid uuid.UUID, patch domain.ProfilePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	if patch.ProStatus != nil {
		u.ProStatus = *patch.ProStatus
	}
	if patch.BillingPeriod != nil {
		u.BillingPeriod = *patch.BillingPeriod
	}
	return nil
}

func (r *memUsers) UpdateWatchlist(ctx context.Context, uid uuid.UUID, symbols []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	r.users[uid].Watchlist = slices.Clone(symbols)
	return nil
}

func (r *memUsers) AddToWatchlist(ctx context.Context, uid uuid.UUID, symbol string) error {
	return errors.New("not used")
}

func (r *memUsers) RemoveFromWatchlist(ctx context.Context, uid uuid.UUID, symbol string) error {
	return errors.New("not used")
}

type memAssets struct {
	mu     sync.Mutex
	assets []*domain.Asset
}

func (r *memAssets) Save(ctx context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *asset
	r.assets = append(r.assets, &cp)
	return nil
}

func (r *memAssets) Update(ctx context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.assets {
		if a.ID == asset.ID {
			cp := *asset
			r.assets[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memAssets) Delete(ctx context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.assets {
		if a.ID == id && a.UserID == userID {
			r.assets = slices.Delete(r.assets, i, i+1)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memAssets) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Asset, error) {
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

func (r *memAssets) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Asset, 0)
	for _, a := range r.assets {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memAlerts struct {
	mu     sync.Mutex
	alerts []*domain.PriceAlert
}

func (r *memAlerts) Save(ctx context.Context, alert *domain.PriceAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *alert
	r.alerts = append(r.alerts, &cp)
	return nil
}

func (r *memAlerts) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.PriceAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.PriceAlert, 0)
	for _, a := range r.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAlerts) GetActive(ctx context.Context) ([]*domain.PriceAlert, error) {
	return nil, nil
}

func (r *memAlerts) MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (r *memAlerts) Delete(ctx context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.alerts {
		if a.ID == id && a.UserID == userID {
			r.alerts = slices.Delete(r.alerts, i, i+1)
			return nil
		}
	}
	return domain.ErrNotFound
}

// stubMarket answers quotes, history and search from fixed data
type stubMarket struct {
	mu  sync.Mutex
	err error
}

func (m *stubMarket) GetLatest(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	m.mu.Lock()
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quote, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, domain.Quote{Symbol: s, Open: 100, Close: 110, Volume: 1000})
	}
	return out, nil
}

func (m *stubMarket) History(ctx context.Context, symbol string, r domain.HistoryRange) ([]domain.Quote, error) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Quote{
		{Symbol: symbol, Close: 100, Date: day},
		{Symbol: symbol, Close: 110, Date: day.AddDate(0, 0, 1)},
	}, nil
}

func (m *stubMarket) Search(ctx context.Context, query string, limit int) ([]domain.TickerMatch, error) {
	return []domain.TickerMatch{{Symbol: strings.ToUpper(query), Name: "Match", Exchange: "NASDAQ"}}, nil
}

func (m *stubMarket) GetNews(ctx context.Context, symbol string, size int) ([]domain.NewsArticle, error) {
	return []domain.NewsArticle{{Title: symbol + " rallies", Source: "wire"}}, nil
}
