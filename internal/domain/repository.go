package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository is the remote per-user document store
type UserRepository interface {
	// Create creates a new user document
	Create(ctx context.Context, user *UserProfile) error

	// GetByID retrieves a user document by uid
	GetByID(ctx context.Context, uid uuid.UUID) (*UserProfile, error)

	// GetByEmail retrieves a user document by email (case-insensitive)
	GetByEmail(ctx context.Context, email string) (*UserProfile, error)

	// MergeUpdate applies the non-nil fields of patch
	MergeUpdate(ctx context.Context, uid uuid.UUID, patch ProfilePatch) error

	// UpdateWatchlist overwrites the whole watchlist array
	UpdateWatchlist(ctx context.Context, uid uuid.UUID, symbols []string) error

	// AddToWatchlist appends symbol unless already present (array-union)
	AddToWatchlist(ctx context.Context, uid uuid.UUID, symbol string) error

	// RemoveFromWatchlist removes every occurrence of symbol (array-remove)
	RemoveFromWatchlist(ctx context.Context, uid uuid.UUID, symbol string) error
}

// AssetRepository holds the per-user assets sub-collection
type AssetRepository interface {
	// Save creates a new asset
	Save(ctx context.Context, asset *Asset) error

	// Update persists every mutable field of an existing asset
	Update(ctx context.Context, asset *Asset) error

	// Delete removes an asset permanently
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// GetByID retrieves one asset owned by userID
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Asset, error)

	// GetByUserID retrieves all assets of a user, oldest first
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Asset, error)
}

// AlertRepository stores price alerts
type AlertRepository interface {
	// Save creates a new alert
	Save(ctx context.Context, alert *PriceAlert) error

	// GetByUserID retrieves all alerts of a user, newest first
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*PriceAlert, error)

	// GetActive retrieves active alerts across all users
	GetActive(ctx context.Context) ([]*PriceAlert, error)

	// MarkTriggered flags an alert as fired
	MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes an alert owned by userID
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// QuoteCacheRepository is the relational TTL cache for latest quotes
type QuoteCacheRepository interface {
	// Get returns the cached quote for symbol if it has not expired at now.
	// A miss returns (nil, nil).
	Get(ctx context.Context, symbol string, now time.Time) (*Quote, error)

	// Put stores quote until expiresAt, replacing any previous entry
	Put(ctx context.Context, quote Quote, expiresAt time.Time) error

	// Purge deletes entries expired at now and returns how many were removed
	Purge(ctx context.Context, now time.Time) (int64, error)
}
