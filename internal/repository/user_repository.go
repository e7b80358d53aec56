package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockwizard/internal/domain"
)

const userColumns = `
	uid, email, password_hash, display_name, watchlist, pro_status,
	COALESCE(billing_period, ''), upgrade_date, avatar_base64, preferences,
	created_at, updated_at`

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.UserProfile) error {
	query := `
		INSERT INTO users (
			uid, email, password_hash, display_name, watchlist,
			pro_status, avatar_base64, preferences, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	watchlist := user.Watchlist
	if watchlist == nil {
		watchlist = []string{}
	}

	_, err := r.db.Exec(ctx, query,
		user.UID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		watchlist,
		user.ProStatus,
		user.AvatarBase64,
		user.Preferences,
		user.CreatedAt,
		user.LastUpdated,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: an account with this email already exists", domain.ErrValidationFailed)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by uid
func (r *UserRepositoryImpl) GetByID(ctx context.Context, uid uuid.UUID) (*domain.UserProfile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// MergeUpdate updates only the fields set in patch
func (r *UserRepositoryImpl) MergeUpdate(ctx context.Context, uid uuid.UUID, patch domain.ProfilePatch) error {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.DisplayName != nil {
		add("display_name", *patch.DisplayName)
	}
	if patch.Preferences != nil {
		add("preferences", *patch.Preferences)
	}
	if patch.AvatarBase64 != nil {
		add("avatar_base64", *patch.AvatarBase64)
	}
	if patch.ProStatus != nil {
		add("pro_status", *patch.ProStatus)
	}
	if patch.BillingPeriod != nil {
		add("billing_period", *patch.BillingPeriod)
	}
	if patch.UpgradeDate != nil {
		add("upgrade_date", *patch.UpgradeDate)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, uid)
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at = NOW() WHERE uid = $%d`,
		strings.Join(sets, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update user profile: %w", domain.ErrNotFound)
	}
	return nil
}

// UpdateWatchlist overwrites the watchlist array
func (r *UserRepositoryImpl) UpdateWatchlist(ctx context.Context, uid uuid.UUID, symbols []string) error {
	if symbols == nil {
		symbols = []string{}
	}
	return r.execWatchlist(ctx, `
		UPDATE users SET watchlist = $1, updated_at = NOW()
		WHERE uid = $2
	`, symbols, uid)
}

// AddToWatchlist appends symbol unless it is already present
func (r *UserRepositoryImpl) AddToWatchlist(ctx context.Context, uid uuid.UUID, symbol string) error {
	return r.execWatchlist(ctx, `
		UPDATE users
		SET watchlist = CASE WHEN $1 = ANY(watchlist) THEN watchlist ELSE array_append(watchlist, $1) END,
		    updated_at = NOW()
		WHERE uid = $2
	`, symbol, uid)
}

// RemoveFromWatchlist removes every occurrence of symbol
func (r *UserRepositoryImpl) RemoveFromWatchlist(ctx context.Context, uid uuid.UUID, symbol string) error {
	return r.execWatchlist(ctx, `
		UPDATE users SET watchlist = array_remove(watchlist, $1), updated_at = NOW()
		WHERE uid = $2
	`, symbol, uid)
}

func (r *UserRepositoryImpl) execWatchlist(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update watchlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update watchlist: %w", domain.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.UserProfile, error) {
	user := &domain.UserProfile{}
	err := row.Scan(
		&user.UID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Watchlist,
		&user.ProStatus,
		&user.BillingPeriod,
		&user.UpgradeDate,
		&user.AvatarBase64,
		&user.Preferences,
		&user.CreatedAt,
		&user.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
