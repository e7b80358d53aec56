package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"stockwizard/internal/domain"
)

const assetColumns = `
	id, user_id, name, symbol, quantity, purchase_price,
	current_price, value, purchase_date, created_at, updated_at`

// AssetRepositoryImpl implements the AssetRepository interface.
// Money columns are NUMERIC and travel as decimal.Decimal.
type AssetRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(db *pgxpool.Pool) domain.AssetRepository {
	return &AssetRepositoryImpl{db: db}
}

// Save creates a new asset
func (r *AssetRepositoryImpl) Save(ctx context.Context, asset *domain.Asset) error {
	query := `
		INSERT INTO assets (
			id, user_id, name, symbol, quantity, purchase_price,
			current_price, value, purchase_date, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(ctx, query,
		asset.ID,
		asset.UserID,
		asset.Name,
		asset.Symbol,
		decimal.NewFromFloat(asset.Quantity),
		decimal.NewFromFloat(asset.PurchasePrice),
		decimal.NewFromFloat(asset.CurrentPrice),
		decimal.NewFromFloat(asset.Value),
		nullableDate(asset.PurchaseDate),
		asset.CreatedAt,
		asset.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}

	return nil
}

// Update persists every mutable field of an asset
func (r *AssetRepositoryImpl) Update(ctx context.Context, asset *domain.Asset) error {
	query := `
		UPDATE assets
		SET name = $1, symbol = $2, quantity = $3, purchase_price = $4,
		    current_price = $5, value = $6, purchase_date = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10
	`

	tag, err := r.db.Exec(ctx, query,
		asset.Name,
		asset.Symbol,
		decimal.NewFromFloat(asset.Quantity),
		decimal.NewFromFloat(asset.PurchasePrice),
		decimal.NewFromFloat(asset.CurrentPrice),
		decimal.NewFromFloat(asset.Value),
		nullableDate(asset.PurchaseDate),
		asset.LastUpdated,
		asset.ID,
		asset.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update asset: %w", domain.ErrNotFound)
	}

	return nil
}

// Delete removes an asset
func (r *AssetRepositoryImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM assets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete asset: %w", domain.ErrNotFound)
	}
	return nil
}

// GetByID retrieves one asset of a user
func (r *AssetRepositoryImpl) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Asset, error) {
	row := r.db.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1 AND user_id = $2`, id, userID)
	asset, err := scanAsset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get asset: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

// GetByUserID retrieves all assets of a user, oldest first
func (r *AssetRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Asset, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets by user ID: %w", err)
	}
	defer rows.Close()

	assets := []*domain.Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var asset domain.Asset
	var quantity, purchasePrice, current, value decimal.Decimal
	var purchaseDate *time.Time
	err := row.Scan(
		&asset.ID,
		&asset.UserID,
		&asset.Name,
		&asset.Symbol,
		&quantity,
		&purchasePrice,
		&current,
		&value,
		&purchaseDate,
		&asset.CreatedAt,
		&asset.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	asset.Quantity = quantity.InexactFloat64()
	asset.PurchasePrice = purchasePrice.InexactFloat64()
	asset.CurrentPrice = current.InexactFloat64()
	asset.Value = value.InexactFloat64()
	if purchaseDate != nil {
		asset.PurchaseDate = *purchaseDate
	}
	return &asset, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
