package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"stockwizard/internal/domain"
)

const alertColumns = `id, user_id, symbol, target_price, direction, status, created_at, triggered_at`

// AlertRepositoryImpl implements the AlertRepository interface
type AlertRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewAlertRepository creates a new AlertRepository
func NewAlertRepository(db *pgxpool.Pool) domain.AlertRepository {
	return &AlertRepositoryImpl{db: db}
}

// Save creates a new price alert
func (r *AlertRepositoryImpl) Save(ctx context.Context, alert *domain.PriceAlert) error {
	query := `
		INSERT INTO price_alerts (id, user_id, symbol, target_price, direction, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		alert.ID,
		alert.UserID,
		alert.Symbol,
		decimal.NewFromFloat(alert.TargetPrice),
		alert.Direction,
		alert.Status,
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save price alert: %w", err)
	}

	return nil
}

// GetByUserID retrieves all alerts of a user, newest first
func (r *AlertRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.PriceAlert, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+alertColumns+`
		FROM price_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts by user ID: %w", err)
	}
	return collectAlerts(rows)
}

// GetActive retrieves all active alerts across all users
func (r *AlertRepositoryImpl) GetActive(ctx context.Context) ([]*domain.PriceAlert, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+alertColumns+`
		FROM price_alerts
		WHERE status = 'ACTIVE'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", err)
	}
	return collectAlerts(rows)
}

// MarkTriggered flags an active alert as triggered
func (r *AlertRepositoryImpl) MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE price_alerts
		SET status = 'TRIGGERED', triggered_at = $1
		WHERE id = $2 AND status = 'ACTIVE'
	`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark alert triggered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to mark alert triggered: %w", domain.ErrNotFound)
	}
	return nil
}

// Delete removes an alert owned by userID
func (r *AlertRepositoryImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM price_alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete price alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete price alert: %w", domain.ErrNotFound)
	}
	return nil
}

func collectAlerts(rows pgx.Rows) ([]*domain.PriceAlert, error) {
	defer rows.Close()

	alerts := []*domain.PriceAlert{}
	for rows.Next() {
		var (
			alert  domain.PriceAlert
			target decimal.Decimal
		)
		err := rows.Scan(
			&alert.ID,
			&alert.UserID,
			&alert.Symbol,
			&target,
			&alert.Direction,
			&alert.Status,
			&alert.CreatedAt,
			&alert.TriggeredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price alert: %w", err)
		}
		alert.TargetPrice = target.InexactFloat64()
		alerts = append(alerts, &alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price alerts: %w", err)
	}

	return alerts, nil
}
