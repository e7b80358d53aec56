package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockwizard/internal/domain"
)

// AlertService manages price alerts and evaluates them against quotes
type AlertService struct {
	alertRepo domain.AlertRepository
	quotes    domain.QuoteProvider
	notifier  domain.Notifier
	now       func() time.Time
}

// NewAlertService creates a new AlertService. notifier may be nil.
func NewAlertService(alertRepo domain.AlertRepository, quotes domain.QuoteProvider, notifier domain.Notifier) *AlertService {
	return &AlertService{
		alertRepo: alertRepo,
		quotes:    quotes,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Create stores a new active alert
func (s *AlertService) Create(ctx context.Context, uid uuid.UUID, symbol string, targetPrice float64, direction string) (*domain.PriceAlert, error) {
	symbol = domain.NormalizeSymbol(symbol)
	direction = strings.ToLower(strings.TrimSpace(direction))

	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrValidationFailed)
	}
	if targetPrice <= 0 {
		return nil, fmt.Errorf("%w: please enter a valid price", domain.ErrValidationFailed)
	}
	if direction != domain.DirectionAbove && direction != domain.DirectionBelow {
		return nil, fmt.Errorf("%w: direction must be above or below", domain.ErrValidationFailed)
	}

	alert := &domain.PriceAlert{
		ID:          uuid.New(),
		UserID:      uid,
		Symbol:      symbol,
		TargetPrice: targetPrice,
		Direction:   direction,
		Status:      domain.AlertActive,
		CreatedAt:   s.now(),
	}
	if err := s.alertRepo.Save(ctx, alert); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
	}

	log.Printf("[OK] Price alert set: %s %s %.2f", symbol, direction, targetPrice)
	return alert, nil
}

// List returns the user's alerts, newest first
func (s *AlertService) List(ctx context.Context, uid uuid.UUID) ([]*domain.PriceAlert, error) {
	return s.alertRepo.GetByUserID(ctx, uid)
}

// Delete removes one of the user's alerts
func (s *AlertService) Delete(ctx context.Context, uid, id uuid.UUID) error {
	return s.alertRepo.Delete(ctx, uid, id)
}

// CheckAlerts fetches quotes for every symbol with an active alert in one
// batch and fires the alerts whose condition holds. It returns how many
// alerts were triggered.
func (s *AlertService) CheckAlerts(ctx context.Context) (int, error) {
	alerts, err := s.alertRepo.GetActive(ctx)
	if err != nil {
		return 0, err
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	symbolSet := make(map[string]bool)
	symbols := make([]string, 0, len(alerts))
	for _, a := range alerts {
		if !symbolSet[a.Symbol] {
			symbolSet[a.Symbol] = true
			symbols = append(symbols, a.Symbol)
		}
	}

	quotes, err := s.quotes.GetLatest(ctx, symbols)
	if err != nil {
		return 0, err
	}
	prices := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		prices[q.Symbol] = q.Close
	}

	triggered := 0
	for _, a := range alerts {
		price, ok := prices[a.Symbol]
		if !ok || !a.IsHit(price) {
			continue
		}

		// An undelivered alert stays active and is retried on the next check
		if s.notifier != nil {
			if err := s.notifier.SendAlert(*a, price); err != nil {
				log.Printf("ERROR: Failed to send alert notification for %s: %v", a.Symbol, err)
				continue
			}
		}

		now := s.now()
		if err := s.alertRepo.MarkTriggered(ctx, a.ID, now); err != nil {
			log.Printf("ERROR: Failed to mark alert %s triggered: %v", a.ID, err)
			continue
		}
		a.Status = domain.AlertTriggered
		a.TriggeredAt = &now
		triggered++

		log.Printf("[ALERT] %s %s %.2f hit at %.2f", a.Symbol, a.Direction, a.TargetPrice, price)
	}

	return triggered, nil
}
