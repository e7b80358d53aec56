package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockwizard/internal/domain"
	"stockwizard/internal/utils"
)

// CSVHeader is the first line of an asset export
const CSVHeader = "Name,Symbol,Quantity,Purchase Price,Current Value,Profit/Loss,Purchase Date"

// AssetInput is the add/edit asset form
type AssetInput struct {
	Name          string
	Symbol        string
	Quantity      float64
	PurchasePrice float64
	PurchaseDate  string // YYYY-MM-DD, optional
}

// PortfolioService manages the assets sub-collection of a user
type PortfolioService struct {
	assetRepo domain.AssetRepository
	quotes    domain.QuoteProvider
	now       func() time.Time
}

// NewPortfolioService creates a new PortfolioService
func NewPortfolioService(assetRepo domain.AssetRepository, quotes domain.QuoteProvider) *PortfolioService {
	return &PortfolioService{
		assetRepo: assetRepo,
		quotes:    quotes,
		now:       time.Now,
	}
}

// List returns every asset of the user, oldest first
func (s *PortfolioService) List(ctx context.Context, uid uuid.UUID) ([]*domain.Asset, error) {
	return s.assetRepo.GetByUserID(ctx, uid)
}

// Add validates in, prices it from the latest quote and stores it
func (s *PortfolioService) Add(ctx context.Context, uid uuid.UUID, in AssetInput) (*domain.Asset, error) {
	now := s.now()
	purchaseDate, err := s.validate(&in, now)
	if err != nil {
		return nil, err
	}

	asset := &domain.Asset{
		ID:            uuid.New(),
		UserID:        uid,
		Name:          in.Name,
		Symbol:        in.Symbol,
		Quantity:      in.Quantity,
		PurchasePrice: in.PurchasePrice,
		PurchaseDate:  purchaseDate,
		CreatedAt:     now,
	}
	asset.Reprice(s.currentPrice(ctx, in.Symbol, in.PurchasePrice), now)

	if err := s.assetRepo.Save(ctx, asset); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
	}

	log.Printf("[OK] Asset added: %s x%g for user %s", asset.Symbol, asset.Quantity, uid)
	return asset, nil
}

// Update replaces the editable fields of an asset and re-prices it
func (s *PortfolioService) Update(ctx context.Context, uid, id uuid.UUID, in AssetInput) (*domain.Asset, error) {
	now := s.now()
	purchaseDate, err := s.validate(&in, now)
	if err != nil {
		return nil, err
	}

	asset, err := s.assetRepo.GetByID(ctx, uid, id)
	if err != nil {
		return nil, err
	}

	asset.Name = in.Name
	asset.Symbol = in.Symbol
	asset.Quantity = in.Quantity
	asset.PurchasePrice = in.PurchasePrice
	asset.PurchaseDate = purchaseDate
	asset.Reprice(s.currentPrice(ctx, in.Symbol, in.PurchasePrice), now)

	if err := s.assetRepo.Update(ctx, asset); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
	}
	return asset, nil
}

// Delete removes an asset permanently
func (s *PortfolioService) Delete(ctx context.Context, uid, id uuid.UUID) error {
	return s.assetRepo.Delete(ctx, uid, id)
}

// RefreshPrices re-prices every asset from one batched quote fetch.
// Assets without a quote keep their previous price.
func (s *PortfolioService) RefreshPrices(ctx context.Context, uid uuid.UUID) ([]*domain.Asset, error) {
	assets, err := s.assetRepo.GetByUserID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return assets, nil
	}

	symbols := make([]string, 0, len(assets))
	for _, a := range assets {
		symbols = append(symbols, a.Symbol)
	}

	quotes, err := s.quotes.GetLatest(ctx, symbols)
	if err != nil {
		return assets, err
	}
	prices := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		prices[q.Symbol] = q.Close
	}

	now := s.now()
	updated := 0
	for _, a := range assets {
		price, ok := prices[domain.NormalizeSymbol(a.Symbol)]
		if !ok || price <= 0 {
			continue
		}
		a.Reprice(price, now)
		if err := s.assetRepo.Update(ctx, a); err != nil {
			return assets, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
		}
		updated++
	}

	log.Printf("[INFO] Refreshed %d/%d asset prices for user %s", updated, len(assets), uid)
	return assets, nil
}

// ExportCSV writes the user's assets as CSV to w
func (s *PortfolioService) ExportCSV(ctx context.Context, uid uuid.UUID, w io.Writer) error {
	assets, err := s.assetRepo.GetByUserID(ctx, uid)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		return fmt.Errorf("%w: no assets to export", domain.ErrValidationFailed)
	}
	_, err = io.WriteString(w, FormatCSV(assets))
	return err
}

// ExportFileName returns the download name for an export made at t
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("stockwizard-assets-%s.csv", t.Format(time.DateOnly))
}

// FormatCSV renders assets with the name column always quoted and
// numbers unquoted.
func FormatCSV(assets []*domain.Asset) string {
	var b strings.Builder
	b.WriteString(CSVHeader)
	for _, a := range assets {
		b.WriteByte('\n')
		fields := []string{
			`"` + strings.ReplaceAll(a.Name, `"`, `""`) + `"`,
			a.Symbol,
			formatNumber(a.Quantity),
			formatNumber(a.PurchasePrice),
			formatNumber(a.Value),
			formatNumber(a.Profit()),
			utils.FormatLocaleDate(a.PurchaseDate),
		}
		b.WriteString(strings.Join(fields, ","))
	}
	return b.String()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// currentPrice returns the latest close for symbol, or fallback when no
// quote is available.
func (s *PortfolioService) currentPrice(ctx context.Context, symbol string, fallback float64) float64 {
	quotes, err := s.quotes.GetLatest(ctx, []string{symbol})
	if err != nil {
		log.Printf("[WARN] No quote for %s, using purchase price: %v", symbol, err)
		return fallback
	}
	for _, q := range quotes {
		if q.Symbol == symbol && q.Close > 0 {
			return q.Close
		}
	}
	return fallback
}

// validate normalizes in and returns the parsed purchase date
func (s *PortfolioService) validate(in *AssetInput, now time.Time) (time.Time, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Symbol = domain.NormalizeSymbol(in.Symbol)

	if in.Name == "" || in.Symbol == "" {
		return time.Time{}, fmt.Errorf("%w: name and symbol are required", domain.ErrValidationFailed)
	}
	if in.Quantity <= 0 {
		return time.Time{}, fmt.Errorf("%w: quantity must be greater than 0", domain.ErrValidationFailed)
	}
	if in.PurchasePrice <= 0 {
		return time.Time{}, fmt.Errorf("%w: purchase price must be greater than 0", domain.ErrValidationFailed)
	}

	date := strings.TrimSpace(in.PurchaseDate)
	if date == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(utils.PurchaseDateLayout, date, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: purchase date must be YYYY-MM-DD", domain.ErrValidationFailed)
	}
	if t.After(utils.StartOfDay(now)) {
		return time.Time{}, fmt.Errorf("%w: purchase date cannot be in the future", domain.ErrValidationFailed)
	}
	return t, nil
}
