package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockwizard/internal/domain"
)

// MaxAvatarBytes is the largest decoded avatar image accepted
const MaxAvatarBytes = 5 * 1024 * 1024

// ProfileUpdate carries the editable fields of the profile page.
// A nil AvatarBase64 keeps the current avatar; an empty one removes it.
type ProfileUpdate struct {
	DisplayName  string
	Preferences  *domain.Preferences
	AvatarBase64 *string
}

// Plan is a pricing tier shown on the upgrade page
type Plan struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	BillingPeriod string   `json:"billingPeriod"`
	Features      []string `json:"features"`
}

// ProfileService manages profile edits and the Pro upgrade
type ProfileService struct {
	userRepo domain.UserRepository
	now      func() time.Time
}

// NewProfileService creates a new ProfileService
func NewProfileService(userRepo domain.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo, now: time.Now}
}

// Update validates and merges a profile edit, returning the stored profile
func (s *ProfileService) Update(ctx context.Context, uid uuid.UUID, upd ProfileUpdate) (*domain.UserProfile, error) {
	name := strings.TrimSpace(upd.DisplayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name is required", domain.ErrValidationFailed)
	}

	patch := domain.ProfilePatch{DisplayName: &name}

	if upd.Preferences != nil {
		prefs := *upd.Preferences
		if err := ValidatePreferences(prefs); err != nil {
			return nil, err
		}
		prefs.Currency = strings.ToUpper(prefs.Currency)
		patch.Preferences = &prefs
	}

	if upd.AvatarBase64 != nil {
		if *upd.AvatarBase64 != "" {
			if err := ValidateAvatar(*upd.AvatarBase64); err != nil {
				return nil, err
			}
		}
		patch.AvatarBase64 = upd.AvatarBase64
	}

	if err := s.userRepo.MergeUpdate(ctx, uid, patch); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
	}
	return s.userRepo.GetByID(ctx, uid)
}

// Upgrade switches the account to Pro with the given billing period.
// Upgrading an account that is already Pro changes nothing.
func (s *ProfileService) Upgrade(ctx context.Context, uid uuid.UUID, billingPeriod string) (*domain.UserProfile, error) {
	billingPeriod = strings.ToLower(strings.TrimSpace(billingPeriod))
	if billingPeriod != domain.BillingMonthly && billingPeriod != domain.BillingAnnual {
		return nil, fmt.Errorf("%w: billing period must be monthly or annual", domain.ErrValidationFailed)
	}

	user, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user.ProStatus {
		return user, nil
	}

	pro := true
	now := s.now()
	patch := domain.ProfilePatch{
		ProStatus:     &pro,
		BillingPeriod: &billingPeriod,
		UpgradeDate:   &now,
	}
	if err := s.userRepo.MergeUpdate(ctx, uid, patch); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
	}
	return s.userRepo.GetByID(ctx, uid)
}

// ValidatePreferences checks theme and currency
func ValidatePreferences(p domain.Preferences) error {
	if p.Theme != domain.ThemeDark && p.Theme != domain.ThemeLight {
		return fmt.Errorf("%w: theme must be dark or light", domain.ErrValidationFailed)
	}
	if !slices.Contains(domain.SupportedCurrencies, strings.ToUpper(p.Currency)) {
		return fmt.Errorf("%w: unsupported currency %q", domain.ErrValidationFailed, p.Currency)
	}
	return nil
}

// ValidateAvatar checks that s is an image data URL of at most MaxAvatarBytes
func ValidateAvatar(s string) error {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return fmt.Errorf("%w: avatar must be a base64 image data URL", domain.ErrValidationFailed)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxAvatarBytes+2 {
		return fmt.Errorf("%w: image size must be less than 5MB", domain.ErrValidationFailed)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("%w: avatar is not valid base64", domain.ErrValidationFailed)
	}
	if len(data) > MaxAvatarBytes {
		return fmt.Errorf("%w: image size must be less than 5MB", domain.ErrValidationFailed)
	}
	return nil
}

// Plans returns the Free and Pro tiers priced for billingPeriod
func Plans(billingPeriod string) ([]Plan, error) {
	switch billingPeriod {
	case "", domain.BillingMonthly:
		billingPeriod = domain.BillingMonthly
	case domain.BillingAnnual:
	default:
		return nil, fmt.Errorf("%w: billing period must be monthly or annual", domain.ErrValidationFailed)
	}

	proPrice := 9.99
	if billingPeriod == domain.BillingAnnual {
		proPrice = 99.99
	}

	return []Plan{
		{
			ID:            "free",
			Name:          "Free",
			Price:         0,
			BillingPeriod: billingPeriod,
			Features:      []string{"Watchlist tracking", "Portfolio overview", "End-of-day quotes"},
		},
		{
			ID:            "pro",
			Name:          "Pro",
			Price:         proPrice,
			BillingPeriod: billingPeriod,
			Features:      []string{"Everything in Free", "Price alerts", "CSV export", "Extended price history"},
		},
	}, nil
}
