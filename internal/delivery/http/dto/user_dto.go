package dto

import (
	"time"

	"stockwizard/internal/domain"
)

// UserOutput represents user details in API responses
type UserOutput struct {
	UID           string             `json:"uid"`
	Email         string             `json:"email"`
	DisplayName   string             `json:"displayName"`
	Watchlist     []string           `json:"watchlist"`
	ProStatus     bool               `json:"proStatus"`
	BillingPeriod string             `json:"billingPeriod,omitempty"`
	UpgradeDate   *time.Time         `json:"upgradeDate,omitempty"`
	AvatarBase64  *string            `json:"avatarBase64"`
	Preferences   domain.Preferences `json:"preferences"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// NewUserOutput converts a profile for output, leaving out the password hash
func NewUserOutput(u *domain.UserProfile) *UserOutput {
	watchlist := u.Watchlist
	if watchlist == nil {
		watchlist = []string{}
	}
	return &UserOutput{
		UID:           u.UID.String(),
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		Watchlist:     watchlist,
		ProStatus:     u.ProStatus,
		BillingPeriod: u.BillingPeriod,
		UpgradeDate:   u.UpgradeDate,
		AvatarBase64:  u.AvatarBase64,
		Preferences:   u.Preferences,
		CreatedAt:     u.CreatedAt,
	}
}

// UpdateProfileRequest represents a profile edit.
// An omitted avatar keeps the current one; an empty string removes it.
type UpdateProfileRequest struct {
	DisplayName  string              `json:"displayName"`
	Preferences  *domain.Preferences `json:"preferences"`
	AvatarBase64 *string             `json:"avatarBase64"`
}

// UpgradeRequest represents the upgrade payload
type UpgradeRequest struct {
	BillingPeriod string `json:"billingPeriod"` // "monthly" or "annual"
}
