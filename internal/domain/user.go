package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the per-user document held by the remote store
type UserProfile struct {
	UID           uuid.UUID   `json:"uid"`
	Email         string      `json:"email"`
	DisplayName   string      `json:"displayName"`
	PasswordHash  string      `json:"-"` // Never expose password hash in JSON
	Watchlist     []string    `json:"watchlist"`
	Portfolio     []*Asset    `json:"portfolio"`
	ProStatus     bool        `json:"proStatus"`
	BillingPeriod string      `json:"billingPeriod,omitempty"`
	UpgradeDate   *time.Time  `json:"upgradeDate,omitempty"`
	AvatarBase64  *string     `json:"avatarBase64"`
	Preferences   Preferences `json:"preferences"`
	CreatedAt     time.Time   `json:"createdAt"`
	LastUpdated   time.Time   `json:"lastUpdated"`
}

// Preferences holds per-user display settings
type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Currency      string `json:"currency"`
}

// ProfilePatch is a partial (merge) update of a UserProfile.
// Nil fields are left untouched.
type ProfilePatch struct {
	DisplayName   *string
	Preferences   *Preferences
	AvatarBase64  *string
	ProStatus     *bool
	BillingPeriod *string
	UpgradeDate   *time.Time
}

// Theme constants
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// BillingPeriod constants
const (
	BillingMonthly = "monthly"
	BillingAnnual  = "annual"
)

// SupportedCurrencies lists the display currencies a user may pick
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "JPY"}

// DefaultPreferences returns the preferences assigned on sign-up
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         ThemeDark,
		Notifications: true,
		Currency:      "USD",
	}
}

// AuthEvent is delivered to identity subscribers on sign-in and sign-out.
// User is nil when the identity signed out.
type AuthEvent struct {
	UID  uuid.UUID
	User *UserProfile
}
