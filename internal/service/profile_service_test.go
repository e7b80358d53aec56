package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"stockwizard/internal/domain"
)

func seedUser(repo *fakeUserRepo) *domain.UserProfile {
	u := &domain.UserProfile{
		UID:         uuid.New(),
		Email:       "jane@example.com",
		DisplayName: "Jane",
		Preferences: domain.DefaultPreferences(),
		Watchlist:   []string{},
	}
	repo.users[u.UID] = u
	return u
}

func TestProfileUpdate(t *testing.T) {
	repo := newFakeUserRepo()
	u := seedUser(repo)
	s := NewProfileService(repo)

	avatar := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	got, err := s.Update(context.Background(), u.UID, ProfileUpdate{
		DisplayName:  "  Jane Q  ",
		Preferences:  &domain.Preferences{Theme: domain.ThemeLight, Notifications: false, Currency: "eur"},
		AvatarBase64: &avatar,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.DisplayName != "Jane Q" || got.Preferences.Theme != domain.ThemeLight || got.Preferences.Currency != "EUR" {
		t.Errorf("Update() = %+v", got)
	}
	if got.AvatarBase64 == nil || *got.AvatarBase64 != avatar {
		t.Errorf("avatar not stored")
	}
}

func TestProfileUpdateValidation(t *testing.T) {
	big := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(make([]byte, MaxAvatarBytes+1))
	notImage := "data:text/plain;base64,aGVsbG8="

	tests := []struct {
		name string
		upd  ProfileUpdate
	}{
		{"blank name", ProfileUpdate{DisplayName: " "}},
		{"bad theme", ProfileUpdate{DisplayName: "J", Preferences: &domain.Preferences{Theme: "blue", Currency: "USD"}}},
		{"bad currency", ProfileUpdate{DisplayName: "J", Preferences: &domain.Preferences{Theme: "dark", Currency: "BTC"}}},
		{"avatar too large", ProfileUpdate{DisplayName: "J", AvatarBase64: &big}},
		{"avatar not image", ProfileUpdate{DisplayName: "J", AvatarBase64: &notImage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			u := seedUser(repo)
			_, err := NewProfileService(repo).Update(context.Background(), u.UID, tt.upd)
			if !errors.Is(err, domain.ErrValidationFailed) {
				t.Errorf("Update() error = %v, want ErrValidationFailed", err)
			}
		})
	}
}

func TestProfileUpdateSyncFailure(t *testing.T) {
	repo := newFakeUserRepo()
	u := seedUser(repo)
	repo.failNext = errStoreDown

	_, err := NewProfileService(repo).Update(context.Background(), u.UID, ProfileUpdate{DisplayName: "X"})
	if !errors.Is(err, domain.ErrSyncFailed) {
		t.Errorf("Update() error = %v, want ErrSyncFailed", err)
	}
}

func TestUpgrade(t *testing.T) {
	repo := newFakeUserRepo()
	u := seedUser(repo)
	s := NewProfileService(repo)
	fixed := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if _, err := s.Upgrade(context.Background(), u.UID, "weekly"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("Upgrade(weekly) error = %v, want ErrValidationFailed", err)
	}

	got, err := s.Upgrade(context.Background(), u.UID, "Annual")
	if err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}
	if !got.ProStatus || got.BillingPeriod != domain.BillingAnnual || got.UpgradeDate == nil || !got.UpgradeDate.Equal(fixed) {
		t.Errorf("Upgrade() = %+v", got)
	}

	s.now = func() time.Time { return fixed.Add(time.Hour) }
	again, err := s.Upgrade(context.Background(), u.UID, "monthly")
	if err != nil {
		t.Fatalf("second Upgrade() error = %v", err)
	}
	if again.BillingPeriod != domain.BillingAnnual || !again.UpgradeDate.Equal(fixed) {
		t.Errorf("second Upgrade() changed the account: %+v", again)
	}
}

func TestPlans(t *testing.T) {
	monthly, err := Plans("")
	if err != nil {
		t.Fatalf("Plans() error = %v", err)
	}
	annual, err := Plans(domain.BillingAnnual)
	if err != nil {
		t.Fatalf("Plans(annual) error = %v", err)
	}
	if len(monthly) != 2 || monthly[1].Price >= annual[1].Price || annual[1].BillingPeriod != domain.BillingAnnual {
		t.Errorf("Plans() = %+v / %+v", monthly, annual)
	}
	if _, err := Plans("daily"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("Plans(daily) error = %v", err)
	}
}

func TestValidateAvatar(t *testing.T) {
	ok := "data:image/gif;base64," + base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 100)))
	if err := ValidateAvatar(ok); err != nil {
		t.Errorf("ValidateAvatar() error = %v", err)
	}
	if err := ValidateAvatar("data:image/png;base64,@@@"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("ValidateAvatar(invalid base64) error = %v", err)
	}
}
