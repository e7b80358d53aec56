package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stockwizard/internal/domain"
)

// MinPasswordLength is the shortest password accepted on sign-up
const MinPasswordLength = 6

// AuthService signs users up, in and out, and broadcasts identity changes
// to subscribers.
type AuthService struct {
	userRepo domain.UserRepository
	now      func() time.Time

	mu          sync.Mutex
	subscribers map[int]func(domain.AuthEvent)
	nextSubID   int
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		now:         time.Now,
		subscribers: make(map[int]func(domain.AuthEvent)),
	}
}

// Subscribe registers fn for identity changes and returns a function that
// removes it. fn runs synchronously on the signing goroutine.
func (s *AuthService) Subscribe(fn func(domain.AuthEvent)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *AuthService) emit(ev domain.AuthEvent) {
	s.mu.Lock()
	fns := make([]func(domain.AuthEvent), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// SignUp creates an account with default preferences and an empty watchlist
func (s *AuthService) SignUp(ctx context.Context, email, password, name string) (*domain.UserProfile, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidationFailed)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrValidationFailed)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidationFailed, MinPasswordLength)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidationFailed)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.UserProfile{
		UID:          uuid.New(),
		Email:        strings.ToLower(email),
		DisplayName:  cases.Title(language.English).String(name),
		PasswordHash: string(hashedPassword),
		Watchlist:    []string{},
		Portfolio:    []*domain.Asset{},
		Preferences:  domain.DefaultPreferences(),
		CreatedAt:    now,
		LastUpdated:  now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[OK] New account registered: %s", user.Email)
	s.emit(domain.AuthEvent{UID: user.UID, User: user})
	return user, nil
}

// SignIn verifies credentials. Unknown emails and wrong passwords are both
// reported as ErrAuthRequired.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.UserProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidationFailed)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", domain.ErrAuthRequired)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrAuthRequired)
	}

	s.emit(domain.AuthEvent{UID: user.UID, User: user})
	return user, nil
}

// SignOut broadcasts that uid has no active identity
func (s *AuthService) SignOut(uid uuid.UUID) {
	s.emit(domain.AuthEvent{UID: uid})
}

// CurrentUser loads the profile behind an authenticated uid.
// A uid whose account no longer exists is ErrAuthRequired.
func (s *AuthService) CurrentUser(ctx context.Context, uid uuid.UUID) (*domain.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: account not found", domain.ErrAuthRequired)
		}
		return nil, err
	}
	return user, nil
}
