package usecase

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockwizard/internal/domain"
)

// DefaultIdleTTL is how long a session without client activity is kept
const DefaultIdleTTL = 30 * time.Minute

// AuthSource delivers identity changes
type AuthSource interface {
	Subscribe(fn func(domain.AuthEvent)) (unsubscribe func())
}

// SessionManager owns one Session per signed-in identity
type SessionManager struct {
	users    domain.UserRepository
	quotes   domain.QuoteProvider
	searcher domain.TickerSearcher
	debounce time.Duration
	idleTTL  time.Duration
	now      func() time.Time

	mu          sync.Mutex
	sessions    map[uuid.UUID]*Session
	unsubscribe func()
}

// NewSessionManager creates a SessionManager
func NewSessionManager(users domain.UserRepository, quotes domain.QuoteProvider, searcher domain.TickerSearcher, debounce time.Duration) *SessionManager {
	return &SessionManager{
		users:    users,
		quotes:   quotes,
		searcher: searcher,
		debounce: debounce,
		idleTTL:  DefaultIdleTTL,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// SetIdleTTL sets how long an inactive session survives. Zero or less
// restores DefaultIdleTTL.
func (m *SessionManager) SetIdleTTL(d time.Duration) {
	if d <= 0 {
		d = DefaultIdleTTL
	}
	m.mu.Lock()
	m.idleTTL = d
	m.mu.Unlock()
}

// Attach subscribes to identity changes. Sign-in seeds the session with
// the stored watchlist and sign-out ends it. Attaching twice is a no-op.
func (m *SessionManager) Attach(src AuthSource) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unsubscribe != nil {
		return
	}
	m.unsubscribe = src.Subscribe(m.handleAuth)
}

// Detach drops the identity subscription
func (m *SessionManager) Detach() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *SessionManager) handleAuth(ev domain.AuthEvent) {
	if ev.User == nil {
		m.End(ev.UID)
		return
	}
	s, _ := m.getOrCreate(ev.UID)
	s.Touch(m.now())
	s.Watchlist.Seed(ev.User.Watchlist)
}

// Session returns the session of uid, creating it and loading its
// watchlist on first use.
func (m *SessionManager) Session(ctx context.Context, uid uuid.UUID) (*Session, error) {
	s, created := m.getOrCreate(uid)
	s.Touch(m.now())
	if err := s.Watchlist.EnsureLoaded(ctx); err != nil {
		if created {
			m.dropIf(uid, s)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthRequired
		}
		return nil, err
	}
	return s, nil
}

// Lookup returns the session of uid without creating it
func (m *SessionManager) Lookup(uid uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[uid]
	return s, ok
}

// End closes and forgets the session of uid
func (m *SessionManager) End(uid uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[uid]
	delete(m.sessions, uid)
	m.mu.Unlock()

	if ok {
		s.Close()
		log.Printf("[INFO] Session ended for %s", uid)
	}
}

// Len returns the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RefreshAll refreshes every session with at least one mounted view,
// skipping sessions whose previous refresh is still running. Sessions idle
// for longer than the idle TTL are ended instead. It returns how many
// sessions were refreshed.
func (m *SessionManager) RefreshAll(ctx context.Context) int {
	now := m.now()
	m.mu.Lock()
	cutoff := now.Add(-m.idleTTL)
	active := make([]*Session, 0, len(m.sessions))
	var idle []*Session
	for uid, s := range m.sessions {
		if s.LastAccess().Before(cutoff) {
			delete(m.sessions, uid)
			idle = append(idle, s)
			continue
		}
		if s.HasMountedViews() {
			active = append(active, s)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
		log.Printf("[INFO] Session expired for %s", s.UID)
	}

	var (
		wg        sync.WaitGroup
		countMu   sync.Mutex
		refreshed int
	)
	for _, s := range active {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()

			ran, err := s.TryRefresh(ctx)
			if err != nil && !errors.Is(err, domain.ErrFetchFailed) {
				log.Printf("[WARN] Scheduled refresh failed for %s: %v", s.UID, err)
			}
			if ran {
				countMu.Lock()
				refreshed++
				countMu.Unlock()
			}
		}(s)
	}
	wg.Wait()
	return refreshed
}

func (m *SessionManager) getOrCreate(uid uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[uid]; ok {
		return s, false
	}
	s := NewSession(uid, m.users, m.quotes, m.searcher, m.debounce)
	m.sessions[uid] = s
	return s, true
}

func (m *SessionManager) dropIf(uid uuid.UUID, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[uid] == s {
		delete(m.sessions, uid)
	}
}
