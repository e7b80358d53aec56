package infra

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher re-fetches quotes for every session with a mounted view
type Refresher interface {
	RefreshAll(ctx context.Context) int
}

// AlertChecker evaluates active price alerts against current quotes
type AlertChecker interface {
	CheckAlerts(ctx context.Context) (int, error)
}

// CachePurger drops expired quote cache entries
type CachePurger interface {
	Purge(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron          *cron.Cron
	refresher     Refresher
	alerts        AlertChecker
	purger        CachePurger
	schedule      string
	alertSchedule string
	jobTimeout    time.Duration

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new scheduler. alerts and purger may be nil.
func NewScheduler(refresher Refresher, alerts AlertChecker, purger CachePurger, schedule, alertSchedule string) *Scheduler {
	if schedule == "" {
		schedule = "@every 5m"
	}
	if alertSchedule == "" {
		alertSchedule = schedule
	}
	return &Scheduler{
		cron:          cron.New(),
		refresher:     refresher,
		alerts:        alerts,
		purger:        purger,
		schedule:      schedule,
		alertSchedule: alertSchedule,
		jobTimeout:    2 * time.Minute,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	log.Printf("Starting scheduler... [refresh: %s, alerts: %s]", s.schedule, s.alertSchedule)

	if _, err := s.cron.AddFunc(s.schedule, s.RunRefresh); err != nil {
		return err
	}

	if s.alerts != nil {
		if _, err := s.cron.AddFunc(s.alertSchedule, s.RunAlertCheck); err != nil {
			return err
		}
	}

	if s.purger != nil {
		if _, err := s.cron.AddFunc("@hourly", s.runPurge); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	log.Println("[OK] Scheduler started successfully")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Println("Stopping scheduler...")
	<-s.cron.Stop().Done()
	log.Println("[OK] Scheduler stopped")
}

// RunRefresh runs one quote refresh across active sessions
func (s *Scheduler) RunRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	n := s.refresher.RefreshAll(ctx)
	if n > 0 {
		log.Printf("[CRON] Refreshed %d active session(s)", n)
	}
}

// RunAlertCheck runs one pass over active price alerts
func (s *Scheduler) RunAlertCheck() {
	if s.alerts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	triggered, err := s.alerts.CheckAlerts(ctx)
	if err != nil {
		log.Printf("ERROR: Scheduled alert check failed: %v", err)
		return
	}
	if triggered > 0 {
		log.Printf("[CRON] %d price alert(s) triggered", triggered)
	}
}

func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	n, err := s.purger.Purge(ctx, time.Now())
	if err != nil {
		log.Printf("ERROR: Quote cache purge failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[CRON] Purged %d expired quote cache entries", n)
	}
}
