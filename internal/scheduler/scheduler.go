package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AI2HU/satlens/internal/config"
	"github.com/AI2HU/satlens/internal/logger"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/services"
)

// Retry configuration constants
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 30 * time.Second
)

// Refresher re-runs batch analysis over the stored datasets
type Refresher interface {
	AnalyseDatasets(ctx context.Context, datasets []models.Dataset, choices map[string]string, fallback string) (*services.AnalysisOutcome, error)
}

// Scheduler runs the configured refresh schedules
type Scheduler struct {
	refresher  Refresher
	schedules  []config.RefreshSchedule
	cron       *cron.Cron
	running    bool
	mu         sync.RWMutex
	maxRetries int
	retryDelay time.Duration
	lastRun    map[string]time.Time
}

// New creates a new scheduler
func New(refresher Refresher, schedules []config.RefreshSchedule) *Scheduler {
	return &Scheduler{
		refresher:  refresher,
		schedules:  schedules,
		cron:       cron.New(),
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		lastRun:    make(map[string]time.Time),
	}
}

// Start registers every schedule and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	registered := 0
	for _, schedule := range s.schedules {
		if err := s.registerSchedule(ctx, schedule); err != nil {
			logger.Error("Failed to register schedule %s: %v", schedule.Name, err)
			continue
		}
		registered++
	}

	s.cron.Start()
	s.running = true

	logger.Info("Scheduler started with %d schedules", registered)
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
	stopped := s.cron.Stop()
	s.mu.Unlock()

	// running jobs take s.mu to record their last run
	<-stopped.Done()

	logger.Info("Scheduler stopped")
}

// registerSchedule registers a schedule with cron
func (s *Scheduler) registerSchedule(ctx context.Context, schedule config.RefreshSchedule) error {
	_, err := s.cron.AddFunc(schedule.CronExpr, func() {
		if err := s.executeSchedule(ctx, schedule); err != nil {
			logger.Error("Failed to execute schedule %s: %v", schedule.Name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	logger.Info("Registered schedule %s with cron expression: %s", schedule.Name, schedule.CronExpr)
	return nil
}

// executeSchedule refreshes the stored datasets with retries
func (s *Scheduler) executeSchedule(ctx context.Context, schedule config.RefreshSchedule) error {
	logger.Info("Executing schedule: %s", schedule.Name)

	outcome, err := s.refreshWithRetry(ctx, schedule)
	if err != nil {
		return err
	}
	if outcome.Warning != "" {
		logger.Warning("Schedule %s: %s", schedule.Name, outcome.Warning)
	}

	s.mu.Lock()
	s.lastRun[schedule.Name] = time.Now()
	s.mu.Unlock()

	logger.Info("Completed schedule %s with %d results", schedule.Name, len(outcome.Results))
	return nil
}

// refreshWithRetry runs the refresh up to maxRetries times. Nothing to analyse is not retried.
func (s *Scheduler) refreshWithRetry(ctx context.Context, schedule config.RefreshSchedule) (*services.AnalysisOutcome, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		logger.Debug("Attempt %d/%d for schedule %s", attempt, s.maxRetries, schedule.Name)

		outcome, err := s.refresher.AnalyseDatasets(ctx, nil, nil, schedule.Analysis)
		if err == nil {
			if attempt > 1 {
				logger.Info("Schedule %s succeeded on attempt %d after %d previous failures", schedule.Name, attempt, attempt-1)
			}
			return outcome, nil
		}
		if errors.Is(err, services.ErrNoDatasets) {
			return nil, err
		}

		lastErr = err
		logger.Warning("Attempt %d/%d failed for schedule %s: %v", attempt, s.maxRetries, schedule.Name, err)

		if attempt < s.maxRetries {
			logger.Info("Waiting %v before retry attempt %d...", s.retryDelay, attempt+1)
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("failed after %d attempts, last error: %w", s.maxRetries, lastErr)
}

// ExecuteNow runs a named schedule immediately
func (s *Scheduler) ExecuteNow(ctx context.Context, name string) error {
	for _, schedule := range s.schedules {
		if schedule.Name == name {
			return s.executeSchedule(ctx, schedule)
		}
	}
	return fmt.Errorf("schedule %q not found", name)
}

// LastRun returns when a schedule last completed
func (s *Scheduler) LastRun(name string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.lastRun[name]
	return t, ok
}

// Running reports whether the cron loop is active
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
