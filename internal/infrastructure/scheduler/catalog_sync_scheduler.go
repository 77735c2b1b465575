package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bidhub/backend/internal/application/catalogsync"
	"go.uber.org/zap"
)

// Trigger names recorded on run reports
const (
	TriggerStartup   = "startup"
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// SyncRunner runs catalog syncs. catalogsync.Service implements it.
type SyncRunner interface {
	RunFastSync(ctx context.Context, trigger string) (*catalogsync.RunReport, error)
	RunFullSync(ctx context.Context, trigger string) (*catalogsync.RunReport, error)
	State() catalogsync.SyncState
}

var _ SyncRunner = (*catalogsync.Service)(nil)

// ---------------------------------------------------------------------------
// CatalogSyncSchedulerConfig
// ---------------------------------------------------------------------------

// CatalogSyncSchedulerConfig holds configuration for the catalog sync scheduler
type CatalogSyncSchedulerConfig struct {
	// StartupEnabled runs a fast sync then a full sync when the scheduler starts
	StartupEnabled bool
	// ScheduleEnabled runs a full sync after InitialDelay and then every Interval
	ScheduleEnabled bool
	InitialDelay    time.Duration
	Interval        time.Duration
	// HistorySize is the number of run reports kept in memory
	HistorySize int
}

// DefaultCatalogSyncSchedulerConfig returns default configuration
func DefaultCatalogSyncSchedulerConfig() CatalogSyncSchedulerConfig {
	return CatalogSyncSchedulerConfig{
		StartupEnabled:  true,
		ScheduleEnabled: true,
		InitialDelay:    time.Hour,
		Interval:        time.Hour,
		HistorySize:     50,
	}
}

// Validate validates the configuration
func (c *CatalogSyncSchedulerConfig) Validate() error {
	if c.ScheduleEnabled && (c.Interval <= 0 || c.InitialDelay < 0) {
		return ErrInvalidConfig
	}
	if c.HistorySize <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// CatalogSyncScheduler
// ---------------------------------------------------------------------------

// SyncStatus is a snapshot of the scheduler for monitoring
type SyncStatus struct {
	Running   bool                   `json:"running"`
	State     string                 `json:"state"`
	InFlight  bool                   `json:"in_flight"`
	NextRunAt *time.Time             `json:"next_run_at,omitempty"`
	LastRun   *catalogsync.RunReport `json:"last_run,omitempty"`
}

// CatalogSyncScheduler owns every sync trigger: startup, periodic and manual.
// Runs execute on the scheduler's context, never on a caller's request context,
// and overlapping triggers are skipped by the runner's in-flight guard.
type CatalogSyncScheduler struct {
	config  CatalogSyncSchedulerConfig
	runner  SyncRunner
	history *RunHistory
	logger  *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	nextRunAt *time.Time
}

// NewCatalogSyncScheduler creates a new catalog sync scheduler
func NewCatalogSyncScheduler(config CatalogSyncSchedulerConfig, runner SyncRunner, logger *zap.Logger) (*CatalogSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &CatalogSyncScheduler{
		config:  config,
		runner:  runner,
		history: NewRunHistory(config.HistorySize),
		logger:  logger.Named("sync_scheduler"),
	}, nil
}

// Start starts the scheduler. With StartupEnabled it blocks for the fast sync
// and leaves the follow-up full sync running in the background.
func (s *CatalogSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	if s.config.ScheduleEnabled {
		next := time.Now().Add(s.config.InitialDelay)
		s.nextRunAt = &next
		s.wg.Add(1)
		go s.runLoop(s.ctx)
	}
	s.mu.Unlock()

	s.logger.Info("Catalog sync scheduler started",
		zap.Bool("startup_enabled", s.config.StartupEnabled),
		zap.Bool("schedule_enabled", s.config.ScheduleEnabled),
		zap.Duration("initial_delay", s.config.InitialDelay),
		zap.Duration("interval", s.config.Interval),
	)

	if s.config.StartupEnabled {
		return s.TriggerStartupSync()
	}
	return nil
}

// Stop cancels the loop and any sync in progress, then waits for them to return
func (s *CatalogSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.nextRunAt = nil
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Catalog sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Catalog sync scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerStartupSync runs the fast sync synchronously, then starts a full sync in the background
func (s *CatalogSyncScheduler) TriggerStartupSync() error {
	ctx, err := s.acquire()
	if err != nil {
		return err
	}
	defer s.wg.Done()

	report, err := s.runner.RunFastSync(ctx, TriggerStartup)
	s.history.Add(report)
	if err != nil && !errors.Is(err, ErrSyncInProgress) {
		s.logger.Error("Startup fast sync failed", zap.Error(err))
	}

	if err := s.launchFull(TriggerStartup); err != nil {
		s.logger.Warn("Startup full sync not started", zap.Error(err))
	}
	return nil
}

// TriggerScheduledSync starts a full sync in the background. A sync already
// in flight makes this run a recorded skip.
func (s *CatalogSyncScheduler) TriggerScheduledSync() error {
	return s.launchFull(TriggerScheduled)
}

// TriggerManualSync starts a full sync in the background, or returns
// ErrSyncInProgress when one is already running.
func (s *CatalogSyncScheduler) TriggerManualSync() error {
	if s.runner.State() != catalogsync.StateIdle {
		return ErrSyncInProgress
	}
	return s.launchFull(TriggerManual)
}

// History returns up to limit recent run reports, newest first
func (s *CatalogSyncScheduler) History(limit int) []*catalogsync.RunReport {
	return s.history.Recent(limit)
}

// Status returns the scheduler state for monitoring
func (s *CatalogSyncScheduler) Status() SyncStatus {
	s.mu.Lock()
	status := SyncStatus{
		Running:   s.isRunning,
		NextRunAt: s.nextRunAt,
	}
	s.mu.Unlock()

	state := s.runner.State()
	status.State = state.String()
	status.InFlight = state != catalogsync.StateIdle
	status.LastRun = s.history.Last()
	return status
}

// acquire registers a unit of work with the wait group. The caller must call wg.Done.
func (s *CatalogSyncScheduler) acquire() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil, ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	return s.ctx, nil
}

func (s *CatalogSyncScheduler) launchFull(trigger string) error {
	ctx, err := s.acquire()
	if err != nil {
		return err
	}
	go func() {
		defer s.wg.Done()
		report, err := s.runner.RunFullSync(ctx, trigger)
		s.history.Add(report)
		if err != nil && !errors.Is(err, ErrSyncInProgress) {
			s.logger.Error("Full sync failed", zap.String("trigger", trigger), zap.Error(err))
		}
	}()
	return nil
}

// runLoop fires a scheduled sync after the initial delay and then at a fixed rate
func (s *CatalogSyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	timer := time.NewTimer(s.config.InitialDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		s.setNextRun(time.Now().Add(s.config.Interval))
		if err := s.TriggerScheduledSync(); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			s.logger.Debug("Catalog sync loop stopping")
			return
		case <-ticker.C:
		}
	}
}

func (s *CatalogSyncScheduler) setNextRun(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.nextRunAt = &at
	}
}
