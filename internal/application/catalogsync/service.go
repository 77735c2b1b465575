package catalogsync

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/bidhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrSyncInProgress is returned when a run is refused because another is in flight
var ErrSyncInProgress = shared.ErrSyncInProgress

// PageSource produces merged feed records for a sync pass
type PageSource interface {
	FetchFastWindow(ctx context.Context) *FetchOutcome
	FullSweep(ctx context.Context) (*FetchOutcome, error)
}

var _ PageSource = (*Orchestrator)(nil)

// ServiceConfig holds sync policy switches
type ServiceConfig struct {
	// DeactivateOnPartial lets a sweep with failed pages deactivate rows it did not see
	DeactivateOnPartial bool
}

// Service runs fast and full syncs. At most one run is in flight at a time;
// the guard is a single atomic state cell.
type Service struct {
	source     PageSource
	reconciler catalog.Reconciler
	publisher  shared.EventPublisher
	metrics    Metrics
	config     ServiceConfig
	logger     *zap.Logger
	clock      func() time.Time

	state atomic.Int32
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithPublisher publishes a CatalogSyncedEvent after each committed run
func WithPublisher(p shared.EventPublisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

// NewService creates a sync service
func NewService(source PageSource, reconciler catalog.Reconciler, config ServiceConfig, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		source:     source,
		reconciler: reconciler,
		metrics:    NopMetrics{},
		config:     config,
		logger:     logger.Named("catalog_sync"),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current in-flight state
func (s *Service) State() SyncState {
	return SyncState(s.state.Load())
}

// InFlight reports whether a run is in progress
func (s *Service) InFlight() bool {
	return s.State() != StateIdle
}

// RunFastSync fetches the small startup window and reconciles it without deactivating anything
func (s *Service) RunFastSync(ctx context.Context, trigger string) (*RunReport, error) {
	return s.run(ctx, ModeFast, trigger, func(ctx context.Context) (*FetchOutcome, error) {
		return s.source.FetchFastWindow(ctx), nil
	})
}

// RunFullSync sweeps every page and reconciles the snapshot.
// It returns ErrSyncInProgress without doing anything if another run holds the state cell.
func (s *Service) RunFullSync(ctx context.Context, trigger string) (*RunReport, error) {
	return s.run(ctx, ModeFull, trigger, s.source.FullSweep)
}

func (s *Service) run(ctx context.Context, mode SyncMode, trigger string, fetch func(context.Context) (*FetchOutcome, error)) (*RunReport, error) {
	report := newRunReport(mode, trigger, s.clock())

	target := StateFullSync
	if mode == ModeFast {
		target = StateFastSync
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(target)) {
		report.Status = RunStatusSkipped
		report.FinishedAt = s.clock()
		report.Error = ErrSyncInProgress.Error()
		s.metrics.SyncSkipped(ctx, mode)
		s.logger.Info("Sync skipped, another sync is in progress",
			zap.String("mode", string(mode)),
			zap.String("trigger", trigger),
			zap.String("in_flight", s.State().String()),
		)
		return report, ErrSyncInProgress
	}
	defer s.state.Store(int32(StateIdle))

	s.logger.Info("Sync started", zap.String("mode", string(mode)), zap.String("trigger", trigger))

	outcome, err := fetch(ctx)
	if err != nil {
		report.fail(err, s.clock())
		s.finish(ctx, report)
		return report, err
	}
	report.absorb(outcome)

	if len(outcome.Records) == 0 {
		// Reconciling an empty batch would deactivate the whole catalog
		report.Status = RunStatusPartial
		report.Partial = true
		report.FinishedAt = s.clock()
		s.logger.Warn("Sync fetched no records, catalog left unchanged",
			zap.String("mode", string(mode)),
			zap.Int("pages_failed", outcome.PagesFailed),
		)
		s.finish(ctx, report)
		return report, nil
	}

	report.Partial = mode == ModeFast || (!outcome.Complete() && !s.config.DeactivateOnPartial)
	result, err := s.reconciler.Reconcile(ctx, outcome.Records, catalog.ReconcileOptions{
		Partial: report.Partial,
		Now:     s.clock(),
	})
	if err != nil {
		report.fail(err, s.clock())
		s.finish(ctx, report)
		return report, err
	}

	report.Result = result
	report.FinishedAt = s.clock()
	report.Status = RunStatusSucceeded
	if !outcome.Complete() {
		report.Status = RunStatusPartial
	}
	s.publish(ctx, report)
	s.finish(ctx, report)
	return report, nil
}

func (s *Service) publish(ctx context.Context, report *RunReport) {
	if s.publisher == nil {
		return
	}
	event := catalog.NewCatalogSyncedEvent(string(report.Mode), report.Records, report.PagesFailed, report.Result, report.FinishedAt)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish catalog synced event", zap.Error(err))
	}
}

func (s *Service) finish(ctx context.Context, report *RunReport) {
	s.metrics.SyncFinished(ctx, report)

	fields := []zap.Field{
		zap.String("run_id", report.ID.String()),
		zap.String("mode", string(report.Mode)),
		zap.String("trigger", report.Trigger),
		zap.String("status", string(report.Status)),
		zap.Int("total_count", report.TotalCount),
		zap.Int("pages_requested", report.PagesRequested),
		zap.Int("pages_failed", report.PagesFailed),
		zap.Int("records", report.Records),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("inserted", report.Result.Inserted),
		zap.Int("updated", report.Result.Updated),
		zap.Int("unchanged", report.Result.Unchanged),
		zap.Int("deactivated", report.Result.Deactivated),
		zap.Bool("partial", report.Partial),
		zap.Duration("duration", report.Duration()),
	}
	if report.Status == RunStatusFailed {
		s.logger.Error("Sync failed", append(fields, zap.String("error", report.Error))...)
		return
	}
	s.logger.Info("Sync finished", fields...)
}
