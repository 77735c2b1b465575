package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/bidhub/backend/internal/infrastructure/feed"
	"github.com/viney-shih/goroutines"
	"go.uber.org/zap"
)

// ErrProbeFailed is returned when the first page of a full sweep cannot be read,
// leaving no authoritative total count to plan the sweep from.
var ErrProbeFailed = errors.New("catalogsync: total count probe failed")

// OrchestratorConfig sizes the page window and the worker pool
type OrchestratorConfig struct {
	FastPages       int
	FastPageSize    int
	ProbePageSize   int
	PageSize        int
	PoolCoreWorkers int
	PoolMaxWorkers  int
	PoolQueueLength int
}

// DefaultOrchestratorConfig returns the default configuration
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		FastPages:       2,
		FastPageSize:    99,
		ProbePageSize:   10000,
		PageSize:        10000,
		PoolCoreWorkers: 5,
		PoolMaxWorkers:  10,
		PoolQueueLength: 1000,
	}
}

// Validate validates the configuration
func (c OrchestratorConfig) Validate() error {
	if c.FastPages <= 0 || c.FastPageSize <= 0 {
		return fmt.Errorf("catalogsync: fast window must be positive")
	}
	if c.ProbePageSize <= 0 || c.PageSize <= 0 {
		return fmt.Errorf("catalogsync: page sizes must be positive")
	}
	if c.PoolMaxWorkers <= 0 || c.PoolCoreWorkers < 0 || c.PoolCoreWorkers > c.PoolMaxWorkers {
		return fmt.Errorf("catalogsync: pool core workers must be between 0 and max workers")
	}
	if c.PoolQueueLength <= 0 {
		return fmt.Errorf("catalogsync: pool queue length must be positive")
	}
	return nil
}

// FetchOutcome is the merged, deduplicated result of one window or sweep
type FetchOutcome struct {
	Records        []catalog.FeedRecord
	TotalCount     int
	PagesRequested int
	PagesFailed    int
	Duplicates     int
	MissingKeys    int
}

// Complete reports whether every requested page contributed
func (o *FetchOutcome) Complete() bool {
	return o.PagesFailed == 0
}

// pageResult is what one page task leaves behind
type pageResult struct {
	records []catalog.FeedRecord
	failed  bool
}

// Orchestrator fetches and parses feed pages and merges them by natural key
type Orchestrator struct {
	fetcher feed.PageFetcher
	config  OrchestratorConfig
	pool    *goroutines.Pool
	metrics Metrics
	logger  *zap.Logger
}

// NewOrchestrator creates an orchestrator with its own bounded worker pool.
// Close releases the pool.
func NewOrchestrator(fetcher feed.PageFetcher, config OrchestratorConfig, metrics Metrics, logger *zap.Logger) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	pool := goroutines.NewPool(
		config.PoolMaxWorkers,
		goroutines.WithTaskQueueLength(config.PoolQueueLength),
		goroutines.WithPreAllocWorkers(config.PoolCoreWorkers),
	)
	return &Orchestrator{
		fetcher: fetcher,
		config:  config,
		pool:    pool,
		metrics: metrics,
		logger:  logger.Named("orchestrator"),
	}, nil
}

// Close releases the worker pool
func (o *Orchestrator) Close() {
	o.pool.Release()
}

// FetchWindow fetches pages 1..pages sequentially at pageSize.
// A failed page is logged and contributes nothing.
func (o *Orchestrator) FetchWindow(ctx context.Context, pages, pageSize int) *FetchOutcome {
	results := make([]pageResult, pages)
	total := 0
	for i := 0; i < pages; i++ {
		parsed, err := o.fetchAndParse(ctx, ModeFast, i+1, pageSize)
		if err != nil {
			results[i].failed = true
			continue
		}
		results[i].records = parsed.Records
		if parsed.TotalCount > total {
			total = parsed.TotalCount
		}
	}
	outcome := o.merge(results)
	outcome.TotalCount = total
	return outcome
}

// FetchFastWindow fetches the configured startup window
func (o *Orchestrator) FetchFastWindow(ctx context.Context) *FetchOutcome {
	return o.FetchWindow(ctx, o.config.FastPages, o.config.FastPageSize)
}

// FullSweep probes the total count, then fetches every page on the worker pool
// and waits for all of them before merging. Pages are merged in page order so
// the first occurrence of a natural key is the one from the lowest page.
func (o *Orchestrator) FullSweep(ctx context.Context) (*FetchOutcome, error) {
	probe, err := o.fetchAndParse(ctx, ModeFull, 1, o.config.ProbePageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	totalPages := pageCount(probe.TotalCount, o.config.PageSize)
	o.logger.Info("Full sweep planned",
		zap.Int("total_count", probe.TotalCount),
		zap.Int("total_pages", totalPages),
		zap.Int("page_size", o.config.PageSize),
	)

	results := make([]pageResult, totalPages)
	first := 1
	if o.config.ProbePageSize == o.config.PageSize && totalPages > 0 {
		// The probe already is page 1 at the sweep page size
		results[0].records = probe.Records
		first = 2
	}

	var wg sync.WaitGroup
	for page := first; page <= totalPages; page++ {
		idx := page - 1
		pageNumber := page
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("Page task panicked", zap.Int("page", pageNumber), zap.Any("panic", r))
					results[idx] = pageResult{failed: true}
				}
			}()
			parsed, err := o.fetchAndParse(ctx, ModeFull, pageNumber, o.config.PageSize)
			if err != nil {
				results[idx].failed = true
				return
			}
			results[idx].records = parsed.Records
		}
		if err := o.pool.Schedule(task); err != nil {
			o.logger.Error("Failed to schedule page task", zap.Int("page", pageNumber), zap.Error(err))
			results[idx].failed = true
			wg.Done()
		}
	}
	wg.Wait()

	outcome := o.merge(results)
	outcome.TotalCount = probe.TotalCount
	if totalPages == 0 {
		outcome.Records = dedupeProbe(probe.Records, outcome)
	}
	return outcome, nil
}

// fetchAndParse retrieves and decodes one page, logging every failure
func (o *Orchestrator) fetchAndParse(ctx context.Context, mode SyncMode, page, pageSize int) (*feed.ParsedPage, error) {
	start := time.Now()
	raw, err := o.fetcher.FetchPage(ctx, page, pageSize)
	if err != nil {
		o.metrics.PageFetched(ctx, mode, false, time.Since(start))
		o.logger.Warn("Feed page fetch failed",
			zap.String("mode", string(mode)),
			zap.Int("page", page),
			zap.Int("page_size", pageSize),
			zap.Error(err),
		)
		return nil, err
	}

	parsed, err := feed.Parse(raw)
	if err != nil {
		o.metrics.PageFetched(ctx, mode, false, time.Since(start))
		o.logger.Warn("Feed page unreadable",
			zap.String("mode", string(mode)),
			zap.Int("page", page),
			zap.Error(err),
		)
		return nil, err
	}
	o.metrics.PageFetched(ctx, mode, true, time.Since(start))

	if parsed.ResultCode != "" && parsed.ResultCode != feed.ResultCodeOK {
		o.logger.Warn("Feed page reported a non-normal result",
			zap.Int("page", page),
			zap.String("result_code", parsed.ResultCode),
			zap.String("result_message", parsed.ResultMessage),
		)
	}
	if parsed.InvalidFields > 0 {
		o.logger.Debug("Feed page had unconvertible fields",
			zap.Int("page", page),
			zap.Int("invalid_fields", parsed.InvalidFields),
		)
	}
	return parsed, nil
}

func (o *Orchestrator) merge(results []pageResult) *FetchOutcome {
	pages := make([][]catalog.FeedRecord, len(results))
	failed := 0
	for i, r := range results {
		if r.failed {
			failed++
		}
		pages[i] = r.records
	}
	records, duplicates, missing := Deduplicate(pages)
	if missing > 0 {
		o.logger.Warn("Dropped feed records without a natural key", zap.Int("count", missing))
	}
	return &FetchOutcome{
		Records:        records,
		PagesRequested: len(results),
		PagesFailed:    failed,
		Duplicates:     duplicates,
		MissingKeys:    missing,
	}
}

// dedupeProbe keeps the probe's own records when the feed reported no total
// but still returned rows on the probe page.
func dedupeProbe(records []catalog.FeedRecord, outcome *FetchOutcome) []catalog.FeedRecord {
	deduped, duplicates, missing := Deduplicate([][]catalog.FeedRecord{records})
	outcome.Duplicates += duplicates
	outcome.MissingKeys += missing
	return deduped
}

// Deduplicate flattens pages in order keeping the first record seen for each
// natural key. Records without a natural key are dropped and counted.
func Deduplicate(pages [][]catalog.FeedRecord) (records []catalog.FeedRecord, duplicates, missingKeys int) {
	size := 0
	for _, p := range pages {
		size += len(p)
	}
	seen := make(map[string]struct{}, size)
	records = make([]catalog.FeedRecord, 0, size)
	for _, page := range pages {
		for _, rec := range page {
			if !rec.HasNaturalKey() {
				missingKeys++
				continue
			}
			if _, ok := seen[rec.NaturalKey]; ok {
				duplicates++
				continue
			}
			seen[rec.NaturalKey] = struct{}{}
			records = append(records, rec)
		}
	}
	return records, duplicates, missingKeys
}

func pageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
