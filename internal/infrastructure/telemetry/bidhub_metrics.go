package telemetry

import (
	"context"
	"fmt"
	"time"

	appbidding "github.com/bidhub/backend/internal/application/bidding"
	"github.com/bidhub/backend/internal/application/catalogsync"
	"github.com/bidhub/backend/internal/domain/bidding"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys used by the bidhub instruments.
var (
	AttrSyncMode    = attribute.Key("sync.mode")
	AttrSyncStatus  = attribute.Key("sync.status")
	AttrSyncTrigger = attribute.Key("sync.trigger")
	AttrFetchResult = attribute.Key("fetch.result")
	AttrBidOutcome  = attribute.Key("bid.outcome")
	AttrBidReason   = attribute.Key("bid.reason")
	AttrChange      = attribute.Key("catalog.change")
)

// BidhubMetrics records catalog sync and bidding instruments.
// It satisfies both catalogsync.Metrics and the bidding service's Metrics.
type BidhubMetrics struct {
	pagesFetched  metric.Int64Counter
	fetchDuration metric.Float64Histogram
	syncRuns      metric.Int64Counter
	syncDuration  metric.Float64Histogram
	syncSkipped   metric.Int64Counter
	itemsChanged  metric.Int64Counter
	bids          metric.Int64Counter
}

var (
	_ catalogsync.Metrics = (*BidhubMetrics)(nil)
	_ appbidding.Metrics  = (*BidhubMetrics)(nil)
)

// NewBidhubMetrics creates the instruments on meter
func NewBidhubMetrics(meter metric.Meter) (*BidhubMetrics, error) {
	m := &BidhubMetrics{}
	var err error

	if m.pagesFetched, err = meter.Int64Counter("catalog_sync.pages_fetched",
		metric.WithDescription("Feed pages requested, by outcome"),
		metric.WithUnit("{page}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create pages_fetched counter: %w", err)
	}
	if m.fetchDuration, err = meter.Float64Histogram("catalog_sync.fetch_duration",
		metric.WithDescription("Time to fetch and parse one feed page"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(FetchDurationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create fetch_duration histogram: %w", err)
	}
	if m.syncRuns, err = meter.Int64Counter("catalog_sync.runs",
		metric.WithDescription("Finished sync runs, by mode and status"),
		metric.WithUnit("{run}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}
	if m.syncDuration, err = meter.Float64Histogram("catalog_sync.duration",
		metric.WithDescription("Wall time of a sync run"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(SyncDurationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	if m.syncSkipped, err = meter.Int64Counter("catalog_sync.skipped",
		metric.WithDescription("Sync triggers dropped because a sync was in flight"),
		metric.WithUnit("{run}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create skipped counter: %w", err)
	}
	if m.itemsChanged, err = meter.Int64Counter("catalog.items_reconciled",
		metric.WithDescription("Catalog rows written by reconciliation, by change kind"),
		metric.WithUnit("{item}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create items_reconciled counter: %w", err)
	}
	if m.bids, err = meter.Int64Counter("bids.placed",
		metric.WithDescription("Bid attempts, by outcome and rejection reason"),
		metric.WithUnit("{bid}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create bids counter: %w", err)
	}
	return m, nil
}

// PageFetched records one page attempt
func (m *BidhubMetrics) PageFetched(ctx context.Context, mode catalogsync.SyncMode, ok bool, elapsed time.Duration) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	attrs := metric.WithAttributes(AttrSyncMode.String(string(mode)), AttrFetchResult.String(result))
	m.pagesFetched.Add(ctx, 1, attrs)
	m.fetchDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// SyncFinished records a completed run and its reconcile counts
func (m *BidhubMetrics) SyncFinished(ctx context.Context, report *catalogsync.RunReport) {
	if report == nil {
		return
	}
	m.syncRuns.Add(ctx, 1, metric.WithAttributes(
		AttrSyncMode.String(string(report.Mode)),
		AttrSyncStatus.String(string(report.Status)),
		AttrSyncTrigger.String(report.Trigger),
	))
	if !report.FinishedAt.IsZero() {
		m.syncDuration.Record(ctx, report.FinishedAt.Sub(report.StartedAt).Seconds(),
			metric.WithAttributes(AttrSyncMode.String(string(report.Mode))))
	}

	for change, n := range map[string]int{
		"inserted":    report.Result.Inserted,
		"updated":     report.Result.Updated,
		"unchanged":   report.Result.Unchanged,
		"deactivated": report.Result.Deactivated,
	} {
		if n > 0 {
			m.itemsChanged.Add(ctx, int64(n), metric.WithAttributes(AttrChange.String(change)))
		}
	}
}

// SyncSkipped records a trigger that found a sync in flight
func (m *BidhubMetrics) SyncSkipped(ctx context.Context, mode catalogsync.SyncMode) {
	m.syncSkipped.Add(ctx, 1, metric.WithAttributes(AttrSyncMode.String(string(mode))))
}

// BidPlaced records one bid attempt; an empty reason means accepted
func (m *BidhubMetrics) BidPlaced(ctx context.Context, reason bidding.RejectionReason) {
	if reason == "" {
		m.bids.Add(ctx, 1, metric.WithAttributes(AttrBidOutcome.String("accepted")))
		return
	}
	m.bids.Add(ctx, 1, metric.WithAttributes(
		AttrBidOutcome.String("rejected"),
		AttrBidReason.String(string(reason)),
	))
}
