package catalogsync

import (
	"context"
	"time"
)

// Metrics observes the sync pipeline
type Metrics interface {
	PageFetched(ctx context.Context, mode SyncMode, ok bool, elapsed time.Duration)
	SyncFinished(ctx context.Context, report *RunReport)
	SyncSkipped(ctx context.Context, mode SyncMode)
}

// NopMetrics discards all observations
type NopMetrics struct{}

func (NopMetrics) PageFetched(context.Context, SyncMode, bool, time.Duration) {}
func (NopMetrics) SyncFinished(context.Context, *RunReport)                   {}
func (NopMetrics) SyncSkipped(context.Context, SyncMode)                      {}
