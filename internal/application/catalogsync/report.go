package catalogsync

import (
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// SyncMode identifies which pass produced a run
type SyncMode string

const (
	ModeFast SyncMode = "fast"
	ModeFull SyncMode = "full"
)

// SyncState is the value held by the in-flight cell
type SyncState int32

const (
	StateIdle SyncState = iota
	StateFastSync
	StateFullSync
)

// String returns the string representation
func (s SyncState) String() string {
	switch s {
	case StateFastSync:
		return "fast_sync"
	case StateFullSync:
		return "full_sync"
	default:
		return "idle"
	}
}

// RunStatus is the outcome of one sync run
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusPartial   RunStatus = "partial"
	RunStatusSkipped   RunStatus = "skipped"
	RunStatusFailed    RunStatus = "failed"
)

// RunReport summarises one sync run
type RunReport struct {
	ID             uuid.UUID               `json:"id"`
	Mode           SyncMode                `json:"mode"`
	Trigger        string                  `json:"trigger"`
	Status         RunStatus               `json:"status"`
	StartedAt      time.Time               `json:"started_at"`
	FinishedAt     time.Time               `json:"finished_at"`
	TotalCount     int                     `json:"total_count"`
	PagesRequested int                     `json:"pages_requested"`
	PagesFailed    int                     `json:"pages_failed"`
	Records        int                     `json:"records"`
	Duplicates     int                     `json:"duplicates"`
	MissingKeys    int                     `json:"missing_keys"`
	Partial        bool                    `json:"partial"`
	Result         catalog.ReconcileResult `json:"result"`
	Error          string                  `json:"error,omitempty"`
}

func newRunReport(mode SyncMode, trigger string, now time.Time) *RunReport {
	return &RunReport{
		ID:        uuid.New(),
		Mode:      mode,
		Trigger:   trigger,
		StartedAt: now,
	}
}

// Duration returns how long the run took
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *RunReport) absorb(o *FetchOutcome) {
	r.TotalCount = o.TotalCount
	r.PagesRequested = o.PagesRequested
	r.PagesFailed = o.PagesFailed
	r.Records = len(o.Records)
	r.Duplicates = o.Duplicates
	r.MissingKeys = o.MissingKeys
}

func (r *RunReport) fail(err error, now time.Time) {
	r.Status = RunStatusFailed
	r.Error = err.Error()
	r.FinishedAt = now
}
