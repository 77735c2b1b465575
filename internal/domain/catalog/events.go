package catalog

import (
	"time"

	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event type constants
const (
	EventTypeCatalogSynced = "CatalogSynced"
	AggregateTypeCatalog   = "Catalog"
)

// CatalogSyncedEvent is published after a reconciliation pass commits
type CatalogSyncedEvent struct {
	shared.BaseDomainEvent
	Mode        string `json:"mode"`
	Records     int    `json:"records"`
	FailedPages int    `json:"failed_pages"`
	ReconcileResult
}

// NewCatalogSyncedEvent creates a new CatalogSyncedEvent
func NewCatalogSyncedEvent(mode string, records, failedPages int, result ReconcileResult, at time.Time) *CatalogSyncedEvent {
	return &CatalogSyncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCatalogSynced, AggregateTypeCatalog, uuid.Nil, at),
		Mode:            mode,
		Records:         records,
		FailedPages:     failedPages,
		ReconcileResult: result,
	}
}
