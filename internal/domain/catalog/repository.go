package catalog

import (
	"context"
	"time"

	"github.com/bidhub/backend/internal/domain/shared"
)

// CatalogItemRepository is the read side of the persisted catalog
type CatalogItemRepository interface {
	// FindByNaturalKey returns the item regardless of its active flag
	FindByNaturalKey(ctx context.Context, naturalKey string) (*CatalogItem, error)

	// ListActive returns active items in listing order evaluated at now
	ListActive(ctx context.Context, now time.Time, page shared.PageRequest) (shared.Paginated[CatalogItem], error)

	// Search returns active items matching the criteria in listing order evaluated at now
	Search(ctx context.Context, criteria SearchCriteria, now time.Time, page shared.PageRequest) (shared.Paginated[CatalogItem], error)

	// CountActive counts active items
	CountActive(ctx context.Context) (int64, error)
}

// ReconcileOptions controls one reconciliation pass
type ReconcileOptions struct {
	// Partial marks the batch as an incomplete view of the upstream feed.
	// Partial batches insert and refresh rows but never deactivate.
	Partial bool
	// Now stamps every touched row. Zero means the reconciler's clock.
	Now time.Time
}

// ReconcileResult counts what one reconciliation pass changed
type ReconcileResult struct {
	Inserted    int `json:"inserted"`
	Updated     int `json:"updated"`
	Unchanged   int `json:"unchanged"`
	Deactivated int `json:"deactivated"`
}

// Touched returns the number of rows written
func (r ReconcileResult) Touched() int {
	return r.Inserted + r.Updated + r.Unchanged + r.Deactivated
}

// Reconciler merges a deduplicated batch of feed records into the catalog
// as one atomic unit.
type Reconciler interface {
	Reconcile(ctx context.Context, records []FeedRecord, opts ReconcileOptions) (ReconcileResult, error)
}
