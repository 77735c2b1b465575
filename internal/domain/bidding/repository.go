package bidding

import (
	"context"

	"github.com/bidhub/backend/internal/domain/shared"
)

// Ledger accepts bids and records them.
// PlaceBid returns a *Rejection for every business refusal; any other error is unexpected.
type Ledger interface {
	PlaceBid(ctx context.Context, req BidRequest) (*AcceptedBid, error)
	ListBids(ctx context.Context, naturalKey string, page shared.PageRequest) (shared.Paginated[BidRecord], error)
}

// BidderRepository stores bidders registered by the identity collaborator
type BidderRepository interface {
	FindByID(ctx context.Context, id string) (*Bidder, error)
	// Save inserts the bidder or updates its display name and active flag
	Save(ctx context.Context, bidder *Bidder) error
}

// FloorBoard is a fast read-side copy of the current floor per item.
// It only moves upwards and may lag the ledger; the database stays authoritative.
type FloorBoard interface {
	// Raise sets the floor to price when price is higher than the stored value.
	// It reports whether the stored value changed.
	Raise(ctx context.Context, naturalKey string, price int64) (bool, error)
	// Get returns the stored floor; ok is false when the board holds nothing for the key.
	Get(ctx context.Context, naturalKey string) (price int64, ok bool, err error)
	// Forget drops the stored floor so the next read goes to the ledger
	Forget(ctx context.Context, naturalKey string) error
}
