package bidding

import (
	"time"

	"github.com/google/uuid"
)

// BidRecord is an accepted bid. It is never updated or deleted.
type BidRecord struct {
	ID         uuid.UUID `json:"id"`
	ItemID     uuid.UUID `json:"item_id"`
	NaturalKey string    `json:"natural_key"`
	BidderID   string    `json:"bidder_id"`
	Price      int64     `json:"price"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// NewBidRecord creates a bid record accepted at now
func NewBidRecord(itemID uuid.UUID, naturalKey, bidderID string, price int64, now time.Time) *BidRecord {
	return &BidRecord{
		ID:         uuid.New(),
		ItemID:     itemID,
		NaturalKey: naturalKey,
		BidderID:   bidderID,
		Price:      price,
		AcceptedAt: now,
	}
}

// BidRequest asks the ledger to accept a bid
type BidRequest struct {
	NaturalKey string
	BidderID   string
	Price      int64
}

// AcceptedBid is the outcome of a successful bid
type AcceptedBid struct {
	BidID      uuid.UUID `json:"bid_id"`
	ItemID     uuid.UUID `json:"item_id"`
	NaturalKey string    `json:"natural_key"`
	BidderID   string    `json:"bidder_id"`
	Price      int64     `json:"price"`
	// PreviousFloor is nil for the first bid on an item
	PreviousFloor *int64    `json:"previous_floor,omitempty"`
	NewFloor      int64     `json:"new_floor"`
	AcceptedAt    time.Time `json:"accepted_at"`
}
