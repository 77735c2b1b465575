package bidding

import "github.com/bidhub/backend/internal/domain/shared"

// Event type constants
const (
	EventTypeBidAccepted = "BidAccepted"
	AggregateTypeItem    = "CatalogItem"
)

// BidAcceptedEvent is published after a bid commits
type BidAcceptedEvent struct {
	shared.BaseDomainEvent
	AcceptedBid
}

// NewBidAcceptedEvent creates a new BidAcceptedEvent
func NewBidAcceptedEvent(bid *AcceptedBid) *BidAcceptedEvent {
	return &BidAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBidAccepted, AggregateTypeItem, bid.ItemID, bid.AcceptedAt),
		AcceptedBid:     *bid,
	}
}
