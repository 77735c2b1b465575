package bidding

import (
	"context"

	"github.com/bidhub/backend/internal/domain/bidding"
)

// Metrics observes bid outcomes
type Metrics interface {
	// BidPlaced records one bid attempt. reason is empty for accepted bids.
	BidPlaced(ctx context.Context, reason bidding.RejectionReason)
}

// NopMetrics discards all observations
type NopMetrics struct{}

func (NopMetrics) BidPlaced(context.Context, bidding.RejectionReason) {}
