package bidding

import (
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
)

// Evaluate applies the price and window rules to a bid against a snapshot of the item.
// Existence checks for the item and bidder happen before this and are not repeated.
// Rules are checked in order: initial floor, current floor, then the bidding window.
// A nil result means the bid is acceptable against this snapshot.
func Evaluate(item *catalog.CatalogItem, price int64, now time.Time) *Rejection {
	if !item.HasBids() {
		if price <= 0 {
			return NewBelowInitialFloor(price, nil)
		}
		if item.InitialFloorFrom != nil && price < *item.InitialFloorFrom {
			return NewBelowInitialFloor(price, item.InitialFloorFrom)
		}
	} else if price <= *item.FloorPrice {
		return NewBelowCurrentFloor(price, *item.FloorPrice)
	}

	switch item.Status(now) {
	case catalog.WindowStatusOpen:
		return nil
	case catalog.WindowStatusUpcoming:
		return NewWindowNotOpen(PhaseNotYetOpen)
	case catalog.WindowStatusClosed:
		return NewWindowNotOpen(PhaseAlreadyClosed)
	default:
		return NewWindowNotOpen(PhaseWindowUndefined)
	}
}
