package bidding

import (
	"fmt"

	"github.com/bidhub/backend/internal/domain/shared"
)

// RejectionReason is the typed cause of a refused bid
type RejectionReason string

const (
	ReasonItemNotFound      RejectionReason = "ITEM_NOT_FOUND"
	ReasonBidderNotFound    RejectionReason = "BIDDER_NOT_FOUND"
	ReasonBelowInitialFloor RejectionReason = "BELOW_INITIAL_FLOOR"
	ReasonBelowCurrentFloor RejectionReason = "BELOW_CURRENT_FLOOR"
	ReasonWindowNotOpen     RejectionReason = "WINDOW_NOT_OPEN"
)

// WindowPhase details a WindowNotOpen rejection
type WindowPhase string

const (
	PhaseNotYetOpen      WindowPhase = "not_yet_open"
	PhaseAlreadyClosed   WindowPhase = "already_closed"
	PhaseWindowUndefined WindowPhase = "window_undefined"
)

// Rejection is returned by the ledger when a bid is refused.
// It unwraps to a shared.DomainError carrying the reason as its code.
type Rejection struct {
	Reason       RejectionReason `json:"reason"`
	Message      string          `json:"message"`
	Phase        WindowPhase     `json:"phase,omitempty"`
	CurrentFloor *int64          `json:"current_floor,omitempty"`
	MinimumPrice *int64          `json:"minimum_price,omitempty"`
}

// Error implements the error interface
func (r *Rejection) Error() string {
	return r.Message
}

// Unwrap exposes the rejection as a domain error
func (r *Rejection) Unwrap() error {
	return shared.NewDomainError(string(r.Reason), r.Message)
}

// NewItemNotFound rejects a bid on an unknown natural key
func NewItemNotFound(naturalKey string) *Rejection {
	return &Rejection{
		Reason:  ReasonItemNotFound,
		Message: fmt.Sprintf("Catalog item %q not found", naturalKey),
	}
}

// NewBidderNotFound rejects a bid from an unknown or inactive bidder
func NewBidderNotFound(bidderID string) *Rejection {
	return &Rejection{
		Reason:  ReasonBidderNotFound,
		Message: fmt.Sprintf("Bidder %q not found", bidderID),
	}
}

// NewBelowInitialFloor rejects a first bid under the published initial floor
func NewBelowInitialFloor(price int64, minimum *int64) *Rejection {
	msg := fmt.Sprintf("Bid price %d must be greater than zero", price)
	if minimum != nil {
		msg = fmt.Sprintf("Bid price %d is below the initial floor %d", price, *minimum)
	}
	return &Rejection{
		Reason:       ReasonBelowInitialFloor,
		Message:      msg,
		MinimumPrice: minimum,
	}
}

// NewBelowCurrentFloor rejects a bid that does not beat the current floor
func NewBelowCurrentFloor(price, floor int64) *Rejection {
	return &Rejection{
		Reason:       ReasonBelowCurrentFloor,
		Message:      fmt.Sprintf("Bid price %d must exceed the current floor %d", price, floor),
		CurrentFloor: &floor,
	}
}

// NewWindowNotOpen rejects a bid outside the bidding window
func NewWindowNotOpen(phase WindowPhase) *Rejection {
	var msg string
	switch phase {
	case PhaseNotYetOpen:
		msg = "Bidding has not opened yet"
	case PhaseAlreadyClosed:
		msg = "Bidding has already closed"
	default:
		msg = "Bidding window is not defined for this item"
	}
	return &Rejection{
		Reason:  ReasonWindowNotOpen,
		Message: msg,
		Phase:   phase,
	}
}
