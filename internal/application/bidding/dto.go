package bidding

import (
	"time"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/google/uuid"
)

// PlaceBidRequest represents a request to place a bid.
// The bidder comes from the authenticated caller, not the body.
type PlaceBidRequest struct {
	NaturalKey string `json:"natural_key" binding:"required,max=64"`
	Price      int64  `json:"price"`
}

// RegisterBidderRequest represents a bidder registration from the identity collaborator
type RegisterBidderRequest struct {
	ID          string `json:"id" binding:"required,max=100"`
	DisplayName string `json:"display_name" binding:"max=100"`
	Active      *bool  `json:"active"`
}

// BidResponse represents an accepted bid in API responses
type BidResponse struct {
	ID            uuid.UUID `json:"id"`
	NaturalKey    string    `json:"natural_key"`
	BidderID      string    `json:"bidder_id"`
	Price         int64     `json:"price"`
	PreviousFloor *int64    `json:"previous_floor,omitempty"`
	NewFloor      int64     `json:"new_floor,omitempty"`
	AcceptedAt    time.Time `json:"accepted_at"`
}

// BidderResponse represents a bidder in API responses
type BidderResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToAcceptedBidResponse converts the ledger outcome to a response
func ToAcceptedBidResponse(bid *bidding.AcceptedBid) BidResponse {
	return BidResponse{
		ID:            bid.BidID,
		NaturalKey:    bid.NaturalKey,
		BidderID:      bid.BidderID,
		Price:         bid.Price,
		PreviousFloor: bid.PreviousFloor,
		NewFloor:      bid.NewFloor,
		AcceptedAt:    bid.AcceptedAt,
	}
}

// ToBidResponse converts a bid history record to a response
func ToBidResponse(bid bidding.BidRecord) BidResponse {
	return BidResponse{
		ID:         bid.ID,
		NaturalKey: bid.NaturalKey,
		BidderID:   bid.BidderID,
		Price:      bid.Price,
		AcceptedAt: bid.AcceptedAt,
	}
}

// ToBidderResponse converts a domain bidder to a response
func ToBidderResponse(b *bidding.Bidder) BidderResponse {
	return BidderResponse{
		ID:          b.ID,
		DisplayName: b.DisplayName,
		Active:      b.Active,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
