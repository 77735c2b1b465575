package bidding

import (
	"strings"
	"time"

	"github.com/bidhub/backend/internal/domain/shared"
)

// Bidder is a participant allowed to place bids.
// The ID is the subject issued by the external identity provider.
type Bidder struct {
	ID          string
	DisplayName string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBidder creates an active bidder
func NewBidder(id, displayName string, now time.Time) (*Bidder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.NewDomainError("INVALID_BIDDER_ID", "Bidder ID cannot be empty")
	}
	if len(id) > 100 {
		return nil, shared.NewDomainError("INVALID_BIDDER_ID", "Bidder ID cannot exceed 100 characters")
	}
	return &Bidder{
		ID:          id,
		DisplayName: strings.TrimSpace(displayName),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
