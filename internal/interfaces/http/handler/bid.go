package handler

import (
	"context"

	appbidding "github.com/bidhub/backend/internal/application/bidding"
	"github.com/bidhub/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BidPlacer places bids on behalf of an authenticated bidder
type BidPlacer interface {
	PlaceBid(ctx context.Context, bidderID string, req appbidding.PlaceBidRequest) (*appbidding.BidResponse, error)
}

// BidHandler accepts bids. Its routes must sit behind BidderIdentity.
type BidHandler struct {
	BaseHandler
	bids BidPlacer
}

// NewBidHandler creates a new BidHandler
func NewBidHandler(bids BidPlacer) *BidHandler {
	return &BidHandler{bids: bids}
}

// RegisterRoutes registers the bid routes
func (h *BidHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bids", h.PlaceBid)
}

// PlaceBid godoc
// @Summary      Place a bid
// @Description  The price must beat the current floor, or match the initial floor for a first bid,
// @Description  and the item's bidding window must be open.
// @Tags         bids
// @Accept       json
// @Produce      json
// @Param        request body appbidding.PlaceBidRequest true "Bid"
// @Success      201
// @Failure      404 "ITEM_NOT_FOUND or BIDDER_NOT_FOUND"
// @Failure      422 "BELOW_INITIAL_FLOOR, BELOW_CURRENT_FLOOR or WINDOW_NOT_OPEN"
// @Router       /bids [post]
func (h *BidHandler) PlaceBid(c *gin.Context) {
	var req appbidding.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	bid, err := h.bids.PlaceBid(c.Request.Context(), middleware.GetBidderID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bid)
}
