package handler

import (
	"context"

	appbidding "github.com/bidhub/backend/internal/application/bidding"
	"github.com/gin-gonic/gin"
)

// BidderRegistry registers bidders on behalf of the identity service
type BidderRegistry interface {
	RegisterBidder(ctx context.Context, req appbidding.RegisterBidderRequest) (*appbidding.BidderResponse, error)
	GetBidder(ctx context.Context, id string) (*appbidding.BidderResponse, error)
}

// BidderHandler is the collaborator hook for bidder registration
type BidderHandler struct {
	BaseHandler
	bidders BidderRegistry
}

// NewBidderHandler creates a new BidderHandler
func NewBidderHandler(bidders BidderRegistry) *BidderHandler {
	return &BidderHandler{bidders: bidders}
}

// RegisterRoutes registers the bidder routes
func (h *BidderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bidders", h.Register)
	rg.GET("/bidders/:id", h.Get)
}

// Register creates or refreshes a bidder
func (h *BidderHandler) Register(c *gin.Context) {
	var req appbidding.RegisterBidderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	bidder, err := h.bidders.RegisterBidder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bidder)
}

// Get returns one bidder
func (h *BidderHandler) Get(c *gin.Context) {
	bidder, err := h.bidders.GetBidder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bidder)
}
