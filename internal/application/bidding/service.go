package bidding

import (
	"context"
	"errors"
	"time"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/bidhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BidService places bids through the ledger and fans accepted bids out to
// the floor board and the event stream.
type BidService struct {
	ledger    bidding.Ledger
	bidders   bidding.BidderRepository
	items     catalog.CatalogItemRepository
	board     bidding.FloorBoard
	publisher shared.EventPublisher
	metrics   Metrics
	logger    *zap.Logger
	clock     func() time.Time
}

// Option configures a BidService
type Option func(*BidService)

// WithFloorBoard raises the board after every accepted bid
func WithFloorBoard(board bidding.FloorBoard) Option {
	return func(s *BidService) { s.board = board }
}

// WithPublisher publishes a BidAcceptedEvent after every accepted bid
func WithPublisher(p shared.EventPublisher) Option {
	return func(s *BidService) { s.publisher = p }
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *BidService) { s.metrics = m }
}

// WithClock overrides the time source used for bidder registration
func WithClock(clock func() time.Time) Option {
	return func(s *BidService) { s.clock = clock }
}

// NewBidService creates a new BidService
func NewBidService(
	ledger bidding.Ledger,
	bidders bidding.BidderRepository,
	items catalog.CatalogItemRepository,
	logger *zap.Logger,
	opts ...Option,
) *BidService {
	s := &BidService{
		ledger:  ledger,
		bidders: bidders,
		items:   items,
		metrics: NopMetrics{},
		logger:  logger.Named("bidding"),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceBid places a bid for bidderID. Refusals come back as *bidding.Rejection.
// The floor board and the event stream are updated after the ledger commits;
// their failures are logged and never undo an accepted bid.
func (s *BidService) PlaceBid(ctx context.Context, bidderID string, req PlaceBidRequest) (*BidResponse, error) {
	accepted, err := s.ledger.PlaceBid(ctx, bidding.BidRequest{
		NaturalKey: req.NaturalKey,
		BidderID:   bidderID,
		Price:      req.Price,
	})
	if err != nil {
		var rejection *bidding.Rejection
		if errors.As(err, &rejection) {
			s.metrics.BidPlaced(ctx, rejection.Reason)
			s.logger.Info("Bid rejected",
				zap.String("natural_key", req.NaturalKey),
				zap.String("bidder_id", bidderID),
				zap.Int64("price", req.Price),
				zap.String("reason", string(rejection.Reason)),
			)
			return nil, rejection
		}
		s.logger.Error("Bid failed",
			zap.String("natural_key", req.NaturalKey),
			zap.String("bidder_id", bidderID),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.BidPlaced(ctx, "")
	s.logger.Info("Bid accepted",
		zap.String("bid_id", accepted.BidID.String()),
		zap.String("natural_key", accepted.NaturalKey),
		zap.String("bidder_id", accepted.BidderID),
		zap.Int64("price", accepted.Price),
	)

	if s.board != nil {
		if _, err := s.board.Raise(ctx, accepted.NaturalKey, accepted.NewFloor); err != nil {
			s.logger.Warn("Failed to raise floor board", zap.String("natural_key", accepted.NaturalKey), zap.Error(err))
			// a stale entry would hide this bid from floor reads
			if err := s.board.Forget(ctx, accepted.NaturalKey); err != nil {
				s.logger.Warn("Failed to drop stale floor", zap.String("natural_key", accepted.NaturalKey), zap.Error(err))
			}
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, bidding.NewBidAcceptedEvent(accepted)); err != nil {
			s.logger.Warn("Failed to publish bid accepted event", zap.String("bid_id", accepted.BidID.String()), zap.Error(err))
		}
	}

	resp := ToAcceptedBidResponse(accepted)
	return &resp, nil
}

// ListItemBids returns the bid history of an item, newest first.
// Deactivated items keep their history.
func (s *BidService) ListItemBids(ctx context.Context, naturalKey string, page shared.PageRequest) (shared.Paginated[BidResponse], error) {
	if _, err := s.items.FindByNaturalKey(ctx, naturalKey); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Paginated[BidResponse]{}, bidding.NewItemNotFound(naturalKey)
		}
		return shared.Paginated[BidResponse]{}, err
	}
	bids, err := s.ledger.ListBids(ctx, naturalKey, page)
	if err != nil {
		return shared.Paginated[BidResponse]{}, err
	}
	return shared.MapPaginated(bids, ToBidResponse), nil
}

// RegisterBidder creates or refreshes a bidder. Omitting Active keeps a new bidder active.
func (s *BidService) RegisterBidder(ctx context.Context, req RegisterBidderRequest) (*BidderResponse, error) {
	now := s.clock()
	bidder, err := bidding.NewBidder(req.ID, req.DisplayName, now)
	if err != nil {
		return nil, err
	}

	existing, err := s.bidders.FindByID(ctx, bidder.ID)
	switch {
	case err == nil:
		bidder.CreatedAt = existing.CreatedAt
		if req.Active == nil {
			bidder.Active = existing.Active
		}
	case errors.Is(err, shared.ErrNotFound):
	default:
		return nil, err
	}
	if req.Active != nil {
		bidder.Active = *req.Active
	}

	if err := s.bidders.Save(ctx, bidder); err != nil {
		return nil, err
	}
	s.logger.Info("Bidder registered", zap.String("bidder_id", bidder.ID), zap.Bool("active", bidder.Active))

	resp := ToBidderResponse(bidder)
	return &resp, nil
}

// GetBidder returns a bidder by id
func (s *BidService) GetBidder(ctx context.Context, id string) (*BidderResponse, error) {
	bidder, err := s.bidders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, bidding.NewBidderNotFound(id)
		}
		return nil, err
	}
	resp := ToBidderResponse(bidder)
	return &resp, nil
}
