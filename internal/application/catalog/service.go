package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/bidhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrItemNotFound is returned when no catalog item carries the requested natural key
var ErrItemNotFound = shared.NewDomainError("ITEM_NOT_FOUND", "Catalog item not found")

// CatalogService serves the read side of the catalog
type CatalogService struct {
	repo   catalog.CatalogItemRepository
	board  bidding.FloorBoard
	logger *zap.Logger
	clock  func() time.Time
}

// NewCatalogService creates a new CatalogService. board may be nil.
func NewCatalogService(repo catalog.CatalogItemRepository, board bidding.FloorBoard, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		board:  board,
		logger: logger.Named("catalog"),
		clock:  time.Now,
	}
}

// WithClock overrides the time used to derive status and listing order
func (s *CatalogService) WithClock(clock func() time.Time) *CatalogService {
	s.clock = clock
	return s
}

// GetCatalogPage returns one page of active items in listing order
func (s *CatalogService) GetCatalogPage(ctx context.Context, query PageQuery) (shared.Paginated[CatalogListItemResponse], error) {
	now := s.clock()
	page, err := s.repo.ListActive(ctx, now, query.ToPageRequest())
	if err != nil {
		return shared.Paginated[CatalogListItemResponse]{}, err
	}
	return shared.MapPaginated(page, func(item catalog.CatalogItem) CatalogListItemResponse {
		return ToCatalogListItemResponse(&item, now)
	}), nil
}

// GetCatalogItem returns an item by natural key, including deactivated items
func (s *CatalogService) GetCatalogItem(ctx context.Context, naturalKey string) (*CatalogItemResponse, error) {
	item, err := s.findItem(ctx, naturalKey)
	if err != nil {
		return nil, err
	}
	resp := ToCatalogItemResponse(item, s.clock())
	return &resp, nil
}

// SearchCatalog returns one page of active items matching the request
func (s *CatalogService) SearchCatalog(ctx context.Context, req SearchCatalogRequest) (shared.Paginated[CatalogListItemResponse], error) {
	now := s.clock()
	page, err := s.repo.Search(ctx, s.toCriteria(req), now, req.ToPageRequest())
	if err != nil {
		return shared.Paginated[CatalogListItemResponse]{}, err
	}
	return shared.MapPaginated(page, func(item catalog.CatalogItem) CatalogListItemResponse {
		return ToCatalogListItemResponse(&item, now)
	}), nil
}

// GetFloor returns the current floor, reading the floor board before the database.
// A database reading is copied onto the board so later reads stay off the database.
func (s *CatalogService) GetFloor(ctx context.Context, naturalKey string) (*FloorResponse, error) {
	if s.board != nil {
		price, ok, err := s.board.Get(ctx, naturalKey)
		if err != nil {
			s.logger.Warn("Floor board read failed, falling back to database",
				zap.String("natural_key", naturalKey),
				zap.Error(err),
			)
		} else if ok {
			return &FloorResponse{NaturalKey: naturalKey, FloorPrice: &price, Source: FloorSourceBoard}, nil
		}
	}

	item, err := s.findItem(ctx, naturalKey)
	if err != nil {
		return nil, err
	}
	if s.board != nil && item.HasBids() {
		if _, err := s.board.Raise(ctx, naturalKey, *item.FloorPrice); err != nil {
			s.logger.Warn("Failed to warm floor board", zap.String("natural_key", naturalKey), zap.Error(err))
		}
	}
	return &FloorResponse{NaturalKey: naturalKey, FloorPrice: item.FloorPrice, Source: FloorSourceLedger}, nil
}

// CountActive returns the number of active items
func (s *CatalogService) CountActive(ctx context.Context) (int64, error) {
	return s.repo.CountActive(ctx)
}

func (s *CatalogService) findItem(ctx context.Context, naturalKey string) (*catalog.CatalogItem, error) {
	item, err := s.repo.FindByNaturalKey(ctx, naturalKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// toCriteria converts request parameters. Unparsable date bounds are dropped with a warning.
func (s *CatalogService) toCriteria(req SearchCatalogRequest) catalog.SearchCriteria {
	criteria := catalog.SearchCriteria{
		Title:         req.Title,
		IssuingMethod: req.IssuingMethod,
		Region:        []string{req.Province, req.District, req.Neighborhood},
		PriceFrom:     req.PriceFrom,
		PriceTo:       req.PriceTo,
		AppraisedFrom: req.AppraisedFrom,
		AppraisedTo:   req.AppraisedTo,
	}
	criteria.AnnouncementFrom = s.parseBound("announcement_from", req.AnnouncementFrom)
	criteria.ClosesUntil = s.parseBound("closes_until", req.ClosesUntil)
	return criteria
}

func (s *CatalogService) parseBound(name, value string) *time.Time {
	if value == "" {
		return nil
	}
	t, ok := catalog.ParseSearchTime(value)
	if !ok {
		s.logger.Warn("Ignoring unparsable search bound", zap.String("param", name), zap.String("value", value))
		return nil
	}
	return &t
}
