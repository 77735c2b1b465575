package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/bidhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBidLedger implements bidding.Ledger.
//
// Each bid runs in one transaction: the item row is read (FOR UPDATE on
// postgres), the policy is evaluated on that snapshot, and the floor is raised
// with a conditional UPDATE that only succeeds while the stored floor is still
// below the price. A lost race therefore surfaces as BelowCurrentFloor, never
// as a lowered floor.
type GormBidLedger struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewGormBidLedger creates a new GormBidLedger
func NewGormBidLedger(db *gorm.DB) *GormBidLedger {
	return &GormBidLedger{db: db, clock: time.Now}
}

// WithClock overrides the acceptance time source
func (l *GormBidLedger) WithClock(clock func() time.Time) *GormBidLedger {
	l.clock = clock
	return l
}

// PlaceBid validates and records a bid. Refusals are returned as *bidding.Rejection.
func (l *GormBidLedger) PlaceBid(ctx context.Context, req bidding.BidRequest) (*bidding.AcceptedBid, error) {
	var accepted *bidding.AcceptedBid
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := l.loadItem(tx, req.NaturalKey)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return bidding.NewItemNotFound(req.NaturalKey)
			}
			return err
		}

		if err := l.requireBidder(tx, req.BidderID); err != nil {
			return err
		}

		// read after the row lock so accepted_at follows floor order
		now := l.clock().UTC()
		item := row.ToDomain()
		if rejection := bidding.Evaluate(item, req.Price, now); rejection != nil {
			return rejection
		}

		res := tx.Model(&models.CatalogItemModel{}).
			Where("id = ? AND (floor_price IS NULL OR floor_price = 0 OR floor_price < ?)", item.ID, req.Price).
			UpdateColumns(map[string]any{"floor_price": req.Price, "updated_at": now})
		if res.Error != nil {
			return fmt.Errorf("raise floor: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var floor int64
			if err := tx.Model(&models.CatalogItemModel{}).
				Where("id = ?", item.ID).
				Select("COALESCE(floor_price, 0)").
				Scan(&floor).Error; err != nil {
				return fmt.Errorf("re-read floor: %w", err)
			}
			return bidding.NewBelowCurrentFloor(req.Price, floor)
		}

		record := bidding.NewBidRecord(item.ID, item.NaturalKey, req.BidderID, req.Price, now)
		if err := tx.Create(models.BidModelFromDomain(record)).Error; err != nil {
			return fmt.Errorf("append bid: %w", err)
		}

		accepted = &bidding.AcceptedBid{
			BidID:         record.ID,
			ItemID:        item.ID,
			NaturalKey:    item.NaturalKey,
			BidderID:      req.BidderID,
			Price:         req.Price,
			PreviousFloor: previousFloor(item),
			NewFloor:      req.Price,
			AcceptedAt:    now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// ListBids returns the bids recorded for a natural key, newest first
func (l *GormBidLedger) ListBids(ctx context.Context, naturalKey string, page shared.PageRequest) (shared.Paginated[bidding.BidRecord], error) {
	page = page.Normalize()
	query := l.db.WithContext(ctx).Model(&models.BidModel{}).Where("natural_key = ?", naturalKey)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return shared.Paginated[bidding.BidRecord]{}, err
	}

	var rows []models.BidModel
	if err := query.Session(&gorm.Session{}).
		Order("accepted_at DESC").
		Order("price DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return shared.Paginated[bidding.BidRecord]{}, err
	}

	bids := make([]bidding.BidRecord, len(rows))
	for i := range rows {
		bids[i] = rows[i].ToDomain()
	}
	return shared.NewPaginated(bids, total, page.Page, page.PageSize), nil
}

func (l *GormBidLedger) loadItem(tx *gorm.DB, naturalKey string) (*models.CatalogItemModel, error) {
	query := tx.Where("natural_key = ?", naturalKey)
	if isPostgres(tx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m models.CatalogItemModel
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("load item: %w", err)
	}
	return &m, nil
}

func (l *GormBidLedger) requireBidder(tx *gorm.DB, bidderID string) error {
	if bidderID == "" {
		return bidding.NewBidderNotFound(bidderID)
	}
	var m models.BidderModel
	if err := tx.Where("id = ?", bidderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bidding.NewBidderNotFound(bidderID)
		}
		return fmt.Errorf("load bidder: %w", err)
	}
	if !m.Active {
		return bidding.NewBidderNotFound(bidderID)
	}
	return nil
}

func previousFloor(item *catalog.CatalogItem) *int64 {
	if !item.HasBids() {
		return nil
	}
	v := *item.FloorPrice
	return &v
}

var _ bidding.Ledger = (*GormBidLedger)(nil)
