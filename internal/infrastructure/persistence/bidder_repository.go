package persistence

import (
	"context"
	"errors"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/bidhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBidderRepository implements bidding.BidderRepository using GORM
type GormBidderRepository struct {
	db *gorm.DB
}

// NewGormBidderRepository creates a new GormBidderRepository
func NewGormBidderRepository(db *gorm.DB) *GormBidderRepository {
	return &GormBidderRepository{db: db}
}

// FindByID finds a bidder by its external subject
func (r *GormBidderRepository) FindByID(ctx context.Context, id string) (*bidding.Bidder, error) {
	var m models.BidderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Save inserts the bidder, or refreshes display name and active flag when it exists.
// created_at keeps its first value.
func (r *GormBidderRepository) Save(ctx context.Context, bidder *bidding.Bidder) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "active", "updated_at"}),
	}).Create(models.BidderModelFromDomain(bidder)).Error
}

var _ bidding.BidderRepository = (*GormBidderRepository)(nil)
