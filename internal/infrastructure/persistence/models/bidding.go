package models

import (
	"time"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/google/uuid"
)

// BidderModel is the persistence model for the Bidder domain entity.
type BidderModel struct {
	ID          string    `gorm:"type:varchar(100);primaryKey"`
	DisplayName string    `gorm:"type:varchar(100);not null;default:''"`
	Active      bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (BidderModel) TableName() string {
	return "bidders"
}

func (m *BidderModel) ToDomain() *bidding.Bidder {
	return &bidding.Bidder{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func BidderModelFromDomain(b *bidding.Bidder) *BidderModel {
	return &BidderModel{
		ID:          b.ID,
		DisplayName: b.DisplayName,
		Active:      b.Active,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
	}
}

// BidModel is the persistence model for an accepted bid. Rows are written once.
type BidModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null;index:idx_bids_item_accepted,priority:1"`
	NaturalKey string    `gorm:"type:text;not null;index:idx_bids_natural_key,priority:1"`
	BidderID   string    `gorm:"type:varchar(100);not null;index"`
	Price      int64     `gorm:"type:bigint;not null"`
	AcceptedAt time.Time `gorm:"not null;index:idx_bids_item_accepted,priority:2;index:idx_bids_natural_key,priority:2"`
}

// TableName returns the table name for GORM
func (BidModel) TableName() string {
	return "bids"
}

func (m *BidModel) ToDomain() bidding.BidRecord {
	return bidding.BidRecord{
		ID:         m.ID,
		ItemID:     m.ItemID,
		NaturalKey: m.NaturalKey,
		BidderID:   m.BidderID,
		Price:      m.Price,
		AcceptedAt: m.AcceptedAt,
	}
}

func BidModelFromDomain(b *bidding.BidRecord) *BidModel {
	return &BidModel{
		ID:         b.ID,
		ItemID:     b.ItemID,
		NaturalKey: b.NaturalKey,
		BidderID:   b.BidderID,
		Price:      b.Price,
		AcceptedAt: b.AcceptedAt.UTC(),
	}
}
