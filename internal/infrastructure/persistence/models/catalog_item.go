package models

import (
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CatalogItemModel is the persistence model for the CatalogItem domain entity.
type CatalogItemModel struct {
	BaseModel
	NaturalKey       string              `gorm:"type:text;not null;uniqueIndex:uq_catalog_items_natural_key"`
	LotID            string              `gorm:"type:text;not null;default:''"`
	CaseID           string              `gorm:"type:text;not null;default:''"`
	HistoryID        string              `gorm:"type:text;not null;default:''"`
	Title            string              `gorm:"type:text;not null;default:''"`
	IssuingMethod    string              `gorm:"type:text;not null;default:''"`
	BidReference     string              `gorm:"type:text;not null;default:''"`
	GoodsDescription string              `gorm:"type:text;not null;default:''"`
	Category         string              `gorm:"type:text;not null;default:''"`
	Address          string              `gorm:"type:text;not null;default:''"`
	FloorPrice       *int64              `gorm:"type:bigint"`
	InitialFloorFrom *int64              `gorm:"type:bigint"`
	AppraisedValue   *int64              `gorm:"type:bigint"`
	FeeRate          decimal.NullDecimal `gorm:"type:numeric(9,4)"`
	AnnouncementAt   *time.Time          `gorm:"index:idx_catalog_items_active_announcement,priority:2"`
	ClosesAt         *time.Time
	LastSyncedAt     time.Time `gorm:"not null"`
	Active           bool      `gorm:"not null;index:idx_catalog_items_active_announcement,priority:1"`
}

// TableName returns the table name for GORM
func (CatalogItemModel) TableName() string {
	return "catalog_items"
}

// ToDomain converts the persistence model to a domain CatalogItem.
func (m *CatalogItemModel) ToDomain() *catalog.CatalogItem {
	return &catalog.CatalogItem{
		BaseEntity:       m.BaseModel.ToDomain(),
		NaturalKey:       m.NaturalKey,
		LotID:            m.LotID,
		CaseID:           m.CaseID,
		HistoryID:        m.HistoryID,
		Title:            m.Title,
		IssuingMethod:    m.IssuingMethod,
		BidReference:     m.BidReference,
		GoodsDescription: m.GoodsDescription,
		Category:         m.Category,
		Address:          m.Address,
		FloorPrice:       m.FloorPrice,
		InitialFloorFrom: m.InitialFloorFrom,
		AppraisedValue:   m.AppraisedValue,
		FeeRate:          m.FeeRate,
		AnnouncementAt:   m.AnnouncementAt,
		ClosesAt:         m.ClosesAt,
		LastSyncedAt:     m.LastSyncedAt,
		Active:           m.Active,
	}
}

// FromDomain populates the persistence model from a domain CatalogItem.
func (m *CatalogItemModel) FromDomain(i *catalog.CatalogItem) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.NaturalKey = i.NaturalKey
	m.FloorPrice = i.FloorPrice
	m.LastSyncedAt = i.LastSyncedAt.UTC()
	m.Active = i.Active
	m.fromFeedAttributes(i)
}

// FeedColumns returns the columns reconciliation owns, keyed by column name.
// floor_price is deliberately absent.
func (m *CatalogItemModel) FeedColumns() map[string]any {
	return map[string]any{
		"lot_id":             m.LotID,
		"case_id":            m.CaseID,
		"history_id":         m.HistoryID,
		"title":              m.Title,
		"issuing_method":     m.IssuingMethod,
		"bid_reference":      m.BidReference,
		"goods_description":  m.GoodsDescription,
		"category":           m.Category,
		"address":            m.Address,
		"initial_floor_from": m.InitialFloorFrom,
		"appraised_value":    m.AppraisedValue,
		"fee_rate":           m.FeeRate,
		"announcement_at":    m.AnnouncementAt,
		"closes_at":          m.ClosesAt,
		"last_synced_at":     m.LastSyncedAt,
		"active":             m.Active,
		"updated_at":         m.UpdatedAt,
	}
}

func (m *CatalogItemModel) fromFeedAttributes(i *catalog.CatalogItem) {
	m.LotID = i.LotID
	m.CaseID = i.CaseID
	m.HistoryID = i.HistoryID
	m.Title = i.Title
	m.IssuingMethod = i.IssuingMethod
	m.BidReference = i.BidReference
	m.GoodsDescription = i.GoodsDescription
	m.Category = i.Category
	m.Address = i.Address
	m.InitialFloorFrom = i.InitialFloorFrom
	m.AppraisedValue = i.AppraisedValue
	m.FeeRate = i.FeeRate
	m.AnnouncementAt = utcPtr(i.AnnouncementAt)
	m.ClosesAt = utcPtr(i.ClosesAt)
}

// CatalogItemModelFromDomain creates a new persistence model from a domain CatalogItem.
func CatalogItemModelFromDomain(i *catalog.CatalogItem) *CatalogItemModel {
	m := &CatalogItemModel{}
	m.FromDomain(i)
	return m
}
