package catalog

import (
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PageQuery represents paging query parameters
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToPageRequest converts the query to a normalised page request
func (q PageQuery) ToPageRequest() shared.PageRequest {
	return shared.PageRequest{Page: q.Page, PageSize: q.PageSize}.Normalize()
}

// SearchCatalogRequest represents catalog search query parameters.
// Date bounds are strings so that unparsable values can be ignored instead of rejected.
type SearchCatalogRequest struct {
	PageQuery
	Title            string `form:"title" binding:"max=200"`
	IssuingMethod    string `form:"issuing_method" binding:"max=100"`
	Province         string `form:"sido" binding:"max=50"`
	District         string `form:"sgk" binding:"max=50"`
	Neighborhood     string `form:"emd" binding:"max=50"`
	PriceFrom        *int64 `form:"price_from" binding:"omitempty,min=0"`
	PriceTo          *int64 `form:"price_to" binding:"omitempty,min=0"`
	AppraisedFrom    *int64 `form:"appraised_from" binding:"omitempty,min=0"`
	AppraisedTo      *int64 `form:"appraised_to" binding:"omitempty,min=0"`
	AnnouncementFrom string `form:"announcement_from"`
	ClosesUntil      string `form:"closes_until"`
}

// CatalogItemResponse represents a catalog item in API responses
type CatalogItemResponse struct {
	ID               uuid.UUID           `json:"id"`
	NaturalKey       string              `json:"natural_key"`
	LotID            string              `json:"lot_id"`
	CaseID           string              `json:"case_id"`
	HistoryID        string              `json:"history_id"`
	Title            string              `json:"title"`
	IssuingMethod    string              `json:"issuing_method"`
	BidReference     string              `json:"bid_reference"`
	GoodsDescription string              `json:"goods_description"`
	Category         string              `json:"category"`
	Address          string              `json:"address"`
	FloorPrice       *int64              `json:"floor_price"`
	InitialFloorFrom *int64              `json:"initial_floor_from"`
	AppraisedValue   *int64              `json:"appraised_value"`
	FeeRate          decimal.NullDecimal `json:"fee_rate"`
	AnnouncementAt   *time.Time          `json:"announcement_at"`
	ClosesAt         *time.Time          `json:"closes_at"`
	Status           string              `json:"status"`
	Active           bool                `json:"active"`
	LastSyncedAt     time.Time           `json:"last_synced_at"`
}

// CatalogListItemResponse represents a list entry for catalog items
type CatalogListItemResponse struct {
	NaturalKey       string     `json:"natural_key"`
	Title            string     `json:"title"`
	IssuingMethod    string     `json:"issuing_method"`
	FloorPrice       *int64     `json:"floor_price"`
	InitialFloorFrom *int64     `json:"initial_floor_from"`
	AnnouncementAt   *time.Time `json:"announcement_at"`
	ClosesAt         *time.Time `json:"closes_at"`
	Status           string     `json:"status"`
}

// FloorSource tells where a floor reading came from
type FloorSource string

const (
	FloorSourceBoard  FloorSource = "board"
	FloorSourceLedger FloorSource = "ledger"
)

// FloorResponse represents the current floor of an item
type FloorResponse struct {
	NaturalKey string      `json:"natural_key"`
	FloorPrice *int64      `json:"floor_price"`
	Source     FloorSource `json:"source"`
}

// ToCatalogItemResponse converts a domain item to a response, deriving the status at now
func ToCatalogItemResponse(item *catalog.CatalogItem, now time.Time) CatalogItemResponse {
	return CatalogItemResponse{
		ID:               item.ID,
		NaturalKey:       item.NaturalKey,
		LotID:            item.LotID,
		CaseID:           item.CaseID,
		HistoryID:        item.HistoryID,
		Title:            item.Title,
		IssuingMethod:    item.IssuingMethod,
		BidReference:     item.BidReference,
		GoodsDescription: item.GoodsDescription,
		Category:         item.Category,
		Address:          item.Address,
		FloorPrice:       item.FloorPrice,
		InitialFloorFrom: item.InitialFloorFrom,
		AppraisedValue:   item.AppraisedValue,
		FeeRate:          item.FeeRate,
		AnnouncementAt:   item.AnnouncementAt,
		ClosesAt:         item.ClosesAt,
		Status:           item.Status(now).String(),
		Active:           item.Active,
		LastSyncedAt:     item.LastSyncedAt,
	}
}

// ToCatalogListItemResponse converts a domain item to a list entry
func ToCatalogListItemResponse(item *catalog.CatalogItem, now time.Time) CatalogListItemResponse {
	return CatalogListItemResponse{
		NaturalKey:       item.NaturalKey,
		Title:            item.Title,
		IssuingMethod:    item.IssuingMethod,
		FloorPrice:       item.FloorPrice,
		InitialFloorFrom: item.InitialFloorFrom,
		AnnouncementAt:   item.AnnouncementAt,
		ClosesAt:         item.ClosesAt,
		Status:           item.Status(now).String(),
	}
}
