package catalog

import (
	"time"

	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeCatalogItem = "CatalogItem"

// CatalogItem is the local mirror of one upstream auction lot.
//
// Feed attributes are owned by reconciliation. FloorPrice is owned by the bid
// ledger and is never written by reconciliation. Rows are deactivated, never deleted.
type CatalogItem struct {
	shared.BaseEntity
	NaturalKey       string
	LotID            string
	CaseID           string
	HistoryID        string
	Title            string
	IssuingMethod    string
	BidReference     string
	GoodsDescription string
	Category         string
	Address          string
	FloorPrice       *int64
	InitialFloorFrom *int64
	AppraisedValue   *int64
	FeeRate          decimal.NullDecimal
	AnnouncementAt   *time.Time
	ClosesAt         *time.Time
	LastSyncedAt     time.Time
	Active           bool
}

// NewCatalogItemFromRecord creates an active catalog item for a natural key seen for the first time
func NewCatalogItemFromRecord(rec FeedRecord, now time.Time) (*CatalogItem, error) {
	if !rec.HasNaturalKey() {
		return nil, shared.NewDomainError("INVALID_NATURAL_KEY", "Natural key cannot be empty")
	}
	item := &CatalogItem{
		BaseEntity:   shared.NewBaseEntityAt(now),
		NaturalKey:   rec.NaturalKey,
		LastSyncedAt: now,
		Active:       true,
	}
	item.copyFeedAttributes(rec)
	return item, nil
}

// ApplyRecord refreshes the feed attributes from a newer record and marks the item active.
// It returns true when any feed attribute or the active flag changed.
// LastSyncedAt never moves backwards.
func (i *CatalogItem) ApplyRecord(rec FeedRecord, now time.Time) bool {
	changed := !i.Active || !i.sameFeedAttributes(rec)
	i.copyFeedAttributes(rec)
	i.Active = true
	if now.After(i.LastSyncedAt) {
		i.LastSyncedAt = now
	}
	if changed {
		i.UpdatedAt = now
	}
	return changed
}

// Deactivate marks the item as no longer present upstream
func (i *CatalogItem) Deactivate(now time.Time) {
	if !i.Active {
		return
	}
	i.Active = false
	i.UpdatedAt = now
}

// HasBids reports whether a floor has been set by an accepted bid.
// A zero floor is treated the same as no floor.
func (i *CatalogItem) HasBids() bool {
	return i.FloorPrice != nil && *i.FloorPrice > 0
}

// Status derives the window status at now
func (i *CatalogItem) Status(now time.Time) WindowStatus {
	return DeriveStatus(now, i.AnnouncementAt, i.ClosesAt)
}

func (i *CatalogItem) copyFeedAttributes(rec FeedRecord) {
	i.LotID = rec.LotID
	i.CaseID = rec.CaseID
	i.HistoryID = rec.HistoryID
	i.Title = rec.Title
	i.IssuingMethod = rec.IssuingMethod
	i.BidReference = rec.BidReference
	i.GoodsDescription = rec.GoodsDescription
	i.Category = rec.Category
	i.Address = rec.Address
	i.InitialFloorFrom = cloneInt64(rec.InitialFloorFrom)
	i.AppraisedValue = cloneInt64(rec.AppraisedValue)
	i.FeeRate = rec.FeeRate
	i.AnnouncementAt = cloneTime(rec.AnnouncementAt)
	i.ClosesAt = cloneTime(rec.ClosesAt)
}

func (i *CatalogItem) sameFeedAttributes(rec FeedRecord) bool {
	return i.LotID == rec.LotID &&
		i.CaseID == rec.CaseID &&
		i.HistoryID == rec.HistoryID &&
		i.Title == rec.Title &&
		i.IssuingMethod == rec.IssuingMethod &&
		i.BidReference == rec.BidReference &&
		i.GoodsDescription == rec.GoodsDescription &&
		i.Category == rec.Category &&
		i.Address == rec.Address &&
		equalInt64(i.InitialFloorFrom, rec.InitialFloorFrom) &&
		equalInt64(i.AppraisedValue, rec.AppraisedValue) &&
		equalDecimal(i.FeeRate, rec.FeeRate) &&
		equalTime(i.AnnouncementAt, rec.AnnouncementAt) &&
		equalTime(i.ClosesAt, rec.ClosesAt)
}

func equalInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalDecimal(a, b decimal.NullDecimal) bool {
	if !a.Valid || !b.Valid {
		return a.Valid == b.Valid
	}
	return a.Decimal.Equal(b.Decimal)
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
