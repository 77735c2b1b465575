package models

import (
	"sync"
	"testing"
	"time"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestCatalogItemModel_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, catalog.FeedLocation)
	ann := now.Add(-time.Hour)
	floor := int64(1_500_000)
	minimum := int64(1_000_000)

	item, err := catalog.NewCatalogItemFromRecord(catalog.FeedRecord{
		NaturalKey:       "1234567",
		Title:            "Apartment 101",
		InitialFloorFrom: &minimum,
		FeeRate:          decimal.NewNullDecimal(decimal.RequireFromString("0.5")),
		AnnouncementAt:   &ann,
	}, now)
	require.NoError(t, err)
	item.FloorPrice = &floor

	m := CatalogItemModelFromDomain(item)
	assert.Equal(t, time.UTC, m.AnnouncementAt.Location())
	assert.Equal(t, time.UTC, m.LastSyncedAt.Location())

	back := m.ToDomain()
	assert.Equal(t, item.ID, back.ID)
	assert.Equal(t, "1234567", back.NaturalKey)
	assert.True(t, back.AnnouncementAt.Equal(ann))
	assert.Equal(t, floor, *back.FloorPrice)
	assert.True(t, back.FeeRate.Decimal.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, back.Active)
}

func TestCatalogItemModel_FeedColumnsNeverCarryFloor(t *testing.T) {
	m := &CatalogItemModel{}
	cols := m.FeedColumns()
	assert.NotContains(t, cols, "floor_price")
	assert.NotContains(t, cols, "natural_key")
	assert.NotContains(t, cols, "created_at")
	assert.Contains(t, cols, "last_synced_at")
	assert.Contains(t, cols, "active")
}

func TestModels_FeedIdentifiersAreUnbounded(t *testing.T) {
	tests := []struct {
		model  any
		fields []string
	}{
		{&CatalogItemModel{}, []string{"NaturalKey", "LotID", "CaseID", "HistoryID", "IssuingMethod", "BidReference", "Category"}},
		{&BidModel{}, []string{"NaturalKey"}},
	}
	for _, tt := range tests {
		s, err := schema.Parse(tt.model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)
		for _, name := range tt.fields {
			f := s.LookUpField(name)
			require.NotNil(t, f, name)
			assert.Equal(t, schema.DataType("text"), f.DataType, "%s.%s", s.Name, name)
		}
	}
}

func TestBidModels(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, catalog.FeedLocation)
	rec := bidding.NewBidRecord(uuid.New(), "K1", "alice", 100, now)

	back := BidModelFromDomain(rec).ToDomain()
	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, rec.ItemID, back.ItemID)
	assert.Equal(t, int64(100), back.Price)
	assert.True(t, back.AcceptedAt.Equal(now))

	b, err := bidding.NewBidder(" alice ", "Alice", now)
	require.NoError(t, err)
	m := BidderModelFromDomain(b)
	assert.Equal(t, "alice", m.ID)
	assert.Equal(t, "Alice", m.ToDomain().DisplayName)
	assert.True(t, m.ToDomain().Active)
}
