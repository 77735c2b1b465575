package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func sampleRecord(key string) FeedRecord {
	ann := time.Date(2026, 3, 1, 10, 0, 0, 0, FeedLocation)
	cls := time.Date(2026, 3, 5, 17, 0, 0, 0, FeedLocation)
	return FeedRecord{
		NaturalKey:       key,
		LotID:            "202603-00001",
		CaseID:           "8812",
		HistoryID:        "1",
		Title:            "Seoul Gangnam-gu apartment 84m2",
		IssuingMethod:    "Sale",
		BidReference:     "0001-01",
		GoodsDescription: "apartment",
		InitialFloorFrom: int64Ptr(100000),
		FeeRate:          decimal.NewNullDecimal(decimal.RequireFromString("0.5")),
		AnnouncementAt:   &ann,
		ClosesAt:         &cls,
	}
}

func TestNewCatalogItemFromRecord(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("creates active item without floor", func(t *testing.T) {
		item, err := NewCatalogItemFromRecord(sampleRecord("K1"), now)
		require.NoError(t, err)

		assert.Equal(t, "K1", item.NaturalKey)
		assert.True(t, item.Active)
		assert.Nil(t, item.FloorPrice)
		assert.Equal(t, int64(100000), *item.InitialFloorFrom)
		assert.Equal(t, now, item.LastSyncedAt)
		assert.NotEmpty(t, item.ID)
		assert.False(t, item.HasBids())
	})

	t.Run("rejects empty natural key", func(t *testing.T) {
		_, err := NewCatalogItemFromRecord(sampleRecord(""), now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Natural key")
	})
}

func TestCatalogItem_ApplyRecord(t *testing.T) {
	t0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	t.Run("identical record is unchanged but refreshes sync time", func(t *testing.T) {
		item, _ := NewCatalogItemFromRecord(sampleRecord("K1"), t0)
		changed := item.ApplyRecord(sampleRecord("K1"), t1)

		assert.False(t, changed)
		assert.Equal(t, t1, item.LastSyncedAt)
		assert.Equal(t, t0, item.UpdatedAt)
	})

	t.Run("changed attribute is reported", func(t *testing.T) {
		item, _ := NewCatalogItemFromRecord(sampleRecord("K1"), t0)
		rec := sampleRecord("K1")
		rec.Title = "renamed"
		rec.ClosesAt = timePtr(rec.ClosesAt.Add(24 * time.Hour))

		assert.True(t, item.ApplyRecord(rec, t1))
		assert.Equal(t, "renamed", item.Title)
		assert.Equal(t, t1, item.UpdatedAt)
	})

	t.Run("never touches floor price", func(t *testing.T) {
		item, _ := NewCatalogItemFromRecord(sampleRecord("K1"), t0)
		item.FloorPrice = int64Ptr(150000)
		rec := sampleRecord("K1")
		rec.InitialFloorFrom = int64Ptr(1)

		item.ApplyRecord(rec, t1)
		assert.Equal(t, int64(150000), *item.FloorPrice)
	})

	t.Run("reactivates inactive item", func(t *testing.T) {
		item, _ := NewCatalogItemFromRecord(sampleRecord("K1"), t0)
		item.Deactivate(t0)
		require.False(t, item.Active)

		assert.True(t, item.ApplyRecord(sampleRecord("K1"), t1))
		assert.True(t, item.Active)
	})

	t.Run("sync time never moves backwards", func(t *testing.T) {
		item, _ := NewCatalogItemFromRecord(sampleRecord("K1"), t1)
		item.ApplyRecord(sampleRecord("K1"), t0)
		assert.Equal(t, t1, item.LastSyncedAt)
	})

	t.Run("nil and set optional values differ", func(t *testing.T) {
		item, _ := NewCatalogItemFromRecord(sampleRecord("K1"), t0)
		rec := sampleRecord("K1")
		rec.FeeRate = decimal.NullDecimal{}
		assert.True(t, item.ApplyRecord(rec, t1))
	})
}

func TestCatalogItem_HasBids(t *testing.T) {
	item := &CatalogItem{}
	assert.False(t, item.HasBids())

	item.FloorPrice = int64Ptr(0)
	assert.False(t, item.HasBids())

	item.FloorPrice = int64Ptr(10)
	assert.True(t, item.HasBids())
}
