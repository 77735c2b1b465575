package bidding

import (
	"errors"
	"testing"
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func openItem(now time.Time) *catalog.CatalogItem {
	ann := now.Add(-time.Hour)
	cls := now.Add(time.Hour)
	return &catalog.CatalogItem{
		NaturalKey:       "X-001",
		InitialFloorFrom: int64Ptr(100000),
		AnnouncementAt:   &ann,
		ClosesAt:         &cls,
		Active:           true,
	}
}

func TestEvaluate_FloorRules(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	t.Run("first bid below initial floor", func(t *testing.T) {
		r := Evaluate(openItem(now), 50000, now)
		require.NotNil(t, r)
		assert.Equal(t, ReasonBelowInitialFloor, r.Reason)
		assert.Equal(t, int64(100000), *r.MinimumPrice)
	})

	t.Run("first bid at initial floor", func(t *testing.T) {
		assert.Nil(t, Evaluate(openItem(now), 100000, now))
	})

	t.Run("first bid must be positive without initial floor", func(t *testing.T) {
		item := openItem(now)
		item.InitialFloorFrom = nil
		r := Evaluate(item, 0, now)
		require.NotNil(t, r)
		assert.Equal(t, ReasonBelowInitialFloor, r.Reason)
		assert.Nil(t, r.MinimumPrice)

		assert.Nil(t, Evaluate(item, 1, now))
	})

	t.Run("zero floor counts as no bid", func(t *testing.T) {
		item := openItem(now)
		item.FloorPrice = int64Ptr(0)
		r := Evaluate(item, 50000, now)
		require.NotNil(t, r)
		assert.Equal(t, ReasonBelowInitialFloor, r.Reason)
	})

	t.Run("equal to current floor is rejected", func(t *testing.T) {
		item := openItem(now)
		item.FloorPrice = int64Ptr(150000)
		r := Evaluate(item, 150000, now)
		require.NotNil(t, r)
		assert.Equal(t, ReasonBelowCurrentFloor, r.Reason)
		assert.Equal(t, int64(150000), *r.CurrentFloor)
	})

	t.Run("current floor ignores initial floor", func(t *testing.T) {
		item := openItem(now)
		item.InitialFloorFrom = int64Ptr(500000)
		item.FloorPrice = int64Ptr(150000)
		assert.Nil(t, Evaluate(item, 150001, now))
	})
}

func TestEvaluate_WindowRules(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		shape func(*catalog.CatalogItem)
		phase WindowPhase
	}{
		{"not yet open", func(i *catalog.CatalogItem) {
			future := now.Add(time.Minute)
			i.AnnouncementAt = &future
		}, PhaseNotYetOpen},
		{"already closed", func(i *catalog.CatalogItem) {
			past := now.Add(-time.Minute)
			i.ClosesAt = &past
		}, PhaseAlreadyClosed},
		{"undefined window", func(i *catalog.CatalogItem) {
			i.ClosesAt = nil
		}, PhaseWindowUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := openItem(now)
			tt.shape(item)
			r := Evaluate(item, 200000, now)
			require.NotNil(t, r)
			assert.Equal(t, ReasonWindowNotOpen, r.Reason)
			assert.Equal(t, tt.phase, r.Phase)
		})
	}

	t.Run("price rules are checked before the window", func(t *testing.T) {
		item := openItem(now)
		item.ClosesAt = nil
		r := Evaluate(item, 1, now)
		require.NotNil(t, r)
		assert.Equal(t, ReasonBelowInitialFloor, r.Reason)
	})
}

func TestEvaluate_BidSequence(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	item := openItem(now)

	steps := []struct {
		price  int64
		reason RejectionReason
	}{
		{50000, ReasonBelowInitialFloor},
		{150000, ""},
		{150000, ReasonBelowCurrentFloor},
		{200000, ""},
	}

	for _, step := range steps {
		r := Evaluate(item, step.price, now)
		if step.reason == "" {
			require.Nil(t, r, "price %d", step.price)
			item.FloorPrice = int64Ptr(step.price)
			continue
		}
		require.NotNil(t, r, "price %d", step.price)
		assert.Equal(t, step.reason, r.Reason)
	}
	assert.Equal(t, int64(200000), *item.FloorPrice)
}

func TestRejection_UnwrapsToDomainError(t *testing.T) {
	var err error = NewBelowCurrentFloor(10, 20)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "BELOW_CURRENT_FLOOR", domainErr.Code)

	var rejection *Rejection
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, ReasonBelowCurrentFloor, rejection.Reason)
}

func TestNewBidder(t *testing.T) {
	now := time.Now()

	b, err := NewBidder("  user-1 ", "Kim", now)
	require.NoError(t, err)
	assert.Equal(t, "user-1", b.ID)
	assert.True(t, b.Active)

	_, err = NewBidder(" ", "", now)
	assert.Error(t, err)
}
