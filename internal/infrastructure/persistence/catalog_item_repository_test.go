package persistence

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var listingNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func listingFixture() []catalog.FeedRecord {
	at := func(d time.Duration) *time.Time { return timePtr(listingNow.Add(d)) }
	return []catalog.FeedRecord{
		{NaturalKey: "A", Title: "Apartment Gangnam", IssuingMethod: "Sale", Address: "Seoul Gangnam-gu Yeoksam-dong", AppraisedValue: int64Ptr(800), InitialFloorFrom: int64Ptr(500), AnnouncementAt: at(-2 * time.Hour), ClosesAt: at(time.Hour)},
		{NaturalKey: "B", Title: "Office 100% leased", IssuingMethod: "Lease", Address: "Busan Haeundae-gu U-dong", AppraisedValue: int64Ptr(2000), InitialFloorFrom: int64Ptr(1500), AnnouncementAt: at(-time.Hour), ClosesAt: at(2 * time.Hour)},
		{NaturalKey: "C", Title: "Warehouse", IssuingMethod: "Sale", Address: "Gyeonggi 100%_zone", InitialFloorFrom: int64Ptr(2500), AnnouncementAt: at(3 * time.Hour), ClosesAt: at(5 * time.Hour)},
		{NaturalKey: "D", Title: "land_plot", IssuingMethod: "Sale", AnnouncementAt: at(time.Hour), ClosesAt: at(4 * time.Hour)},
		{NaturalKey: "E", Title: "Parking lot", IssuingMethod: "Lease"},
		{NaturalKey: "F", Title: "apartment Mapo", IssuingMethod: "Sale", Address: "SEOUL Mapo-gu Hapjeong-dong", AppraisedValue: int64Ptr(1200), InitialFloorFrom: int64Ptr(900), AnnouncementAt: at(-time.Hour), ClosesAt: at(-30 * time.Minute)},
		{NaturalKey: "0", Title: "Storage unit", IssuingMethod: "Lease", AnnouncementAt: at(0)},
	}
}

func seedListing(t *testing.T) (*Database, *GormCatalogItemRepository) {
	t.Helper()
	db := newTestDatabase(t)
	_, err := NewGormCatalogReconciler(db.DB, zap.NewNop()).
		Reconcile(context.Background(), listingFixture(), catalog.ReconcileOptions{Now: listingNow.Add(-24 * time.Hour)})
	require.NoError(t, err)
	return db, NewGormCatalogItemRepository(db.DB)
}

func keysOf(items []catalog.CatalogItem) []string {
	keys := make([]string, len(items))
	for i := range items {
		keys[i] = items[i].NaturalKey
	}
	return keys
}

func TestGormCatalogItemRepository_ListActive(t *testing.T) {
	ctx := context.Background()

	t.Run("orders like ListingLess", func(t *testing.T) {
		_, repo := seedListing(t)

		got, err := repo.ListActive(ctx, listingNow, shared.PageRequest{Page: 1, PageSize: 50})
		require.NoError(t, err)

		expected := make([]*catalog.CatalogItem, 0)
		for _, rec := range listingFixture() {
			item, err := catalog.NewCatalogItemFromRecord(rec, listingNow)
			require.NoError(t, err)
			expected = append(expected, item)
		}
		sort.Slice(expected, func(i, j int) bool { return catalog.ListingLess(expected[i], expected[j], listingNow) })
		want := make([]string, len(expected))
		for i, item := range expected {
			want[i] = item.NaturalKey
		}

		assert.Equal(t, []string{"0", "B", "F", "A", "D", "C", "E"}, want)
		assert.Equal(t, want, keysOf(got.Items))
		assert.Equal(t, int64(7), got.Total)
	})

	t.Run("pages are stable and disjoint", func(t *testing.T) {
		_, repo := seedListing(t)

		var seen []string
		for page := 1; page <= 3; page++ {
			got, err := repo.ListActive(ctx, listingNow, shared.PageRequest{Page: page, PageSize: 3})
			require.NoError(t, err)
			assert.Equal(t, int64(7), got.Total)
			assert.Equal(t, 3, got.TotalPages)
			seen = append(seen, keysOf(got.Items)...)
		}
		assert.Equal(t, []string{"0", "B", "F", "A", "D", "C", "E"}, seen)

		beyond, err := repo.ListActive(ctx, listingNow, shared.PageRequest{Page: 9, PageSize: 3})
		require.NoError(t, err)
		assert.Empty(t, beyond.Items)
		assert.Equal(t, int64(7), beyond.Total)
	})

	t.Run("order moves with now", func(t *testing.T) {
		_, repo := seedListing(t)

		later := listingNow.Add(4 * time.Hour)
		got, err := repo.ListActive(ctx, later, shared.PageRequest{PageSize: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "D", "0", "B", "F", "A", "E"}, keysOf(got.Items))
	})

	t.Run("inactive items are hidden", func(t *testing.T) {
		db, repo := seedListing(t)
		_, err := NewGormCatalogReconciler(db.DB, zap.NewNop()).
			Reconcile(ctx, listingFixture()[:2], catalog.ReconcileOptions{Now: listingNow})
		require.NoError(t, err)

		got, err := repo.ListActive(ctx, listingNow, shared.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "A"}, keysOf(got.Items))
		assert.Equal(t, int64(2), got.Total)

		count, err := repo.CountActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestGormCatalogItemRepository_Search(t *testing.T) {
	ctx := context.Background()
	_, repo := seedListing(t)

	tests := []struct {
		name     string
		criteria catalog.SearchCriteria
		want     []string
	}{
		{"empty criteria lists everything", catalog.SearchCriteria{}, []string{"0", "B", "F", "A", "D", "C", "E"}},
		{"title is case insensitive", catalog.SearchCriteria{Title: "APARTMENT"}, []string{"F", "A"}},
		{"title wildcard characters are literal", catalog.SearchCriteria{Title: "100%"}, []string{"B"}},
		{"underscore is literal", catalog.SearchCriteria{Title: "d_p"}, []string{"D"}},
		{"title is trimmed", catalog.SearchCriteria{Title: "  warehouse "}, []string{"C"}},
		{"issuing method matches exactly", catalog.SearchCriteria{IssuingMethod: "Lease"}, []string{"0", "B", "E"}},
		{"price range is inclusive", catalog.SearchCriteria{PriceFrom: int64Ptr(900), PriceTo: int64Ptr(1500)}, []string{"B", "F"}},
		{"price bound excludes unknown floors", catalog.SearchCriteria{PriceTo: int64Ptr(100000)}, []string{"B", "F", "A", "C"}},
		{"announcement lower bound", catalog.SearchCriteria{AnnouncementFrom: timePtr(listingNow)}, []string{"0", "D", "C"}},
		{"closing upper bound", catalog.SearchCriteria{ClosesUntil: timePtr(listingNow.Add(time.Hour))}, []string{"F", "A"}},
		{"filters combine", catalog.SearchCriteria{IssuingMethod: "Sale", PriceFrom: int64Ptr(600)}, []string{"F", "C"}},
		{"region matches address case insensitively", catalog.SearchCriteria{Region: []string{"seoul"}}, []string{"F", "A"}},
		{"every region part must match", catalog.SearchCriteria{Region: []string{"Seoul", "Mapo-gu"}}, []string{"F"}},
		{"region wildcard characters are literal", catalog.SearchCriteria{Region: []string{"100%_"}}, []string{"C"}},
		{"blank region parts are ignored", catalog.SearchCriteria{Region: []string{"", "  ", "Busan"}}, []string{"B"}},
		{"appraised range is inclusive", catalog.SearchCriteria{AppraisedFrom: int64Ptr(800), AppraisedTo: int64Ptr(1200)}, []string{"F", "A"}},
		{"appraised bound excludes unknown values", catalog.SearchCriteria{AppraisedFrom: int64Ptr(0)}, []string{"B", "F", "A"}},
		{"region and appraised combine", catalog.SearchCriteria{Region: []string{"seoul"}, AppraisedFrom: int64Ptr(1000)}, []string{"F"}},
		{"no match", catalog.SearchCriteria{Title: "castle"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tt.criteria, listingNow, shared.PageRequest{PageSize: 50})
			require.NoError(t, err)
			assert.Equal(t, tt.want, keysOf(got.Items))
			assert.Equal(t, int64(len(tt.want)), got.Total)
		})
	}
}

func TestGormCatalogItemRepository_FindByNaturalKey(t *testing.T) {
	ctx := context.Background()
	db, repo := seedListing(t)

	item, err := repo.FindByNaturalKey(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Apartment Gangnam", item.Title)
	assert.Equal(t, int64(500), *item.InitialFloorFrom)
	assert.True(t, item.AnnouncementAt.Equal(listingNow.Add(-2*time.Hour)))
	assert.Equal(t, catalog.WindowStatusOpen, item.Status(listingNow))

	_, err = NewGormCatalogReconciler(db.DB, zap.NewNop()).
		Reconcile(ctx, listingFixture()[1:], catalog.ReconcileOptions{Now: listingNow})
	require.NoError(t, err)

	inactive, err := repo.FindByNaturalKey(ctx, "A")
	require.NoError(t, err)
	assert.False(t, inactive.Active)

	_, err = repo.FindByNaturalKey(ctx, "missing")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
