package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormBidderRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	repo := NewGormBidderRepository(db.DB)
	t0 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	_, err := repo.FindByID(ctx, "alice")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	alice, err := bidding.NewBidder("alice", "Alice", t0)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, alice))

	got, err := repo.FindByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.True(t, got.Active)
	assert.True(t, got.CreatedAt.Equal(t0))

	t1 := t0.Add(time.Hour)
	renamed := &bidding.Bidder{ID: "alice", DisplayName: "Alice K.", Active: false, CreatedAt: t1, UpdatedAt: t1}
	require.NoError(t, repo.Save(ctx, renamed))

	got, err = repo.FindByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice K.", got.DisplayName)
	assert.False(t, got.Active)
	assert.True(t, got.CreatedAt.Equal(t0), "created_at keeps its first value")
	assert.True(t, got.UpdatedAt.Equal(t1))
}
