package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFloorBoard_Raise(t *testing.T) {
	ctx := context.Background()
	board := NewMemoryFloorBoard(1, time.Hour)

	_, ok, err := board.Get(ctx, "X-001")
	require.NoError(t, err)
	assert.False(t, ok)

	tests := []struct {
		name        string
		price       int64
		wantChanged bool
		wantFloor   int64
	}{
		{"first floor", 150000, true, 150000},
		{"equal price keeps floor", 150000, false, 150000},
		{"lower price never lowers", 100000, false, 150000},
		{"higher price raises", 200000, true, 200000},
		{"zero is ignored", 0, false, 200000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := board.Raise(ctx, "X-001", tt.price)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)

			floor, ok, err := board.Get(ctx, "X-001")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.wantFloor, floor)
		})
	}

	_, ok, err = board.Get(ctx, "OTHER")
	require.NoError(t, err)
	assert.False(t, ok, "keys are independent")

	board.Clear()
	_, ok, _ = board.Get(ctx, "X-001")
	assert.False(t, ok)
}

func TestMemoryFloorBoard_Forget(t *testing.T) {
	ctx := context.Background()
	board := NewMemoryFloorBoard(1, time.Hour)

	_, err := board.Raise(ctx, "X-001", 150000)
	require.NoError(t, err)
	_, err = board.Raise(ctx, "X-002", 90000)
	require.NoError(t, err)

	require.NoError(t, board.Forget(ctx, "X-001"))
	require.NoError(t, board.Forget(ctx, "MISSING"))

	_, ok, err := board.Get(ctx, "X-001")
	require.NoError(t, err)
	assert.False(t, ok)
	floor, ok, err := board.Get(ctx, "X-002")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(90000), floor)

	changed, err := board.Raise(ctx, "X-001", 120000)
	require.NoError(t, err)
	assert.True(t, changed, "a forgotten key accepts any positive floor")
}

func TestMemoryFloorBoard_ConcurrentRaises(t *testing.T) {
	ctx := context.Background()
	board := NewMemoryFloorBoard(1, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	changes := 0
	for i := int64(1); i <= 200; i++ {
		wg.Add(1)
		go func(price int64) {
			defer wg.Done()
			changed, err := board.Raise(ctx, "HOT", price)
			assert.NoError(t, err)
			if changed {
				mu.Lock()
				changes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	floor, ok, err := board.Get(ctx, "HOT")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(200), floor)
	assert.GreaterOrEqual(t, changes, 1)
}

func TestTTLSeconds(t *testing.T) {
	assert.Equal(t, 0, ttlSeconds(0))
	assert.Equal(t, 0, ttlSeconds(-time.Second))
	assert.Equal(t, 1, ttlSeconds(200*time.Millisecond))
	assert.Equal(t, 86400, ttlSeconds(24*time.Hour))
}
