package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/coocood/freecache"
)

// MemoryFloorBoard keeps floors in an in-process freecache segment.
// It suits single-instance deployments; entries expire after ttl and may be
// evicted under memory pressure, after which reads fall back to the database.
type MemoryFloorBoard struct {
	cache     *freecache.Cache
	ttl       time.Duration
	keyPrefix string
	// mu makes the read-compare-write in Raise atomic
	mu sync.Mutex
}

// NewMemoryFloorBoard creates a board backed by a cache of sizeMB megabytes
func NewMemoryFloorBoard(sizeMB int, ttl time.Duration) *MemoryFloorBoard {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	return &MemoryFloorBoard{
		cache:     freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:       ttl,
		keyPrefix: "floor:",
	}
}

// Raise stores price when it is above the stored floor
func (b *MemoryFloorBoard) Raise(_ context.Context, naturalKey string, price int64) (bool, error) {
	if price <= 0 {
		return false, nil
	}
	key := []byte(b.keyPrefix + naturalKey)

	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok, err := b.read(key)
	if err != nil {
		return false, err
	}
	if ok && current >= price {
		return false, nil
	}
	if err := b.cache.Set(key, []byte(strconv.FormatInt(price, 10)), ttlSeconds(b.ttl)); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the stored floor
func (b *MemoryFloorBoard) Get(_ context.Context, naturalKey string) (int64, bool, error) {
	return b.read([]byte(b.keyPrefix + naturalKey))
}

// Forget drops the stored floor
func (b *MemoryFloorBoard) Forget(_ context.Context, naturalKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache.Del([]byte(b.keyPrefix + naturalKey))
	return nil
}

// Clear drops every entry
func (b *MemoryFloorBoard) Clear() {
	b.cache.Clear()
}

func (b *MemoryFloorBoard) read(key []byte) (int64, bool, error) {
	val, err := b.cache.Get(key)
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	price, err := strconv.ParseInt(string(val), 10, 64)
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}

// ttlSeconds converts to freecache's expiry, where 0 means no expiry
func ttlSeconds(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	if s := int(ttl / time.Second); s > 0 {
		return s
	}
	return 1
}

var _ bidding.FloorBoard = (*MemoryFloorBoard)(nil)
