package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/redis/go-redis/v9"
)

// raiseScript sets the floor only when the new price is higher, atomically on the server.
// KEYS[1]: floor key, ARGV[1]: price, ARGV[2]: ttl in milliseconds (0 keeps no expiry).
// Returns {changed, floor after the call}.
var raiseScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local price = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])
if price > current then
	if ttl > 0 then
		redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
	else
		redis.call('SET', KEYS[1], ARGV[1])
	end
	return {1, price}
end
return {0, current}
`)

// RedisFloorBoard shares floors between instances through Redis
type RedisFloorBoard struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisFloorBoard creates a board on an existing client
func NewRedisFloorBoard(client redis.UniversalClient, ttl time.Duration, keyPrefix string) *RedisFloorBoard {
	if keyPrefix == "" {
		keyPrefix = "bidhub:floor:"
	}
	return &RedisFloorBoard{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

// Raise stores price when it is above the stored floor
func (b *RedisFloorBoard) Raise(ctx context.Context, naturalKey string, price int64) (bool, error) {
	if price <= 0 {
		return false, nil
	}
	res, err := raiseScript.Run(ctx, b.client, []string{b.key(naturalKey)}, price, b.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("raise floor: %w", err)
	}
	if len(res) != 2 {
		return false, fmt.Errorf("raise floor: unexpected script result %v", res)
	}
	return res[0] == 1, nil
}

// Get returns the stored floor
func (b *RedisFloorBoard) Get(ctx context.Context, naturalKey string) (int64, bool, error) {
	price, err := b.client.Get(ctx, b.key(naturalKey)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read floor: %w", err)
	}
	return price, true, nil
}

// Forget deletes the stored floor
func (b *RedisFloorBoard) Forget(ctx context.Context, naturalKey string) error {
	if err := b.client.Del(ctx, b.key(naturalKey)).Err(); err != nil {
		return fmt.Errorf("forget floor: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (b *RedisFloorBoard) Close() error {
	return b.client.Close()
}

func (b *RedisFloorBoard) key(naturalKey string) string {
	return b.keyPrefix + naturalKey
}

var _ bidding.FloorBoard = (*RedisFloorBoard)(nil)
