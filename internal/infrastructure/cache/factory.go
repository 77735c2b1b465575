package cache

import (
	"context"
	"fmt"

	"github.com/bidhub/backend/internal/domain/bidding"
	"github.com/bidhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Floor board drivers
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// FloorBoardFactory creates floor boards based on configuration
type FloorBoardFactory struct {
	boardConfig           config.FloorBoardConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FloorBoardFactoryOption is a functional option for configuring the factory
type FloorBoardFactoryOption func(*FloorBoardFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FloorBoardFactoryOption {
	return func(f *FloorBoardFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to the in-process board.
// Default is true.
func WithInMemoryFallback(allow bool) FloorBoardFactoryOption {
	return func(f *FloorBoardFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFloorBoardFactory creates a new factory
func NewFloorBoardFactory(boardCfg config.FloorBoardConfig, redisCfg config.RedisConfig, opts ...FloorBoardFactoryOption) *FloorBoardFactory {
	f := &FloorBoardFactory{
		boardConfig:           boardCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateMemoryBoard creates the in-process board.
// Floors are not shared across instances, which only makes reads fall back to the database more often.
func (f *FloorBoardFactory) CreateMemoryBoard() *MemoryFloorBoard {
	return NewMemoryFloorBoard(f.boardConfig.SizeMB, f.boardConfig.TTL)
}

// CreateRedisBoard connects to Redis and creates a shared board
func (f *FloorBoardFactory) CreateRedisBoard(ctx context.Context) (*RedisFloorBoard, error) {
	client, err := NewRedisClient(ctx, RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, err
	}
	return NewRedisFloorBoard(client, f.boardConfig.TTL, ""), nil
}

// CreateBoard creates the configured board. The returned close function releases
// any connection and is never nil.
func (f *FloorBoardFactory) CreateBoard(ctx context.Context) (bidding.FloorBoard, func() error, error) {
	noop := func() error { return nil }

	switch f.boardConfig.Driver {
	case "", DriverMemory:
		f.logger.Info("Using in-memory floor board", zap.Int("size_mb", f.boardConfig.SizeMB))
		return f.CreateMemoryBoard(), noop, nil
	case DriverRedis:
		board, err := f.CreateRedisBoard(ctx)
		if err == nil {
			f.logger.Info("Using Redis floor board", zap.String("addr", f.redisConfig.Addr()))
			return board, board.Close, nil
		}
		if !f.allowInMemoryFallback {
			return nil, noop, fmt.Errorf("Redis required for floor board but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory floor board", zap.Error(err))
		return f.CreateMemoryBoard(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown floor board driver %q", f.boardConfig.Driver)
	}
}
