package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/viney-shih/goroutines"
	"go.uber.org/zap"
)

// ErrPublisherClosed is returned after Close
var ErrPublisherClosed = errors.New("publisher is closed")

// AsyncPublisherConfig holds the async delivery settings
type AsyncPublisherConfig struct {
	Workers         int
	QueueLength     int
	ScheduleTimeout time.Duration
	PublishTimeout  time.Duration
}

// DefaultAsyncPublisherConfig returns default configuration
func DefaultAsyncPublisherConfig() AsyncPublisherConfig {
	return AsyncPublisherConfig{
		Workers:         4,
		QueueLength:     1024,
		ScheduleTimeout: 100 * time.Millisecond,
		PublishTimeout:  5 * time.Second,
	}
}

// AsyncPublisher hands events to a worker pool so callers never wait on the broker.
// Delivery failures are logged; the caller only sees scheduling failures.
type AsyncPublisher struct {
	next   shared.EventPublisher
	pool   *goroutines.Pool
	config AsyncPublisherConfig
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncPublisher wraps next with a bounded worker pool
func NewAsyncPublisher(next shared.EventPublisher, config AsyncPublisherConfig, logger *zap.Logger) *AsyncPublisher {
	return &AsyncPublisher{
		next: next,
		pool: goroutines.NewPool(
			config.Workers,
			goroutines.WithTaskQueueLength(config.QueueLength),
			goroutines.WithPreAllocWorkers(config.Workers),
		),
		config: config,
		logger: logger,
	}
}

// Publish schedules delivery and returns without waiting for it.
// The caller's cancellation does not abort delivery.
func (p *AsyncPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	detached := context.WithoutCancel(ctx)
	p.wg.Add(1)
	err := p.pool.ScheduleWithTimeout(p.config.ScheduleTimeout, func() {
		defer p.wg.Done()
		pubCtx, cancel := context.WithTimeout(detached, p.config.PublishTimeout)
		defer cancel()
		if err := p.next.Publish(pubCtx, events...); err != nil {
			p.logger.Warn("Async event delivery failed",
				zap.String("event_type", events[0].EventType()),
				zap.String("event_id", events[0].EventID().String()),
				zap.Int("events", len(events)),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		p.wg.Done()
		return err
	}
	return nil
}

// Close waits for scheduled deliveries up to ctx and releases the pool
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	defer p.pool.Release()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ shared.EventPublisher = (*AsyncPublisher)(nil)
