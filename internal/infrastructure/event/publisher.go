package event

import (
	"context"
	"sync"

	"github.com/bidhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LoggingPublisher writes events to the log. It stands in when no broker is configured.
type LoggingPublisher struct {
	logger *zap.Logger
}

// NewLoggingPublisher creates a new LoggingPublisher
func NewLoggingPublisher(logger *zap.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

// Publish logs each event at debug level
func (p *LoggingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		p.logger.Debug("Domain event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.String("aggregate_id", event.AggregateID().String()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
	return nil
}

// RecordingPublisher keeps published events in memory
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

// NewRecordingPublisher creates a publisher that records events and returns err from every Publish
func NewRecordingPublisher(err error) *RecordingPublisher {
	return &RecordingPublisher{err: err}
}

// Publish records the events
func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

// Events returns a copy of everything published so far
func (p *RecordingPublisher) Events() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent(nil), p.events...)
}

var (
	_ shared.EventPublisher = (*LoggingPublisher)(nil)
	_ shared.EventPublisher = (*RecordingPublisher)(nil)
)
