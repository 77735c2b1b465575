package event

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// JetStreamConfig holds event stream settings
type JetStreamConfig struct {
	URL           string
	Stream        string
	SubjectPrefix string
	MaxAge        time.Duration
}

// DefaultJetStreamConfig returns default configuration
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:           nats.DefaultURL,
		Stream:        "BID_EVENTS",
		SubjectPrefix: "bidhub.events",
		MaxAge:        7 * 24 * time.Hour,
	}
}

// JetStreamPublisher publishes domain events to a JetStream stream.
// Each event goes to "<prefix>.<event_type>" with its event id as the
// message id, so the server drops redeliveries inside the dedupe window.
type JetStreamPublisher struct {
	conn       *nats.Conn
	js         jetstream.JetStream
	config     JetStreamConfig
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewJetStreamPublisher connects to NATS and ensures the stream exists
func NewJetStreamPublisher(ctx context.Context, config JetStreamConfig, logger *zap.Logger) (*JetStreamPublisher, error) {
	conn, err := nats.Connect(config.URL,
		nats.Name("bidhub-backend"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p, err := NewJetStreamPublisherWithConn(ctx, conn, config, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// NewJetStreamPublisherWithConn creates a publisher on an existing connection
func NewJetStreamPublisherWithConn(ctx context.Context, conn *nats.Conn, config JetStreamConfig, logger *zap.Logger) (*JetStreamPublisher, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        config.Stream,
		Description: "Accepted bids and catalog sync results",
		Subjects:    []string{config.SubjectPrefix + ".>"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      config.MaxAge,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stream %s: %w", config.Stream, err)
	}

	logger.Info("JetStream stream ready",
		zap.String("stream", config.Stream),
		zap.String("subjects", config.SubjectPrefix+".>"),
	)
	return &JetStreamPublisher{
		conn:       conn,
		js:         js,
		config:     config,
		serializer: NewEventSerializer(),
		logger:     logger,
	}, nil
}

// Publish publishes events in order and stops at the first failure
func (p *JetStreamPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		data, err := p.serializer.Serialize(event)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", event.EventType(), err)
		}
		subject := Subject(p.config.SubjectPrefix, event.EventType())
		ack, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.EventID().String()))
		if err != nil {
			return fmt.Errorf("publish %s: %w", subject, err)
		}
		p.logger.Debug("Event published",
			zap.String("subject", subject),
			zap.String("event_id", event.EventID().String()),
			zap.Uint64("sequence", ack.Sequence),
			zap.Bool("duplicate", ack.Duplicate),
		)
	}
	return nil
}

// Close drains the connection
func (p *JetStreamPublisher) Close() error {
	return p.conn.Drain()
}

// Subject maps an event type such as "BidAccepted" to "<prefix>.bid_accepted"
func Subject(prefix, eventType string) string {
	var b strings.Builder
	for i, r := range eventType {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return prefix + "." + b.String()
}

var _ shared.EventPublisher = (*JetStreamPublisher)(nil)
