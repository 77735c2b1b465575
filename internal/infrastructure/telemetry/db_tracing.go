package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // Include query variables in spans (dev only)
	SlowQueryThresh time.Duration // Default: 200ms
	DBSystem        string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin registers otelgorm and flags slow statements on their spans.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs otelgorm plus the slow-query callbacks on db.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// registerCallbacks times every statement. The after hooks are ordered ahead
// of otelgorm's so the statement span is still current when they run.
func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		name string
		reg  callbackRegistrar
		fn   func(*gorm.DB)
	}{
		{"before_create", cb.Create().Before("gorm:create"), markQueryStart},
		{"after_create", cb.Create().After("gorm:create").Before("otel:after:create"), p.afterQuery},
		{"before_query", cb.Query().Before("gorm:query"), markQueryStart},
		{"after_query", cb.Query().After("gorm:query").Before("otel:after:select"), p.afterQuery},
		{"before_update", cb.Update().Before("gorm:update"), markQueryStart},
		{"after_update", cb.Update().After("gorm:update").Before("otel:after:update"), p.afterQuery},
		{"before_delete", cb.Delete().Before("gorm:delete"), markQueryStart},
		{"after_delete", cb.Delete().After("gorm:delete").Before("otel:after:delete"), p.afterQuery},
		{"before_row", cb.Row().Before("gorm:row"), markQueryStart},
		{"after_row", cb.Row().After("gorm:row").Before("otel:after:row"), p.afterQuery},
		{"before_raw", cb.Raw().Before("gorm:raw"), markQueryStart},
		{"after_raw", cb.Raw().After("gorm:raw").Before("otel:after:raw"), p.afterQuery},
	}
	for _, h := range hooks {
		if err := h.reg.Register("otel_timing:"+h.name, h.fn); err != nil {
			return err
		}
	}
	return nil
}

// queryStartKey lives on the statement instance, which survives otelgorm
// swapping the statement context.
const queryStartKey = "otel_timing:start"

func markQueryStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	elapsed := time.Since(start)
	if elapsed <= p.config.SlowQueryThresh {
		return
	}

	p.logger.Warn("Slow query",
		zap.String("table", db.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.String("trace_id", TraceID(ctx)),
	)
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}
}
