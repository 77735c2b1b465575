package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func stmt(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name     string
		level    gormlogger.LogLevel
		opts     []GormLoggerOption
		begin    time.Time
		err      error
		wantMsg  string
		wantNone bool
	}{
		{
			name:    "error is logged",
			level:   gormlogger.Error,
			begin:   time.Now(),
			err:     errors.New("deadlock detected"),
			wantMsg: "SQL Error",
		},
		{
			name:     "record not found is ignored",
			level:    gormlogger.Error,
			begin:    time.Now(),
			err:      gormlogger.ErrRecordNotFound,
			wantNone: true,
		},
		{
			name:    "record not found reported when configured",
			level:   gormlogger.Error,
			opts:    []GormLoggerOption{WithIgnoreRecordNotFoundError(false)},
			begin:   time.Now(),
			err:     gormlogger.ErrRecordNotFound,
			wantMsg: "SQL Error",
		},
		{
			name:    "slow query warns",
			level:   gormlogger.Warn,
			opts:    []GormLoggerOption{WithSlowThreshold(time.Millisecond)},
			begin:   time.Now().Add(-time.Second),
			wantMsg: "Slow SQL",
		},
		{
			name:    "normal query at info",
			level:   gormlogger.Info,
			begin:   time.Now(),
			wantMsg: "SQL Query",
		},
		{
			name:     "normal query below info",
			level:    gormlogger.Warn,
			begin:    time.Now(),
			wantNone: true,
		},
		{
			name:     "silent",
			level:    gormlogger.Silent,
			begin:    time.Now(),
			err:      errors.New("ignored"),
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level, tt.opts...)

			gl.Trace(context.Background(), tt.begin, stmt("SELECT * FROM catalog_items", 1), tt.err)

			if tt.wantNone {
				assert.Empty(t, recorded.All())
				return
			}
			require.Len(t, recorded.All(), 1)
			assert.Equal(t, tt.wantMsg, recorded.All()[0].Message)
		})
	}
}

func TestGormLogger_FullSQLAndCorrelation(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithSyncRunID(context.Background(), "run-9")

	NewGormLogger(zap.New(core), gormlogger.Info).Trace(ctx, time.Now(), stmt("SELECT 1", 1), nil)
	NewGormLogger(zap.New(core), gormlogger.Info, WithFullSQL(true)).Trace(ctx, time.Now(), stmt("SELECT 2", 1), nil)

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.NotContains(t, logs[0].ContextMap(), "sql")
	assert.Equal(t, "SELECT 2", logs[1].ContextMap()["sql"])
	assert.Equal(t, "run-9", logs[1].ContextMap()["sync_run_id"])
	assert.Equal(t, "gorm", logs[1].LoggerName)
}

func TestGormLogger_LogMode(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Silent)

	gl.LogMode(gormlogger.Info).Info(context.Background(), "migrated %d tables", 3)
	gl.Info(context.Background(), "suppressed")

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "migrated 3 tables", recorded.All()[0].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything"))
}
