package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Feed       FeedConfig
	Sync       SyncConfig
	FloorBoard FloorBoardConfig
	NATS       NATSConfig
	Telemetry  TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig holds bidder identity settings.
// With a secret set, bidders are identified by the subject of an HS256 bearer token;
// otherwise the trusted gateway header is read.
type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	BidderIDHeader string
	AdminToken     string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	// BidRatePerSecond limits bids per bidder; zero disables the limit
	BidRatePerSecond float64
	BidBurst         int
}

// FeedConfig holds upstream listing feed settings
type FeedConfig struct {
	BaseURL           string
	ServiceKey        string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxResponseBytes  int64
}

// SyncConfig holds catalog sync settings
type SyncConfig struct {
	StartupEnabled      bool
	ScheduleEnabled     bool
	InitialDelay        time.Duration
	Interval            time.Duration
	FastPages           int
	FastPageSize        int
	ProbePageSize       int
	PageSize            int
	PoolCoreWorkers     int
	PoolMaxWorkers      int
	PoolQueueLength     int
	DeactivateOnPartial bool
	HistorySize         int
}

// FloorBoardConfig holds the live floor price board settings
type FloorBoardConfig struct {
	Driver string // memory, redis
	SizeMB int
	TTL    time.Duration
}

// NATSConfig holds event stream settings
type NATSConfig struct {
	Enabled bool
	URL     string
	Stream  string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings
	MetricsInterval   time.Duration // Metric export interval
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BIDHUB_ prefix (e.g., BIDHUB_FEED_SERVICE_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("BIDHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans whose default is true need an explicit default so that
	// "unset" and "false" can be told apart.
	v.SetDefault("sync.startup_enabled", true)
	v.SetDefault("sync.schedule_enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString("auth.jwt_secret"),
			JWTIssuer:      v.GetString("auth.jwt_issuer"),
			BidderIDHeader: v.GetString("auth.bidder_id_header"),
			AdminToken:     v.GetString("auth.admin_token"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			BidRatePerSecond: v.GetFloat64("http.bid_rate_per_second"),
			BidBurst:         v.GetInt("http.bid_burst"),
		},
		Feed: FeedConfig{
			BaseURL:           v.GetString("feed.base_url"),
			ServiceKey:        v.GetString("feed.service_key"),
			Timeout:           v.GetDuration("feed.timeout"),
			RequestsPerSecond: v.GetFloat64("feed.requests_per_second"),
			Burst:             v.GetInt("feed.burst"),
			MaxResponseBytes:  v.GetInt64("feed.max_response_bytes"),
		},
		Sync: SyncConfig{
			StartupEnabled:      v.GetBool("sync.startup_enabled"),
			ScheduleEnabled:     v.GetBool("sync.schedule_enabled"),
			InitialDelay:        v.GetDuration("sync.initial_delay"),
			Interval:            v.GetDuration("sync.interval"),
			FastPages:           v.GetInt("sync.fast_pages"),
			FastPageSize:        v.GetInt("sync.fast_page_size"),
			ProbePageSize:       v.GetInt("sync.probe_page_size"),
			PageSize:            v.GetInt("sync.page_size"),
			PoolCoreWorkers:     v.GetInt("sync.pool_core_workers"),
			PoolMaxWorkers:      v.GetInt("sync.pool_max_workers"),
			PoolQueueLength:     v.GetInt("sync.pool_queue_length"),
			DeactivateOnPartial: v.GetBool("sync.deactivate_on_partial"),
			HistorySize:         v.GetInt("sync.history_size"),
		},
		FloorBoard: FloorBoardConfig{
			Driver: v.GetString("floor_board.driver"),
			SizeMB: v.GetInt("floor_board.size_mb"),
			TTL:    v.GetDuration("floor_board.ttl"),
		},
		NATS: NATSConfig{
			Enabled: v.GetBool("nats.enabled"),
			URL:     v.GetString("nats.url"),
			Stream:  v.GetString("nats.stream"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bidhub-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "bidhub"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "bidhub.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Auth.JWTIssuer == "" {
		cfg.Auth.JWTIssuer = "bidhub-identity"
	}
	if cfg.Auth.BidderIDHeader == "" {
		cfg.Auth.BidderIDHeader = "X-Bidder-ID"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Bidder-ID"}
	}
	if cfg.HTTP.BidBurst == 0 {
		cfg.HTTP.BidBurst = 5
	}
	if cfg.Feed.BaseURL == "" {
		cfg.Feed.BaseURL = "http://openapi.onbid.co.kr/openapi/services/KamcoPblsalThingInquireSvc/getKamcoPbctCltrList"
	}
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 60 * time.Second
	}
	if cfg.Feed.RequestsPerSecond == 0 {
		cfg.Feed.RequestsPerSecond = 5
	}
	if cfg.Feed.Burst == 0 {
		cfg.Feed.Burst = 5
	}
	if cfg.Feed.MaxResponseBytes == 0 {
		cfg.Feed.MaxResponseBytes = 256 << 20
	}
	if cfg.Sync.InitialDelay == 0 {
		cfg.Sync.InitialDelay = time.Hour
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = time.Hour
	}
	if cfg.Sync.FastPages == 0 {
		cfg.Sync.FastPages = 2
	}
	if cfg.Sync.FastPageSize == 0 {
		cfg.Sync.FastPageSize = 99
	}
	if cfg.Sync.ProbePageSize == 0 {
		cfg.Sync.ProbePageSize = 10000
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 10000
	}
	if cfg.Sync.PoolCoreWorkers == 0 {
		cfg.Sync.PoolCoreWorkers = 5
	}
	if cfg.Sync.PoolMaxWorkers == 0 {
		cfg.Sync.PoolMaxWorkers = 10
	}
	if cfg.Sync.PoolQueueLength == 0 {
		cfg.Sync.PoolQueueLength = 1000
	}
	if cfg.Sync.HistorySize == 0 {
		cfg.Sync.HistorySize = 50
	}
	if cfg.FloorBoard.Driver == "" {
		cfg.FloorBoard.Driver = "memory"
	}
	if cfg.FloorBoard.SizeMB == 0 {
		cfg.FloorBoard.SizeMB = 32
	}
	if cfg.FloorBoard.TTL == 0 {
		cfg.FloorBoard.TTL = 24 * time.Hour
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.NATS.Stream == "" {
		cfg.NATS.Stream = "BID_EVENTS"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "bidhub-backend"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Sync.PoolCoreWorkers > c.Sync.PoolMaxWorkers {
		return fmt.Errorf("sync.pool_core_workers (%d) cannot exceed sync.pool_max_workers (%d)",
			c.Sync.PoolCoreWorkers, c.Sync.PoolMaxWorkers)
	}
	if c.Sync.Interval < time.Minute {
		return fmt.Errorf("sync.interval must be at least 1m, got %s", c.Sync.Interval)
	}

	switch c.FloorBoard.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("floor_board.driver must be memory or redis, got %q", c.FloorBoard.Driver)
	}

	if c.App.Env == "production" {
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("database.driver must be postgres in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required in production")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters in production")
		}
		if c.Feed.ServiceKey == "" {
			return fmt.Errorf("feed.service_key is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
