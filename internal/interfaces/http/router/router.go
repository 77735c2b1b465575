package router

import (
	"time"

	"github.com/bidhub/backend/internal/infrastructure/logger"
	"github.com/bidhub/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds the HTTP surface settings
type Config struct {
	APIVersion     string
	ServiceName    string
	Tracing        bool
	MaxBodySize    int64
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Identity       middleware.BidderIdentityConfig
	AdminToken     string
	// BidRatePerSecond limits bids per bidder; zero disables the limit
	BidRatePerSecond float64
	BidBurst         int
}

// Handlers groups the registrars by the access they require
type Handlers struct {
	// Public needs no identity
	Public []RouteRegistrar
	// Bidder routes run behind BidderIdentity and the per-bidder rate limit
	Bidder []RouteRegistrar
	// Operator routes run behind the admin token
	Operator []RouteRegistrar
	// Root routes are registered outside the versioned prefix
	Root []RouteRegistrar
}

// New builds the gin engine with the standard middleware chain
func New(cfg Config, handlers Handlers, log *zap.Logger) (*gin.Engine, error) {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	if cfg.Tracing {
		engine.Use(middleware.Tracing(cfg.ServiceName)...)
	}
	engine.Use(
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	for _, r := range handlers.Root {
		r.RegisterRoutes(&engine.RouterGroup)
	}

	api := engine.Group("/api/" + cfg.APIVersion)
	for _, r := range handlers.Public {
		r.RegisterRoutes(api)
	}

	if cfg.Identity.Logger == nil {
		cfg.Identity.Logger = log
	}
	bidderChain := []gin.HandlerFunc{middleware.BidderIdentity(cfg.Identity)}
	if cfg.BidRatePerSecond > 0 {
		burst := cfg.BidBurst
		if burst < 1 {
			burst = 1
		}
		limiter := middleware.NewKeyedLimiter(cfg.BidRatePerSecond, burst, 10*time.Minute)
		bidderChain = append(bidderChain, middleware.RateLimitByBidder(limiter))
	}
	bidder := api.Group("", bidderChain...)
	for _, r := range handlers.Bidder {
		r.RegisterRoutes(bidder)
	}

	if cfg.AdminToken == "" && len(handlers.Operator) > 0 {
		log.Warn("No admin token configured, operator endpoints are open")
	}
	operator := api.Group("", middleware.AdminToken(cfg.AdminToken))
	for _, r := range handlers.Operator {
		r.RegisterRoutes(operator)
	}

	return engine, nil
}
