package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bidhub/backend/internal/infrastructure/logger"
	"github.com/bidhub/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	// BidderIDKey holds the authenticated bidder on the gin context
	BidderIDKey = "bidder_id"
	// ErrorCodeKey holds the error code written by the handler, for tracing
	ErrorCodeKey = "error_code"

	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
	maxBidderID  = 100
)

var errMissingIdentity = errors.New("missing bidder identity")

// BidderIdentityConfig configures how bidders are identified.
// With a JWTSecret the bidder is the subject of an HS256 bearer token.
// Without one the trusted gateway header is read.
type BidderIdentityConfig struct {
	JWTSecret  string
	JWTIssuer  string
	HeaderName string
	Logger     *zap.Logger
}

// BidderIdentity resolves the calling bidder or aborts with 401
func BidderIdentity(cfg BidderIdentityConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Bidder-ID"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.JWTIssuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	parser := jwt.NewParser(parserOpts...)

	return func(c *gin.Context) {
		var (
			bidderID string
			err      error
		)
		if cfg.JWTSecret != "" {
			bidderID, err = subjectFromBearer(parser, c.GetHeader(authHeader), []byte(cfg.JWTSecret))
		} else {
			bidderID = strings.TrimSpace(c.GetHeader(cfg.HeaderName))
			if bidderID == "" {
				err = errMissingIdentity
			}
		}
		if err == nil && len(bidderID) > maxBidderID {
			err = fmt.Errorf("bidder id exceeds %d characters", maxBidderID)
		}
		if err != nil {
			cfg.Logger.Debug("Bidder identity rejected",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Bidder identity required", GetRequestID(c)))
			return
		}

		c.Set(BidderIDKey, bidderID)
		c.Request = c.Request.WithContext(logger.WithBidderID(c.Request.Context(), bidderID))
		c.Next()
	}
}

func subjectFromBearer(parser *jwt.Parser, header string, secret []byte) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", errMissingIdentity
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if tokenString == "" {
		return "", errMissingIdentity
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// GetBidderID returns the bidder resolved by BidderIdentity
func GetBidderID(c *gin.Context) string {
	return c.GetString(BidderIDKey)
}
