package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func echoBidder(c *gin.Context) {
	c.String(http.StatusOK, GetBidderID(c))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	tests := []struct {
		name     string
		header   string
		wantEcho bool
	}{
		{"generated", "", false},
		{"reused", "abc-123", true},
		{"too long", strings.Repeat("x", MaxRequestIDLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			r.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			assert.NotEmpty(t, got)
			assert.Equal(t, got, w.Body.String())
			assert.Equal(t, tt.wantEcho, got == tt.header)
		})
	}
}

func TestCORSWithConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://bidhub.example"}
	r := gin.New()
	r.Use(CORSWithConfig(cfg))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://bidhub.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://bidhub.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"price":1000000000000}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBidderIdentity_Header(t *testing.T) {
	r := gin.New()
	r.Use(BidderIdentity(BidderIdentityConfig{}))
	r.GET("/", echoBidder)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Bidder-ID", " bidder-7 ")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bidder-7", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Bidder-ID", strings.Repeat("b", 101))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBidderIdentity_JWT(t *testing.T) {
	r := gin.New()
	r.Use(BidderIdentity(BidderIdentityConfig{JWTSecret: testSecret, JWTIssuer: "bidhub-identity"}))
	r.GET("/", echoBidder)

	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBidder string
	}{
		{
			name:       "valid token",
			header:     "Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{Subject: "b-1", Issuer: "bidhub-identity", ExpiresAt: future}),
			wantStatus: http.StatusOK,
			wantBidder: "b-1",
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, "other", jwt.RegisteredClaims{Subject: "b-1", Issuer: "bidhub-identity", ExpiresAt: future}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{Subject: "b-1", Issuer: "bidhub-identity", ExpiresAt: past}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no expiry",
			header:     "Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{Subject: "b-1", Issuer: "bidhub-identity"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong issuer",
			header:     "Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{Subject: "b-1", Issuer: "someone", ExpiresAt: future}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no subject",
			header:     "Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{Issuer: "bidhub-identity", ExpiresAt: future}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not bearer",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			// The gateway header is ignored once tokens are configured
			req.Header.Set("X-Bidder-ID", "spoofed")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBidder != "" {
				assert.Equal(t, tt.wantBidder, w.Body.String())
			}
		})
	}
}

func TestAdminToken(t *testing.T) {
	handler := func(c *gin.Context) { c.Status(http.StatusAccepted) }

	open := gin.New()
	open.POST("/", AdminToken(""), handler)
	w := httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)

	guarded := gin.New()
	guarded.POST("/", AdminToken("s3cret"), handler)

	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	guarded.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestKeyedLimiter(t *testing.T) {
	l := NewKeyedLimiter(1, 2, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "keys are independent")

	clock = clock.Add(time.Second)
	assert.True(t, l.Allow("a"), "refilled one token")
	assert.Equal(t, 2, l.Len())
}

func TestRateLimitByBidder(t *testing.T) {
	r := gin.New()
	r.Use(BidderIdentity(BidderIdentityConfig{}), RateLimitByBidder(NewKeyedLimiter(0.5, 1, time.Minute)))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(bidder string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Bidder-ID", bidder)
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, send("a").Code)
	w := send("a")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusCreated, send("b").Code)
}

type bindProbe struct {
	NaturalKey string `json:"natural_key" binding:"required,max=4"`
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()

	err := binding.Validator.ValidateStruct(&bindProbe{})
	details := ValidationDetails(err)
	require.Len(t, details, 1)
	assert.Equal(t, "natural_key", details[0].Field)
	assert.Equal(t, "This field is required", details[0].Message)

	err = binding.Validator.ValidateStruct(&bindProbe{NaturalKey: "toolong"})
	details = ValidationDetails(err)
	require.Len(t, details, 1)
	assert.Equal(t, "Must be at most 4 characters", details[0].Message)

	assert.Nil(t, ValidationDetails(assert.AnError))
}
