package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "bidhub-backend/feed"

// FetchErrorKind classifies a failed page request
type FetchErrorKind string

const (
	FetchErrorNetwork  FetchErrorKind = "network"
	FetchErrorTimeout  FetchErrorKind = "timeout"
	FetchErrorStatus   FetchErrorKind = "status"
	FetchErrorRead     FetchErrorKind = "read"
	FetchErrorCanceled FetchErrorKind = "canceled"
)

// FetchError reports that one page could not be retrieved.
// Callers treat the page as missing and continue.
type FetchError struct {
	Page       int
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchErrorStatus {
		return fmt.Sprintf("feed: page %d: HTTP %d", e.Page, e.StatusCode)
	}
	return fmt.Sprintf("feed: page %d: %s: %v", e.Page, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// RawPage is an undecoded page body
type RawPage struct {
	PageNumber  int
	PageSize    int
	ContentType string
	Body        []byte
}

// PageFetcher retrieves one page of the upstream feed
type PageFetcher interface {
	FetchPage(ctx context.Context, pageNumber, pageSize int) (*RawPage, error)
}

// Client is the HTTP client for the upstream listing feed.
// It is safe for concurrent use; all callers share one rate limiter.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ PageFetcher = (*Client)(nil)

// NewClient creates a feed client
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
	}, nil
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// FetchPage requests one 1-indexed page. Every failure is returned as *FetchError.
func (c *Client) FetchPage(ctx context.Context, pageNumber, pageSize int) (page *RawPage, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "feed.fetch_page",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("feed.page_number", pageNumber),
			attribute.Int("feed.page_size", pageSize),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("feed.body_bytes", len(page.Body)))
		}
		span.End()
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Page: pageNumber, Kind: FetchErrorCanceled, Err: err}
	}

	endpoint, err := c.pageURL(pageNumber, pageSize)
	if err != nil {
		return nil, &FetchError{Page: pageNumber, Kind: FetchErrorNetwork, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Page: pageNumber, Kind: FetchErrorNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/xml")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Page: pageNumber, Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Page: pageNumber, Kind: FetchErrorStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		kind := FetchErrorRead
		if classify(err) == FetchErrorTimeout {
			kind = FetchErrorTimeout
		}
		return nil, &FetchError{Page: pageNumber, Kind: kind, Err: err}
	}

	return &RawPage{
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *Client) pageURL(pageNumber, pageSize int) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("serviceKey", c.config.ServiceKey)
	q.Set("pageNo", strconv.Itoa(pageNumber))
	q.Set("numOfRows", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func classify(err error) FetchErrorKind {
	if errors.Is(err, context.Canceled) {
		return FetchErrorCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchErrorTimeout
	}
	return FetchErrorNetwork
}
