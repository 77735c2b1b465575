package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns the otelgin middleware followed by span enrichment.
// Health probes are not traced.
func Tracing(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		})),
		enrichSpan,
	}
}

// enrichSpan runs inside the otelgin span and tags it once the handler is done
func enrichSpan(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	if id := GetRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if bidder := GetBidderID(c); bidder != "" {
		span.SetAttributes(attribute.String("bidder_id", bidder))
	}
	if code := c.GetString(ErrorCodeKey); code != "" {
		span.SetAttributes(attribute.String("error.code", code))
	}
	if status := c.Writer.Status(); status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
