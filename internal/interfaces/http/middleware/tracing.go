package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns the otelgin server middleware. Spans are named after the
// route pattern and 5xx responses are marked as errors.
func Tracing(serviceName string, opts ...otelgin.Option) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, opts...)
}

// SpanEnricher adds request_id, external_id and store to the server span once
// the handler has run. It must be placed after Tracing, since otelgin ends
// the span when its own handler returns.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if id := c.GetString(ExternalIDKey); id != "" {
			span.SetAttributes(attribute.String("order.external_id", id))
		}
		if store := c.GetString(WebhookStoreKey); store != "" {
			span.SetAttributes(attribute.String("webhook.store", store))
		}
	}
}
