package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingAndSpanEnricher(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus codes.Code
	}{
		{"success", http.StatusOK, codes.Unset},
		{"rejected order stays unset", http.StatusUnprocessableEntity, codes.Unset},
		{"server error", http.StatusBadGateway, codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

			r := gin.New()
			r.Use(RequestID(), Tracing("ordersync-test", otelgin.WithTracerProvider(tp)), SpanEnricher())
			r.POST("/orders/sync", func(c *gin.Context) {
				c.Set(ExternalIDKey, "R1001")
				c.Set(WebhookStoreKey, "acme")
				c.Status(tt.status)
			})

			req := httptest.NewRequest(http.MethodPost, "/orders/sync", nil)
			req.Header.Set(RequestIDHeader, "req-7")
			serve(r, req)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, tt.wantStatus, span.Status().Code)

			attrs := map[attribute.Key]string{}
			for _, kv := range span.Attributes() {
				attrs[kv.Key] = kv.Value.Emit()
			}
			assert.Equal(t, "req-7", attrs["request_id"])
			assert.Equal(t, "R1001", attrs["order.external_id"])
			assert.Equal(t, "acme", attrs["webhook.store"])
		})
	}
}
