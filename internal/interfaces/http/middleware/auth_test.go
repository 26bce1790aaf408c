package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/ordersync/internal/infrastructure/auth"
)

const webhookSecret = "test-webhook-secret-at-least-32-chars"

func newAuthRouter(tokens *auth.TokenService) *gin.Engine {
	r := gin.New()
	r.Use(WebhookAuth(WebhookAuthConfig{Tokens: tokens}))
	r.POST("/api/v1/orders/sync", func(c *gin.Context) {
		claims := GetWebhookClaims(c)
		store := ""
		if claims != nil {
			store = claims.Store()
		}
		c.JSON(http.StatusOK, gin.H{"store": store, "ctx_store": c.GetString(WebhookStoreKey)})
	})
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestWebhookAuth(t *testing.T) {
	tokens := auth.NewTokenService(webhookSecret, "storefront", time.Minute)
	valid, err := tokens.Issue("acme", "orders/create")
	require.NoError(t, err)

	foreign, err := auth.NewTokenService(webhookSecret, "intruder", time.Minute).Issue("acme", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		status   int
		wantBody string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, `"store":"acme"`},
		{"missing header", "", http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
		{"garbage", "Bearer nope", http.StatusUnauthorized, "ERR_TOKEN_INVALID"},
		{"wrong issuer", "Bearer " + foreign, http.StatusUnauthorized, "ERR_TOKEN_INVALID"},
	}

	router := newAuthRouter(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/sync", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := serve(router, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestWebhookAuth_SkipPaths(t *testing.T) {
	router := newAuthRouter(auth.NewTokenService(webhookSecret, "storefront", time.Minute))
	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookAuth_DisabledWithoutSecret(t *testing.T) {
	core, recorded := observer.New(zap.WarnLevel)
	r := gin.New()
	r.Use(WebhookAuth(WebhookAuthConfig{Tokens: auth.NewTokenService("", "", 0), Logger: zap.New(core)}))
	r.POST("/t", func(c *gin.Context) {
		assert.Nil(t, GetWebhookClaims(c))
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodPost, "/t", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, recorded.FilterMessage("Webhook authentication disabled: no secret configured").Len())
}
