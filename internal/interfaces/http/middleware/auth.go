package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/ordersync/internal/infrastructure/auth"
	"github.com/erp/ordersync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Webhook context keys
const (
	WebhookClaimsKey = "webhook_claims"
	WebhookStoreKey  = "webhook_store"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// WebhookAuthConfig holds configuration for webhook authentication
type WebhookAuthConfig struct {
	// Tokens verifies bearer tokens. A service without a secret disables the check.
	Tokens *auth.TokenService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultSkipPaths are always reachable without a token.
var DefaultSkipPaths = []string{"/health", "/healthz", "/ready", "/api/v1/health"}

// WebhookAuth verifies the storefront's HS256 bearer token.
func WebhookAuth(cfg WebhookAuthConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.SkipPaths == nil {
		cfg.SkipPaths = DefaultSkipPaths
	}
	if cfg.Tokens == nil || !cfg.Tokens.Enabled() {
		cfg.Logger.Warn("Webhook authentication disabled: no secret configured")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}

		claims, err := cfg.Tokens.Verify(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		c.Set(WebhookClaimsKey, claims)
		c.Set(WebhookStoreKey, claims.Store())
		c.Next()
	}
}

// handleAuthError handles authentication errors
func handleAuthError(c *gin.Context, cfg WebhookAuthConfig, err error, message string) {
	cfg.Logger.Warn("Webhook authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
		zap.String("client_ip", c.ClientIP()),
	)

	code := dto.ErrCodeUnauthorized
	msg := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		msg = "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidIssuer),
		errors.Is(err, auth.ErrTokenNotYetValid):
		code = dto.ErrCodeTokenInvalid
		msg = "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, msg, GetRequestID(c)))
}

// GetWebhookClaims returns the verified claims, or nil when auth was skipped.
func GetWebhookClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(WebhookClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
