// Package erpclient talks JSON over HTTP to the remote ERP record service and
// implements the integration gateway ports on top of it.
package erpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/telemetry"
)

// maxResponseSize limits the response body size
const maxResponseSize = 10 * 1024 * 1024

// Record types addressed under /records/<type>.
const (
	RecordSalesOrder       = "salesOrder"
	RecordCustomer         = "customer"
	RecordInventoryItem    = "inventoryItem"
	RecordNonInventoryItem = "nonInventorySaleItem"
	RecordPromotionCode    = "promotionCode"
	RecordCustomerDeposit  = "customerDeposit"
)

// Call outcomes reported to the CallObserver.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
	OutcomeAuth        = "auth"
	OutcomeFailed      = "failed"
	OutcomeInvalid     = "invalid"
)

// CallObserver receives the duration and outcome of every remote call.
type CallObserver interface {
	RecordRemoteCall(ctx context.Context, operation, outcome string, d time.Duration)
}

// Client is the remote ERP record service client.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   CallObserver
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCallObserver reports call metrics to o.
func WithCallObserver(o CallObserver) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client.
func New(config Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
	}
	if config.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimitRPS), config.RateBurst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Gateway returns every gateway port backed by this client.
func (c *Client) Gateway() integration.Gateway {
	return integration.Gateway{
		SalesOrders:       &SalesOrderGateway{c: c},
		Customers:         &CustomerGateway{c: c},
		InventoryItems:    &InventoryItemGateway{c: c},
		NonInventoryItems: &NonInventoryItemGateway{c: c},
		PromotionCodes:    &PromotionCodeGateway{c: c},
		CustomerDeposits:  &CustomerDepositGateway{c: c},
	}
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type searchRequest struct {
	Criteria []integration.SearchCriteria `json:"criteria"`
}

type searchResponse[T any] struct {
	Records []T `json:"records"`
}

type errorResponse struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Messages []string `json:"messages"`
}

func (e errorResponse) messages() []string {
	if len(e.Messages) > 0 {
		return e.Messages
	}
	if e.Message != "" {
		return []string{e.Message}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Record operations
// ---------------------------------------------------------------------------

func (c *Client) getByExternalID(ctx context.Context, recordType, externalID string, out any) error {
	path := fmt.Sprintf("/records/%s/eid:%s", recordType, url.PathEscape(externalID))
	status, body, err := c.do(ctx, recordType+".get", http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s %q", integration.ErrRecordNotFound, recordType, externalID)
	}
	if err := c.checkStatus(recordType+".get", status, body); err != nil {
		return err
	}
	return decode(body, out)
}

func search[T any](ctx context.Context, c *Client, recordType string, criteria integration.SearchCriteria) ([]T, error) {
	status, body, err := c.do(ctx, recordType+".search", http.MethodPost, "/records/"+recordType+"/search",
		searchRequest{Criteria: []integration.SearchCriteria{criteria}})
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(recordType+".search", status, body); err != nil {
		return nil, err
	}
	var resp searchResponse[T]
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// write sends a create (POST) or update (PATCH). Validation rejections come
// back as an unsuccessful WriteResult.
func (c *Client) write(ctx context.Context, op, method, path string, payload any) (*integration.WriteResult, error) {
	status, body, err := c.do(ctx, op, method, path, payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
		var e errorResponse
		if err := decode(body, &e); err != nil {
			return nil, err
		}
		return &integration.WriteResult{Success: false, Messages: e.messages()}, nil
	}
	if err := c.checkStatus(op, status, body); err != nil {
		return nil, err
	}
	var result integration.WriteResult
	if err := decode(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (status int, body []byte, err error) {
	ctx, span := telemetry.StartSpan(ctx, "erp."+op,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrRemoteOp, op),
	)
	start := time.Now()
	defer func() {
		c.observe(ctx, op, status, err, time.Since(start))
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetAttribute(span, telemetry.SpanAttrRemoteCode, status)
		}
		span.End()
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("erpclient: rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("erpclient: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("erpclient: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", integration.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("erpclient: failed to read response: %w", err)
	}

	c.logger.Debug("Remote call",
		zap.String("operation", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.StatusCode, body, nil
}

func (c *Client) checkStatus(op string, status int, body []byte) error {
	if status < 300 {
		return nil
	}
	var e errorResponse
	_ = json.Unmarshal(body, &e)
	detail := strings.Join(e.messages(), "; ")

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s: HTTP %d", integration.ErrRemoteAuthFailed, op, status)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: %s: HTTP %d %s", integration.ErrRemoteUnavailable, op, status, detail)
	default:
		return fmt.Errorf("%w: %s: HTTP %d %s", integration.ErrRemoteRequestFailed, op, status, detail)
	}
}

func (c *Client) observe(ctx context.Context, op string, status int, err error, d time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.RecordRemoteCall(ctx, op, outcomeOf(status, err), d)
}

func outcomeOf(status int, err error) string {
	switch {
	case err != nil:
		return OutcomeUnavailable
	case status == http.StatusNotFound:
		return OutcomeNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return OutcomeRejected
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return OutcomeAuth
	case status == http.StatusTooManyRequests || status >= 500:
		return OutcomeUnavailable
	case status >= 300:
		return OutcomeFailed
	default:
		return OutcomeOK
	}
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrRemoteInvalidResponse, err)
	}
	return nil
}
