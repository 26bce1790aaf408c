package dto

import (
	"time"

	appintegration "github.com/erp/ordersync/internal/application/integration"
	"github.com/erp/ordersync/internal/domain/integration"
)

// SyncOrderRequest is the body of POST /orders/sync and one entry of a batch.
type SyncOrderRequest struct {
	ID              string                      `json:"id"`
	Number          string                      `json:"number"`
	Email           string                      `json:"email" binding:"required,email"`
	PlacedOn        *time.Time                  `json:"placed_on,omitempty"`
	Currency        string                      `json:"currency,omitempty"`
	Totals          integration.OrderTotals     `json:"totals"`
	LineItems       []integration.PayloadItem   `json:"line_items"`
	Adjustments     []integration.Adjustment    `json:"adjustments"`
	BillingAddress  *integration.PayloadAddress `json:"billing_address,omitempty"`
	ShippingAddress *integration.PayloadAddress `json:"shipping_address,omitempty"`
	Payments        []integration.Payment       `json:"payments"`

	CustomFields       map[string]any `json:"custom_fields,omitempty"`
	OrderFields        map[string]any `json:"order_fields,omitempty"`
	CustomerFields     map[string]any `json:"customer_fields,omitempty"`
	NonInventoryFields map[string]any `json:"non_inventory_fields,omitempty"`
}

// ToPayload converts the request into the storefront order the service reconciles.
func (r *SyncOrderRequest) ToPayload() *integration.OrderPayload {
	return &integration.OrderPayload{
		ID:                 r.ID,
		Number:             r.Number,
		Email:              r.Email,
		PlacedOn:           r.PlacedOn,
		Currency:           r.Currency,
		Totals:             r.Totals,
		LineItems:          r.LineItems,
		Adjustments:        r.Adjustments,
		BillingAddress:     r.BillingAddress,
		ShippingAddress:    r.ShippingAddress,
		Payments:           r.Payments,
		CustomFields:       r.CustomFields,
		OrderFields:        r.OrderFields,
		CustomerFields:     r.CustomerFields,
		NonInventoryFields: r.NonInventoryFields,
	}
}

// BatchSyncRequest is the body of POST /orders/sync/batch.
type BatchSyncRequest struct {
	Orders []*SyncOrderRequest `json:"orders" binding:"required,min=1,dive,required"`
}

// Payloads converts every order, keeping input order.
func (r *BatchSyncRequest) Payloads() []*integration.OrderPayload {
	payloads := make([]*integration.OrderPayload, len(r.Orders))
	for i, order := range r.Orders {
		payloads[i] = order.ToPayload()
	}
	return payloads
}

// BatchItemResponse is the outcome of one batch entry.
type BatchItemResponse struct {
	Index  int                        `json:"index"`
	Result *appintegration.SyncResult `json:"result,omitempty"`
	Error  *ErrorInfo                 `json:"error,omitempty"`
}

// BatchSyncResponse is the body returned for a batch.
type BatchSyncResponse struct {
	Summary appintegration.BatchSummary `json:"summary"`
	Results []BatchItemResponse         `json:"results"`
}

// NewBatchSyncResponse converts service results, keeping input order.
func NewBatchSyncResponse(items []appintegration.BatchItemResult, requestID string) BatchSyncResponse {
	resp := BatchSyncResponse{
		Summary: appintegration.Summarize(items),
		Results: make([]BatchItemResponse, 0, len(items)),
	}
	for _, item := range items {
		entry := BatchItemResponse{Index: item.Index, Result: item.Result}
		if item.Err != nil {
			entry.Error = ErrorInfoFor(item.Err, requestID)
		}
		resp.Results = append(resp.Results, entry)
	}
	return resp
}

// HealthResponse reports dependency health.
type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version,omitempty"`
	LockBackend string            `json:"lock_backend,omitempty"`
	Checks      map[string]string `json:"checks"`
}
