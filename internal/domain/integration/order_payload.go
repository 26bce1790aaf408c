package integration

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CouponCodeField is the custom body field carrying a storefront coupon code.
const CouponCodeField = "coupon_code"

// ---------------------------------------------------------------------------
// OrderPayload
// ---------------------------------------------------------------------------

// OrderPayload is one storefront order as received from the caller.
// The reconciliation engine reads it and never mutates it.
type OrderPayload struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"`
	Email           string          `json:"email"`
	PlacedOn        *time.Time      `json:"placed_on,omitempty"`
	Currency        string          `json:"currency,omitempty"`
	Totals          OrderTotals     `json:"totals"`
	LineItems       []PayloadItem   `json:"line_items"`
	Adjustments     []Adjustment    `json:"adjustments"`
	BillingAddress  *PayloadAddress `json:"billing_address,omitempty"`
	ShippingAddress *PayloadAddress `json:"shipping_address,omitempty"`
	Payments        []Payment       `json:"payments"`

	// CustomFields holds business-specific custom body fields keyed by external name.
	CustomFields map[string]any `json:"custom_fields,omitempty"`
	// OrderFields are extra sales order attributes applied best effort.
	OrderFields map[string]any `json:"order_fields,omitempty"`
	// CustomerFields are extra customer attributes applied on customer creation.
	CustomerFields map[string]any `json:"customer_fields,omitempty"`
	// NonInventoryFields are extra attributes applied when a virtual item is created.
	NonInventoryFields map[string]any `json:"non_inventory_fields,omitempty"`
}

// OrderTotals are the storefront's computed order amounts.
type OrderTotals struct {
	Order      decimal.Decimal `json:"order"`
	Item       decimal.Decimal `json:"item"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	Adjustment decimal.Decimal `json:"adjustment"`
	Payment    decimal.Decimal `json:"payment"`
}

// PayloadItem is one purchased product line.
type PayloadItem struct {
	SKU       string          `json:"sku,omitempty"`
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Reference returns the SKU, falling back to the product id.
func (i PayloadItem) Reference() string {
	if i.SKU != "" {
		return i.SKU
	}
	return i.ProductID
}

// Adjustment is an order-level amount such as tax, discount or shipping.
type Adjustment struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// PayloadAddress is an address as the storefront represents it.
type PayloadAddress struct {
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	Zipcode   string `json:"zipcode,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Payment is one payment captured against the order.
type Payment struct {
	Number        string          `json:"number,omitempty"`
	Status        string          `json:"status,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
}

// ExternalID returns the order number, falling back to the order id.
func (p *OrderPayload) ExternalID() string {
	if p.Number != "" {
		return p.Number
	}
	return p.ID
}

// Paid reports whether captured payments cover the order total.
func (p *OrderPayload) Paid() bool {
	if len(p.Payments) == 0 {
		return false
	}
	sum := decimal.Zero
	for _, pay := range p.Payments {
		sum = sum.Add(pay.Amount)
	}
	return sum.GreaterThanOrEqual(p.Totals.Order)
}

// CouponCode returns the trimmed coupon code custom field, or "".
func (p *OrderPayload) CouponCode() string {
	if p.CustomFields == nil {
		return ""
	}
	v, ok := p.CustomFields[CouponCodeField]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// CustomFieldsWithoutCoupon returns a copy of the custom body fields minus the coupon code.
func (p *OrderPayload) CustomFieldsWithoutCoupon() map[string]any {
	out := maps.Clone(p.CustomFields)
	delete(out, CouponCodeField)
	return out
}

// Validate checks the preconditions every reconciliation relies on.
func (p *OrderPayload) Validate() error {
	if p.ExternalID() == "" {
		return fmt.Errorf("%w: order number or id is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("%w: email is required for order %s", ErrInvalidPayload, p.ExternalID())
	}
	for i, item := range p.LineItems {
		if item.Reference() == "" {
			return fmt.Errorf("%w: line item %d has neither sku nor product_id", ErrInvalidPayload, i)
		}
	}
	return nil
}
