package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
	"go.uber.org/zap"
)

// CustomerResolver finds or creates the customer of an order and keeps its
// default billing address current.
type CustomerResolver struct {
	customers integration.CustomerGateway
	addresses *AddressBuilder
	fields    *integration.FieldRegistry[integration.Customer]
	logger    *zap.Logger
}

// NewCustomerResolver creates a CustomerResolver.
func NewCustomerResolver(
	customers integration.CustomerGateway,
	addresses *AddressBuilder,
	logger *zap.Logger,
) *CustomerResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerResolver{
		customers: customers,
		addresses: addresses,
		fields:    integration.CustomerFields(),
		logger:    logger,
	}
}

// Resolve returns a reference to the order's customer.
func (r *CustomerResolver) Resolve(ctx context.Context, payload *integration.OrderPayload) (*integration.RecordRef, error) {
	existing, err := r.Find(ctx, payload.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		r.refreshDefaultAddress(ctx, existing, payload.BillingAddress)
		return existing.Ref(), nil
	}
	return r.create(ctx, payload)
}

// Find looks the customer up by external id, then by email. It returns nil
// without error when neither lookup matches.
func (r *CustomerResolver) Find(ctx context.Context, email string) (*integration.Customer, error) {
	customer, err := r.customers.FindByExternalID(ctx, email)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, integration.ErrRecordNotFound) {
		return nil, fmt.Errorf("find customer %q: %w", email, err)
	}

	matches, err := r.customers.Search(ctx, integration.FieldIs("email", email))
	if err != nil {
		return nil, fmt.Errorf("search customer by email %q: %w", email, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *CustomerResolver) refreshDefaultAddress(
	ctx context.Context,
	customer *integration.Customer,
	billing *integration.PayloadAddress,
) {
	if billing == nil || strings.TrimSpace(billing.Address1) == "" {
		return
	}
	entry := r.addresses.BuildBookEntry(billing)
	if customer.HasAddress(entry.Fingerprint()) {
		return
	}

	book := customer.WithDefaultAddress(entry)
	result, err := r.customers.UpdateAddressBook(ctx, customer.InternalID, book)
	switch {
	case err != nil:
		r.logger.Warn("Failed to update customer address book",
			zap.String("customer_id", customer.InternalID),
			zap.Error(err),
		)
	case !result.Success:
		r.logger.Warn("Customer address book update rejected",
			zap.String("customer_id", customer.InternalID),
			zap.Strings("messages", result.Messages),
		)
	default:
		customer.AddressBook = book
	}
}

func (r *CustomerResolver) create(ctx context.Context, payload *integration.OrderPayload) (*integration.RecordRef, error) {
	customer := &integration.Customer{
		Email:      payload.Email,
		ExternalID: payload.Email,
		FirstName:  integration.PlaceholderName,
		LastName:   integration.PlaceholderName,
		IsPerson:   true,
	}

	if billing := payload.BillingAddress; billing != nil {
		if v := strings.TrimSpace(billing.Firstname); v != "" {
			customer.FirstName = v
		}
		if v := strings.TrimSpace(billing.Lastname); v != "" {
			customer.LastName = v
		}
		customer.Phone = billing.Phone
		if strings.TrimSpace(billing.Address1) != "" {
			entry := r.addresses.BuildBookEntry(billing)
			entry.DefaultBilling = true
			customer.AddressBook = []integration.AddressBookEntry{entry}
		}
	}

	if len(payload.CustomerFields) > 0 {
		res := r.fields.Apply(customer, payload.CustomerFields)
		if len(res.Ignored) > 0 {
			r.logger.Debug("Ignored customer extra fields",
				zap.String("email", payload.Email),
				zap.Strings("fields", res.Ignored),
			)
		}
	}

	result, err := r.customers.Create(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer %q: %w", payload.Email, err)
	}
	if !result.Success {
		return nil, &integration.CustomerCreationError{Email: payload.Email, Messages: result.Messages}
	}
	customer.InternalID = result.InternalID
	r.logger.Info("Created customer", zap.String("email", payload.Email), zap.String("internal_id", result.InternalID))
	return customer.Ref(), nil
}
