package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"go.uber.org/zap"
)

// ReconcileOutcome is the result of one reconciliation pass.
type ReconcileOutcome struct {
	Order        *integration.SalesOrder
	Path         integration.ReconcilePath
	State        integration.ReconcileState
	ErrorSummary string
	Messages     []string
	// IgnoredFields lists extra order fields no setter accepted.
	IgnoredFields []string
}

// Succeeded reports whether the remote write went through.
func (o *ReconcileOutcome) Succeeded() bool {
	return o.State == integration.StateCreated || o.State == integration.StateUpdated
}

// OrderReconciler upserts one storefront order into the remote sales order store.
type OrderReconciler struct {
	orders       integration.SalesOrderGateway
	customers    *CustomerResolver
	addresses    *AddressBuilder
	items        *LineItemAssembler
	customFields *CustomFieldResolver
	orderFields  *integration.FieldRegistry[integration.SalesOrder]
	logger       *zap.Logger
	now          func() time.Time
}

// NewOrderReconciler wires a reconciler and its collaborators onto gateway.
func NewOrderReconciler(
	gateway *integration.Gateway,
	refs integration.ReferenceResolver,
	logger *zap.Logger,
) *OrderReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	addresses := NewAddressBuilder(refs)
	return &OrderReconciler{
		orders:       gateway.SalesOrders,
		customers:    NewCustomerResolver(gateway.Customers, addresses, logger),
		addresses:    addresses,
		items:        NewLineItemAssembler(gateway.InventoryItems, gateway.NonInventoryItems, logger),
		customFields: NewCustomFieldResolver(gateway.PromotionCodes, logger),
		orderFields:  integration.SalesOrderFields(),
		logger:       logger,
		now:          time.Now,
	}
}

// Reconcile builds the remote sales order for payload and creates or updates
// it. A write the remote service rejects comes back as a Failed outcome with
// a nil error; local precondition failures are returned as typed errors.
func (r *OrderReconciler) Reconcile(
	ctx context.Context,
	settings *Settings,
	payload *integration.OrderPayload,
) (*ReconcileOutcome, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &Settings{}
	}
	externalID := payload.ExternalID()
	log := r.logger.With(zap.String("external_id", externalID))

	outcome := &ReconcileOutcome{State: integration.StateNotStarted}
	order, err := r.begin(ctx, settings, externalID, outcome)
	if err != nil {
		return nil, err
	}
	outcome.Order = order
	log.Debug("Reconciliation started", zap.String("path", string(outcome.Path)))

	if err := r.build(ctx, settings, payload, order, outcome, log); err != nil {
		return nil, err
	}
	outcome.State = integration.StateBuilt

	if outcome.Path == integration.PathCreate {
		err = r.create(ctx, order, outcome, log)
	} else {
		err = r.update(ctx, order, outcome)
	}
	if err != nil {
		outcome.State = integration.StateFailed
		return outcome, err
	}
	return outcome, nil
}

// begin decides between the create and update path.
func (r *OrderReconciler) begin(
	ctx context.Context,
	settings *Settings,
	externalID string,
	outcome *ReconcileOutcome,
) (*integration.SalesOrder, error) {
	existing, err := r.orders.FindByExternalID(ctx, externalID)
	switch {
	case err == nil:
		outcome.Path = integration.PathUpdate
		outcome.State = integration.StateExistingFound
		return integration.NewExistingSalesOrder(existing), nil
	case errors.Is(err, integration.ErrRecordNotFound):
		order := integration.NewPendingSalesOrder(externalID)
		if settings.CustomFormID != "" {
			order.CustomForm = integration.NewRecordRef(settings.CustomFormID)
		}
		outcome.Path = integration.PathCreate
		outcome.State = integration.StateNew
		return order, nil
	default:
		return nil, fmt.Errorf("find sales order %q: %w", externalID, err)
	}
}

func (r *OrderReconciler) build(
	ctx context.Context,
	settings *Settings,
	payload *integration.OrderPayload,
	order *integration.SalesOrder,
	outcome *ReconcileOutcome,
	log *zap.Logger,
) error {
	customer, err := r.customers.Resolve(ctx, payload)
	if err != nil {
		return err
	}
	order.Entity = customer

	r.addresses.Apply(order, payload.BillingAddress, integration.AddressRoleBilling)
	r.addresses.Apply(order, payload.ShippingAddress, integration.AddressRoleShipping)

	hasPromotion := payload.CouponCode() != "" || order.HasPromotion()
	items, err := r.items.Build(ctx, settings, payload, hasPromotion)
	if err != nil {
		return err
	}
	order.Items = items

	shipping := payload.Totals.Shipping
	order.ShippingCost = &shipping
	if outcome.Path == integration.PathCreate {
		placed := r.now()
		if payload.PlacedOn != nil {
			placed = *payload.PlacedOn
		}
		order.TranDate = &placed
	}
	if settings.DepartmentID != "" {
		order.Department = integration.NewRecordRef(settings.DepartmentID)
	}

	if err := r.customFields.Resolve(ctx, settings.FieldMap, payload, order); err != nil {
		return err
	}

	if len(payload.OrderFields) > 0 {
		res := r.orderFields.Apply(order, payload.OrderFields)
		outcome.IgnoredFields = res.Ignored
		if len(res.Ignored) > 0 {
			log.Debug("Ignored extra order fields", zap.Strings("fields", res.Ignored))
		}
	}
	return nil
}

func (r *OrderReconciler) create(
	ctx context.Context,
	order *integration.SalesOrder,
	outcome *ReconcileOutcome,
	log *zap.Logger,
) error {
	result, err := r.orders.Create(ctx, order)
	if err != nil {
		return fmt.Errorf("create sales order %q: %w", order.ExternalID, err)
	}
	if !result.Success {
		r.reject(outcome, result.Messages)
		return nil
	}
	order.InternalID = result.InternalID
	outcome.State = integration.StateCreated

	created, err := r.orders.FindByExternalID(ctx, order.ExternalID)
	if err != nil {
		log.Warn("Created sales order could not be re-read", zap.Error(err))
		return nil
	}
	order.TranID = created.TranID
	if !created.Entity.IsZero() {
		order.Entity = created.Entity
	}
	if order.InternalID == "" {
		order.InternalID = created.InternalID
	}
	return nil
}

func (r *OrderReconciler) update(
	ctx context.Context,
	order *integration.SalesOrder,
	outcome *ReconcileOutcome,
) error {
	result, err := r.orders.Update(ctx, order.InternalID, order.UpdateFields())
	if err != nil {
		return fmt.Errorf("update sales order %q: %w", order.ExternalID, err)
	}
	if !result.Success {
		r.reject(outcome, result.Messages)
		return nil
	}
	outcome.State = integration.StateUpdated
	return nil
}

func (r *OrderReconciler) reject(outcome *ReconcileOutcome, messages []string) {
	outcome.State = integration.StateFailed
	outcome.Messages = messages
	outcome.ErrorSummary = strings.Join(messages, "; ")
}
