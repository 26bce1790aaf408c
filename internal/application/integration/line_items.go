package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LineItemAssembler builds the sales order item list from purchased items
// and order adjustments.
type LineItemAssembler struct {
	inventory    integration.InventoryItemGateway
	nonInventory integration.NonInventoryItemGateway
	itemFields   *integration.FieldRegistry[integration.NonInventoryItem]
	logger       *zap.Logger
}

// NewLineItemAssembler creates a LineItemAssembler.
func NewLineItemAssembler(
	inventory integration.InventoryItemGateway,
	nonInventory integration.NonInventoryItemGateway,
	logger *zap.Logger,
) *LineItemAssembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineItemAssembler{
		inventory:    inventory,
		nonInventory: nonInventory,
		itemFields:   integration.NonInventoryItemFields(),
		logger:       logger,
	}
}

// Build returns physical items in payload order followed by the tax,
// discount, shipping and shipping_tax virtual items. The discount line is
// left out when hasPromotion is set.
func (a *LineItemAssembler) Build(
	ctx context.Context,
	settings *Settings,
	payload *integration.OrderPayload,
	hasPromotion bool,
) ([]integration.SalesOrderItem, error) {
	items := make([]integration.SalesOrderItem, 0, len(payload.LineItems)+len(AdjustmentCategories))

	for _, line := range payload.LineItems {
		item, err := a.physicalItem(ctx, line)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	for _, category := range AdjustmentCategories {
		if category == CategoryDiscount && hasPromotion {
			continue
		}
		total := SumAdjustments(payload.Adjustments, category)
		if total.IsZero() {
			continue
		}
		ref, err := a.virtualItem(ctx, settings.ItemName(category), payload.NonInventoryFields)
		if err != nil {
			return nil, err
		}
		rate := total
		items = append(items, integration.SalesOrderItem{Item: *ref, Rate: &rate})
	}
	return items, nil
}

func (a *LineItemAssembler) physicalItem(ctx context.Context, line integration.PayloadItem) (integration.SalesOrderItem, error) {
	reference := line.Reference()
	found, err := a.inventory.FindByItemID(ctx, reference)
	if errors.Is(err, integration.ErrRecordNotFound) {
		return integration.SalesOrderItem{}, integration.NewInventoryItemNotFound(reference)
	}
	if err != nil {
		return integration.SalesOrderItem{}, fmt.Errorf("find inventory item %q: %w", reference, err)
	}

	qty := line.Quantity
	amount := line.Quantity.Mul(line.Price)
	taxRate := decimal.Zero
	return integration.SalesOrderItem{
		Item:     integration.RecordRef{InternalID: found.InternalID},
		Quantity: &qty,
		Amount:   &amount,
		TaxRate1: &taxRate,
	}, nil
}

// virtualItem finds the named non-inventory item, creating it when absent.
func (a *LineItemAssembler) virtualItem(ctx context.Context, name string, extra map[string]any) (*integration.RecordRef, error) {
	found, err := a.nonInventory.FindByName(ctx, name)
	if err == nil {
		return integration.NewRecordRef(found.InternalID), nil
	}
	if !errors.Is(err, integration.ErrRecordNotFound) {
		return nil, &integration.NonInventoryItemError{Name: name, Messages: []string{err.Error()}}
	}

	item := &integration.NonInventoryItem{ItemID: name, DisplayName: name}
	if len(extra) > 0 {
		res := a.itemFields.Apply(item, extra)
		if len(res.Ignored) > 0 {
			a.logger.Debug("Ignored non-inventory item fields",
				zap.String("item", name),
				zap.Strings("fields", res.Ignored),
			)
		}
	}

	result, err := a.nonInventory.Create(ctx, item)
	if err != nil {
		return nil, &integration.NonInventoryItemError{Name: name, Messages: []string{err.Error()}}
	}
	if !result.Success {
		return nil, &integration.NonInventoryItemError{Name: name, Messages: result.Messages}
	}
	a.logger.Info("Created virtual line item", zap.String("item", name), zap.String("internal_id", result.InternalID))
	return integration.NewRecordRef(result.InternalID), nil
}

// SumAdjustments adds the values of adjustments whose name matches category,
// ignoring case.
func SumAdjustments(adjustments []integration.Adjustment, category AdjustmentCategory) decimal.Decimal {
	sum := decimal.Zero
	for _, adj := range adjustments {
		if strings.EqualFold(adj.Name, string(category)) {
			sum = sum.Add(adj.Value)
		}
	}
	return sum
}
