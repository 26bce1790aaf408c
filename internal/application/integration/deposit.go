package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ordersync/internal/domain/integration"
	"go.uber.org/zap"
)

// DepositRecorder books a customer deposit for paid orders once they exist remotely.
type DepositRecorder struct {
	deposits integration.CustomerDepositGateway
	logger   *zap.Logger
}

// NewDepositRecorder creates a DepositRecorder.
func NewDepositRecorder(deposits integration.CustomerDepositGateway, logger *zap.Logger) *DepositRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepositRecorder{deposits: deposits, logger: logger}
}

// Record creates a deposit for the order total when payload is paid and no
// deposit exists for the order yet. It returns nil for unpaid orders.
func (d *DepositRecorder) Record(
	ctx context.Context,
	payload *integration.OrderPayload,
	order *integration.SalesOrder,
) (*integration.CustomerDeposit, error) {
	if !payload.Paid() || order.IsNew() {
		return nil, nil
	}
	externalID := payload.ExternalID()

	existing, err := d.deposits.FindByExternalID(ctx, externalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, integration.ErrRecordNotFound) {
		return nil, fmt.Errorf("find customer deposit %q: %w", externalID, err)
	}

	deposit := &integration.CustomerDeposit{
		ExternalID: externalID,
		Customer:   order.Entity,
		SalesOrder: integration.NewRecordRef(order.InternalID),
		Payment:    payload.Totals.Order,
	}
	if len(payload.Payments) > 0 {
		deposit.PaymentMode = payload.Payments[0].PaymentMethod
	}

	result, err := d.deposits.Create(ctx, deposit)
	if err != nil {
		return nil, fmt.Errorf("create customer deposit %q: %w", externalID, err)
	}
	if !result.Success {
		return nil, &integration.ValidationError{Operation: "create customer deposit", Messages: result.Messages}
	}
	deposit.InternalID = result.InternalID
	d.logger.Info("Recorded customer deposit",
		zap.String("external_id", externalID),
		zap.String("deposit_id", deposit.InternalID),
		zap.String("amount", deposit.Payment.String()),
	)
	return deposit, nil
}
