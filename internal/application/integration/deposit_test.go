package integration

import (
	"context"
	"testing"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func paidPayload() *integration.OrderPayload {
	p := scenarioPayload()
	p.Payments = []integration.Payment{
		{Number: "P1", Status: "completed", Amount: dec("20"), PaymentMethod: "Visa"},
		{Number: "P2", Status: "completed", Amount: dec("5"), PaymentMethod: "Gift Card"},
	}
	return p
}

func createdOrder() *integration.SalesOrder {
	return &integration.SalesOrder{InternalID: "1000", ExternalID: "R1001", Entity: integration.NewRecordRef("55")}
}

func TestDepositRecorder_SkipsUnpaidAndNewOrders(t *testing.T) {
	deposits := new(MockCustomerDepositGateway)
	d := NewDepositRecorder(deposits, nil)

	got, err := d.Record(context.Background(), scenarioPayload(), createdOrder())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = d.Record(context.Background(), paidPayload(), integration.NewPendingSalesOrder("R1001"))
	require.NoError(t, err)
	assert.Nil(t, got)

	deposits.AssertNotCalled(t, "FindByExternalID", mock.Anything, mock.Anything)
}

func TestDepositRecorder_ExistingDepositIsReused(t *testing.T) {
	deposits := new(MockCustomerDepositGateway)
	deposits.On("FindByExternalID", mock.Anything, "R1001").
		Return(&integration.CustomerDeposit{InternalID: "D1", ExternalID: "R1001"}, nil)

	got, err := NewDepositRecorder(deposits, nil).Record(context.Background(), paidPayload(), createdOrder())

	require.NoError(t, err)
	assert.Equal(t, "D1", got.InternalID)
	deposits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDepositRecorder_CreatesDeposit(t *testing.T) {
	deposits := new(MockCustomerDepositGateway)
	deposits.On("FindByExternalID", mock.Anything, "R1001").Return(nil, integration.ErrRecordNotFound)
	deposits.On("Create", mock.Anything, mock.MatchedBy(func(d *integration.CustomerDeposit) bool {
		return d.ExternalID == "R1001" &&
			d.Customer.InternalID == "55" &&
			d.SalesOrder.InternalID == "1000" &&
			d.Payment.Equal(dec("25")) &&
			d.PaymentMode == "Visa"
	})).Return(&integration.WriteResult{Success: true, InternalID: "D2"}, nil)

	got, err := NewDepositRecorder(deposits, nil).Record(context.Background(), paidPayload(), createdOrder())

	require.NoError(t, err)
	assert.Equal(t, "D2", got.InternalID)
	deposits.AssertExpectations(t)
}

func TestDepositRecorder_Rejected(t *testing.T) {
	deposits := new(MockCustomerDepositGateway)
	deposits.On("FindByExternalID", mock.Anything, "R1001").Return(nil, integration.ErrRecordNotFound)
	deposits.On("Create", mock.Anything, mock.Anything).
		Return(&integration.WriteResult{Messages: []string{"Period closed"}}, nil)

	_, err := NewDepositRecorder(deposits, nil).Record(context.Background(), paidPayload(), createdOrder())

	assert.ErrorIs(t, err, integration.ErrRemoteValidation)
	assert.Contains(t, err.Error(), "Period closed")
}
