package integration

import (
	"context"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// ---------------------------------------------------------------------------
// Gateway mocks
// ---------------------------------------------------------------------------

type MockSalesOrderGateway struct {
	mock.Mock
}

func (m *MockSalesOrderGateway) FindByExternalID(ctx context.Context, externalID string) (*integration.SalesOrder, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderGateway) Create(ctx context.Context, order *integration.SalesOrder) (*integration.WriteResult, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WriteResult), args.Error(1)
}

func (m *MockSalesOrderGateway) Update(ctx context.Context, internalID string, fields integration.FieldMap) (*integration.WriteResult, error) {
	args := m.Called(ctx, internalID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WriteResult), args.Error(1)
}

type MockCustomerGateway struct {
	mock.Mock
}

func (m *MockCustomerGateway) FindByExternalID(ctx context.Context, externalID string) (*integration.Customer, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Customer), args.Error(1)
}

func (m *MockCustomerGateway) Search(ctx context.Context, criteria integration.SearchCriteria) ([]*integration.Customer, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.Customer), args.Error(1)
}

func (m *MockCustomerGateway) Create(ctx context.Context, customer *integration.Customer) (*integration.WriteResult, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WriteResult), args.Error(1)
}

func (m *MockCustomerGateway) UpdateAddressBook(ctx context.Context, internalID string, book []integration.AddressBookEntry) (*integration.WriteResult, error) {
	args := m.Called(ctx, internalID, book)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WriteResult), args.Error(1)
}

type MockInventoryItemGateway struct {
	mock.Mock
}

func (m *MockInventoryItemGateway) FindByItemID(ctx context.Context, itemID string) (*integration.InventoryItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.InventoryItem), args.Error(1)
}

type MockNonInventoryItemGateway struct {
	mock.Mock
}

func (m *MockNonInventoryItemGateway) FindByName(ctx context.Context, name string) (*integration.NonInventoryItem, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.NonInventoryItem), args.Error(1)
}

func (m *MockNonInventoryItemGateway) Create(ctx context.Context, item *integration.NonInventoryItem) (*integration.WriteResult, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WriteResult), args.Error(1)
}

type MockPromotionCodeGateway struct {
	mock.Mock
}

func (m *MockPromotionCodeGateway) Search(ctx context.Context, criteria integration.SearchCriteria) ([]*integration.PromotionCode, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.PromotionCode), args.Error(1)
}

type MockCustomerDepositGateway struct {
	mock.Mock
}

func (m *MockCustomerDepositGateway) FindByExternalID(ctx context.Context, externalID string) (*integration.CustomerDeposit, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CustomerDeposit), args.Error(1)
}

func (m *MockCustomerDepositGateway) Create(ctx context.Context, deposit *integration.CustomerDeposit) (*integration.WriteResult, error) {
	args := m.Called(ctx, deposit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WriteResult), args.Error(1)
}

// ---------------------------------------------------------------------------
// Service dependency mocks
// ---------------------------------------------------------------------------

type MockSyncRecordRepository struct {
	mock.Mock
}

func (m *MockSyncRecordRepository) FindByExternalID(ctx context.Context, externalID string) (*integration.SyncRecord, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncRecord), args.Error(1)
}

func (m *MockSyncRecordRepository) Save(ctx context.Context, record *integration.SyncRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSyncRecordRepository) List(ctx context.Context, filter integration.SyncRecordFilter) ([]*integration.SyncRecord, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*integration.SyncRecord), args.Get(1).(int64), args.Error(2)
}

type MockOrderLock struct {
	mock.Mock
}

func (m *MockOrderLock) Acquire(ctx context.Context, externalID string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, externalID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

func (m *MockOrderLock) Close() error {
	return m.Called().Error(0)
}

type MockPayloadArchive struct {
	mock.Mock
}

func (m *MockPayloadArchive) Store(ctx context.Context, externalID string, payload []byte) (string, error) {
	args := m.Called(ctx, externalID, payload)
	return args.String(0), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, settings *Settings, payload *integration.OrderPayload) (*ReconcileOutcome, error) {
	args := m.Called(ctx, settings, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ReconcileOutcome), args.Error(1)
}

var (
	_ integration.SalesOrderGateway       = (*MockSalesOrderGateway)(nil)
	_ integration.CustomerGateway         = (*MockCustomerGateway)(nil)
	_ integration.InventoryItemGateway    = (*MockInventoryItemGateway)(nil)
	_ integration.NonInventoryItemGateway = (*MockNonInventoryItemGateway)(nil)
	_ integration.PromotionCodeGateway    = (*MockPromotionCodeGateway)(nil)
	_ integration.CustomerDepositGateway  = (*MockCustomerDepositGateway)(nil)
	_ integration.SyncRecordRepository    = (*MockSyncRecordRepository)(nil)
	_ integration.OrderLock               = (*MockOrderLock)(nil)
	_ integration.PayloadArchive          = (*MockPayloadArchive)(nil)
	_ Reconciler                          = (*MockReconciler)(nil)
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// upperRefs upper-cases states and maps ISO codes onto a fixed table.
type upperRefs struct{}

func (upperRefs) StateCodeFor(name string) string {
	if name == "New York" {
		return "NY"
	}
	return name
}

func (upperRefs) CountryCodeFor(iso string) string {
	if iso == "US" {
		return "_unitedStates"
	}
	return iso
}

type gatewayMocks struct {
	orders       *MockSalesOrderGateway
	customers    *MockCustomerGateway
	inventory    *MockInventoryItemGateway
	nonInventory *MockNonInventoryItemGateway
	promotions   *MockPromotionCodeGateway
	deposits     *MockCustomerDepositGateway
}

func newGatewayMocks() *gatewayMocks {
	return &gatewayMocks{
		orders:       new(MockSalesOrderGateway),
		customers:    new(MockCustomerGateway),
		inventory:    new(MockInventoryItemGateway),
		nonInventory: new(MockNonInventoryItemGateway),
		promotions:   new(MockPromotionCodeGateway),
		deposits:     new(MockCustomerDepositGateway),
	}
}

func (g *gatewayMocks) gateway() *integration.Gateway {
	return &integration.Gateway{
		SalesOrders:       g.orders,
		Customers:         g.customers,
		InventoryItems:    g.inventory,
		NonInventoryItems: g.nonInventory,
		PromotionCodes:    g.promotions,
		CustomerDeposits:  g.deposits,
	}
}

func (g *gatewayMocks) assertExpectations(t mock.TestingT) {
	g.orders.AssertExpectations(t)
	g.customers.AssertExpectations(t)
	g.inventory.AssertExpectations(t)
	g.nonInventory.AssertExpectations(t)
	g.promotions.AssertExpectations(t)
	g.deposits.AssertExpectations(t)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakePayload builds a random, valid payload with one line item and a full billing address.
func fakePayload(f *gofakeit.Faker) *integration.OrderPayload {
	billing := &integration.PayloadAddress{
		Firstname: f.FirstName(),
		Lastname:  f.LastName(),
		Address1:  f.Street(),
		Zipcode:   f.Zip(),
		City:      f.City(),
		State:     f.State(),
		Country:   "US",
		Phone:     f.Phone(),
	}
	placed := f.Date()
	return &integration.OrderPayload{
		ID:              f.UUID(),
		Number:          "R" + f.DigitN(6),
		Email:           f.Email(),
		PlacedOn:        &placed,
		Totals:          integration.OrderTotals{Order: dec("20")},
		LineItems:       []integration.PayloadItem{{SKU: "SKU-" + f.DigitN(4), Quantity: dec("2"), Price: dec("10")}},
		BillingAddress:  billing,
		ShippingAddress: billing,
	}
}

// scenarioPayload is the R1001 order used across reconciler tests.
func scenarioPayload() *integration.OrderPayload {
	return &integration.OrderPayload{
		Number:      "R1001",
		Email:       "a@b.com",
		Totals:      integration.OrderTotals{Order: dec("25"), Shipping: dec("5")},
		LineItems:   []integration.PayloadItem{{SKU: "X1", Quantity: dec("2"), Price: dec("10")}},
		Adjustments: []integration.Adjustment{{Name: "shipping", Value: dec("5")}},
		BillingAddress: &integration.PayloadAddress{
			Address1: "1 Main St",
			Zipcode:  "10001",
			City:     "New York",
			State:    "New York",
			Country:  "US",
			Phone:    "(555) 010-2000",
		},
	}
}
