package erpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/erp/ordersync/internal/domain/integration"
)

var (
	_ integration.SalesOrderGateway       = (*SalesOrderGateway)(nil)
	_ integration.CustomerGateway         = (*CustomerGateway)(nil)
	_ integration.InventoryItemGateway    = (*InventoryItemGateway)(nil)
	_ integration.NonInventoryItemGateway = (*NonInventoryItemGateway)(nil)
	_ integration.PromotionCodeGateway    = (*PromotionCodeGateway)(nil)
	_ integration.CustomerDepositGateway  = (*CustomerDepositGateway)(nil)
)

func recordPath(recordType, internalID string) string {
	return fmt.Sprintf("/records/%s/%s", recordType, url.PathEscape(internalID))
}

// first returns the first search hit or ErrRecordNotFound.
func first[T any](records []*T, recordType, value string) (*T, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s %q", integration.ErrRecordNotFound, recordType, value)
	}
	return records[0], nil
}

// ---------------------------------------------------------------------------
// Sales orders
// ---------------------------------------------------------------------------

// SalesOrderGateway implements integration.SalesOrderGateway.
type SalesOrderGateway struct{ c *Client }

// FindByExternalID implements integration.SalesOrderGateway
func (g *SalesOrderGateway) FindByExternalID(ctx context.Context, externalID string) (*integration.SalesOrder, error) {
	var order integration.SalesOrder
	if err := g.c.getByExternalID(ctx, RecordSalesOrder, externalID, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Create implements integration.SalesOrderGateway
func (g *SalesOrderGateway) Create(ctx context.Context, order *integration.SalesOrder) (*integration.WriteResult, error) {
	return g.c.write(ctx, RecordSalesOrder+".create", http.MethodPost, "/records/"+RecordSalesOrder, order)
}

// Update implements integration.SalesOrderGateway
func (g *SalesOrderGateway) Update(ctx context.Context, internalID string, fields integration.FieldMap) (*integration.WriteResult, error) {
	return g.c.write(ctx, RecordSalesOrder+".update", http.MethodPatch, recordPath(RecordSalesOrder, internalID), fields)
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// CustomerGateway implements integration.CustomerGateway.
type CustomerGateway struct{ c *Client }

// FindByExternalID implements integration.CustomerGateway
func (g *CustomerGateway) FindByExternalID(ctx context.Context, externalID string) (*integration.Customer, error) {
	var customer integration.Customer
	if err := g.c.getByExternalID(ctx, RecordCustomer, externalID, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// Search implements integration.CustomerGateway
func (g *CustomerGateway) Search(ctx context.Context, criteria integration.SearchCriteria) ([]*integration.Customer, error) {
	return search[*integration.Customer](ctx, g.c, RecordCustomer, criteria)
}

// Create implements integration.CustomerGateway
func (g *CustomerGateway) Create(ctx context.Context, customer *integration.Customer) (*integration.WriteResult, error) {
	return g.c.write(ctx, RecordCustomer+".create", http.MethodPost, "/records/"+RecordCustomer, customer)
}

// UpdateAddressBook replaces the customer's address book.
func (g *CustomerGateway) UpdateAddressBook(ctx context.Context, internalID string, book []integration.AddressBookEntry) (*integration.WriteResult, error) {
	fields := map[string]any{"addressbook_list": book, "replace_all": true}
	return g.c.write(ctx, RecordCustomer+".update", http.MethodPatch, recordPath(RecordCustomer, internalID), fields)
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// InventoryItemGateway implements integration.InventoryItemGateway.
type InventoryItemGateway struct{ c *Client }

// FindByItemID implements integration.InventoryItemGateway
func (g *InventoryItemGateway) FindByItemID(ctx context.Context, itemID string) (*integration.InventoryItem, error) {
	records, err := search[*integration.InventoryItem](ctx, g.c, RecordInventoryItem, integration.FieldIs("item_id", itemID))
	if err != nil {
		return nil, err
	}
	return first(records, RecordInventoryItem, itemID)
}

// NonInventoryItemGateway implements integration.NonInventoryItemGateway.
type NonInventoryItemGateway struct{ c *Client }

// FindByName implements integration.NonInventoryItemGateway
func (g *NonInventoryItemGateway) FindByName(ctx context.Context, name string) (*integration.NonInventoryItem, error) {
	records, err := search[*integration.NonInventoryItem](ctx, g.c, RecordNonInventoryItem, integration.FieldIs("item_id", name))
	if err != nil {
		return nil, err
	}
	return first(records, RecordNonInventoryItem, name)
}

// Create implements integration.NonInventoryItemGateway
func (g *NonInventoryItemGateway) Create(ctx context.Context, item *integration.NonInventoryItem) (*integration.WriteResult, error) {
	return g.c.write(ctx, RecordNonInventoryItem+".create", http.MethodPost, "/records/"+RecordNonInventoryItem, item)
}

// ---------------------------------------------------------------------------
// Promotions and deposits
// ---------------------------------------------------------------------------

// PromotionCodeGateway implements integration.PromotionCodeGateway.
type PromotionCodeGateway struct{ c *Client }

// Search implements integration.PromotionCodeGateway
func (g *PromotionCodeGateway) Search(ctx context.Context, criteria integration.SearchCriteria) ([]*integration.PromotionCode, error) {
	return search[*integration.PromotionCode](ctx, g.c, RecordPromotionCode, criteria)
}

// CustomerDepositGateway implements integration.CustomerDepositGateway.
type CustomerDepositGateway struct{ c *Client }

// FindByExternalID implements integration.CustomerDepositGateway
func (g *CustomerDepositGateway) FindByExternalID(ctx context.Context, externalID string) (*integration.CustomerDeposit, error) {
	var deposit integration.CustomerDeposit
	if err := g.c.getByExternalID(ctx, RecordCustomerDeposit, externalID, &deposit); err != nil {
		return nil, err
	}
	return &deposit, nil
}

// Create implements integration.CustomerDepositGateway
func (g *CustomerDepositGateway) Create(ctx context.Context, deposit *integration.CustomerDeposit) (*integration.WriteResult, error) {
	return g.c.write(ctx, RecordCustomerDeposit+".create", http.MethodPost, "/records/"+RecordCustomerDeposit, deposit)
}
