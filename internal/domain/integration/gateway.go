package integration

import "context"

// ---------------------------------------------------------------------------
// Remote gateway ports
// ---------------------------------------------------------------------------

// SearchOperator is a remote search comparison.
type SearchOperator string

const (
	// SearchIs matches the field value exactly.
	SearchIs SearchOperator = "is"
)

// SearchCriteria is a single-field remote search.
type SearchCriteria struct {
	Field    string         `json:"field"`
	Operator SearchOperator `json:"operator"`
	Value    string         `json:"value"`
}

// FieldIs returns criteria matching field exactly.
func FieldIs(field, value string) SearchCriteria {
	return SearchCriteria{Field: field, Operator: SearchIs, Value: value}
}

// WriteResult is the outcome of a remote create or update.
// A rejected write is reported with Success false and the remote messages,
// not as an error; errors are reserved for transport failures.
type WriteResult struct {
	Success    bool     `json:"success"`
	InternalID string   `json:"internal_id,omitempty"`
	Messages   []string `json:"messages,omitempty"`
}

// SalesOrderGateway reads and writes remote sales orders.
type SalesOrderGateway interface {
	// FindByExternalID returns ErrRecordNotFound when no order carries the id.
	FindByExternalID(ctx context.Context, externalID string) (*SalesOrder, error)
	Create(ctx context.Context, order *SalesOrder) (*WriteResult, error)
	Update(ctx context.Context, internalID string, fields FieldMap) (*WriteResult, error)
}

// CustomerGateway reads and writes remote customers.
type CustomerGateway interface {
	FindByExternalID(ctx context.Context, externalID string) (*Customer, error)
	Search(ctx context.Context, criteria SearchCriteria) ([]*Customer, error)
	Create(ctx context.Context, customer *Customer) (*WriteResult, error)
	UpdateAddressBook(ctx context.Context, internalID string, book []AddressBookEntry) (*WriteResult, error)
}

// InventoryItemGateway looks up stocked items.
type InventoryItemGateway interface {
	FindByItemID(ctx context.Context, itemID string) (*InventoryItem, error)
}

// NonInventoryItemGateway finds and creates virtual items.
type NonInventoryItemGateway interface {
	FindByName(ctx context.Context, name string) (*NonInventoryItem, error)
	Create(ctx context.Context, item *NonInventoryItem) (*WriteResult, error)
}

// PromotionCodeGateway searches promotions.
type PromotionCodeGateway interface {
	Search(ctx context.Context, criteria SearchCriteria) ([]*PromotionCode, error)
}

// CustomerDepositGateway finds and records customer deposits.
type CustomerDepositGateway interface {
	FindByExternalID(ctx context.Context, externalID string) (*CustomerDeposit, error)
	Create(ctx context.Context, deposit *CustomerDeposit) (*WriteResult, error)
}

// Gateway groups the per-entity ports one reconciliation uses.
type Gateway struct {
	SalesOrders       SalesOrderGateway
	Customers         CustomerGateway
	InventoryItems    InventoryItemGateway
	NonInventoryItems NonInventoryItemGateway
	PromotionCodes    PromotionCodeGateway
	CustomerDeposits  CustomerDepositGateway
}

// ---------------------------------------------------------------------------
// Reference resolution
// ---------------------------------------------------------------------------

// ReferenceResolver translates storefront state and country values into
// the codes the remote service expects.
type ReferenceResolver interface {
	StateCodeFor(name string) string
	CountryCodeFor(isoCode string) string
}
