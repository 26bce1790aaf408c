package integration

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusPendingApproval is the status every newly created sales order starts in.
const StatusPendingApproval = "_pendingApproval"

// RecordRef points at a remote record by internal id, external id or name.
type RecordRef struct {
	InternalID string `json:"internal_id,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// NewRecordRef returns a reference by internal id.
func NewRecordRef(internalID string) *RecordRef {
	return &RecordRef{InternalID: internalID}
}

// IsZero reports whether the reference identifies nothing.
func (r *RecordRef) IsZero() bool {
	return r == nil || (r.InternalID == "" && r.ExternalID == "" && r.Name == "")
}

// ---------------------------------------------------------------------------
// Address
// ---------------------------------------------------------------------------

// AddressRole selects the billing or shipping field set of a sales order.
type AddressRole string

const (
	AddressRoleBilling  AddressRole = "billing"
	AddressRoleShipping AddressRole = "shipping"
)

// Address is a sales order transaction address.
type Address struct {
	Addressee string `json:"addressee,omitempty"`
	Addr1     string `json:"addr1,omitempty"`
	Addr2     string `json:"addr2,omitempty"`
	Zip       string `json:"zip,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Country   string `json:"country,omitempty"`
	AddrPhone string `json:"addr_phone,omitempty"`
}

// ---------------------------------------------------------------------------
// SalesOrder
// ---------------------------------------------------------------------------

// SalesOrderItem is one line of a sales order. Rate is set only on virtual items.
type SalesOrderItem struct {
	Item     RecordRef        `json:"item"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	TaxRate1 *decimal.Decimal `json:"tax_rate1,omitempty"`
}

// IsVirtual reports whether the line was synthesized from adjustments.
func (i SalesOrderItem) IsVirtual() bool {
	return i.Rate != nil
}

// SalesOrder is the remote sales order being assembled.
type SalesOrder struct {
	InternalID string `json:"internal_id,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	TranID     string `json:"tran_id,omitempty"`
	Status     string `json:"status,omitempty"`

	CustomForm   *RecordRef       `json:"custom_form,omitempty"`
	Entity       *RecordRef       `json:"entity,omitempty"`
	Department   *RecordRef       `json:"department,omitempty"`
	PromoCode    *RecordRef       `json:"promo_code,omitempty"`
	Items        []SalesOrderItem `json:"item_list,omitempty"`
	BillAddress  *Address         `json:"transaction_bill_address,omitempty"`
	ShipAddress  *Address         `json:"transaction_ship_address,omitempty"`
	ShippingCost *decimal.Decimal `json:"shipping_cost,omitempty"`
	TranDate     *time.Time       `json:"tran_date,omitempty"`
	CustomFields *CustomFieldList `json:"custom_field_list,omitempty"`

	// Attributes reachable through the extra field registry.
	Memo        string     `json:"memo,omitempty"`
	OtherRefNum string     `json:"other_ref_num,omitempty"`
	Message     string     `json:"message,omitempty"`
	Source      string     `json:"source,omitempty"`
	Email       string     `json:"email,omitempty"`
	IsTaxable   *bool      `json:"is_taxable,omitempty"`
	Class       *RecordRef `json:"klass,omitempty"`
	Location    *RecordRef `json:"location,omitempty"`
	SalesRep    *RecordRef `json:"sales_rep,omitempty"`
	ShipMethod  *RecordRef `json:"ship_method,omitempty"`
	Terms       *RecordRef `json:"terms,omitempty"`
	Partner     *RecordRef `json:"partner,omitempty"`
	Subsidiary  *RecordRef `json:"subsidiary,omitempty"`
	Currency    *RecordRef `json:"currency,omitempty"`
}

// NewPendingSalesOrder returns the record for the create path.
func NewPendingSalesOrder(externalID string) *SalesOrder {
	return &SalesOrder{
		ExternalID:   externalID,
		Status:       StatusPendingApproval,
		CustomFields: NewCustomFieldList(),
	}
}

// NewExistingSalesOrder returns the record for the update path, keyed by the remote ids.
func NewExistingSalesOrder(existing *SalesOrder) *SalesOrder {
	custom := NewCustomFieldList()
	if existing.CustomFields != nil {
		custom = existing.CustomFields.Clone()
	}
	return &SalesOrder{
		InternalID:   existing.InternalID,
		ExternalID:   existing.ExternalID,
		TranID:       existing.TranID,
		PromoCode:    existing.PromoCode,
		CustomFields: custom,
	}
}

// IsNew reports whether the order has not been persisted remotely.
func (o *SalesOrder) IsNew() bool {
	return o.InternalID == ""
}

// HasPromotion reports whether a promotion reference is attached.
func (o *SalesOrder) HasPromotion() bool {
	return !o.PromoCode.IsZero()
}

// ---------------------------------------------------------------------------
// FieldMap
// ---------------------------------------------------------------------------

// Sales order field names used in partial updates.
const (
	FieldEntity       = "entity"
	FieldItemList     = "item_list"
	FieldBillAddress  = "transaction_bill_address"
	FieldShipAddress  = "transaction_ship_address"
	FieldShippingCost = "shipping_cost"
	FieldDepartment   = "department"
	FieldCustomFields = "custom_field_list"
	FieldPromoCode    = "promo_code"
)

// FieldMap is a partial update keyed by remote field name.
type FieldMap map[string]any

// Set records a field when value is non-nil.
func (m FieldMap) Set(name string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case string:
		if v == "" {
			return
		}
	case *RecordRef:
		if v.IsZero() {
			return
		}
	case *Address:
		if v == nil {
			return
		}
	case *decimal.Decimal:
		if v == nil {
			return
		}
	case *bool:
		if v == nil {
			return
		}
	case *CustomFieldList:
		if v.Len() == 0 {
			return
		}
	}
	m[name] = value
}

// UpdateFields returns the partial update carrying every field a
// reconciliation pass assigns. Identity fields and status are left out;
// item_list is always present.
func (o *SalesOrder) UpdateFields() FieldMap {
	m := FieldMap{}
	m.Set(FieldEntity, o.Entity)
	// item_list replaces the remote lines wholesale, so an empty list clears them.
	items := o.Items
	if items == nil {
		items = []SalesOrderItem{}
	}
	m[FieldItemList] = items
	m.Set(FieldBillAddress, o.BillAddress)
	m.Set(FieldShipAddress, o.ShipAddress)
	m.Set(FieldShippingCost, o.ShippingCost)
	m.Set(FieldDepartment, o.Department)
	m.Set(FieldCustomFields, o.CustomFields)
	m.Set(FieldPromoCode, o.PromoCode)

	m.Set("memo", o.Memo)
	m.Set("other_ref_num", o.OtherRefNum)
	m.Set("message", o.Message)
	m.Set("source", o.Source)
	m.Set("email", o.Email)
	m.Set("is_taxable", o.IsTaxable)
	m.Set("klass", o.Class)
	m.Set("location", o.Location)
	m.Set("sales_rep", o.SalesRep)
	m.Set("ship_method", o.ShipMethod)
	m.Set("terms", o.Terms)
	m.Set("partner", o.Partner)
	m.Set("subsidiary", o.Subsidiary)
	m.Set("currency", o.Currency)
	return m
}

// ---------------------------------------------------------------------------
// ReconcileState
// ---------------------------------------------------------------------------

// ReconcileState tracks a reconciliation pass.
type ReconcileState string

const (
	StateNotStarted    ReconcileState = "NOT_STARTED"
	StateNew           ReconcileState = "NEW"
	StateExistingFound ReconcileState = "EXISTING_FOUND"
	StateBuilt         ReconcileState = "BUILT"
	StateCreated       ReconcileState = "CREATED"
	StateUpdated       ReconcileState = "UPDATED"
	StateFailed        ReconcileState = "FAILED"
)

// IsTerminal reports whether no further transition is possible.
func (s ReconcileState) IsTerminal() bool {
	switch s {
	case StateCreated, StateUpdated, StateFailed:
		return true
	default:
		return false
	}
}

// IsValid returns true if the state is known.
func (s ReconcileState) IsValid() bool {
	switch s {
	case StateNotStarted, StateNew, StateExistingFound, StateBuilt, StateCreated, StateUpdated, StateFailed:
		return true
	default:
		return false
	}
}

// ReconcilePath is the branch chosen after the existence lookup.
type ReconcilePath string

const (
	PathCreate ReconcilePath = "create"
	PathUpdate ReconcilePath = "update"
)
