package integration

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// PlaceholderName fills customer names the storefront did not provide.
const PlaceholderName = "N/A"

// AddressBookEntry is one address in a customer's address book.
type AddressBookEntry struct {
	DefaultShipping bool   `json:"default_shipping"`
	DefaultBilling  bool   `json:"default_billing"`
	Addressee       string `json:"addressee,omitempty"`
	Addr1           string `json:"addr1,omitempty"`
	Addr2           string `json:"addr2,omitempty"`
	Zip             string `json:"zip,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Country         string `json:"country,omitempty"`
	Phone           string `json:"phone,omitempty"`
}

// AddressFingerprint is the comparable identity of an address book entry.
// It leaves out the default flags and the addressee.
type AddressFingerprint struct {
	Addr1   string
	Addr2   string
	Zip     string
	City    string
	State   string
	Country string
	Phone   string
}

// Fingerprint returns the entry's comparable identity.
func (e AddressBookEntry) Fingerprint() AddressFingerprint {
	return AddressFingerprint{
		Addr1:   e.Addr1,
		Addr2:   e.Addr2,
		Zip:     e.Zip,
		City:    e.City,
		State:   e.State,
		Country: e.Country,
		Phone:   DigitsOnly(e.Phone),
	}
}

// Customer is a remote customer record.
type Customer struct {
	InternalID  string             `json:"internal_id,omitempty"`
	ExternalID  string             `json:"external_id,omitempty"`
	Email       string             `json:"email,omitempty"`
	FirstName   string             `json:"first_name,omitempty"`
	LastName    string             `json:"last_name,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	IsPerson    bool               `json:"is_person"`
	AddressBook []AddressBookEntry `json:"addressbook_list,omitempty"`

	// Attributes reachable through the extra field registry.
	CompanyName string     `json:"company_name,omitempty"`
	Comments    string     `json:"comments,omitempty"`
	AltEmail    string     `json:"alt_email,omitempty"`
	Category    *RecordRef `json:"category,omitempty"`
	Subsidiary  *RecordRef `json:"subsidiary,omitempty"`
	SalesRep    *RecordRef `json:"sales_rep,omitempty"`
	PriceLevel  *RecordRef `json:"price_level,omitempty"`
	Terms       *RecordRef `json:"terms,omitempty"`
}

// Ref returns a reference to the customer.
func (c *Customer) Ref() *RecordRef {
	return &RecordRef{InternalID: c.InternalID, ExternalID: c.ExternalID}
}

// HasAddress reports whether any address book entry shares the fingerprint.
func (c *Customer) HasAddress(fp AddressFingerprint) bool {
	for _, e := range c.AddressBook {
		if e.Fingerprint() == fp {
			return true
		}
	}
	return false
}

// WithDefaultAddress returns an address book with entry first as the default
// billing, non default shipping address and every existing entry demoted.
func (c *Customer) WithDefaultAddress(entry AddressBookEntry) []AddressBookEntry {
	entry.DefaultBilling = true
	entry.DefaultShipping = false
	book := make([]AddressBookEntry, 0, len(c.AddressBook)+1)
	book = append(book, entry)
	for _, e := range c.AddressBook {
		e.DefaultBilling = false
		e.DefaultShipping = false
		book = append(book, e)
	}
	return book
}

// DigitsOnly strips every non digit rune.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// PromotionCode is a remote promotion record.
type PromotionCode struct {
	InternalID string `json:"internal_id"`
	Code       string `json:"code"`
	Name       string `json:"name,omitempty"`
}

// Ref returns a reference to the promotion.
func (p *PromotionCode) Ref() *RecordRef {
	return &RecordRef{InternalID: p.InternalID, Name: p.Code}
}

// InventoryItem is a remote stocked item.
type InventoryItem struct {
	InternalID string `json:"internal_id"`
	ItemID     string `json:"item_id"`
}

// NonInventoryItem is a remote virtual item used for adjustment lines.
type NonInventoryItem struct {
	InternalID  string `json:"internal_id,omitempty"`
	ItemID      string `json:"item_id"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"sales_description,omitempty"`
	IsTaxable   *bool  `json:"is_taxable,omitempty"`

	TaxSchedule   *RecordRef `json:"tax_schedule,omitempty"`
	Subsidiary    *RecordRef `json:"subsidiary,omitempty"`
	IncomeAccount *RecordRef `json:"income_account,omitempty"`
	Class         *RecordRef `json:"klass,omitempty"`
}

// CustomerDeposit records a payment taken against a sales order before fulfilment.
type CustomerDeposit struct {
	InternalID  string          `json:"internal_id,omitempty"`
	ExternalID  string          `json:"external_id"`
	Customer    *RecordRef      `json:"customer"`
	SalesOrder  *RecordRef      `json:"sales_order"`
	Payment     decimal.Decimal `json:"payment"`
	PaymentMode string          `json:"payment_method,omitempty"`
}
