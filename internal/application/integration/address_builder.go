package integration

import (
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
)

// AddressBuilder maps storefront addresses onto remote addresses.
type AddressBuilder struct {
	refs integration.ReferenceResolver
}

// NewAddressBuilder creates an AddressBuilder.
func NewAddressBuilder(refs integration.ReferenceResolver) *AddressBuilder {
	return &AddressBuilder{refs: refs}
}

// Build returns nil when raw is nil. The role only decides where the caller
// stores the result; the mapping is identical for billing and shipping.
func (b *AddressBuilder) Build(raw *integration.PayloadAddress, _ integration.AddressRole) *integration.Address {
	if raw == nil {
		return nil
	}
	return &integration.Address{
		Addressee: addressee(raw),
		Addr1:     raw.Address1,
		Addr2:     raw.Address2,
		Zip:       raw.Zipcode,
		City:      raw.City,
		State:     b.refs.StateCodeFor(raw.State),
		Country:   b.refs.CountryCodeFor(raw.Country),
		AddrPhone: integration.DigitsOnly(raw.Phone),
	}
}

// BuildBookEntry maps a storefront address onto a customer address book entry.
func (b *AddressBuilder) BuildBookEntry(raw *integration.PayloadAddress) integration.AddressBookEntry {
	return integration.AddressBookEntry{
		Addressee: addressee(raw),
		Addr1:     raw.Address1,
		Addr2:     raw.Address2,
		Zip:       raw.Zipcode,
		City:      raw.City,
		State:     b.refs.StateCodeFor(raw.State),
		Country:   b.refs.CountryCodeFor(raw.Country),
		Phone:     integration.DigitsOnly(raw.Phone),
	}
}

// Apply sets the address on the order field that matches role.
func (b *AddressBuilder) Apply(order *integration.SalesOrder, raw *integration.PayloadAddress, role integration.AddressRole) {
	addr := b.Build(raw, role)
	switch role {
	case integration.AddressRoleBilling:
		order.BillAddress = addr
	case integration.AddressRoleShipping:
		order.ShipAddress = addr
	}
}

func addressee(raw *integration.PayloadAddress) string {
	return strings.TrimSpace(raw.Firstname + " " + raw.Lastname)
}
