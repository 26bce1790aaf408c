package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalesOrderFields_Apply(t *testing.T) {
	order := NewPendingSalesOrder("R1")

	res := SalesOrderFields().Apply(order, map[string]any{
		"memo":          "gift order",
		"class_id":      "12",
		"location_ref":  float64(3),
		"ship_method":   map[string]any{"internal_id": "7"},
		"is_taxable":    "true",
		"unknown_field": "x",
		"bogus_id":      "5",
		"other_ref_num": []any{"bad"},
		"sales_rep_id":  "",
	})

	assert.Equal(t, "gift order", order.Memo)
	require.NotNil(t, order.Class)
	assert.Equal(t, "12", order.Class.InternalID)
	require.NotNil(t, order.Location)
	assert.Equal(t, "3", order.Location.InternalID)
	require.NotNil(t, order.ShipMethod)
	assert.Equal(t, "7", order.ShipMethod.InternalID)
	require.NotNil(t, order.IsTaxable)
	assert.True(t, *order.IsTaxable)
	assert.Nil(t, order.SalesRep)

	assert.ElementsMatch(t, []string{"class_id", "is_taxable", "location_ref", "memo", "ship_method"}, res.Applied)
	assert.Len(t, res.Ignored, 4)
	assert.Contains(t, res.Ignored, "unknown_field")
	assert.Contains(t, res.Ignored, "bogus_id")
}

func TestFieldRegistry_DirectSetterWinsOverSuffix(t *testing.T) {
	type rec struct {
		ExternalRef string
		Ext         *RecordRef
	}
	r := NewFieldRegistry[rec]().
		Field("ext_id", StringSetter(func(x *rec, v string) { x.ExternalRef = v })).
		Ref("ext", func(x *rec, ref *RecordRef) { x.Ext = ref })

	var target rec
	res := r.Apply(&target, map[string]any{"ext_id": "abc"})

	assert.Equal(t, []string{"ext_id"}, res.Applied)
	assert.Equal(t, "abc", target.ExternalRef)
	assert.Nil(t, target.Ext)
}

func TestCustomerFields_Apply(t *testing.T) {
	c := &Customer{IsPerson: true}

	res := CustomerFields().Apply(c, map[string]any{
		"company_name":   "Acme",
		"price_level_id": "2",
		"is_person":      false,
	})

	assert.Empty(t, res.Ignored)
	assert.Equal(t, "Acme", c.CompanyName)
	assert.Equal(t, "2", c.PriceLevel.InternalID)
	assert.False(t, c.IsPerson)
}

func TestNonInventoryItemFields_Names(t *testing.T) {
	names := NonInventoryItemFields().Names()
	assert.Contains(t, names, "tax_schedule")
	assert.Contains(t, names, "display_name")
}
