package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustmentCategory_SettingKeyAndDefaultName(t *testing.T) {
	tests := []struct {
		category AdjustmentCategory
		key      string
		name     string
	}{
		{CategoryTax, "item_for_taxes", "Store Tax"},
		{CategoryDiscount, "item_for_discounts", "Store Discount"},
		{CategoryShipping, "item_for_shippings", "Store Shipping"},
		{CategoryShippingTax, "item_for_shipping_taxes", "Store Shipping tax"},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.key, tt.category.SettingKey())
			assert.Equal(t, tt.name, tt.category.DefaultItemName())
		})
	}
}

func TestSettingsFromMap(t *testing.T) {
	s, err := SettingsFromMap(map[string]string{
		"custom_form_id":         "101",
		"department_id":          " 7 ",
		"custom_body_fields_map": `{"gift": "custbody_gift;;platformCore:StringCustomFieldRef"}`,
		"item_for_shippings":     "Web Freight",
	})
	require.NoError(t, err)

	assert.Equal(t, "101", s.CustomFormID)
	assert.Equal(t, "7", s.DepartmentID)
	assert.Equal(t, 1, s.FieldMap.Len())
	assert.Equal(t, "Web Freight", s.ItemName(CategoryShipping))
	assert.Equal(t, "Store Tax", s.ItemName(CategoryTax))
}

func TestSettingsFromMap_MalformedFieldMap(t *testing.T) {
	_, err := SettingsFromMap(map[string]string{"custom_body_fields_map": "{"})
	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrConfiguration)
	assert.Contains(t, err.Error(), "custom_body_fields_map")
}

func TestSettings_ItemNameNil(t *testing.T) {
	var s *Settings
	assert.Equal(t, "Store Discount", s.ItemName(CategoryDiscount))
}

// ---------------------------------------------------------------------------
// AddressBuilder Tests
// ---------------------------------------------------------------------------

func TestLoadSettings_FieldMapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fields:
  - name: channel
    internal_id: custbody_channel
    type: platformCore:SelectCustomFieldRef
    list_id: customlist_channel
    options: {Web: "1", Phone: "2"}
  - name: gift_note
    internal_id: custbody_gift_note
    type: platformCore:StringCustomFieldRef
`), 0o644))

	s, err := LoadSettings(map[string]string{"department_id": "3"}, path)
	require.NoError(t, err)
	assert.Equal(t, "3", s.DepartmentID)
	assert.Equal(t, 2, s.FieldMap.Len())

	spec, err := s.FieldMap.Lookup("channel")
	require.NoError(t, err)
	assert.True(t, spec.IsSelect())
	assert.Equal(t, "2", spec.Options["Phone"])
}

func TestLoadSettings_Errors(t *testing.T) {
	_, err := LoadSettings(map[string]string{"custom_body_fields_map": `{"a":"b;;c"}`}, "fields.yaml")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = LoadSettings(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read custom field map file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fields:\n  - internal_id: x\n"), 0o644))
	_, err = LoadSettings(nil, bad)
	assert.ErrorIs(t, err, integration.ErrConfiguration)

	s, err := LoadSettings(map[string]string{"custom_form_id": "68"}, "")
	require.NoError(t, err)
	assert.Equal(t, "68", s.CustomFormID)
}
