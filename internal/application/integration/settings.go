package integration

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
)

// AdjustmentCategory is one of the adjustment kinds that become virtual line items.
type AdjustmentCategory string

const (
	CategoryTax         AdjustmentCategory = "tax"
	CategoryDiscount    AdjustmentCategory = "discount"
	CategoryShipping    AdjustmentCategory = "shipping"
	CategoryShippingTax AdjustmentCategory = "shipping_tax"
)

// AdjustmentCategories lists the categories in line item order.
var AdjustmentCategories = []AdjustmentCategory{
	CategoryTax,
	CategoryDiscount,
	CategoryShipping,
	CategoryShippingTax,
}

// SettingKey returns the settings key naming this category's virtual item,
// e.g. item_for_taxes or item_for_shipping_taxes.
func (c AdjustmentCategory) SettingKey() string {
	if strings.HasSuffix(string(c), "x") {
		return "item_for_" + string(c) + "es"
	}
	return "item_for_" + string(c) + "s"
}

// DefaultItemName returns the virtual item name used when none is configured.
func (c AdjustmentCategory) DefaultItemName() string {
	words := strings.ReplaceAll(string(c), "_", " ")
	return "Store " + strings.ToUpper(words[:1]) + words[1:]
}

// Settings is the configuration one reconciliation pass consumes.
type Settings struct {
	CustomFormID string
	DepartmentID string
	FieldMap     *integration.CustomFieldMap
	ItemNames    map[AdjustmentCategory]string
}

// ItemName returns the configured virtual item name for a category.
func (s *Settings) ItemName(c AdjustmentCategory) string {
	if s != nil {
		if name := strings.TrimSpace(s.ItemNames[c]); name != "" {
			return name
		}
	}
	return c.DefaultItemName()
}

// SettingsFromMap builds Settings from the flat key/value surface:
// custom_form_id, department_id, custom_body_fields_map (JSON) and
// item_for_<category plural>.
func SettingsFromMap(values map[string]string) (*Settings, error) {
	fieldMap, err := integration.ParseCustomFieldMap(values["custom_body_fields_map"])
	if err != nil {
		return nil, fmt.Errorf("custom_body_fields_map: %w", err)
	}
	s := &Settings{
		CustomFormID: strings.TrimSpace(values["custom_form_id"]),
		DepartmentID: strings.TrimSpace(values["department_id"]),
		FieldMap:     fieldMap,
		ItemNames:    make(map[AdjustmentCategory]string, len(AdjustmentCategories)),
	}
	for _, c := range AdjustmentCategories {
		if name := strings.TrimSpace(values[c.SettingKey()]); name != "" {
			s.ItemNames[c] = name
		}
	}
	return s, nil
}

// LoadSettings builds Settings from values and, when fieldMapFile is set,
// reads the custom field map from that YAML file instead of the JSON value.
func LoadSettings(values map[string]string, fieldMapFile string) (*Settings, error) {
	if fieldMapFile == "" {
		return SettingsFromMap(values)
	}
	if strings.TrimSpace(values["custom_body_fields_map"]) != "" {
		return nil, errors.New("custom_body_fields_map and custom_body_fields_map_file are mutually exclusive")
	}
	data, err := os.ReadFile(fieldMapFile)
	if err != nil {
		return nil, fmt.Errorf("read custom field map file: %w", err)
	}
	fieldMap, err := integration.ParseCustomFieldMapYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fieldMapFile, err)
	}
	s, err := SettingsFromMap(values)
	if err != nil {
		return nil, err
	}
	s.FieldMap = fieldMap
	return s, nil
}
