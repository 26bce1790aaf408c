package integration

import (
	"encoding/json"
	"slices"
)

// SelectFieldType is the custom field type that takes a list option reference.
const SelectFieldType = "platformCore:SelectCustomFieldRef"

// SelectValue references one option of a remote custom list.
type SelectValue struct {
	OptionID string `json:"internal_id"`
	ListID   string `json:"type_id"`
}

// CustomField is a resolved custom field value.
type CustomField struct {
	InternalID string `json:"internal_id"`
	Type       string `json:"type"`
	Value      any    `json:"value"`
}

// IsSelect reports whether the field holds a list option reference.
func (f CustomField) IsSelect() bool {
	_, ok := f.Value.(SelectValue)
	return ok
}

// CustomFieldList holds custom fields keyed by internal id, in insertion order.
type CustomFieldList struct {
	fields []CustomField
}

// NewCustomFieldList returns an empty list.
func NewCustomFieldList(fields ...CustomField) *CustomFieldList {
	l := &CustomFieldList{}
	for _, f := range fields {
		l.Upsert(f)
	}
	return l
}

// Upsert replaces the field with the same internal id in place, or appends it.
func (l *CustomFieldList) Upsert(field CustomField) {
	for i := range l.fields {
		if l.fields[i].InternalID == field.InternalID {
			l.fields[i] = field
			return
		}
	}
	l.fields = append(l.fields, field)
}

// Get returns the field with the given internal id.
func (l *CustomFieldList) Get(internalID string) (CustomField, bool) {
	if l == nil {
		return CustomField{}, false
	}
	for _, f := range l.fields {
		if f.InternalID == internalID {
			return f, true
		}
	}
	return CustomField{}, false
}

// Fields returns a copy of the fields.
func (l *CustomFieldList) Fields() []CustomField {
	if l == nil {
		return nil
	}
	return slices.Clone(l.fields)
}

// Len returns the number of fields.
func (l *CustomFieldList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.fields)
}

// Clone returns an independent copy.
func (l *CustomFieldList) Clone() *CustomFieldList {
	return &CustomFieldList{fields: l.Fields()}
}

// MarshalJSON encodes the list as an array.
func (l *CustomFieldList) MarshalJSON() ([]byte, error) {
	if l == nil || l.fields == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.fields)
}

// UnmarshalJSON decodes an array of fields. Select values arrive as objects.
func (l *CustomFieldList) UnmarshalJSON(data []byte) error {
	var raw []struct {
		InternalID string          `json:"internal_id"`
		Type       string          `json:"type"`
		Value      json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.fields = nil
	for _, r := range raw {
		field := CustomField{InternalID: r.InternalID, Type: r.Type}
		switch {
		case len(r.Value) == 0 || string(r.Value) == "null":
		case r.Type == SelectFieldType:
			var sv SelectValue
			if err := json.Unmarshal(r.Value, &sv); err != nil {
				return err
			}
			field.Value = sv
		default:
			var v any
			if err := json.Unmarshal(r.Value, &v); err != nil {
				return err
			}
			field.Value = v
		}
		l.Upsert(field)
	}
	return nil
}
