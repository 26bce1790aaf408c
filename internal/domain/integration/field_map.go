package integration

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiters of the flat custom_body_fields_map encoding.
const (
	fieldMapTokenSep  = ";;"
	fieldMapOptionSep = "||"
	listIDSuffix      = "_list_id"
	listMapSuffix     = "_list_map"
)

// FieldSpec describes how one custom body field maps onto a remote custom field.
type FieldSpec struct {
	Name       string            `yaml:"name"`
	InternalID string            `yaml:"internal_id"`
	Type       string            `yaml:"type"`
	ListID     string            `yaml:"list_id,omitempty"`
	Options    map[string]string `yaml:"options,omitempty"`
}

// IsSelect reports whether the field takes a list option reference.
func (s FieldSpec) IsSelect() bool {
	return s.Type == SelectFieldType
}

// OptionID returns the option id for a label.
func (s FieldSpec) OptionID(label string) (string, bool) {
	id, ok := s.Options[label]
	return id, ok
}

// CustomFieldMap is the parsed custom_body_fields_map setting.
type CustomFieldMap struct {
	specs    map[string]FieldSpec
	problems []string
}

// NewCustomFieldMap builds a map from structured specs.
func NewCustomFieldMap(specs ...FieldSpec) *CustomFieldMap {
	m := &CustomFieldMap{specs: make(map[string]FieldSpec, len(specs))}
	for _, s := range specs {
		m.specs[s.Name] = s
	}
	m.collectProblems()
	return m
}

// Lookup returns the spec for a field, or an unmappable field error when the
// map has no usable id and type for it.
func (m *CustomFieldMap) Lookup(name string) (FieldSpec, error) {
	if m == nil {
		return FieldSpec{}, NewUnmappableFieldError(name)
	}
	spec, ok := m.specs[name]
	if !ok || spec.InternalID == "" || spec.Type == "" {
		return FieldSpec{}, NewUnmappableFieldError(name)
	}
	return spec, nil
}

// Names returns the mapped field names in sorted order.
func (m *CustomFieldMap) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.specs))
	for n := range m.specs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of mapped fields.
func (m *CustomFieldMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.specs)
}

// Problems lists incomplete entries found at load time. They do not fail the
// load; the affected fields fail when an order uses them.
func (m *CustomFieldMap) Problems() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.problems)
}

func (m *CustomFieldMap) collectProblems() {
	m.problems = nil
	for _, name := range m.Names() {
		spec := m.specs[name]
		switch {
		case spec.InternalID == "" || spec.Type == "":
			m.problems = append(m.problems, fmt.Sprintf("%s: missing internal id or type", name))
		case spec.IsSelect() && spec.ListID == "":
			m.problems = append(m.problems, fmt.Sprintf("%s: select field has no %s%s entry", name, name, listIDSuffix))
		case spec.IsSelect() && len(spec.Options) == 0:
			m.problems = append(m.problems, fmt.Sprintf("%s: select field has no %s%s entry", name, name, listMapSuffix))
		}
	}
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseCustomFieldMap parses the JSON encoded flat form: an object (or an
// array whose first element is an object) of name to "<id>;;<type>", with
// "<name>_list_id" and "<name>_list_map" companions for select fields.
// An empty string yields an empty map.
func ParseCustomFieldMap(raw string) (*CustomFieldMap, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NewCustomFieldMap(), nil
	}

	var entries map[string]any
	if strings.HasPrefix(raw, "[") {
		var list []map[string]any
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, NewMalformedFieldMapError("custom_body_fields_map", err.Error())
		}
		if len(list) > 0 {
			entries = list[0]
		}
	} else if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, NewMalformedFieldMapError("custom_body_fields_map", err.Error())
	}

	flat := make(map[string]string, len(entries))
	for k, v := range entries {
		s, ok := v.(string)
		if !ok {
			return nil, NewMalformedFieldMapError(k, fmt.Sprintf("expected a string value, got %T", v))
		}
		flat[k] = s
	}
	return FromFlatEntries(flat)
}

// FromFlatEntries builds a map from already decoded flat entries.
func FromFlatEntries(entries map[string]string) (*CustomFieldMap, error) {
	m := &CustomFieldMap{specs: make(map[string]FieldSpec)}

	for key, value := range entries {
		if isCompanionKey(key, entries) {
			continue
		}
		tokens := strings.Split(value, fieldMapTokenSep)
		spec := FieldSpec{Name: key, InternalID: strings.TrimSpace(tokens[0])}
		if len(tokens) > 1 {
			spec.Type = strings.TrimSpace(tokens[1])
		}
		m.specs[key] = spec
	}

	for key, value := range entries {
		if !isCompanionKey(key, entries) {
			continue
		}
		switch {
		case strings.HasSuffix(key, listIDSuffix):
			base := strings.TrimSuffix(key, listIDSuffix)
			spec := m.specs[base]
			spec.ListID = strings.TrimSpace(value)
			m.specs[base] = spec
		case strings.HasSuffix(key, listMapSuffix):
			base := strings.TrimSuffix(key, listMapSuffix)
			options, err := parseOptionTable(key, value)
			if err != nil {
				return nil, err
			}
			spec := m.specs[base]
			spec.Options = options
			m.specs[base] = spec
		}
	}

	m.collectProblems()
	return m, nil
}

// isCompanionKey treats "<base>_list_id" and "<base>_list_map" as companions
// when "<base>" itself is mapped.
func isCompanionKey(key string, entries map[string]string) bool {
	for _, suffix := range []string{listIDSuffix, listMapSuffix} {
		if base, ok := strings.CutSuffix(key, suffix); ok && base != "" {
			if _, mapped := entries[base]; mapped {
				return true
			}
		}
	}
	return false
}

func parseOptionTable(key, raw string) (map[string]string, error) {
	options := make(map[string]string)
	for _, pair := range strings.Split(raw, fieldMapOptionSep) {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		label, id, ok := strings.Cut(pair, fieldMapTokenSep)
		if !ok || id == "" {
			return nil, NewMalformedFieldMapError(key, fmt.Sprintf("option %q is not of the form label;;id", pair))
		}
		options[label] = strings.TrimSpace(id)
	}
	return options, nil
}

// fieldMapDocument is the structured YAML form.
type fieldMapDocument struct {
	Fields []FieldSpec `yaml:"fields"`
}

// ParseCustomFieldMapYAML parses the structured form:
//
//	fields:
//	  - name: channel
//	    internal_id: custbody_channel
//	    type: platformCore:SelectCustomFieldRef
//	    list_id: customlist_channel
//	    options: {Web: "1", Phone: "2"}
func ParseCustomFieldMapYAML(data []byte) (*CustomFieldMap, error) {
	var doc fieldMapDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewMalformedFieldMapError("custom_body_fields_map", err.Error())
	}
	seen := make(map[string]bool, len(doc.Fields))
	for i, f := range doc.Fields {
		if f.Name == "" {
			return nil, NewMalformedFieldMapError(fmt.Sprintf("fields[%d]", i), "name is required")
		}
		if seen[f.Name] {
			return nil, NewMalformedFieldMapError(f.Name, "duplicate entry")
		}
		seen[f.Name] = true
	}
	return NewCustomFieldMap(doc.Fields...), nil
}
