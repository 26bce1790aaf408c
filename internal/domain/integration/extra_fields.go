package integration

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Setter assigns one extra field value to a record.
type Setter[T any] func(target *T, value any) error

// RefSetter assigns a reference attribute of a record.
type RefSetter[T any] func(target *T, ref *RecordRef)

// FieldRegistry maps extra field names to typed setters for one record schema.
type FieldRegistry[T any] struct {
	setters    map[string]Setter[T]
	refSetters map[string]RefSetter[T]
}

// NewFieldRegistry returns an empty registry.
func NewFieldRegistry[T any]() *FieldRegistry[T] {
	return &FieldRegistry[T]{
		setters:    make(map[string]Setter[T]),
		refSetters: make(map[string]RefSetter[T]),
	}
}

// Field registers a direct setter.
func (r *FieldRegistry[T]) Field(name string, set Setter[T]) *FieldRegistry[T] {
	r.setters[name] = set
	return r
}

// Ref registers a reference attribute. The attribute is reachable directly by
// name and through the "<name>_id" and "<name>_ref" forms.
func (r *FieldRegistry[T]) Ref(name string, set RefSetter[T]) *FieldRegistry[T] {
	r.refSetters[name] = set
	r.setters[name] = func(target *T, value any) error {
		ref, err := toRecordRef(value)
		if err != nil {
			return err
		}
		set(target, ref)
		return nil
	}
	return r
}

// Names returns every key a direct setter answers to.
func (r *FieldRegistry[T]) Names() []string {
	names := make([]string, 0, len(r.setters))
	for n := range r.setters {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// ApplyResult lists what happened to each extra field.
type ApplyResult struct {
	Applied []string
	Ignored []string
}

// Apply sets every recognized field on target. Unknown keys and values the
// setter cannot convert are reported in Ignored and otherwise skipped.
func (r *FieldRegistry[T]) Apply(target *T, fields map[string]any) ApplyResult {
	var res ApplyResult
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := fields[key]
		if set, ok := r.setters[key]; ok {
			if err := set(target, value); err != nil {
				res.Ignored = append(res.Ignored, fmt.Sprintf("%s: %v", key, err))
				continue
			}
			res.Applied = append(res.Applied, key)
			continue
		}
		if base, ok := cutRefSuffix(key); ok {
			if set, ok := r.refSetters[base]; ok {
				id := scalarString(value)
				if id == "" {
					res.Ignored = append(res.Ignored, key+": empty reference")
					continue
				}
				set(target, NewRecordRef(id))
				res.Applied = append(res.Applied, key)
				continue
			}
		}
		res.Ignored = append(res.Ignored, key)
	}
	return res
}

func cutRefSuffix(key string) (string, bool) {
	for _, suffix := range []string{"_id", "_ref"} {
		if base, ok := strings.CutSuffix(key, suffix); ok && base != "" {
			return base, true
		}
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Value conversion
// ---------------------------------------------------------------------------

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// StringSetter builds a setter for a string attribute.
func StringSetter[T any](assign func(*T, string)) Setter[T] {
	return func(target *T, value any) error {
		switch value.(type) {
		case map[string]any, []any:
			return fmt.Errorf("expected a scalar, got %T", value)
		}
		assign(target, scalarString(value))
		return nil
	}
}

// BoolSetter builds a setter for a boolean attribute.
func BoolSetter[T any](assign func(*T, bool)) Setter[T] {
	return func(target *T, value any) error {
		switch v := value.(type) {
		case bool:
			assign(target, v)
			return nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("expected a boolean, got %q", v)
			}
			assign(target, b)
			return nil
		}
		return fmt.Errorf("expected a boolean, got %T", value)
	}
}

func toRecordRef(value any) (*RecordRef, error) {
	switch v := value.(type) {
	case map[string]any:
		ref := &RecordRef{
			InternalID: scalarString(v["internal_id"]),
			ExternalID: scalarString(v["external_id"]),
			Name:       scalarString(v["name"]),
		}
		if ref.IsZero() {
			return nil, fmt.Errorf("reference has no internal_id, external_id or name")
		}
		return ref, nil
	case []any:
		return nil, fmt.Errorf("expected a reference, got a list")
	}
	id := scalarString(value)
	if id == "" {
		return nil, fmt.Errorf("empty reference")
	}
	return NewRecordRef(id), nil
}

// ---------------------------------------------------------------------------
// Schemas
// ---------------------------------------------------------------------------

// SalesOrderFields is the extra field registry for sales orders.
func SalesOrderFields() *FieldRegistry[SalesOrder] {
	return NewFieldRegistry[SalesOrder]().
		Field("memo", StringSetter(func(o *SalesOrder, v string) { o.Memo = v })).
		Field("other_ref_num", StringSetter(func(o *SalesOrder, v string) { o.OtherRefNum = v })).
		Field("message", StringSetter(func(o *SalesOrder, v string) { o.Message = v })).
		Field("source", StringSetter(func(o *SalesOrder, v string) { o.Source = v })).
		Field("email", StringSetter(func(o *SalesOrder, v string) { o.Email = v })).
		Field("is_taxable", BoolSetter(func(o *SalesOrder, v bool) { o.IsTaxable = &v })).
		Ref("class", func(o *SalesOrder, r *RecordRef) { o.Class = r }).
		Ref("klass", func(o *SalesOrder, r *RecordRef) { o.Class = r }).
		Ref("location", func(o *SalesOrder, r *RecordRef) { o.Location = r }).
		Ref("sales_rep", func(o *SalesOrder, r *RecordRef) { o.SalesRep = r }).
		Ref("ship_method", func(o *SalesOrder, r *RecordRef) { o.ShipMethod = r }).
		Ref("terms", func(o *SalesOrder, r *RecordRef) { o.Terms = r }).
		Ref("partner", func(o *SalesOrder, r *RecordRef) { o.Partner = r }).
		Ref("subsidiary", func(o *SalesOrder, r *RecordRef) { o.Subsidiary = r }).
		Ref("currency", func(o *SalesOrder, r *RecordRef) { o.Currency = r })
}

// CustomerFields is the extra field registry for customers.
func CustomerFields() *FieldRegistry[Customer] {
	return NewFieldRegistry[Customer]().
		Field("company_name", StringSetter(func(c *Customer, v string) { c.CompanyName = v })).
		Field("comments", StringSetter(func(c *Customer, v string) { c.Comments = v })).
		Field("alt_email", StringSetter(func(c *Customer, v string) { c.AltEmail = v })).
		Field("phone", StringSetter(func(c *Customer, v string) { c.Phone = v })).
		Field("is_person", BoolSetter(func(c *Customer, v bool) { c.IsPerson = v })).
		Ref("category", func(c *Customer, r *RecordRef) { c.Category = r }).
		Ref("subsidiary", func(c *Customer, r *RecordRef) { c.Subsidiary = r }).
		Ref("sales_rep", func(c *Customer, r *RecordRef) { c.SalesRep = r }).
		Ref("price_level", func(c *Customer, r *RecordRef) { c.PriceLevel = r }).
		Ref("terms", func(c *Customer, r *RecordRef) { c.Terms = r })
}

// NonInventoryItemFields is the extra field registry for virtual items.
func NonInventoryItemFields() *FieldRegistry[NonInventoryItem] {
	return NewFieldRegistry[NonInventoryItem]().
		Field("display_name", StringSetter(func(i *NonInventoryItem, v string) { i.DisplayName = v })).
		Field("sales_description", StringSetter(func(i *NonInventoryItem, v string) { i.Description = v })).
		Field("is_taxable", BoolSetter(func(i *NonInventoryItem, v bool) { i.IsTaxable = &v })).
		Ref("tax_schedule", func(i *NonInventoryItem, r *RecordRef) { i.TaxSchedule = r }).
		Ref("subsidiary", func(i *NonInventoryItem, r *RecordRef) { i.Subsidiary = r }).
		Ref("income_account", func(i *NonInventoryItem, r *RecordRef) { i.IncomeAccount = r }).
		Ref("class", func(i *NonInventoryItem, r *RecordRef) { i.Class = r })
}
