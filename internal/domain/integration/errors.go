package integration

import (
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

// Taxonomy sentinels. Typed errors below match them through errors.Is.
var (
	ErrLookupFailed        = errors.New("integration: lookup failed")
	ErrRemoteValidation    = errors.New("integration: remote validation failed")
	ErrConfiguration       = errors.New("integration: configuration error")
	ErrPromotionResolution = errors.New("integration: promotion resolution failed")
	ErrNonInventoryItem    = errors.New("integration: non-inventory item error")

	ErrCouponNotFound  = errors.New("integration: promotion code not found")
	ErrCouponAmbiguous = errors.New("integration: too many promotion codes")
)

// Transport and service level errors.
var (
	ErrRecordNotFound        = errors.New("integration: remote record not found")
	ErrRemoteUnavailable     = errors.New("integration: remote service temporarily unavailable")
	ErrRemoteRequestFailed   = errors.New("integration: remote request failed")
	ErrRemoteInvalidResponse = errors.New("integration: invalid remote response")
	ErrRemoteAuthFailed      = errors.New("integration: remote authentication failed")
	ErrInvalidPayload        = errors.New("integration: invalid order payload")
	ErrOrderLocked           = errors.New("integration: order is being reconciled by another worker")
	ErrSyncRecordNotFound    = errors.New("integration: sync record not found")
)

// joinMessages renders remote messages the way operators read them in the ERP UI.
func joinMessages(messages []string) string {
	return strings.Join(messages, "; ")
}

// ---------------------------------------------------------------------------
// LookupError
// ---------------------------------------------------------------------------

// LookupError reports a required remote entity that does not exist.
type LookupError struct {
	Entity    string
	Reference string
}

// NewInventoryItemNotFound builds the error raised when a line item reference has no remote item.
func NewInventoryItemNotFound(reference string) *LookupError {
	return &LookupError{Entity: "Inventory Item", Reference: reference}
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Reference)
}

// Is matches ErrLookupFailed.
func (e *LookupError) Is(target error) bool {
	return target == ErrLookupFailed
}

// ---------------------------------------------------------------------------
// ValidationError
// ---------------------------------------------------------------------------

// ValidationError carries the messages the remote service returned when it rejected a write.
type ValidationError struct {
	Operation string
	Messages  []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s rejected by remote service", e.Operation)
	}
	return fmt.Sprintf("%s rejected by remote service: %s", e.Operation, joinMessages(e.Messages))
}

// Summary returns the messages joined into a single line.
func (e *ValidationError) Summary() string {
	return joinMessages(e.Messages)
}

// Is matches ErrRemoteValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrRemoteValidation
}

// ---------------------------------------------------------------------------
// ConfigurationError
// ---------------------------------------------------------------------------

// ConfigurationReason classifies a ConfigurationError.
type ConfigurationReason string

const (
	ReasonUnmappableField   ConfigurationReason = "UNMAPPABLE_FIELD"
	ReasonMissingSelectInfo ConfigurationReason = "MISSING_SELECT_INFO"
	ReasonMalformedFieldMap ConfigurationReason = "MALFORMED_FIELD_MAP"
)

// ConfigurationError reports a custom field that the field map cannot resolve.
type ConfigurationError struct {
	Reason ConfigurationReason
	Field  string
	Detail string
}

// NewUnmappableFieldError reports a custom body field with no id and type in the field map.
func NewUnmappableFieldError(field string) *ConfigurationError {
	return &ConfigurationError{Reason: ReasonUnmappableField, Field: field}
}

// NewMissingSelectInfoError reports a select field lacking its list id or list map.
func NewMissingSelectInfoError(field, detail string) *ConfigurationError {
	return &ConfigurationError{Reason: ReasonMissingSelectInfo, Field: field, Detail: detail}
}

// NewMalformedFieldMapError reports a field map entry that cannot be parsed.
func NewMalformedFieldMapError(field, detail string) *ConfigurationError {
	return &ConfigurationError{Reason: ReasonMalformedFieldMap, Field: field, Detail: detail}
}

func (e *ConfigurationError) Error() string {
	switch e.Reason {
	case ReasonUnmappableField:
		return fmt.Sprintf(
			"unable to map a custom body field with field name: '%s' to an internal id and type; "+
				"ensure the custom_body_fields_map setting has an entry for %s",
			e.Field, e.Field)
	case ReasonMissingSelectInfo:
		msg := fmt.Sprintf(
			"missing required supporting fields for custom select field: '%s'; "+
				"make sure the custom_body_fields_map setting has entries for %s_list_map and %s_list_id",
			e.Field, e.Field, e.Field)
		if e.Detail != "" {
			msg += " (" + e.Detail + ")"
		}
		return msg
	default:
		return fmt.Sprintf("malformed custom_body_fields_map entry '%s': %s", e.Field, e.Detail)
	}
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ---------------------------------------------------------------------------
// PromotionError
// ---------------------------------------------------------------------------

// PromotionError reports a coupon code that did not resolve to exactly one promotion.
type PromotionError struct {
	Code    string
	Matches int
}

func (e *PromotionError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf(
			"could not find a promotion code with coupon code of: '%s'; check the promotion codes in the ERP",
			e.Code)
	}
	return fmt.Sprintf(
		"found %d promotion codes matching coupon code of: '%s'; promotion codes must be unique",
		e.Matches, e.Code)
}

// Is matches ErrPromotionResolution and the cardinality specific sentinel.
func (e *PromotionError) Is(target error) bool {
	switch target {
	case ErrPromotionResolution:
		return true
	case ErrCouponNotFound:
		return e.Matches == 0
	case ErrCouponAmbiguous:
		return e.Matches > 1
	}
	return false
}

// ---------------------------------------------------------------------------
// NonInventoryItemError
// ---------------------------------------------------------------------------

// NonInventoryItemError reports a virtual line item that could not be found or created.
type NonInventoryItemError struct {
	Name     string
	Messages []string
}

func (e *NonInventoryItemError) Error() string {
	return fmt.Sprintf("couldn't create item %s: %s", e.Name, joinMessages(e.Messages))
}

// Is matches ErrNonInventoryItem.
func (e *NonInventoryItemError) Is(target error) bool {
	return target == ErrNonInventoryItem
}

// ---------------------------------------------------------------------------
// CustomerCreationError
// ---------------------------------------------------------------------------

// CustomerCreationError reports a customer record the remote service refused to create.
type CustomerCreationError struct {
	Email    string
	Messages []string
}

func (e *CustomerCreationError) Error() string {
	return fmt.Sprintf("failed to create customer %s: %s", e.Email, joinMessages(e.Messages))
}

// Is matches ErrRemoteValidation.
func (e *CustomerCreationError) Is(target error) bool {
	return target == ErrRemoteValidation
}
