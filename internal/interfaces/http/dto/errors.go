package dto

import (
	"errors"
	"net/http"

	"github.com/erp/ordersync/internal/domain/integration"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeInternal = "ERR_INTERNAL"
)

// Request error codes
const (
	ErrCodeValidation     = "ERR_VALIDATION"
	ErrCodeBadRequest     = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON    = "ERR_INVALID_JSON"
	ErrCodeInvalidPayload = "ERR_INVALID_PAYLOAD"
	ErrCodeTooLarge       = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited    = "ERR_RATE_LIMITED"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound    = "ERR_NOT_FOUND"
	ErrCodeOrderLocked = "ERR_ORDER_LOCKED"
)

// Reconciliation error codes
const (
	ErrCodeLookup            = "ERR_LOOKUP"
	ErrCodeConfiguration     = "ERR_CONFIGURATION"
	ErrCodeCouponNotFound    = "ERR_COUPON_NOT_FOUND"
	ErrCodeCouponAmbiguous   = "ERR_COUPON_AMBIGUOUS"
	ErrCodeNonInventoryItem  = "ERR_NON_INVENTORY_ITEM"
	ErrCodeRemoteValidation  = "ERR_REMOTE_VALIDATION"
	ErrCodeRemoteUnavailable = "ERR_REMOTE_UNAVAILABLE"
	ErrCodeRemoteFailed      = "ERR_REMOTE_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeInvalidJSON:    http.StatusBadRequest,
	ErrCodeInvalidPayload: http.StatusBadRequest,
	ErrCodeTooLarge:       http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:    http.StatusTooManyRequests,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeOrderLocked: http.StatusConflict,

	// Reconciliation failures the caller can fix -> 422 Unprocessable Entity
	ErrCodeLookup:           http.StatusUnprocessableEntity,
	ErrCodeConfiguration:    http.StatusUnprocessableEntity,
	ErrCodeCouponNotFound:   http.StatusUnprocessableEntity,
	ErrCodeCouponAmbiguous:  http.StatusUnprocessableEntity,
	ErrCodeNonInventoryItem: http.StatusUnprocessableEntity,
	ErrCodeRemoteValidation: http.StatusUnprocessableEntity,

	ErrCodeRemoteUnavailable: http.StatusServiceUnavailable,
	ErrCodeRemoteFailed:      http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorCodeFor classifies an error from the sync service into an API code.
func ErrorCodeFor(err error) string {
	switch {
	case errors.Is(err, integration.ErrInvalidPayload):
		return ErrCodeInvalidPayload
	case errors.Is(err, integration.ErrOrderLocked):
		return ErrCodeOrderLocked
	case errors.Is(err, integration.ErrSyncRecordNotFound):
		return ErrCodeNotFound
	case errors.Is(err, integration.ErrLookupFailed):
		return ErrCodeLookup
	case errors.Is(err, integration.ErrConfiguration):
		return ErrCodeConfiguration
	case errors.Is(err, integration.ErrCouponNotFound):
		return ErrCodeCouponNotFound
	case errors.Is(err, integration.ErrCouponAmbiguous):
		return ErrCodeCouponAmbiguous
	case errors.Is(err, integration.ErrNonInventoryItem):
		return ErrCodeNonInventoryItem
	case errors.Is(err, integration.ErrRemoteValidation):
		return ErrCodeRemoteValidation
	case errors.Is(err, integration.ErrRemoteUnavailable):
		return ErrCodeRemoteUnavailable
	case errors.Is(err, integration.ErrRemoteRequestFailed),
		errors.Is(err, integration.ErrRemoteInvalidResponse),
		errors.Is(err, integration.ErrRemoteAuthFailed):
		return ErrCodeRemoteFailed
	default:
		return ErrCodeInternal
	}
}

// ErrorInfoFor builds the error body for err. Internal errors get a generic message.
func ErrorInfoFor(err error, requestID string) *ErrorInfo {
	code := ErrorCodeFor(err)
	msg := err.Error()
	if code == ErrCodeInternal {
		msg = "An unexpected error occurred"
	}
	return &ErrorInfo{Code: code, Message: msg, RequestID: requestID}
}
