package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator makes gin's validator report JSON (or form) field names and
// registers the sync_state tag.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(tagName)
	_ = v.RegisterValidation("sync_state", func(fl validator.FieldLevel) bool {
		return integration.ReconcileState(fl.Field().String()).IsValid()
	})
}

func tagName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return ""
}

// FormatValidationErrors turns binding errors into an ERR_VALIDATION response
// with one detail per failing field.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	var details []dto.ValidationDetail
	if errors.As(err, &fieldErrs) {
		details = make([]dto.ValidationDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, dto.ValidationDetail{Field: fieldPath(fe), Message: validationMessage(fe)})
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 with the formatted errors.
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

// fieldPath drops the root struct name, giving "orders[0].email".
func fieldPath(e validator.FieldError) string {
	if _, rest, ok := strings.Cut(e.Namespace(), "."); ok {
		return rest
	}
	return e.Field()
}

var validationMessages = map[string]func(validator.FieldError) string{
	"required": fixed("This field is required"),
	"email":    fixed("Invalid email format"),
	"required_without": func(e validator.FieldError) string {
		return "Required when " + e.Param() + " is missing"
	},
	"min":   bound("at least"),
	"max":   bound("at most"),
	"oneof": func(e validator.FieldError) string { return "Must be one of: " + e.Param() },
	"gte":   func(e validator.FieldError) string { return "Must be greater than or equal to " + e.Param() },
	"lte":   func(e validator.FieldError) string { return "Must be less than or equal to " + e.Param() },
	"uuid":  fixed("Invalid UUID format"),
	"url":   fixed("Invalid URL format"),
	"sync_state": fixed("Must be one of: " + strings.Join([]string{
		string(integration.StateNotStarted), string(integration.StateNew),
		string(integration.StateExistingFound), string(integration.StateBuilt),
		string(integration.StateCreated), string(integration.StateUpdated),
		string(integration.StateFailed),
	}, " ")),
}

func fixed(msg string) func(validator.FieldError) string {
	return func(validator.FieldError) string { return msg }
}

// bound words min/max, counting characters for strings.
func bound(word string) func(validator.FieldError) string {
	return func(e validator.FieldError) string {
		if e.Kind() == reflect.String {
			return "Must be " + word + " " + e.Param() + " characters"
		}
		return "Must be " + word + " " + e.Param()
	}
}

func validationMessage(e validator.FieldError) string {
	if msg, ok := validationMessages[e.Tag()]; ok {
		return msg(e)
	}
	return "Invalid value"
}
