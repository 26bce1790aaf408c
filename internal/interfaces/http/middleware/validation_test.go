package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationOrder struct {
	Email string `json:"email" binding:"required,email"`
	Items []struct {
		SKU string `json:"sku" binding:"required"`
	} `json:"line_items" binding:"dive"`
}

type validationBatch struct {
	Orders []validationOrder `json:"orders" binding:"required,min=1,dive"`
}

func TestFormatValidationErrors(t *testing.T) {
	SetupValidator()

	tests := []struct {
		name   string
		body   string
		fields map[string]string
	}{
		{
			name:   "missing orders",
			body:   `{}`,
			fields: map[string]string{"orders": "This field is required"},
		},
		{
			name:   "empty orders",
			body:   `{"orders":[]}`,
			fields: map[string]string{"orders": "Must be at least 1"},
		},
		{
			name: "nested fields use json names",
			body: `{"orders":[{"email":"nope","line_items":[{"sku":""}]}]}`,
			fields: map[string]string{
				"orders[0].email":             "Invalid email format",
				"orders[0].line_items[0].sku": "This field is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID())
			r.POST("/t", func(c *gin.Context) {
				var req validationBatch
				err := c.ShouldBindJSON(&req)
				require.Error(t, err)
				resp := FormatValidationErrors(err, GetRequestID(c))
				require.NotNil(t, resp.Error)
				assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)

				got := map[string]string{}
				for _, d := range resp.Error.Details {
					got[d.Field] = d.Message
				}
				assert.Equal(t, tt.fields, got)
				HandleValidationError(c, err)
			})

			w := serve(r, httptest.NewRequest(http.MethodPost, "/t", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSetupValidator_SyncState(t *testing.T) {
	SetupValidator()

	type ledgerQuery struct {
		State string `form:"state" binding:"omitempty,sync_state"`
		Size  int    `form:"page_size" binding:"omitempty,max=100"`
	}

	tests := []struct {
		name   string
		query  string
		fields map[string]string
	}{
		{"known state", "state=FAILED", nil},
		{"no state", "", nil},
		{
			name:   "unknown state",
			query:  "state=DONE",
			fields: map[string]string{"state": "Must be one of: NOT_STARTED NEW EXISTING_FOUND BUILT CREATED UPDATED FAILED"},
		},
		{
			name:   "form names in details",
			query:  "page_size=500",
			fields: map[string]string{"page_size": "Must be at most 100"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/sync-records?"+tt.query, nil)

			var q ledgerQuery
			err := c.ShouldBindQuery(&q)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			got := map[string]string{}
			for _, d := range FormatValidationErrors(err, "").Error.Details {
				got[d.Field] = d.Message
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}
