package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	appintegration "github.com/erp/ordersync/internal/application/integration"
	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/logger"
	"github.com/erp/ordersync/internal/interfaces/http/dto"
	"github.com/erp/ordersync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderSyncer is the application service behind SyncHandler.
type OrderSyncer interface {
	Sync(ctx context.Context, payload *integration.OrderPayload) (*appintegration.SyncResult, error)
	SyncBatch(ctx context.Context, payloads []*integration.OrderPayload) []appintegration.BatchItemResult
	GetStatus(ctx context.Context, externalID string) (*appintegration.SyncRecordResponse, error)
	ListRecords(ctx context.Context, query appintegration.ListSyncRecordsQuery) ([]appintegration.SyncRecordResponse, int64, error)
}

var _ OrderSyncer = (*appintegration.OrderSyncService)(nil)

// DefaultMaxBatchSize caps POST /orders/sync/batch when no limit is configured.
const DefaultMaxBatchSize = 50

// SyncHandler handles order reconciliation endpoints
type SyncHandler struct {
	BaseHandler
	service      OrderSyncer
	maxBatchSize int
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service OrderSyncer, maxBatchSize int) *SyncHandler {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	return &SyncHandler{service: service, maxBatchSize: maxBatchSize}
}

// SyncOrder reconciles one storefront order: 201 on create, 200 on update,
// 422 when the ERP rejects the order.
func (h *SyncHandler) SyncOrder(c *gin.Context) {
	var req dto.SyncOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	payload := req.ToPayload()

	externalID := payload.ExternalID()
	c.Set(middleware.ExternalIDKey, externalID)
	ctx, log := logger.WithExternalID(c.Request.Context(), logger.FromContext(c.Request.Context()), externalID)
	c.Request = c.Request.WithContext(ctx)

	result, err := h.service.Sync(ctx, payload)
	if err != nil {
		var data any
		if result != nil {
			data = result
		}
		h.HandleError(c, err, data)
		return
	}

	switch result.State {
	case integration.StateCreated:
		h.Created(c, result)
	case integration.StateFailed:
		log.Debug("Order rejected", zap.String("summary", result.ErrorSummary))
		c.JSON(http.StatusUnprocessableEntity, dto.Response{
			Success: false,
			Data:    result,
			Error: &dto.ErrorInfo{
				Code:      dto.ErrCodeRemoteValidation,
				Message:   result.ErrorSummary,
				RequestID: middleware.GetRequestID(c),
			},
		})
	default:
		h.Success(c, result)
	}
}

// SyncBatch reconciles a batch. Orders sharing an external id run in input
// order, and the response carries one entry per order in input order.
func (h *SyncHandler) SyncBatch(c *gin.Context) {
	var req dto.BatchSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}
	if len(req.Orders) > h.maxBatchSize {
		h.BadRequest(c, fmt.Sprintf("batch holds %d orders, the limit is %d", len(req.Orders), h.maxBatchSize))
		return
	}

	items := h.service.SyncBatch(c.Request.Context(), req.Payloads())
	h.Success(c, dto.NewBatchSyncResponse(items, middleware.GetRequestID(c)))
}

// GetSyncStatus returns the ledger entry of one order.
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	externalID := c.Param("external_id")
	c.Set(middleware.ExternalIDKey, externalID)

	record, err := h.service.GetStatus(c.Request.Context(), externalID)
	if err != nil {
		if errors.Is(err, integration.ErrSyncRecordNotFound) {
			h.NotFound(c, fmt.Sprintf("order %s has not been reconciled", externalID))
			return
		}
		h.HandleError(c, err, nil)
		return
	}
	h.Success(c, record)
}

// ListSyncRecords lists ledger entries filtered by state, paged and sorted.
func (h *SyncHandler) ListSyncRecords(c *gin.Context) {
	var query appintegration.ListSyncRecordsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.HandleBindError(c, err)
		return
	}

	records, total, err := h.service.ListRecords(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err, nil)
		return
	}
	filter := query.ToFilter()
	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}
