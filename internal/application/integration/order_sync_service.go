package integration

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reconciler is the engine OrderSyncService drives.
type Reconciler interface {
	Reconcile(ctx context.Context, settings *Settings, payload *integration.OrderPayload) (*ReconcileOutcome, error)
}

var _ Reconciler = (*OrderReconciler)(nil)

// SyncOptions tunes OrderSyncService.
type SyncOptions struct {
	LockTTL          time.Duration
	BatchConcurrency int
}

// OrderSyncService serializes, reconciles and records storefront orders.
type OrderSyncService struct {
	reconciler Reconciler
	deposits   *DepositRecorder
	records    integration.SyncRecordRepository
	lock       integration.OrderLock
	archive    integration.PayloadArchive
	settings   *Settings
	opts       SyncOptions
	metrics    *telemetry.SyncMetrics
	logger     *zap.Logger
}

// NewOrderSyncService creates an OrderSyncService. deposits and archive may be nil.
func NewOrderSyncService(
	reconciler Reconciler,
	records integration.SyncRecordRepository,
	lock integration.OrderLock,
	settings *Settings,
	opts SyncOptions,
	logger *zap.Logger,
) *OrderSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	return &OrderSyncService{
		reconciler: reconciler,
		records:    records,
		lock:       lock,
		settings:   settings,
		opts:       opts,
		logger:     logger,
	}
}

// SetDepositRecorder enables customer deposits for paid, newly created orders.
func (s *OrderSyncService) SetDepositRecorder(d *DepositRecorder) {
	s.deposits = d
}

// SetPayloadArchive enables archiving of received payloads.
func (s *OrderSyncService) SetPayloadArchive(a integration.PayloadArchive) {
	s.archive = a
}

// SetSyncMetrics sets the sync metrics recorder.
func (s *OrderSyncService) SetSyncMetrics(m *telemetry.SyncMetrics) {
	s.metrics = m
}

// ---------------------------------------------------------------------------
// Single order
// ---------------------------------------------------------------------------

// Sync reconciles one order under its per-order lock and records the outcome.
// A Failed result with a nil error means the remote service rejected the write.
func (s *OrderSyncService) Sync(ctx context.Context, payload *integration.OrderPayload) (*SyncResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_sync", "Sync")
	defer span.End()

	if err := payload.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	externalID := payload.ExternalID()
	telemetry.SetAttribute(span, telemetry.SpanAttrExternalID, externalID)
	log := s.logger.With(zap.String("external_id", externalID))

	release, err := s.lock.Acquire(ctx, externalID, s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, integration.ErrOrderLocked) && s.metrics != nil {
			s.metrics.RecordLockContention(ctx)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to release order lock", zap.Error(err))
		}
	}()

	record, err := s.records.FindByExternalID(ctx, externalID)
	if errors.Is(err, integration.ErrSyncRecordNotFound) {
		record = integration.NewSyncRecord(externalID)
	} else if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &SyncResult{ExternalID: externalID}
	if key := s.archivePayload(ctx, externalID, payload, log); key != "" {
		record.ArchiveKey = key
		result.ArchiveKey = key
	}

	start := time.Now()
	var outcome *ReconcileOutcome
	var reconcileErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("reconcile", nil), func(ctx context.Context) {
		outcome, reconcileErr = s.reconciler.Reconcile(ctx, s.settings, payload)
	})
	elapsed := time.Since(start)

	state := integration.StateFailed
	var path integration.ReconcilePath
	summary := ""
	if outcome != nil {
		state = outcome.State
		path = outcome.Path
		summary = outcome.ErrorSummary
		result.IgnoredFields = outcome.IgnoredFields
		if order := outcome.Order; order != nil {
			if order.InternalID != "" {
				record.InternalID = order.InternalID
			}
			if order.TranID != "" {
				record.TranID = order.TranID
			}
			if !order.Entity.IsZero() {
				record.CustomerID = order.Entity.InternalID
			}
		}
	}
	kind := ErrorKind(reconcileErr)
	if reconcileErr != nil {
		summary = reconcileErr.Error()
	} else if state == integration.StateFailed {
		kind = "remote_validation"
	}

	if reconcileErr == nil && state == integration.StateCreated && s.deposits != nil {
		deposit, err := s.deposits.Record(ctx, payload, outcome.Order)
		if err != nil {
			log.Warn("Failed to record customer deposit", zap.Error(err))
		} else if deposit != nil {
			result.DepositID = deposit.InternalID
			if s.metrics != nil {
				s.metrics.RecordDeposit(ctx, deposit.PaymentMode, deposit.Payment)
			}
		}
	}

	record.RecordAttempt(path, state, kind, summary)
	if err := s.records.Save(ctx, record); err != nil {
		log.Error("Failed to save sync record", zap.Error(err))
		if reconcileErr == nil {
			reconcileErr = err
		}
	}
	if s.metrics != nil {
		s.metrics.RecordReconcile(ctx, string(path), string(state), kind, elapsed)
	}

	result.InternalID = record.InternalID
	result.TranID = record.TranID
	result.CustomerID = record.CustomerID
	result.Path = path
	result.State = state
	result.ErrorKind = kind
	result.ErrorSummary = summary
	result.Attempts = record.Attempts

	fields := []zap.Field{
		zap.String("path", string(path)),
		zap.String("state", string(state)),
		zap.Duration("duration", elapsed),
	}
	switch {
	case reconcileErr != nil:
		telemetry.RecordError(span, reconcileErr)
		log.Warn("Order reconciliation failed", append(fields, zap.String("error_kind", kind), zap.Error(reconcileErr))...)
		return result, reconcileErr
	case state == integration.StateFailed:
		telemetry.AddEvent(span, "remote_rejected", "summary", summary)
		log.Warn("Order rejected by remote service", append(fields, zap.String("summary", summary))...)
	default:
		telemetry.SetOK(span)
		log.Info("Order reconciled", append(fields, zap.String("internal_id", record.InternalID))...)
	}
	return result, nil
}

func (s *OrderSyncService) archivePayload(
	ctx context.Context,
	externalID string,
	payload *integration.OrderPayload,
	log *zap.Logger,
) string {
	if s.archive == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn("Failed to encode payload for archive", zap.Error(err))
		return ""
	}
	key, err := s.archive.Store(ctx, externalID, data)
	if err != nil {
		log.Warn("Failed to archive payload", zap.Error(err))
		return ""
	}
	return key
}

// ---------------------------------------------------------------------------
// Batch
// ---------------------------------------------------------------------------

// SyncBatch reconciles many orders. Payloads sharing an external id run
// sequentially in input order; distinct ids run in parallel up to the
// configured concurrency. Results keep the input order.
func (s *OrderSyncService) SyncBatch(ctx context.Context, payloads []*integration.OrderPayload) []BatchItemResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_sync", "SyncBatch",
		telemetry.WithAttribute("batch.size", len(payloads)))
	defer span.End()
	if s.metrics != nil {
		s.metrics.RecordBatch(ctx, len(payloads))
	}

	results := make([]BatchItemResult, len(payloads))
	groups := make(map[string][]int)
	var order []string
	for i, p := range payloads {
		results[i].Index = i
		if p == nil {
			results[i].Err = integration.ErrInvalidPayload
			continue
		}
		id := p.ExternalID()
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}

	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for _, id := range order {
		indexes := groups[id]
		g.Go(func() error {
			for _, i := range indexes {
				res, err := s.Sync(ctx, payloads[i])
				results[i].Result = res
				results[i].Err = err
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := Summarize(results)
	telemetry.SetAttributes(span, "batch.succeeded", summary.Succeeded, "batch.failed", summary.Failed)
	s.logger.Info("Batch reconciled",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return results
}

// ---------------------------------------------------------------------------
// Ledger queries
// ---------------------------------------------------------------------------

// GetStatus returns the ledger entry of one order.
func (s *OrderSyncService) GetStatus(ctx context.Context, externalID string) (*SyncRecordResponse, error) {
	record, err := s.records.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	resp := ToSyncRecordResponse(record)
	return &resp, nil
}

// ListRecords returns a page of ledger entries and the total count.
func (s *OrderSyncService) ListRecords(ctx context.Context, query ListSyncRecordsQuery) ([]SyncRecordResponse, int64, error) {
	records, total, err := s.records.List(ctx, query.ToFilter())
	if err != nil {
		return nil, 0, err
	}
	out := make([]SyncRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ToSyncRecordResponse(r))
	}
	return out, total, nil
}

// ---------------------------------------------------------------------------
// Error classification
// ---------------------------------------------------------------------------

// ErrorKind classifies an error for the ledger, metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, integration.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, integration.ErrLookupFailed):
		return "lookup"
	case errors.Is(err, integration.ErrConfiguration):
		return "configuration"
	case errors.Is(err, integration.ErrCouponNotFound):
		return "coupon_not_found"
	case errors.Is(err, integration.ErrCouponAmbiguous):
		return "coupon_ambiguous"
	case errors.Is(err, integration.ErrNonInventoryItem):
		return "non_inventory_item"
	case errors.Is(err, integration.ErrRemoteValidation):
		return "remote_validation"
	case errors.Is(err, integration.ErrRemoteUnavailable),
		errors.Is(err, integration.ErrRemoteRequestFailed),
		errors.Is(err, integration.ErrRemoteInvalidResponse),
		errors.Is(err, integration.ErrRemoteAuthFailed):
		return "remote_unavailable"
	default:
		return "internal"
	}
}
