package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics tracks order reconciliation activity.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	reconcileTotal *Counter
	failureTotal   *Counter
	depositTotal   *Counter
	depositAmount  *Counter
	lockContention *Counter

	reconcileDuration *Histogram
	batchSize         *Histogram
	remoteCall        *Histogram

	recordsByState *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stateProvider SyncStateProvider
}

// SyncStateProvider reports how many ledger entries sit in each state.
// It keeps the telemetry layer independent of the persistence layer.
type SyncStateProvider interface {
	CountByState(ctx context.Context) (map[string]int64, error)
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 1 minute
	StateProvider   SyncStateProvider
}

// NewSyncMetrics creates the reconciliation instruments on cfg.Meter.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	in := NewInstruments(cfg.Meter)
	sm := &SyncMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stateProvider: cfg.StateProvider,

		reconcileTotal: in.Counter("ordersync_reconcile_total",
			"Total number of order reconciliations", "{orders}"),
		failureTotal: in.Counter("ordersync_reconcile_failures_total",
			"Total number of failed reconciliations by error kind", "{orders}"),
		depositTotal: in.Counter("ordersync_deposit_total",
			"Total number of customer deposits recorded", "{deposits}"),
		depositAmount: in.Counter("ordersync_deposit_amount_total",
			"Total deposit amount in cents", "{cents}"),
		lockContention: in.Counter("ordersync_lock_contention_total",
			"Reconciliations rejected because the order was locked", "{orders}"),

		reconcileDuration: in.Histogram("ordersync_reconcile_duration_seconds",
			"Duration of a reconciliation pass", "s", ReconcileDurationBuckets...),
		batchSize: in.Histogram("ordersync_batch_size",
			"Number of orders per batch request", "{orders}", BatchSizeBuckets...),
		remoteCall: in.Histogram("ordersync_remote_call_duration_seconds",
			"Duration of calls to the remote ERP by operation and outcome", "s", RemoteCallBuckets...),

		recordsByState: in.Gauge("ordersync_records",
			"Ledger entries by reconcile state", "{records}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return sm, nil
}

// =============================================================================
// Reconciliation Metrics
// =============================================================================

// RecordReconcile records one finished reconciliation pass.
func (sm *SyncMetrics) RecordReconcile(ctx context.Context, path, state, errorKind string, d time.Duration) {
	attrs := []attribute.KeyValue{
		AttrReconcilePath.String(path),
		AttrReconcileState.String(state),
	}
	sm.reconcileTotal.Inc(ctx, attrs...)
	sm.reconcileDuration.RecordDuration(ctx, d, attrs...)
	if errorKind != "" {
		sm.failureTotal.Inc(ctx, AttrErrorKind.String(errorKind))
	}
}

// RecordDeposit records a customer deposit.
func (sm *SyncMetrics) RecordDeposit(ctx context.Context, paymentMethod string, amount decimal.Decimal) {
	sm.depositTotal.Inc(ctx, AttrPaymentMethod.String(paymentMethod))
	sm.depositAmount.Add(ctx, amount.Mul(decimal.NewFromInt(100)).IntPart(), AttrPaymentMethod.String(paymentMethod))
}

// RecordLockContention records a reconciliation rejected by the order lock.
func (sm *SyncMetrics) RecordLockContention(ctx context.Context) {
	sm.lockContention.Inc(ctx)
}

// RecordBatch records the size of a batch request.
func (sm *SyncMetrics) RecordBatch(ctx context.Context, size int) {
	sm.batchSize.Record(ctx, float64(size))
}

// RecordRemoteCall records one call to the remote ERP. outcome is "ok" or the
// failure class reported by the client.
func (sm *SyncMetrics) RecordRemoteCall(ctx context.Context, operation, outcome string, d time.Duration) {
	sm.remoteCall.RecordDuration(ctx, d, AttrRemoteOp.String(operation), AttrRemoteOutcome.String(outcome))
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of the ledger gauge.
// This is non-blocking - use Stop() to stop collection.
func (sm *SyncMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	sm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		go sm.runPeriodicCollection(ctx, interval)
	})
}

func (sm *SyncMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sm.collectStateMetrics(ctx)

	for {
		select {
		case <-sm.stopChan:
			sm.logger.Info("Stopping periodic sync metrics collection")
			return
		case <-ctx.Done():
			sm.logger.Info("Context cancelled, stopping periodic sync metrics collection")
			return
		case <-ticker.C:
			sm.collectStateMetrics(ctx)
		}
	}
}

func (sm *SyncMetrics) collectStateMetrics(ctx context.Context) {
	if sm.stateProvider == nil {
		sm.logger.Debug("No state provider configured, skipping ledger metrics collection")
		return
	}

	counts, err := sm.stateProvider.CountByState(ctx)
	if err != nil {
		sm.logger.Warn("Failed to count sync records by state", zap.Error(err))
		return
	}
	for state, n := range counts {
		sm.recordsByState.Record(ctx, n, AttrReconcileState.String(state))
	}
}

// Stop stops the periodic collection.
func (sm *SyncMetrics) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
