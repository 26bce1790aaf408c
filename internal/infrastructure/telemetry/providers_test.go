package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ordersync/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := telemetry.Setup(context.Background(), telemetry.Config{ServiceName: "ordersync"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NotNil(t, p.Meter("ordersync"))
	assert.Nil(t, p.LoggerProvider())
	assert.NotPanics(t, p.EnableSpanProfiles)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestMetricHelpers_NoopMeter(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	ctx := context.Background()

	in := telemetry.NewInstruments(meter)
	counter := in.Counter("c", "counter", "{x}")
	hist := in.Histogram("h", "histogram", "s", telemetry.RemoteCallBuckets...)
	gauge := in.Gauge("g", "gauge", "{x}")
	require.NoError(t, in.Err())

	assert.NotPanics(t, func() {
		counter.Inc(ctx, telemetry.AttrRemoteOp.String("search_items"))
		counter.Add(ctx, 4)
		hist.Record(ctx, 0.3)
		hist.RecordDuration(ctx, 250*time.Millisecond)
		gauge.Record(ctx, 7, telemetry.AttrDBState.String("idle"))
	})
}

func TestInstruments_KeepsFirstError(t *testing.T) {
	provider := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	in := telemetry.NewInstruments(provider.Meter("test"))

	ok := in.Counter("ordersync_ok_total", "", "{x}")
	require.NoError(t, in.Err())

	bad := in.Histogram("1-not-a-valid-name", "", "s")
	in.Gauge("also invalid!", "", "{x}")
	require.Error(t, in.Err())
	assert.Contains(t, in.Err().Error(), "histogram 1-not-a-valid-name")

	assert.NotPanics(t, func() {
		ok.Inc(context.Background())
		bad.Record(context.Background(), 1)
	})
}

func TestNewZapOTELCore(t *testing.T) {
	t.Run("nil provider is a no-op core", func(t *testing.T) {
		core := telemetry.NewZapOTELCore("ordersync", nil, zapcore.InfoLevel)
		assert.False(t, core.Enabled(zapcore.ErrorLevel))
	})

	t.Run("level filter", func(t *testing.T) {
		provider := sdklog.NewLoggerProvider()
		t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

		core := telemetry.NewZapOTELCore("ordersync", provider, zapcore.WarnLevel)
		assert.False(t, core.Enabled(zapcore.InfoLevel))
		assert.False(t, core.With([]zapcore.Field{zap.String("k", "v")}).Enabled(zapcore.DebugLevel))
	})

	t.Run("bridge keeps the base core", func(t *testing.T) {
		obsCore, logs := observer.New(zapcore.InfoLevel)
		logger := telemetry.Bridge(zap.New(obsCore), zapcore.NewNopCore())
		logger.Info("synced", zap.String("external_id", "R1001"))
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "synced", logs.All()[0].Message)
	})
}
