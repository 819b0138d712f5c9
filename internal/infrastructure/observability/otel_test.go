package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestRecordSearchMetric(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	RecordSearchMetric(ctx, metrics, "postcode", 3, 12*time.Millisecond)
	RecordSearchMetric(ctx, metrics, "browse", 0, time.Millisecond)

	assert.Equal(t, int64(2), collectSum(t, reader, "locator.search.count"))
}

func TestRecordRequestAndGeocodeMetrics(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	RecordRequestMetric(ctx, metrics, "GET", "/api/locations/{slug}", 200, 4*time.Millisecond)
	RecordGeocodeMetric(ctx, metrics, "hit")
	RecordGeocodeMetric(ctx, metrics, "miss")

	assert.Equal(t, int64(1), collectSum(t, reader, "http.server.request.count"))
	assert.Equal(t, int64(2), collectSum(t, reader, "locator.geocode.count"))
}

func TestRecordMetrics_NilIsNoop(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, "GET", "/health", 200, time.Millisecond)
		RecordSearchMetric(ctx, nil, "browse", 0, time.Millisecond)
		RecordGeocodeMetric(ctx, nil, "error")
	})
}
