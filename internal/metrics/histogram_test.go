package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestRecordBinsByUpperBound(t *testing.T) {
	var h Histogram
	h.Record(10)      // first bucket, inclusive bound
	h.Record(11)      // second bucket
	h.Record(100_000) // fifth bucket
	h.Record(200_000_000)

	assert.Equal(t, uint64(1), h.counts[0])
	assert.Equal(t, uint64(1), h.counts[1])
	assert.Equal(t, uint64(1), h.counts[4])
	assert.Equal(t, uint64(1), h.counts[len(bucketBounds)], "beyond the last bound goes to overflow")
	assert.Equal(t, uint64(4), h.Count())
}

func TestRecordTicksDividesToMicros(t *testing.T) {
	var h Histogram
	h.RecordTicks(95) // 9 us
	h.RecordTicks(-1) // dropped

	assert.Equal(t, uint64(1), h.counts[0])
	assert.Equal(t, uint64(1), h.Count())
	assert.Equal(t, uint64(9), h.min)
}

func TestPercentileWalk(t *testing.T) {
	var h Histogram
	for i := 0; i < 90; i++ {
		h.Record(5) // bucket 0, bound 10
	}
	for i := 0; i < 10; i++ {
		h.Record(500) // bucket 2, bound 1000
	}

	assert.Equal(t, uint64(10), h.Percentile(0.50))
	assert.Equal(t, uint64(10), h.Percentile(0.90))
	assert.Equal(t, uint64(1000), h.Percentile(0.99))
}

func TestPercentileSaturation(t *testing.T) {
	var h Histogram
	h.Record(500_000_000)
	assert.Equal(t, overflowBound, h.Percentile(0.5))

	var empty Histogram
	assert.Equal(t, uint64(0), empty.Percentile(0.5))
}

func TestSnapshotStats(t *testing.T) {
	var h Histogram
	h.Record(10)
	h.Record(20)
	h.Record(30)

	s := h.Snapshot()
	assert.Equal(t, uint64(3), s.Count)
	assert.InDelta(t, 20.0, s.MeanUs, 1e-12)
	assert.Equal(t, uint64(10), s.MinUs)
	assert.Equal(t, uint64(30), s.MaxUs)
	assert.Equal(t, uint64(100), s.P99, "20 and 30 land in the 100 bucket")
}

func TestMetricsSnapshot(t *testing.T) {
	m := New()
	m.ObserveEvent(schema.EventMarketData, 50)
	m.ObserveEvent(schema.EventMarketData, 50)
	m.ObserveEvent(schema.EventFill, 120)
	m.ObserveOrderFlow(2000)
	m.IncFill("SPY")
	m.IncFill("SPY")
	m.IncAck(schema.OrderStatusAccepted)
	m.IncAck(schema.OrderStatusRejected)

	perf := m.Snapshot(2 * time.Second)
	assert.Equal(t, uint64(3), m.EventsProcessed())
	assert.InDelta(t, 1.5, perf.EventsPerSecond, 1e-12)
	require.Contains(t, perf.PerKindLatency, "market_data")
	assert.Equal(t, uint64(2), perf.PerKindLatency["market_data"].Count)
	assert.NotContains(t, perf.PerKindLatency, "order_ack", "kinds without samples are omitted")
	assert.Equal(t, uint64(1), perf.OrderLatency.Count)
	assert.Equal(t, uint64(2), perf.FillCounts["SPY"])
	assert.Equal(t, uint64(1), perf.AckCounts[schema.OrderStatusRejected])
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.ObserveEvent(schema.EventQuote, 1)
	m.IncFill("SPY")
	m.IncAck(schema.OrderStatusFilled)
	assert.Equal(t, uint64(0), m.EventsProcessed())
	assert.Equal(t, Performance{}, m.Snapshot(time.Second))
}

func TestExporterRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	e, err := NewExporter(reg)
	require.NoError(t, err)

	e.ObserveEventLatency(100)
	e.IncFill("SPY")
	e.IncAck("accepted")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["backtest_events_processed_total"])
	assert.True(t, names["backtest_event_latency_seconds"])

	_, err = NewExporter(reg)
	assert.Error(t, err, "double registration must surface")
}
