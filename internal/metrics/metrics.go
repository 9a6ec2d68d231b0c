package metrics

import (
	"time"

	"main/internal/schema"
)

const maxEventKind = int(schema.EventOrderAck)

// Metrics collects per-kind latency histograms and flow counters for a single
// run. It belongs to the kernel goroutine and uses no synchronisation.
type Metrics struct {
	perKind   [maxEventKind + 1]Histogram
	orderFlow Histogram

	eventsProcessed uint64
	fillCounts      map[string]uint64
	ackCounts       map[schema.OrderStatus]uint64
}

// New allocates a metrics container.
func New() *Metrics {
	return &Metrics{
		fillCounts: make(map[string]uint64),
		ackCounts:  make(map[schema.OrderStatus]uint64),
	}
}

// ObserveEvent bins one event dispatch latency, given in 100ns ticks, into the
// kind's histogram and bumps the processed counter.
func (m *Metrics) ObserveEvent(kind schema.EventKind, ticks int64) {
	if m == nil {
		return
	}
	if idx := int(kind); idx >= 0 && idx <= maxEventKind {
		m.perKind[idx].RecordTicks(ticks)
	}
	m.eventsProcessed++
}

// ObserveOrderFlow measures submit-to-settlement latency in 100ns ticks.
func (m *Metrics) ObserveOrderFlow(ticks int64) {
	if m == nil {
		return
	}
	m.orderFlow.RecordTicks(ticks)
}

// IncFill counts a fill against its symbol.
func (m *Metrics) IncFill(symbol string) {
	if m == nil {
		return
	}
	m.fillCounts[symbol]++
}

// IncAck counts an acknowledgement against its status.
func (m *Metrics) IncAck(status schema.OrderStatus) {
	if m == nil {
		return
	}
	m.ackCounts[status]++
}

// EventsProcessed returns the number of dispatched events.
func (m *Metrics) EventsProcessed() uint64 {
	if m == nil {
		return 0
	}
	return m.eventsProcessed
}

// Performance is the run-level summary embedded in a backtest result.
type Performance struct {
	BacktestDuration time.Duration                 `json:"backtest_duration"`
	EventsPerSecond  float64                       `json:"events_per_second"`
	PerKindLatency   map[string]Stats              `json:"per_kind_latency"`
	OrderLatency     Stats                         `json:"order_latency"`
	FillCounts       map[string]uint64             `json:"fill_counts"`
	AckCounts        map[schema.OrderStatus]uint64 `json:"ack_counts"`
}

// Snapshot summarises the run. Kinds with no samples are omitted.
func (m *Metrics) Snapshot(elapsed time.Duration) Performance {
	if m == nil {
		return Performance{}
	}
	perKind := make(map[string]Stats)
	for i := range m.perKind {
		if m.perKind[i].Count() == 0 {
			continue
		}
		perKind[schema.EventKind(i).String()] = m.perKind[i].Snapshot()
	}

	eps := 0.0
	if elapsed > 0 {
		eps = float64(m.eventsProcessed) / elapsed.Seconds()
	}

	fills := make(map[string]uint64, len(m.fillCounts))
	for k, v := range m.fillCounts {
		fills[k] = v
	}
	acks := make(map[schema.OrderStatus]uint64, len(m.ackCounts))
	for k, v := range m.ackCounts {
		acks[k] = v
	}

	return Performance{
		BacktestDuration: elapsed,
		EventsPerSecond:  eps,
		PerKindLatency:   perKind,
		OrderLatency:     m.orderFlow.Snapshot(),
		FillCounts:       fills,
		AckCounts:        acks,
	}
}
