package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Exporter mirrors the kernel's counters and latency distribution into a
// Prometheus registry as the run progresses. Registration is opt-in;
// backtests that do not export never touch the registry.
type Exporter struct {
	eventsProcessed prometheus.Counter
	fills           *prometheus.CounterVec
	acks            *prometheus.CounterVec
	eventLatency    prometheus.Histogram
}

// NewExporter builds the collectors and registers them.
func NewExporter(reg prometheus.Registerer) (*Exporter, error) {
	e := &Exporter{
		eventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_events_processed_total",
			Help: "Events dispatched by the simulation kernel.",
		}),
		fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_fills_total",
			Help: "Fills applied to the portfolio, by symbol.",
		}, []string{"symbol"}),
		acks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_order_acks_total",
			Help: "Order acknowledgements, by status.",
		}, []string{"status"}),
		eventLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_event_latency_seconds",
			Help:    "Per-event dispatch latency.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 10, 8),
		}),
	}
	for _, c := range []prometheus.Collector{e.eventsProcessed, e.fills, e.acks, e.eventLatency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ObserveEventLatency records one dispatch latency given in 100ns ticks.
func (e *Exporter) ObserveEventLatency(ticks int64) {
	if e == nil || ticks < 0 {
		return
	}
	e.eventsProcessed.Inc()
	e.eventLatency.Observe(float64(ticks) * 100e-9)
}

// IncFill counts a fill for the symbol.
func (e *Exporter) IncFill(symbol string) {
	if e == nil {
		return
	}
	e.fills.WithLabelValues(symbol).Inc()
}

// IncAck counts an acknowledgement for the status.
func (e *Exporter) IncAck(status string) {
	if e == nil {
		return
	}
	e.acks.WithLabelValues(status).Inc()
}
