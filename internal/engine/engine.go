package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/metrics"
	"main/internal/options"
	"main/internal/portfolio"
	"main/internal/risk"
	"main/internal/schema"
)

// Strategy is the kernel's consumer contract. Calls are synchronous and must
// not block; orders returned from OnEvent are processed in the order produced.
type Strategy interface {
	OnEvent(event schema.Event, snap portfolio.State) []schema.Order
	OnFill(fill schema.Fill, snap portfolio.State)
	OnOrderAck(ack schema.OrderAck)
	State() map[string]any
}

// FillModel simulates executions for accepted orders. fill.Model is the stock
// implementation.
type FillModel interface {
	Fill(order schema.Order, state *book.State, tsNs int64, dst []schema.Fill) []schema.Fill
}

// Config tunes a single run.
type Config struct {
	InitialCash         decimal.Decimal `json:"initialCash" yaml:"initialCash"`
	CheckpointInterval  uint64          `json:"checkpointInterval" yaml:"checkpointInterval"`
	EnableCheckpointing bool            `json:"enableCheckpointing" yaml:"enableCheckpointing"`
	CheckpointPath      string          `json:"checkpointPath" yaml:"checkpointPath"`
	EnableProgress      bool            `json:"enableProgress" yaml:"enableProgress"`
	Strict              bool            `json:"strict" yaml:"strict"`
	Symbols             []string        `json:"symbols" yaml:"symbols"`
}

func (c Config) withDefaults() Config {
	if c.InitialCash.IsZero() {
		c.InitialCash = decimal.NewFromInt(100_000)
	}
	if c.CheckpointInterval == 0 {
		c.CheckpointInterval = 10_000
	}
	return c
}

// Validate rejects configurations the kernel cannot honour.
func (c Config) Validate() error {
	if c.InitialCash.IsNegative() {
		return fmt.Errorf("initial cash must not be negative: %s", c.InitialCash)
	}
	if c.EnableCheckpointing && c.CheckpointPath == "" {
		return fmt.Errorf("checkpoint path required when checkpointing is enabled")
	}
	return nil
}

// Engine is the single-use simulation kernel. It owns the event queue, the
// portfolio, per-symbol book state, the order registry, and the metrics; all
// of them mutate on the caller's goroutine only.
type Engine struct {
	cfg      Config
	queue    *Queue
	books    *book.Map
	pf       *portfolio.Portfolio
	registry *Registry
	strategy Strategy
	fills    FillModel
	risk     risk.Predicate
	metrics  *metrics.Metrics
	exporter *metrics.Exporter

	fillBufs [][]schema.Fill
	errs     []string
	aborted  bool
	consumed bool
	startTs  int64
	endTs    int64
}

// New assembles a kernel. The strategy, fill model and risk predicate are
// owned by the kernel for the run's duration.
func New(cfg Config, strategy Strategy, fills FillModel, predicate risk.Predicate) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	if fills == nil {
		return nil, fmt.Errorf("fill model is required")
	}
	if predicate == nil {
		predicate = risk.NewEngine(risk.Config{})
	}
	books := book.NewMap()
	books.Preallocate(cfg.Symbols)
	return &Engine{
		cfg:      cfg,
		queue:    NewQueue(1024),
		books:    books,
		pf:       portfolio.New(cfg.InitialCash),
		registry: NewRegistry(),
		strategy: strategy,
		fills:    fills,
		risk:     predicate,
		metrics:  metrics.New(),
	}, nil
}

// Add enqueues an input event. Events cannot be added once Run has started.
func (e *Engine) Add(event schema.Event) error {
	return e.queue.Add(event)
}

// QueueLen returns the number of queued input events.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// UseExporter mirrors the kernel's counters and latency distribution into a
// Prometheus exporter. Attach before Run; a nil exporter is a no-op.
func (e *Engine) UseExporter(exporter *metrics.Exporter) {
	e.exporter = exporter
}

// UpdateGreeks attaches per-contract Greeks to an open position, feeding the
// portfolio's net-delta aggregate.
func (e *Engine) UpdateGreeks(symbol string, greeks options.Greeks) {
	e.pf.UpdateGreeks(symbol, greeks)
}

// Book returns the current top-of-book state for a symbol.
func (e *Engine) Book(symbol string) (*book.State, bool) {
	return e.books.Lookup(symbol)
}

// Run drains the queue and produces the result. The kernel is single-use: a
// second call returns an aborted result immediately. Cancellation is polled
// at bucket boundaries; the bucket in flight always completes.
func (e *Engine) Run(ctx context.Context) Result {
	started := time.Now()
	runID := uuid.New()
	if e.consumed {
		return Result{RunID: runID, Status: StatusAborted, Errors: []string{"kernel already consumed"}}
	}
	e.consumed = true

	total := e.queue.Len()
	cancelled := false

	e.queue.buckets(func(bucket []schema.Event) bool {
		if ctx.Err() != nil {
			cancelled = true
			return false
		}
		for i := range bucket {
			ev := bucket[i]
			if e.metrics.EventsProcessed() == 0 {
				e.startTs = ev.TsNs
			}
			e.endTs = ev.TsNs

			markStart := time.Now()
			e.dispatch(ev)
			ticks := time.Since(markStart).Nanoseconds() / 100
			e.metrics.ObserveEvent(ev.Kind, ticks)
			e.exporter.ObserveEventLatency(ticks)

			e.maybeCheckpoint(ev.TsNs)
			e.maybeReportProgress(total)
			if e.aborted {
				return false
			}
		}
		return true
	})

	status := StatusOk
	switch {
	case e.aborted:
		status = StatusAborted
	case cancelled:
		status = StatusCancelled
	}

	elapsed := time.Since(started)
	return Result{
		RunID:           runID,
		Status:          status,
		StartTsNs:       e.startTs,
		EndTsNs:         e.endTs,
		EventsProcessed: e.metrics.EventsProcessed(),
		FinalPortfolio:  e.pf.Snapshot(e.endTs),
		Performance:     e.metrics.Snapshot(elapsed),
		StrategyState:   e.strategy.State(),
		Errors:          e.errs,
		Duration:        elapsed,
	}
}

// dispatch applies one event, consults the strategy, and settles any orders
// it produced. Synthesised acknowledgements and fills re-enter here before
// any later-timestamped queue event runs.
func (e *Engine) dispatch(ev schema.Event) {
	e.applyPayload(ev)

	snap := e.pf.Snapshot(ev.TsNs)
	orders := e.safeOnEvent(ev, snap)
	for _, order := range orders {
		if e.aborted {
			return
		}
		e.processOrder(order, ev.TsNs)
	}
}

func (e *Engine) applyPayload(ev schema.Event) {
	switch ev.Kind {
	case schema.EventMarketData:
		tick, _ := ev.Tick()
		e.books.Get(tick.Symbol).ApplyTick(tick)
		e.pf.UpdateMarketData(tick)
	case schema.EventQuote:
		quote, _ := ev.Quote()
		e.books.Get(quote.Symbol).ApplyQuote(quote)
		e.pf.UpdateQuote(quote)
	case schema.EventFill:
		fill, _ := ev.Fill()
		if err := e.pf.ApplyFill(fill); err != nil {
			e.recordFailure(fmt.Sprintf("apply fill %s at ts=%d, err: %v", fill.OrderID, ev.TsNs, err))
			return
		}
		// Fills replayed from the input stream reference no tracked order.
		if _, err := e.registry.ApplyFill(fill); err != nil && err != ErrUnknownOrder {
			e.recordFailure(fmt.Sprintf("order %s fill transition, err: %v", fill.OrderID, err))
		}
		e.metrics.IncFill(fill.Symbol)
		e.exporter.IncFill(fill.Symbol)
		e.strategy.OnFill(fill, e.pf.Snapshot(ev.TsNs))
	case schema.EventOrderAck:
		ack, _ := ev.OrderAck()
		e.metrics.IncAck(ack.Status)
		e.exporter.IncAck(ack.Status.String())
		e.strategy.OnOrderAck(ack)
	}
}

// processOrder runs one candidate order through risk, acknowledgement, and
// the fill model.
func (e *Engine) processOrder(order schema.Order, tsNs int64) {
	flowStart := time.Now()

	if malformed(order) {
		e.rejectOrder(order, tsNs, "malformed order")
		return
	}

	decision := e.risk.Evaluate(order, e.riskView(order))
	if !decision.Allowed {
		e.rejectOrder(order, tsNs, decision.Reason)
		return
	}

	tracked, err := e.registry.Submit(order, tsNs)
	if err != nil {
		e.recordFailure(fmt.Sprintf("submit %s, err: %v", order.OrderID, err))
		e.rejectOrder(order, tsNs, err.Error())
		return
	}
	if _, err := e.registry.Accept(order.OrderID); err != nil {
		e.recordFailure(fmt.Sprintf("accept %s, err: %v", order.OrderID, err))
		return
	}
	e.dispatch(schema.NewOrderAckEvent(schema.OrderAck{
		OrderID:    order.OrderID,
		ExchangeID: tracked.ExchangeID,
		Symbol:     order.Symbol,
		Status:     schema.OrderStatusAccepted,
		TsNs:       tsNs,
	}))

	buf := e.takeFillBuf()
	fills, ok := e.safeFill(order, e.books.Get(order.Symbol), tsNs, buf)
	if !ok {
		e.putFillBuf(buf)
		if _, err := e.registry.Reject(order.OrderID); err == nil {
			e.dispatch(schema.NewOrderAckEvent(schema.OrderAck{
				OrderID:    order.OrderID,
				ExchangeID: tracked.ExchangeID,
				Symbol:     order.Symbol,
				Status:     schema.OrderStatusRejected,
				TsNs:       tsNs,
				Reason:     "fill model failure",
			}))
		}
		return
	}
	for _, f := range fills {
		f.ExchangeID = tracked.ExchangeID
		e.dispatch(schema.NewFillEvent(f))
	}
	e.putFillBuf(fills)

	e.metrics.ObserveOrderFlow(time.Since(flowStart).Nanoseconds() / 100)
}

// rejectOrder registers the rejection and routes the acknowledgement back to
// the strategy. Risk rejections are not run errors.
func (e *Engine) rejectOrder(order schema.Order, tsNs int64, reason string) {
	var exchangeID uint64
	if tracked, err := e.registry.Submit(order, tsNs); err == nil {
		exchangeID = tracked.ExchangeID
		e.registry.Reject(order.OrderID)
	}
	e.dispatch(schema.NewOrderAckEvent(schema.OrderAck{
		OrderID:    order.OrderID,
		ExchangeID: exchangeID,
		Symbol:     order.Symbol,
		Status:     schema.OrderStatusRejected,
		TsNs:       tsNs,
		Reason:     reason,
	}))
}

// CancelOrder cancels an accepted order and routes the Canceled
// acknowledgement to the strategy. It is only meaningful between events, from
// the goroutine driving Run.
func (e *Engine) CancelOrder(orderID string, tsNs int64) error {
	tracked, err := e.registry.Cancel(orderID)
	if err != nil {
		return err
	}
	e.dispatch(schema.NewOrderAckEvent(schema.OrderAck{
		OrderID:    orderID,
		ExchangeID: tracked.ExchangeID,
		Symbol:     tracked.Order.Symbol,
		Status:     schema.OrderStatusCanceled,
		TsNs:       tsNs,
	}))
	return nil
}

// malformed screens orders a strategy should never emit: zero or negative
// quantity, an unknown side or type, or a limit without a positive price.
func malformed(order schema.Order) bool {
	if order.Qty <= 0 {
		return true
	}
	if order.Side != schema.OrderSideBuy && order.Side != schema.OrderSideSell {
		return true
	}
	switch order.Type {
	case schema.OrderTypeMarket:
		return false
	case schema.OrderTypeLimit:
		return order.LimitPx <= 0
	default:
		return true
	}
}

// riskView assembles the portfolio view the predicate evaluates against. The
// reference price for market orders comes from the opposite touch, falling
// back to whichever side the book still has.
func (e *Engine) riskView(order schema.Order) risk.View {
	view := risk.View{NetDelta: e.pf.NetDelta()}
	if pos, ok := e.pf.Position(order.Symbol); ok {
		view.PositionQty = pos.Qty
	}
	state, ok := e.books.Lookup(order.Symbol)
	if !ok {
		return view
	}
	switch {
	case order.Side == schema.OrderSideBuy && state.HasAsk():
		view.RefPrice = state.BestAsk.Price
	case order.Side == schema.OrderSideSell && state.HasBid():
		view.RefPrice = state.BestBid.Price
	case state.HasAsk():
		view.RefPrice = state.BestAsk.Price
	case state.HasBid():
		view.RefPrice = state.BestBid.Price
	}
	return view
}

// safeOnEvent shields the kernel from a panicking strategy. The portfolio is
// never touched inside the call, so a failure cannot corrupt it.
func (e *Engine) safeOnEvent(ev schema.Event, snap portfolio.State) (orders []schema.Order) {
	defer func() {
		if r := recover(); r != nil {
			orders = nil
			e.recordFailure(fmt.Sprintf("strategy panic at ts=%d: %v", ev.TsNs, r))
		}
	}()
	return e.strategy.OnEvent(ev, snap)
}

// safeFill shields the kernel from a panicking fill model. ok is false on
// failure; the caller treats the order as rejected.
func (e *Engine) safeFill(order schema.Order, state *book.State, tsNs int64, dst []schema.Fill) (fills []schema.Fill, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			fills, ok = nil, false
			e.recordFailure(fmt.Sprintf("fill model panic on %s: %v", order.OrderID, r))
		}
	}()
	return e.fills.Fill(order, state, tsNs, dst), true
}

// recordFailure appends to the run-level error list. In strict mode the first
// failure ends the run.
func (e *Engine) recordFailure(msg string) {
	e.errs = append(e.errs, msg)
	logs.Errorf("%s", msg)
	if e.cfg.Strict {
		e.aborted = true
	}
}

func (e *Engine) maybeCheckpoint(tsNs int64) {
	if !e.cfg.EnableCheckpointing {
		return
	}
	processed := e.metrics.EventsProcessed()
	if processed == 0 || processed%e.cfg.CheckpointInterval != 0 {
		return
	}
	cp := makeCheckpoint(e.pf.Snapshot(tsNs), processed)
	if err := WriteCheckpoint(e.cfg.CheckpointPath, cp); err != nil {
		logs.Errorf("write checkpoint %s, err: %v", e.cfg.CheckpointPath, err)
	}
}

func (e *Engine) maybeReportProgress(total int) {
	if !e.cfg.EnableProgress || total == 0 {
		return
	}
	processed := e.metrics.EventsProcessed()
	if processed%e.cfg.CheckpointInterval == 0 {
		logs.Infof("processed %d/%d events, cash=%s", processed, total, e.pf.Cash())
	}
}

func (e *Engine) takeFillBuf() []schema.Fill {
	if n := len(e.fillBufs); n > 0 {
		buf := e.fillBufs[n-1]
		e.fillBufs = e.fillBufs[:n-1]
		return buf[:0]
	}
	return make([]schema.Fill, 0, 8)
}

func (e *Engine) putFillBuf(buf []schema.Fill) {
	e.fillBufs = append(e.fillBufs, buf)
}
