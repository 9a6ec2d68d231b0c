package schema

import "errors"

var ErrWrongEventKind = errors.New("event payload does not match kind")

// EventKind discriminates the event union. Priority, not the numeric value,
// orders events sharing a timestamp: market data and quotes share the first
// rank, then fills, then acknowledgements.
type EventKind uint16

const (
	EventUnknown EventKind = iota
	EventMarketData
	EventQuote
	EventFill
	EventOrderAck
)

func (k EventKind) String() string {
	switch k {
	case EventMarketData:
		return "market_data"
	case EventQuote:
		return "quote"
	case EventFill:
		return "fill"
	case EventOrderAck:
		return "order_ack"
	default:
		return "unknown"
	}
}

// Priority returns the tie-break rank for events at the same timestamp.
func (k EventKind) Priority() int {
	switch k {
	case EventMarketData, EventQuote:
		return 0
	case EventFill:
		return 1
	case EventOrderAck:
		return 2
	default:
		return 3
	}
}

// Event is a tagged union over the payload types. Payload fields live inline
// so events stay plain values with no per-event allocation; accessors guard
// against reading the wrong arm.
type Event struct {
	Kind EventKind
	TsNs int64
	Seq  uint64

	tick  Tick
	quote Quote
	fill  Fill
	ack   OrderAck
}

// NewTickEvent wraps a market tick.
func NewTickEvent(tick Tick) Event {
	return Event{Kind: EventMarketData, TsNs: tick.TsNs, tick: tick}
}

// NewQuoteEvent wraps a quote update.
func NewQuoteEvent(quote Quote) Event {
	return Event{Kind: EventQuote, TsNs: quote.TsNs, quote: quote}
}

// NewFillEvent wraps a fill.
func NewFillEvent(fill Fill) Event {
	return Event{Kind: EventFill, TsNs: fill.TsNs, fill: fill}
}

// NewOrderAckEvent wraps an order acknowledgement.
func NewOrderAckEvent(ack OrderAck) Event {
	return Event{Kind: EventOrderAck, TsNs: ack.TsNs, ack: ack}
}

// Tick returns the market-data payload.
func (e Event) Tick() (Tick, error) {
	if e.Kind != EventMarketData {
		return Tick{}, ErrWrongEventKind
	}
	return e.tick, nil
}

// Quote returns the quote payload.
func (e Event) Quote() (Quote, error) {
	if e.Kind != EventQuote {
		return Quote{}, ErrWrongEventKind
	}
	return e.quote, nil
}

// Fill returns the fill payload.
func (e Event) Fill() (Fill, error) {
	if e.Kind != EventFill {
		return Fill{}, ErrWrongEventKind
	}
	return e.fill, nil
}

// OrderAck returns the acknowledgement payload.
func (e Event) OrderAck() (OrderAck, error) {
	if e.Kind != EventOrderAck {
		return OrderAck{}, ErrWrongEventKind
	}
	return e.ack, nil
}

// Symbol returns the symbol the event refers to, if its kind carries one.
func (e Event) Symbol() string {
	switch e.Kind {
	case EventMarketData:
		return e.tick.Symbol
	case EventQuote:
		return e.quote.Symbol
	case EventFill:
		return e.fill.Symbol
	case EventOrderAck:
		return e.ack.Symbol
	default:
		return ""
	}
}
