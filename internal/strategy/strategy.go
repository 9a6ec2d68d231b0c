package strategy

import (
	"main/internal/portfolio"
	"main/internal/schema"
)

// Strategy receives every simulated event and answers with candidate orders.
// Implementations must be deterministic: identical event sequences must
// produce identical order sequences.
type Strategy interface {
	// OnEvent is invoked for each drained event and again for each
	// acknowledgement and fill synthesized while settling orders, with a
	// portfolio snapshot taken before any orders from that event settle.
	OnEvent(ev schema.Event, state portfolio.State) []schema.Order
	// OnFill is invoked after a fill has been applied to the portfolio.
	OnFill(fill schema.Fill, state portfolio.State)
	// OnOrderAck reports order lifecycle transitions, rejections included.
	OnOrderAck(ack schema.OrderAck)
	// State exposes strategy internals for the run result.
	State() map[string]any
}
