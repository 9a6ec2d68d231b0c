package fill

import (
	"github.com/shopspring/decimal"

	"main/internal/book"
	"main/internal/schema"
)

// DefaultCommission is the flat per-fill commission.
var DefaultCommission = decimal.RequireFromString("0.65")

// Config tunes the fill model.
type Config struct {
	Commission decimal.Decimal
}

func (c Config) withDefaults() Config {
	if c.Commission.IsZero() {
		c.Commission = DefaultCommission
	}
	return c
}

// Model simulates executions against top-of-book state. It holds no state of
// its own across orders: non-crossing limits do not rest.
type Model struct {
	commission schema.Price
}

// NewModel creates a fill model. A zero config uses the default commission.
func NewModel(cfg Config) *Model {
	cfg = cfg.withDefaults()
	return &Model{commission: schema.PriceFromDecimal(cfg.Commission)}
}

// Fill simulates the order against the book and appends any resulting fills
// to dst, which callers reuse between events. An empty book yields no fills.
func (m *Model) Fill(order schema.Order, state *book.State, tsNs int64, dst []schema.Fill) []schema.Fill {
	if order.Qty <= 0 || state == nil || state.Empty() {
		return dst
	}

	switch order.Type {
	case schema.OrderTypeMarket:
		return m.fillMarket(order, state, tsNs, dst)
	case schema.OrderTypeLimit:
		return m.fillLimit(order, state, tsNs, dst)
	default:
		return dst
	}
}

// fillMarket fills the full quantity in one step at the touched side, or at
// the opposite side with a 1% cushion when the touched side is empty.
func (m *Model) fillMarket(order schema.Order, state *book.State, tsNs int64, dst []schema.Fill) []schema.Fill {
	var px float64
	switch order.Side {
	case schema.OrderSideBuy:
		switch {
		case state.HasAsk():
			px = state.BestAsk.Price.Float()
		case state.HasBid():
			px = state.BestBid.Price.Float() * 1.01
		default:
			return dst
		}
	case schema.OrderSideSell:
		switch {
		case state.HasBid():
			px = state.BestBid.Price.Float()
		case state.HasAsk():
			px = state.BestAsk.Price.Float() * 0.99
		default:
			return dst
		}
	default:
		return dst
	}

	// Roughly 0.1 basis point of impact per 100 contracts.
	slip := 1 + float64(order.Qty.Abs())/10_000*1e-4
	if order.Side == schema.OrderSideBuy {
		px *= slip
	} else {
		px /= slip
	}

	return append(dst, schema.Fill{
		OrderID:    order.OrderID,
		Symbol:     order.Symbol,
		Qty:        signedQty(order),
		Price:      schema.PriceFromFloat(px),
		LeavesQty:  0,
		TsNs:       tsNs,
		Commission: m.commission,
	})
}

// fillLimit fills a crossing limit at the opposite top of book, with the
// quantity capped by a spread-driven liquidity estimate.
func (m *Model) fillLimit(order schema.Order, state *book.State, tsNs int64, dst []schema.Fill) []schema.Fill {
	var px schema.Price
	switch order.Side {
	case schema.OrderSideBuy:
		if !state.HasAsk() || order.LimitPx < state.BestAsk.Price {
			return dst
		}
		px = state.BestAsk.Price
	case schema.OrderSideSell:
		if !state.HasBid() || order.LimitPx > state.BestBid.Price {
			return dst
		}
		px = state.BestBid.Price
	default:
		return dst
	}

	filled := order.Qty
	if available := m.availableQty(state); available < filled {
		filled = available
	}

	qty := filled
	if order.Side == schema.OrderSideSell {
		qty = -filled
	}

	return append(dst, schema.Fill{
		OrderID:    order.OrderID,
		Symbol:     order.Symbol,
		Qty:        qty,
		Price:      px,
		LeavesQty:  order.Qty - filled,
		TsNs:       tsNs,
		Commission: m.commission,
	})
}

// availableQty ties fillable size to the relative spread: tight books offer
// more, wide books less, floored at one contract.
func (m *Model) availableQty(state *book.State) schema.Quantity {
	relSpread := 0.1
	if state.HasBid() && state.HasAsk() {
		spread := state.BestAsk.Price.Float() - state.BestBid.Price.Float()
		relSpread = spread / state.BestBid.Price.Float()
		if relSpread < 0.1 {
			relSpread = 0.1
		}
		if relSpread > 2.0 {
			relSpread = 2.0
		}
	}
	available := schema.Quantity(1000 / relSpread)
	if available < 1 {
		available = 1
	}
	return available
}

func signedQty(order schema.Order) schema.Quantity {
	if order.Side == schema.OrderSideSell {
		return -order.Qty
	}
	return order.Qty
}
