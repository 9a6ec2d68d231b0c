package portfolio

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"main/internal/options"
	"main/internal/schema"
)

var (
	ErrNoSymbol    = errors.New("fill carries no symbol and its order id encodes none")
	ErrZeroFillQty = errors.New("fill quantity is zero")
)

// Position is one open lot. AvgPx is the running weighted-average execution
// price of the open quantity; MarkPx follows market data.
type Position struct {
	Symbol string
	Qty    schema.Quantity
	AvgPx  decimal.Decimal
	MarkPx decimal.Decimal
	Greeks options.Greeks
}

// UnrealisedPnl returns qty * (mark - avg) for the position.
func (p Position) UnrealisedPnl() decimal.Decimal {
	return p.MarkPx.Sub(p.AvgPx).Mul(p.Qty.Decimal())
}

// State is a point-in-time copy of the portfolio.
type State struct {
	TsNs          int64
	Cash          decimal.Decimal
	Positions     []Position
	UnrealisedPnl decimal.Decimal
	RealisedPnl   decimal.Decimal
	NetGreeks     options.Greeks
}

// Position returns the snapshot entry for symbol.
func (s State) Position(symbol string) (Position, bool) {
	for _, pos := range s.Positions {
		if pos.Symbol == symbol {
			return pos, true
		}
	}
	return Position{}, false
}

// Portfolio tracks cash, open positions, and realised P&L. A position whose
// quantity returns to zero leaves the active set; its running P&L has by then
// been folded into the realised total.
type Portfolio struct {
	cash      decimal.Decimal
	positions map[string]*Position
	realised  decimal.Decimal
	lastTsNs  int64
}

// New creates a portfolio holding the initial cash balance.
func New(initialCash decimal.Decimal) *Portfolio {
	return &Portfolio{
		cash:      initialCash,
		positions: make(map[string]*Position),
	}
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() decimal.Decimal {
	return p.cash
}

// RealisedPnl returns the realised profit and loss so far.
func (p *Portfolio) RealisedPnl() decimal.Decimal {
	return p.realised
}

// PositionCount returns the number of open positions.
func (p *Portfolio) PositionCount() int {
	return len(p.positions)
}

// Position returns a copy of the open position for symbol.
func (p *Portfolio) Position(symbol string) (Position, bool) {
	if pos, ok := p.positions[symbol]; ok {
		return *pos, true
	}
	return Position{}, false
}

// ApplyFill folds an execution into cash, the position, and realised P&L.
// The symbol comes from the fill itself or, failing that, from the order-id
// convention <PREFIX>_<SYMBOL>_<SEQ>.
func (p *Portfolio) ApplyFill(fill schema.Fill) error {
	if fill.Qty == 0 {
		return ErrZeroFillQty
	}
	symbol := fill.Symbol
	if symbol == "" {
		var ok bool
		symbol, ok = schema.SymbolFromOrderID(fill.OrderID)
		if !ok {
			return ErrNoSymbol
		}
	}

	qty := fill.Qty
	px := fill.Price.Decimal()

	p.cash = p.cash.Sub(px.Mul(qty.Decimal())).Sub(fill.Commission.Decimal())

	pos, ok := p.positions[symbol]
	if !ok {
		p.positions[symbol] = &Position{
			Symbol: symbol,
			Qty:    qty,
			AvgPx:  px,
			MarkPx: px,
		}
		p.lastTsNs = fill.TsNs
		return nil
	}

	oldQty := pos.Qty
	newQty := oldQty + qty

	switch {
	case oldQty.Sign() == qty.Sign() || oldQty == 0:
		// Opening or increasing: blend the average price.
		total := pos.AvgPx.Mul(oldQty.Decimal()).Add(px.Mul(qty.Decimal()))
		pos.AvgPx = total.Div(newQty.Decimal())
		pos.Qty = newQty
	case qty.Abs() <= oldQty.Abs():
		// Closing part or all of the lot: realise on the closed quantity,
		// which carries the sign of the old position.
		closed := qty.Decimal().Neg()
		p.realised = p.realised.Add(px.Sub(pos.AvgPx).Mul(closed))
		pos.Qty = newQty
	default:
		// Flipping through zero: close the whole old lot, open the rest.
		p.realised = p.realised.Add(px.Sub(pos.AvgPx).Mul(oldQty.Decimal()))
		pos.Qty = newQty
		pos.AvgPx = px
	}

	if pos.Qty == 0 {
		delete(p.positions, symbol)
	}
	p.lastTsNs = fill.TsNs
	return nil
}

// UpdateMarketData marks the symbol's position to the tick price.
func (p *Portfolio) UpdateMarketData(tick schema.Tick) {
	if pos, ok := p.positions[tick.Symbol]; ok {
		pos.MarkPx = tick.Price.Decimal()
	}
	p.lastTsNs = tick.TsNs
}

// UpdateQuote marks the symbol's position to the quote mid.
func (p *Portfolio) UpdateQuote(quote schema.Quote) {
	if pos, ok := p.positions[quote.Symbol]; ok {
		if mid, present := quote.Mid(); present {
			pos.MarkPx = mid.Decimal()
		}
	}
	p.lastTsNs = quote.TsNs
}

// UpdateGreeks replaces the per-contract Greeks attached to a position.
func (p *Portfolio) UpdateGreeks(symbol string, greeks options.Greeks) {
	if pos, ok := p.positions[symbol]; ok {
		pos.Greeks = greeks
	}
}

// NetDelta returns the quantity-weighted delta over all open positions.
func (p *Portfolio) NetDelta() float64 {
	var net float64
	for _, pos := range p.positions {
		net += float64(pos.Qty) * pos.Greeks.Delta
	}
	return net
}

// Snapshot copies the portfolio at the given timestamp. Positions sort by
// symbol so identical portfolios snapshot identically.
func (p *Portfolio) Snapshot(tsNs int64) State {
	positions := make([]Position, 0, len(p.positions))
	unrealised := decimal.Zero
	var net options.Greeks
	for _, pos := range p.positions {
		positions = append(positions, *pos)
		unrealised = unrealised.Add(pos.UnrealisedPnl())
		net = net.Add(pos.Greeks.Scale(float64(pos.Qty)))
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return State{
		TsNs:          tsNs,
		Cash:          p.cash,
		Positions:     positions,
		UnrealisedPnl: unrealised,
		RealisedPnl:   p.realised,
		NetGreeks:     net,
	}
}

// LastTsNs returns the timestamp of the last mutation.
func (p *Portfolio) LastTsNs() int64 {
	return p.lastTsNs
}
