package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/options"
	"main/internal/portfolio"
	"main/internal/schema"
)

var t0 = time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC).UnixNano()

func quoteEvent(tsNs int64, symbol string, bid, ask float64) schema.Event {
	return schema.NewQuoteEvent(schema.Quote{
		TsNs:   tsNs,
		Symbol: symbol,
		BidPx:  schema.PriceFromFloat(bid),
		BidSz:  1000,
		AskPx:  schema.PriceFromFloat(ask),
		AskSz:  1000,
	})
}

func holding(symbol string, qty int64) portfolio.State {
	return portfolio.State{Positions: []portfolio.Position{{Symbol: symbol, Qty: schema.Quantity(qty)}}}
}

func newCC(t *testing.T, cfg CoveredCallConfig) *CoveredCall {
	t.Helper()
	cc, err := NewCoveredCall(cfg, nil)
	require.NoError(t, err)
	return cc
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  CoveredCallConfig
	}{
		{"band inverted", CoveredCallConfig{MinDelta: 0.5, MaxDelta: 0.3, Symbols: []string{"SPY"}}},
		{"delta above one", CoveredCallConfig{MinDelta: 0.2, MaxDelta: 1.5, Symbols: []string{"SPY"}}},
		{"roll not below target", CoveredCallConfig{TargetDaysToExpiry: 10, RollAtDTE: 10, Symbols: []string{"SPY"}}},
		{"pnl percent out of range", CoveredCallConfig{RollAtPnlPercent: 150, Symbols: []string{"SPY"}}},
		{"negative lot", CoveredCallConfig{LotSize: -100, Symbols: []string{"SPY"}}},
		{"no symbols", CoveredCallConfig{}},
		{"empty symbol entry", CoveredCallConfig{Symbols: []string{"SPY", ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCoveredCall(tt.cfg, nil)
			assert.Error(t, err)
		})
	}

	cc := newCC(t, CoveredCallConfig{Symbols: []string{"SPY"}})
	assert.Equal(t, 30, cc.cfg.TargetDaysToExpiry)
	assert.Equal(t, 100, cc.cfg.LotSize)
	assert.Equal(t, 1, cc.cfg.MaxPositions)
}

func TestBuysLotWhenFlat(t *testing.T) {
	cc := newCC(t, CoveredCallConfig{Symbols: []string{"SPY"}})

	orders := cc.OnEvent(quoteEvent(t0, "SPY", 99.5, 100.5), portfolio.State{})
	require.Len(t, orders, 1)
	buy := orders[0]
	assert.Equal(t, "SPY", buy.Symbol)
	assert.Equal(t, schema.OrderSideBuy, buy.Side)
	assert.Equal(t, schema.OrderTypeMarket, buy.Type)
	assert.Equal(t, schema.Quantity(100), buy.Qty)

	// The buy is in flight; nothing new until it settles.
	assert.Empty(t, cc.OnEvent(quoteEvent(t0+1, "SPY", 99.5, 100.5), portfolio.State{}))

	cc.OnFill(schema.Fill{OrderID: buy.OrderID, Symbol: "SPY", Qty: 100, LeavesQty: 0}, holding("SPY", 100))
	orders = cc.OnEvent(quoteEvent(t0+2, "SPY", 99.5, 100.5), holding("SPY", 100))
	require.Len(t, orders, 1)
	assert.Equal(t, schema.OrderSideSell, orders[0].Side)
}

func TestSellsCallInsideDeltaBand(t *testing.T) {
	cfg := CoveredCallConfig{MinDelta: 0.20, MaxDelta: 0.40, Symbols: []string{"SPY"}}
	cc := newCC(t, cfg)

	orders := cc.OnEvent(quoteEvent(t0, "SPY", 99.5, 100.5), holding("SPY", 100))
	require.Len(t, orders, 1)
	sell := orders[0]
	assert.Equal(t, schema.OrderSideSell, sell.Side)
	assert.Equal(t, schema.OrderTypeLimit, sell.Type)
	assert.Equal(t, schema.Quantity(1), sell.Qty)
	assert.Positive(t, sell.LimitPx)

	contract, err := options.ParseTicker(sell.Symbol)
	require.NoError(t, err)
	assert.Equal(t, "SPY", contract.Underlying)
	assert.Equal(t, options.TypeCall, contract.Type)
	assert.Greater(t, contract.Strike, 100.0)

	years := options.YearsBetween(t0, t0+30*dayNanos)
	delta := options.ComputeGreeks(options.PricingInput{
		Spot: 100, Strike: contract.Strike, Years: years, Vol: 0.20, Type: options.TypeCall,
	}).Delta
	assert.GreaterOrEqual(t, delta, cfg.MinDelta)
	assert.LessOrEqual(t, delta, cfg.MaxDelta)
}

func TestRollNearExpiryEmitsTwoLegs(t *testing.T) {
	cc := newCC(t, CoveredCallConfig{TargetDaysToExpiry: 30, RollAtDTE: 7, Symbols: []string{"SPY"}})
	held := holding("SPY", 100)

	orders := cc.OnEvent(quoteEvent(t0, "SPY", 99.5, 100.5), held)
	require.Len(t, orders, 1)
	sold := orders[0]
	cc.OnFill(schema.Fill{OrderID: sold.OrderID, Symbol: sold.Symbol, Qty: -1, Price: sold.LimitPx, LeavesQty: 0}, held)
	assert.Equal(t, uint64(1), cc.callsSold)

	// Still 24 days out: hold.
	assert.Empty(t, cc.OnEvent(quoteEvent(t0+6*dayNanos, "SPY", 99.5, 100.5), held))

	// Six days to expiry: buy back the short and write a fresh call.
	rollTs := t0 + 24*dayNanos
	orders = cc.OnEvent(quoteEvent(rollTs, "SPY", 99.5, 100.5), held)
	require.Len(t, orders, 2)

	buyBack, reopen := orders[0], orders[1]
	assert.Equal(t, sold.Symbol, buyBack.Symbol)
	assert.Equal(t, schema.OrderSideBuy, buyBack.Side)
	assert.Equal(t, schema.OrderTypeMarket, buyBack.Type)
	assert.Equal(t, schema.Quantity(1), buyBack.Qty)

	assert.Equal(t, schema.OrderSideSell, reopen.Side)
	assert.NotEqual(t, sold.Symbol, reopen.Symbol)
	contract, err := options.ParseTicker(reopen.Symbol)
	require.NoError(t, err)
	assert.Greater(t, contract.ExpiryUTC.UnixNano(), rollTs+20*dayNanos)
	assert.Equal(t, uint64(1), cc.callsRolled)

	// Settling both legs replaces the tracked short.
	cc.OnFill(schema.Fill{OrderID: buyBack.OrderID, Symbol: buyBack.Symbol, Qty: 1, LeavesQty: 0}, held)
	cc.OnFill(schema.Fill{OrderID: reopen.OrderID, Symbol: reopen.Symbol, Qty: -1, Price: reopen.LimitPx, LeavesQty: 0}, held)
	assert.Equal(t, uint64(2), cc.callsSold)
	assert.Len(t, cc.shorts, 1)
	assert.Equal(t, reopen.Symbol, cc.shorts["SPY"].contract.Ticker)
}

func TestRollOnPremiumCapture(t *testing.T) {
	cc := newCC(t, CoveredCallConfig{RollAtPnlPercent: 80, Symbols: []string{"SPY"}})
	held := holding("SPY", 100)

	orders := cc.OnEvent(quoteEvent(t0, "SPY", 99.5, 100.5), held)
	require.Len(t, orders, 1)
	sold := orders[0]
	cc.OnFill(schema.Fill{OrderID: sold.OrderID, Symbol: sold.Symbol, Qty: -1, Price: sold.LimitPx, LeavesQty: 0}, held)

	// Spot collapses; the short call is nearly worthless, so the premium is
	// captured long before the expiry trigger.
	orders = cc.OnEvent(quoteEvent(t0+dayNanos, "SPY", 79.5, 80.5), held)
	require.NotEmpty(t, orders)
	assert.Equal(t, sold.Symbol, orders[0].Symbol)
	assert.Equal(t, schema.OrderSideBuy, orders[0].Side)
	assert.Equal(t, uint64(1), cc.callsRolled)
}

func TestRejectedAckClearsPending(t *testing.T) {
	cc := newCC(t, CoveredCallConfig{Symbols: []string{"SPY"}})

	orders := cc.OnEvent(quoteEvent(t0, "SPY", 99.5, 100.5), portfolio.State{})
	require.Len(t, orders, 1)
	assert.Empty(t, cc.OnEvent(quoteEvent(t0+1, "SPY", 99.5, 100.5), portfolio.State{}))

	cc.OnOrderAck(schema.OrderAck{OrderID: orders[0].OrderID, Status: schema.OrderStatusRejected})
	assert.Equal(t, uint64(1), cc.rejections)

	retry := cc.OnEvent(quoteEvent(t0+2, "SPY", 99.5, 100.5), portfolio.State{})
	require.Len(t, retry, 1)
	assert.NotEqual(t, orders[0].OrderID, retry[0].OrderID)
}

func TestIgnoresForeignSymbolsAndKinds(t *testing.T) {
	cc := newCC(t, CoveredCallConfig{Symbols: []string{"SPY"}})

	assert.Empty(t, cc.OnEvent(quoteEvent(t0, "QQQ", 99.5, 100.5), portfolio.State{}))
	assert.Empty(t, cc.OnEvent(schema.NewFillEvent(schema.Fill{Symbol: "SPY", TsNs: t0}), portfolio.State{}))
	assert.Empty(t, cc.OnEvent(schema.NewOrderAckEvent(schema.OrderAck{Symbol: "SPY", TsNs: t0}), portfolio.State{}))
}

func TestMaxPositionsCapsNewShorts(t *testing.T) {
	cc := newCC(t, CoveredCallConfig{MaxPositions: 1, Symbols: []string{"SPY", "QQQ"}})
	bothHeld := portfolio.State{Positions: []portfolio.Position{
		{Symbol: "SPY", Qty: 100},
		{Symbol: "QQQ", Qty: 100},
	}}

	orders := cc.OnEvent(quoteEvent(t0, "SPY", 99.5, 100.5), bothHeld)
	require.Len(t, orders, 1)
	sold := orders[0]
	cc.OnFill(schema.Fill{OrderID: sold.OrderID, Symbol: sold.Symbol, Qty: -1, Price: sold.LimitPx, LeavesQty: 0}, bothHeld)

	assert.Empty(t, cc.OnEvent(quoteEvent(t0+1, "QQQ", 99.5, 100.5), bothHeld))
}

func TestStateCounters(t *testing.T) {
	cc := newCC(t, CoveredCallConfig{Symbols: []string{"SPY"}})

	orders := cc.OnEvent(quoteEvent(t0, "SPY", 99.5, 100.5), portfolio.State{})
	require.Len(t, orders, 1)

	state := cc.State()
	assert.Equal(t, uint64(1), state["orders_placed"])
	assert.Equal(t, uint64(0), state["calls_sold"])
	assert.Equal(t, 0, state["open_calls"])
}
