package fill

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/book"
	"main/internal/schema"
)

func knownBook() *book.State {
	s := &book.State{Symbol: "SPY"}
	s.ApplyQuote(schema.Quote{
		TsNs:   1,
		Symbol: "SPY",
		BidPx:  schema.PriceFromFloat(99.50), BidSz: 1000,
		AskPx:  schema.PriceFromFloat(100.50), AskSz: 1000,
	})
	return s
}

func marketBuy(qty schema.Quantity) schema.Order {
	return schema.Order{
		OrderID: "bt_SPY_1",
		Symbol:  "SPY",
		Side:    schema.OrderSideBuy,
		Type:    schema.OrderTypeMarket,
		Qty:     qty,
		TIF:     schema.TimeInForceIOC,
	}
}

func TestMarketBuyAtKnownBook(t *testing.T) {
	m := NewModel(Config{})
	fills := m.Fill(marketBuy(100), knownBook(), 10, nil)

	require.Len(t, fills, 1)
	f := fills[0]
	assert.Equal(t, schema.Quantity(100), f.Qty)
	assert.GreaterOrEqual(t, f.Price.Float(), 100.50, "fill must include slippage above the ask")
	assert.Less(t, f.Price.Float(), 100.51)
	assert.Equal(t, schema.Quantity(0), f.LeavesQty)
	assert.True(t, f.Commission.Decimal().Equal(decimal.RequireFromString("0.65")))
	assert.Equal(t, int64(10), f.TsNs)
}

func TestMarketSellDividesSlippage(t *testing.T) {
	m := NewModel(Config{})
	order := marketBuy(100)
	order.Side = schema.OrderSideSell
	fills := m.Fill(order, knownBook(), 10, nil)

	require.Len(t, fills, 1)
	assert.Equal(t, schema.Quantity(-100), fills[0].Qty)
	assert.LessOrEqual(t, fills[0].Price.Float(), 99.50)
}

func TestMarketBuyEmptyAskUsesCushionedBid(t *testing.T) {
	s := &book.State{Symbol: "SPY"}
	s.ApplyTick(schema.Tick{TsNs: 1, Price: schema.PriceFromFloat(100), Qty: 10, Kind: schema.TickBid})

	m := NewModel(Config{})
	fills := m.Fill(marketBuy(1), s, 2, nil)
	require.Len(t, fills, 1)
	assert.InDelta(t, 101.0, fills[0].Price.Float(), 0.01)
}

func TestMarketOrderEmptyBookNoFills(t *testing.T) {
	m := NewModel(Config{})
	fills := m.Fill(marketBuy(100), &book.State{Symbol: "SPY"}, 2, nil)
	assert.Empty(t, fills)
}

func TestNonCrossingLimitNoFills(t *testing.T) {
	m := NewModel(Config{})
	order := schema.Order{
		OrderID: "bt_SPY_2",
		Symbol:  "SPY",
		Side:    schema.OrderSideBuy,
		Type:    schema.OrderTypeLimit,
		Qty:     100,
		LimitPx: schema.PriceFromFloat(100.00),
	}
	fills := m.Fill(order, knownBook(), 3, nil)
	assert.Empty(t, fills)
}

func TestCrossingLimitFillsAtOppositeTouch(t *testing.T) {
	m := NewModel(Config{})
	order := schema.Order{
		OrderID: "bt_SPY_3",
		Symbol:  "SPY",
		Side:    schema.OrderSideBuy,
		Type:    schema.OrderTypeLimit,
		Qty:     100,
		LimitPx: schema.PriceFromFloat(101.00),
	}
	fills := m.Fill(order, knownBook(), 3, nil)

	require.Len(t, fills, 1)
	assert.Equal(t, schema.PriceFromFloat(100.50), fills[0].Price)
	assert.Equal(t, schema.Quantity(100), fills[0].Qty)
	assert.Equal(t, schema.Quantity(0), fills[0].LeavesQty)
}

func TestCrossingSellLimit(t *testing.T) {
	m := NewModel(Config{})
	order := schema.Order{
		OrderID: "bt_SPY_4",
		Symbol:  "SPY",
		Side:    schema.OrderSideSell,
		Type:    schema.OrderTypeLimit,
		Qty:     50,
		LimitPx: schema.PriceFromFloat(99.00),
	}
	fills := m.Fill(order, knownBook(), 3, nil)

	require.Len(t, fills, 1)
	assert.Equal(t, schema.PriceFromFloat(99.50), fills[0].Price)
	assert.Equal(t, schema.Quantity(-50), fills[0].Qty)
}

func TestLimitPartialFillOnTightSpread(t *testing.T) {
	// Relative spread 1/99.5 clamps to the 0.1 floor, so about 10000
	// contracts are available; a larger order only partially fills.
	m := NewModel(Config{})
	order := schema.Order{
		OrderID: "bt_SPY_5",
		Symbol:  "SPY",
		Side:    schema.OrderSideBuy,
		Type:    schema.OrderTypeLimit,
		Qty:     20_000,
		LimitPx: schema.PriceFromFloat(101.00),
	}
	fills := m.Fill(order, knownBook(), 3, nil)

	require.Len(t, fills, 1)
	assert.Equal(t, schema.Quantity(10_000), fills[0].Qty)
	assert.Equal(t, schema.Quantity(10_000), fills[0].LeavesQty)
}

func TestLimitWideSpreadShrinksAvailable(t *testing.T) {
	s := &book.State{Symbol: "PENNY"}
	s.ApplyQuote(schema.Quote{
		TsNs:  1,
		BidPx: schema.PriceFromFloat(1.00), BidSz: 10,
		AskPx: schema.PriceFromFloat(3.00), AskSz: 10,
	})

	m := NewModel(Config{})
	order := schema.Order{
		OrderID: "bt_PENNY_1",
		Symbol:  "PENNY",
		Side:    schema.OrderSideBuy,
		Type:    schema.OrderTypeLimit,
		Qty:     5000,
		LimitPx: schema.PriceFromFloat(3.00),
	}
	fills := m.Fill(order, s, 2, nil)

	// Relative spread 2.0 caps available at 500.
	require.Len(t, fills, 1)
	assert.Equal(t, schema.Quantity(500), fills[0].Qty)
	assert.Equal(t, schema.Quantity(4500), fills[0].LeavesQty)
}

func TestFillReusesDestinationBuffer(t *testing.T) {
	m := NewModel(Config{})
	buf := make([]schema.Fill, 0, 4)

	fills := m.Fill(marketBuy(10), knownBook(), 1, buf)
	require.Len(t, fills, 1)
	again := m.Fill(marketBuy(10), knownBook(), 2, fills[:0])
	require.Len(t, again, 1)
	assert.Equal(t, int64(2), again[0].TsNs)
}

func TestCustomCommission(t *testing.T) {
	m := NewModel(Config{Commission: decimal.RequireFromString("1.25")})
	fills := m.Fill(marketBuy(10), knownBook(), 1, nil)
	require.Len(t, fills, 1)
	assert.True(t, fills[0].Commission.Decimal().Equal(decimal.RequireFromString("1.25")))
}

func TestRejectsNonPositiveQty(t *testing.T) {
	m := NewModel(Config{})
	order := marketBuy(0)
	assert.Empty(t, m.Fill(order, knownBook(), 1, nil))
}
