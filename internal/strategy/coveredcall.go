package strategy

import (
	"fmt"
	"math"
	"time"

	"main/internal/options"
	"main/internal/portfolio"
	"main/internal/schema"
	"main/internal/vol"
)

const (
	dayNanos    = int64(24 * time.Hour)
	strikeStep  = 1.0
	orderPrefix = "cc"
)

// CoveredCallConfig parameterises the reference covered-call writer.
type CoveredCallConfig struct {
	// MinDelta and MaxDelta bound the delta band a written call must land in.
	MinDelta float64 `json:"min_delta"             yaml:"min_delta"`
	MaxDelta float64 `json:"max_delta"             yaml:"max_delta"`
	// TargetDaysToExpiry selects the expiry for newly written calls.
	TargetDaysToExpiry int `json:"target_days_to_expiry" yaml:"target_days_to_expiry"`
	// RollAtDTE triggers a roll when the short call has this many days or
	// fewer left. Must stay strictly below TargetDaysToExpiry.
	RollAtDTE int `json:"roll_at_dte"           yaml:"roll_at_dte"`
	// RollAtPnlPercent triggers a roll once the short call has captured this
	// percentage of its premium.
	RollAtPnlPercent float64  `json:"roll_at_pnl_percent"   yaml:"roll_at_pnl_percent"`
	LotSize          int      `json:"lot_size"              yaml:"lot_size"`
	MaxPositions     int      `json:"max_positions"         yaml:"max_positions"`
	Symbols          []string `json:"symbols"               yaml:"symbols"`
	// Vol is the fallback volatility when no surface is attached or the
	// surface lookup fails.
	Vol      float64 `json:"vol"                   yaml:"vol"`
	RiskFree float64 `json:"risk_free"             yaml:"risk_free"`
	DivYield float64 `json:"div_yield"             yaml:"div_yield"`
}

func (c CoveredCallConfig) withDefaults() CoveredCallConfig {
	if c.MinDelta == 0 && c.MaxDelta == 0 {
		c.MinDelta, c.MaxDelta = 0.20, 0.40
	}
	if c.TargetDaysToExpiry == 0 {
		c.TargetDaysToExpiry = 30
	}
	if c.RollAtDTE == 0 {
		c.RollAtDTE = 7
	}
	if c.RollAtPnlPercent == 0 {
		c.RollAtPnlPercent = 80
	}
	if c.LotSize == 0 {
		c.LotSize = 100
	}
	if c.MaxPositions == 0 {
		c.MaxPositions = len(c.Symbols)
	}
	if c.Vol == 0 {
		c.Vol = vol.DefaultVol
	}
	return c
}

// Validate reports the first invalid field.
func (c CoveredCallConfig) Validate() error {
	if c.MinDelta < 0 || c.MinDelta > 1 {
		return fmt.Errorf("min_delta %v outside [0, 1]", c.MinDelta)
	}
	if c.MaxDelta < 0 || c.MaxDelta > 1 {
		return fmt.Errorf("max_delta %v outside [0, 1]", c.MaxDelta)
	}
	if c.MinDelta >= c.MaxDelta {
		return fmt.Errorf("min_delta %v not below max_delta %v", c.MinDelta, c.MaxDelta)
	}
	if c.TargetDaysToExpiry <= 0 {
		return fmt.Errorf("target_days_to_expiry %d not positive", c.TargetDaysToExpiry)
	}
	if c.RollAtDTE <= 0 {
		return fmt.Errorf("roll_at_dte %d not positive", c.RollAtDTE)
	}
	if c.RollAtDTE >= c.TargetDaysToExpiry {
		return fmt.Errorf("roll_at_dte %d not below target_days_to_expiry %d", c.RollAtDTE, c.TargetDaysToExpiry)
	}
	if c.RollAtPnlPercent < 0 || c.RollAtPnlPercent > 100 {
		return fmt.Errorf("roll_at_pnl_percent %v outside [0, 100]", c.RollAtPnlPercent)
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("lot_size %d not positive", c.LotSize)
	}
	if c.MaxPositions <= 0 {
		return fmt.Errorf("max_positions %d not positive", c.MaxPositions)
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols empty")
	}
	for _, symbol := range c.Symbols {
		if symbol == "" {
			return fmt.Errorf("symbols contains an empty entry")
		}
	}
	return nil
}

type shortCall struct {
	contract  options.Contract
	contracts schema.Quantity
	premium   float64
}

// CoveredCall writes calls against long stock. Per underlying it first buys a
// lot of shares, then sells one call inside the configured delta band at the
// target expiry, and rolls the short when it decays near expiry or has
// captured most of its premium. A roll is a two-leg replacement at the same
// event timestamp: buy back the short at market, then sell a fresh call.
type CoveredCall struct {
	cfg     CoveredCallConfig
	surface *vol.Surface
	symbols map[string]bool
	seq     uint64

	live   map[string]string    // in-flight order id -> underlying
	opens  map[string]shortCall // sell-to-open order id -> contract written
	closes map[string]string    // buy-to-close order id -> underlying
	shorts map[string]shortCall // underlying -> open short call

	ordersPlaced uint64
	callsSold    uint64
	callsRolled  uint64
	rejections   uint64
}

// NewCoveredCall validates the config and builds the strategy. The surface is
// optional; without one all pricing uses the configured flat volatility.
func NewCoveredCall(cfg CoveredCallConfig, surface *vol.Surface) (*CoveredCall, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	symbols := make(map[string]bool, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		symbols[symbol] = true
	}
	return &CoveredCall{
		cfg:     cfg,
		surface: surface,
		symbols: symbols,
		live:    make(map[string]string),
		opens:   make(map[string]shortCall),
		closes:  make(map[string]string),
		shorts:  make(map[string]shortCall),
	}, nil
}

// OnEvent reacts to market data on configured underlyings only. Synthesized
// fill and ack events never produce orders, which keeps the in-event feedback
// cycle finite.
func (s *CoveredCall) OnEvent(ev schema.Event, state portfolio.State) []schema.Order {
	if ev.Kind != schema.EventMarketData && ev.Kind != schema.EventQuote {
		return nil
	}
	underlying := ev.Symbol()
	if !s.symbols[underlying] {
		return nil
	}
	spot, ok := eventPrice(ev)
	if !ok || spot <= 0 {
		return nil
	}
	if s.hasPending(underlying) {
		return nil
	}

	lot := schema.Quantity(s.cfg.LotSize)
	pos, held := state.Position(underlying)
	if !held || pos.Qty < lot {
		return []schema.Order{s.newOrder(schema.Order{
			Symbol: underlying,
			Side:   schema.OrderSideBuy,
			Type:   schema.OrderTypeMarket,
			Qty:    lot,
			TIF:    schema.TimeInForceIOC,
			TsNs:   ev.TsNs,
		}, underlying)}
	}

	if short, open := s.shorts[underlying]; open {
		return s.maybeRoll(ev.TsNs, underlying, spot, short)
	}
	if len(s.shorts) >= s.cfg.MaxPositions {
		return nil
	}
	order, ok := s.sellCall(ev.TsNs, underlying, spot)
	if !ok {
		return nil
	}
	return []schema.Order{order}
}

// OnFill commits sell-to-open and buy-to-close legs once their orders are
// fully executed.
func (s *CoveredCall) OnFill(fill schema.Fill, _ portfolio.State) {
	if fill.LeavesQty != 0 {
		return
	}
	delete(s.live, fill.OrderID)
	if intent, ok := s.opens[fill.OrderID]; ok {
		delete(s.opens, fill.OrderID)
		intent.premium = fill.Price.Float()
		s.shorts[intent.contract.Underlying] = intent
		s.callsSold++
	}
	if underlying, ok := s.closes[fill.OrderID]; ok {
		delete(s.closes, fill.OrderID)
		delete(s.shorts, underlying)
	}
}

// OnOrderAck clears in-flight state on terminal rejections and cancels so the
// next market event can retry.
func (s *CoveredCall) OnOrderAck(ack schema.OrderAck) {
	switch ack.Status {
	case schema.OrderStatusRejected:
		s.rejections++
	case schema.OrderStatusCanceled:
	default:
		return
	}
	delete(s.live, ack.OrderID)
	delete(s.opens, ack.OrderID)
	delete(s.closes, ack.OrderID)
}

// State exposes run counters for the result record.
func (s *CoveredCall) State() map[string]any {
	return map[string]any{
		"orders_placed": s.ordersPlaced,
		"calls_sold":    s.callsSold,
		"calls_rolled":  s.callsRolled,
		"rejections":    s.rejections,
		"open_calls":    len(s.shorts),
	}
}

func (s *CoveredCall) maybeRoll(tsNs int64, underlying string, spot float64, short shortCall) []schema.Order {
	dte := short.contract.DaysToExpiry(tsNs)
	captured := false
	if short.premium > 0 {
		years := short.contract.YearsToExpiry(tsNs)
		mark := options.Price(s.pricingInput(spot, short.contract.Strike, years))
		captured = (short.premium-mark)/short.premium*100 >= s.cfg.RollAtPnlPercent
	}
	if dte > s.cfg.RollAtDTE && !captured {
		return nil
	}

	closeLeg := s.newOrder(schema.Order{
		Symbol: short.contract.Ticker,
		Side:   schema.OrderSideBuy,
		Type:   schema.OrderTypeMarket,
		Qty:    short.contracts,
		TIF:    schema.TimeInForceIOC,
		TsNs:   tsNs,
	}, underlying)
	s.closes[closeLeg.OrderID] = underlying
	s.callsRolled++

	orders := []schema.Order{closeLeg}
	if openLeg, ok := s.sellCall(tsNs, underlying, spot); ok {
		orders = append(orders, openLeg)
	}
	return orders
}

func (s *CoveredCall) sellCall(tsNs int64, underlying string, spot float64) (schema.Order, bool) {
	expiryNs := tsNs + int64(s.cfg.TargetDaysToExpiry)*dayNanos
	years := options.YearsBetween(tsNs, expiryNs)
	strike, ok := s.findStrike(spot, years)
	if !ok {
		return schema.Order{}, false
	}
	premium := options.Price(s.pricingInput(spot, strike, years))
	if premium <= 0 {
		return schema.Order{}, false
	}

	expiry := time.Unix(0, expiryNs).UTC()
	ticker := options.FormatTicker(underlying, expiry, options.TypeCall, strike)
	contracts := schema.Quantity(s.cfg.LotSize / 100)
	if contracts == 0 {
		contracts = 1
	}
	order := s.newOrder(schema.Order{
		Symbol:  ticker,
		Side:    schema.OrderSideSell,
		Type:    schema.OrderTypeLimit,
		Qty:     contracts,
		LimitPx: schema.PriceFromFloat(premium),
		TIF:     schema.TimeInForceGTC,
		TsNs:    tsNs,
	}, underlying)
	s.opens[order.OrderID] = shortCall{
		contract: options.Contract{
			Ticker:     ticker,
			Underlying: underlying,
			Strike:     strike,
			ExpiryUTC:  expiry,
			Type:       options.TypeCall,
		},
		contracts: contracts,
	}
	return order, true
}

// findStrike scans out-of-the-money strikes upward. Call delta falls as the
// strike rises, so the first strike at or under MaxDelta decides the band.
func (s *CoveredCall) findStrike(spot, years float64) (float64, bool) {
	for strike := math.Ceil(spot); strike <= spot*2; strike += strikeStep {
		delta := options.ComputeGreeks(s.pricingInput(spot, strike, years)).Delta
		if delta > s.cfg.MaxDelta {
			continue
		}
		if delta < s.cfg.MinDelta {
			return 0, false
		}
		return strike, true
	}
	return 0, false
}

func (s *CoveredCall) pricingInput(spot, strike, years float64) options.PricingInput {
	return options.PricingInput{
		Spot:     spot,
		Strike:   strike,
		Years:    years,
		Vol:      s.sigma(years, strike),
		RiskFree: s.cfg.RiskFree,
		DivYield: s.cfg.DivYield,
		Type:     options.TypeCall,
	}
}

func (s *CoveredCall) sigma(years, strike float64) float64 {
	if s.surface != nil {
		if v := s.surface.Volatility(years, strike); !math.IsNaN(v) && v > 0 {
			return v
		}
	}
	return s.cfg.Vol
}

func (s *CoveredCall) newOrder(order schema.Order, underlying string) schema.Order {
	s.seq++
	order.OrderID = schema.MakeOrderID(orderPrefix, order.Symbol, s.seq)
	s.live[order.OrderID] = underlying
	s.ordersPlaced++
	return order
}

func (s *CoveredCall) hasPending(underlying string) bool {
	for _, u := range s.live {
		if u == underlying {
			return true
		}
	}
	return false
}

func eventPrice(ev schema.Event) (float64, bool) {
	switch ev.Kind {
	case schema.EventMarketData:
		tick, err := ev.Tick()
		if err != nil {
			return 0, false
		}
		return tick.Price.Float(), true
	case schema.EventQuote:
		quote, err := ev.Quote()
		if err != nil {
			return 0, false
		}
		mid, ok := quote.Mid()
		return mid.Float(), ok
	default:
		return 0, false
	}
}
