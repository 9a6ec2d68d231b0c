package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// Config defines the pre-trade limits. Zero-valued limits are not enforced.
type Config struct {
	MaxOrderNotional    decimal.Decimal `json:"maxOrderNotional" yaml:"maxOrderNotional"`
	MaxPositionNotional decimal.Decimal `json:"maxPositionNotional" yaml:"maxPositionNotional"`
	MaxPortfolioDelta   decimal.Decimal `json:"maxPortfolioDelta" yaml:"maxPortfolioDelta"`
}

// View is the portfolio state a decision is evaluated against.
type View struct {
	PositionQty schema.Quantity
	NetDelta    float64
	RefPrice    schema.Price
}

// Decision is the outcome of a risk check. Reason is empty on acceptance.
type Decision struct {
	Allowed bool
	Reason  string
}

// Predicate screens orders before they reach the fill model. Delta-aware
// strategies substitute their own implementation.
type Predicate interface {
	Evaluate(order schema.Order, view View) Decision
}

// Engine is the stock predicate: order notional, projected position
// notional, and a projected portfolio delta cap using a one-delta-per-unit
// estimate.
type Engine struct {
	cfg Config
}

// NewEngine creates a risk engine with static limits.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate applies the configured limits to an order.
func (e *Engine) Evaluate(order schema.Order, view View) Decision {
	price := order.LimitPx
	if price <= 0 {
		price = view.RefPrice
	}
	priceDec := price.Decimal()

	notional := priceDec.Mul(order.Qty.Abs().Decimal())
	if e.cfg.MaxOrderNotional.IsPositive() && notional.GreaterThan(e.cfg.MaxOrderNotional) {
		return deny(fmt.Sprintf("order notional %s exceeds limit %s", notional, e.cfg.MaxOrderNotional))
	}

	signedQty := order.Qty
	if order.Side == schema.OrderSideSell {
		signedQty = -signedQty
	}

	projectedQty := view.PositionQty + signedQty
	projectedNotional := priceDec.Mul(projectedQty.Abs().Decimal())
	if e.cfg.MaxPositionNotional.IsPositive() && projectedNotional.GreaterThan(e.cfg.MaxPositionNotional) {
		return deny(fmt.Sprintf("projected position notional %s exceeds limit %s", projectedNotional, e.cfg.MaxPositionNotional))
	}

	if e.cfg.MaxPortfolioDelta.IsPositive() {
		projectedDelta := view.NetDelta + float64(signedQty)
		limit, _ := e.cfg.MaxPortfolioDelta.Float64()
		if abs(projectedDelta) > limit {
			return deny(fmt.Sprintf("projected portfolio delta %.2f exceeds limit %s", projectedDelta, e.cfg.MaxPortfolioDelta))
		}
	}

	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
