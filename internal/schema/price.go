package schema

import "github.com/shopspring/decimal"

// PriceScale is the fixed-point scale carried by Price: four fractional
// digits, matching the on-disk tick-log encoding.
const PriceScale = 10_000

// Price is a scaled integer price (value * 10^4).
type Price int64

// PriceFromFloat converts a float price to its scaled representation,
// rounding half away from zero.
func PriceFromFloat(v float64) Price {
	if v >= 0 {
		return Price(v*PriceScale + 0.5)
	}
	return Price(v*PriceScale - 0.5)
}

// PriceFromDecimal converts a decimal price to its scaled representation.
func PriceFromDecimal(d decimal.Decimal) Price {
	return Price(d.Mul(decimal.NewFromInt(PriceScale)).Round(0).IntPart())
}

// Float returns the price as a float64.
func (p Price) Float() float64 {
	return float64(p) / PriceScale
}

// Decimal returns the price as an exact decimal.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -4)
}

// IsZero reports whether the price is unset.
func (p Price) IsZero() bool {
	return p == 0
}

// Quantity is a signed contract or share count.
type Quantity int64

// Decimal returns the quantity as a decimal.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(q))
}

// Abs returns the magnitude of the quantity.
func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// Sign returns -1, 0, or 1.
func (q Quantity) Sign() int {
	switch {
	case q > 0:
		return 1
	case q < 0:
		return -1
	default:
		return 0
	}
}
