package options

import (
	"math"

	"main/internal/num"
)

const (
	// MinExpiry is the floor applied to time-to-expiry before pricing.
	MinExpiry = 1e-6
	// MinVol and MaxVol bound the volatility input before pricing.
	MinVol = 1e-3
	MaxVol = 5.0

	daysPerYear = 365.25
)

// PricingInput bundles the Black-Scholes inputs.
type PricingInput struct {
	Spot     float64
	Strike   float64
	Years    float64
	Vol      float64
	RiskFree float64
	DivYield float64
	Type     Type
}

func (in PricingInput) clamped() (PricingInput, bool) {
	if in.Spot <= 0 || in.Strike <= 0 || in.Vol <= 0 {
		return in, false
	}
	if in.Years < MinExpiry {
		in.Years = MinExpiry
	}
	in.Vol = num.Clamp(in.Vol, MinVol, MaxVol)
	return in, true
}

// Price returns the Black-Scholes price of the option. Degenerate inputs
// (non-positive spot, strike, or vol) price to 0.
func Price(in PricingInput) float64 {
	in, ok := in.clamped()
	if !ok {
		return 0
	}

	d1, d2 := dValues(in)
	discQ := math.Exp(-in.DivYield * in.Years)
	discR := math.Exp(-in.RiskFree * in.Years)

	if in.Type == TypePut {
		return in.Strike*discR*num.NormCDF(-d2) - in.Spot*discQ*num.NormCDF(-d1)
	}
	return in.Spot*discQ*num.NormCDF(d1) - in.Strike*discR*num.NormCDF(d2)
}

// PriceAndGreeks computes the price and all first-order sensitivities in a
// single pass sharing d1/d2. Theta is per calendar day, Vega per vol-point,
// Rho per rate-point.
func PriceAndGreeks(in PricingInput) (float64, Greeks) {
	in, ok := in.clamped()
	if !ok {
		return 0, Greeks{}
	}

	d1, d2 := dValues(in)
	sqrtT := math.Sqrt(in.Years)
	discQ := math.Exp(-in.DivYield * in.Years)
	discR := math.Exp(-in.RiskFree * in.Years)
	nd1 := num.NormPDF(d1)

	var price, delta, thetaYear, rho float64
	switch in.Type {
	case TypePut:
		price = in.Strike*discR*num.NormCDF(-d2) - in.Spot*discQ*num.NormCDF(-d1)
		delta = discQ * (num.NormCDF(d1) - 1)
		thetaYear = -in.Spot*discQ*nd1*in.Vol/(2*sqrtT) -
			in.DivYield*in.Spot*discQ*num.NormCDF(-d1) +
			in.RiskFree*in.Strike*discR*num.NormCDF(-d2)
		rho = -in.Years * in.Strike * discR * num.NormCDF(-d2) / 100
	default:
		price = in.Spot*discQ*num.NormCDF(d1) - in.Strike*discR*num.NormCDF(d2)
		delta = discQ * num.NormCDF(d1)
		thetaYear = -in.Spot*discQ*nd1*in.Vol/(2*sqrtT) +
			in.DivYield*in.Spot*discQ*num.NormCDF(d1) -
			in.RiskFree*in.Strike*discR*num.NormCDF(d2)
		rho = in.Years * in.Strike * discR * num.NormCDF(d2) / 100
	}

	greeks := Greeks{
		Delta: delta,
		Gamma: discQ * nd1 / (in.Spot * in.Vol * sqrtT),
		Theta: thetaYear / daysPerYear,
		Vega:  in.Spot * discQ * nd1 * sqrtT / 100,
		Rho:   rho,
	}
	return price, greeks
}

// ComputeGreeks returns only the sensitivities of the option.
func ComputeGreeks(in PricingInput) Greeks {
	_, greeks := PriceAndGreeks(in)
	return greeks
}

// ParityGap returns (C - P) - (S*e^{-qT} - K*e^{-rT}) for the call/put pair at
// the given inputs. It should vanish for any arbitrage-free pricer.
func ParityGap(in PricingInput) float64 {
	in.Type = TypeCall
	call := Price(in)
	in.Type = TypePut
	put := Price(in)

	years := in.Years
	if years < MinExpiry {
		years = MinExpiry
	}
	forward := in.Spot*math.Exp(-in.DivYield*years) - in.Strike*math.Exp(-in.RiskFree*years)
	return (call - put) - forward
}

// DiscountedIntrinsic returns the discounted intrinsic value, the lower bound
// of any rational option price.
func DiscountedIntrinsic(in PricingInput) float64 {
	years := in.Years
	if years < 0 {
		years = 0
	}
	forward := in.Spot*math.Exp(-in.DivYield*years) - in.Strike*math.Exp(-in.RiskFree*years)
	if in.Type == TypePut {
		forward = -forward
	}
	return math.Max(0, forward)
}

func dValues(in PricingInput) (float64, float64) {
	sqrtT := math.Sqrt(in.Years)
	d1 := (math.Log(in.Spot/in.Strike) + (in.RiskFree-in.DivYield+in.Vol*in.Vol/2)*in.Years) / (in.Vol * sqrtT)
	return d1, d1 - in.Vol*sqrtT
}
