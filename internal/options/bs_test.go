package options

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureInput(optType Type) PricingInput {
	return PricingInput{
		Spot:     100,
		Strike:   105,
		Years:    0.25,
		Vol:      0.2,
		RiskFree: 0.05,
		DivYield: 0.01,
		Type:     optType,
	}
}

func TestPriceFixture(t *testing.T) {
	call := Price(fixtureInput(TypeCall))
	put := Price(fixtureInput(TypePut))

	require.Greater(t, call, 0.0)
	require.Greater(t, put, 0.0)

	parity := ParityGap(fixtureInput(TypeCall))
	assert.Less(t, math.Abs(parity), 1e-6)
}

func TestPriceDegenerateInputs(t *testing.T) {
	tests := []struct {
		name string
		in   PricingInput
	}{
		{"zero spot", PricingInput{Spot: 0, Strike: 100, Years: 1, Vol: 0.2}},
		{"zero strike", PricingInput{Spot: 100, Strike: 0, Years: 1, Vol: 0.2}},
		{"zero vol", PricingInput{Spot: 100, Strike: 100, Years: 1, Vol: 0}},
		{"negative spot", PricingInput{Spot: -5, Strike: 100, Years: 1, Vol: 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Price(tt.in); got != 0 {
				t.Fatalf("expected 0 price, got %v", got)
			}
		})
	}
}

func TestPutCallParitySweep(t *testing.T) {
	spots := []float64{1, 10, 100, 1000, 10000}
	strikes := []float64{1, 50, 100, 500, 10000}
	years := []float64{1e-4, 0.1, 1, 5}
	vols := []float64{0.01, 0.2, 0.8, 2}
	rates := []float64{-0.1, 0, 0.05, 0.3}

	for _, s := range spots {
		for _, k := range strikes {
			for _, ty := range years {
				for _, v := range vols {
					for _, r := range rates {
						in := PricingInput{Spot: s, Strike: k, Years: ty, Vol: v, RiskFree: r, DivYield: r / 2}
						gap := ParityGap(in)
						if math.Abs(gap) >= 1e-6 {
							t.Fatalf("parity violated: S=%v K=%v T=%v vol=%v r=%v gap=%v", s, k, ty, v, r, gap)
						}
					}
				}
			}
		}
	}
}

func TestGreekSigns(t *testing.T) {
	in := fixtureInput(TypeCall)
	callPrice, callGreeks := PriceAndGreeks(in)
	in.Type = TypePut
	putPrice, putGreeks := PriceAndGreeks(in)

	require.Greater(t, callPrice, 0.0)
	require.Greater(t, putPrice, 0.0)

	assert.Greater(t, callGreeks.Delta, 0.0)
	assert.Less(t, callGreeks.Delta, 1.0)
	assert.Greater(t, putGreeks.Delta, -1.0)
	assert.Less(t, putGreeks.Delta, 0.0)
	assert.Greater(t, callGreeks.Gamma, 0.0)
	assert.Greater(t, callGreeks.Vega, 0.0)
	assert.Less(t, callGreeks.Theta, 0.0)
}

func TestGreekSignsSweep(t *testing.T) {
	for _, s := range []float64{50, 100, 200} {
		for _, k := range []float64{80, 100, 120} {
			for _, ty := range []float64{0.05, 0.5, 2} {
				for _, v := range []float64{0.1, 0.3, 0.8} {
					in := PricingInput{Spot: s, Strike: k, Years: ty, Vol: v, RiskFree: 0.03, DivYield: 0.01, Type: TypeCall}
					_, call := PriceAndGreeks(in)
					in.Type = TypePut
					_, put := PriceAndGreeks(in)

					if call.Delta < 0 || call.Delta > 1 {
						t.Fatalf("call delta out of [0,1]: %+v in=%+v", call, in)
					}
					if put.Delta < -1 || put.Delta > 0 {
						t.Fatalf("put delta out of [-1,0]: %+v in=%+v", put, in)
					}
					if call.Gamma < 0 || call.Vega < 0 {
						t.Fatalf("gamma/vega negative: %+v in=%+v", call, in)
					}
				}
			}
		}
	}
}

func TestPriceAndGreeksAgreeWithSeparateCalls(t *testing.T) {
	for _, optType := range []Type{TypeCall, TypePut} {
		in := fixtureInput(optType)
		price, greeks := PriceAndGreeks(in)

		assert.InDelta(t, Price(in), price, 1e-9)
		single := ComputeGreeks(in)
		assert.InDelta(t, single.Delta, greeks.Delta, 1e-9)
		assert.InDelta(t, single.Gamma, greeks.Gamma, 1e-9)
		assert.InDelta(t, single.Theta, greeks.Theta, 1e-9)
		assert.InDelta(t, single.Vega, greeks.Vega, 1e-9)
		assert.InDelta(t, single.Rho, greeks.Rho, 1e-9)
	}
}

func TestDeepITMCallDeltaNearOne(t *testing.T) {
	in := PricingInput{Spot: 500, Strike: 10, Years: 0.5, Vol: 0.2, RiskFree: 0.02, Type: TypeCall}
	_, greeks := PriceAndGreeks(in)
	assert.Greater(t, greeks.Delta, 0.95)
}

func TestExpiryClampedToFloor(t *testing.T) {
	in := fixtureInput(TypeCall)
	in.Years = 0
	price := Price(in)
	assert.False(t, math.IsNaN(price))
	assert.GreaterOrEqual(t, price, 0.0)
}
