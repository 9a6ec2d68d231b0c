package vol

import (
	"errors"
	"math"

	"main/internal/num"
)

var (
	ErrEmptySurface  = errors.New("volatility surface is empty")
	ErrAxisNotSorted = errors.New("volatility surface axis not strictly increasing")
	ErrBadVol        = errors.New("volatility surface cell not positive")
)

// Surface is a rectangular implied-volatility grid over expiry (years) and
// strike. Lookups interpolate bilinearly in total variance, which preserves
// the absence of calendar arbitrage better than interpolating vol directly.
// A surface is immutable after construction and safe for shared reads.
type Surface struct {
	expiries []float64
	strikes  []float64
	vols     [][]float64
}

// NewSurface validates the axes and grid and returns a surface.
func NewSurface(expiries, strikes []float64, vols [][]float64) (*Surface, error) {
	if len(expiries) == 0 || len(strikes) == 0 || len(vols) == 0 {
		return nil, ErrEmptySurface
	}
	if !strictlyIncreasing(expiries) || !strictlyIncreasing(strikes) {
		return nil, ErrAxisNotSorted
	}
	if len(vols) != len(expiries) {
		return nil, ErrEmptySurface
	}
	for _, row := range vols {
		if len(row) != len(strikes) {
			return nil, ErrEmptySurface
		}
		for _, sigma := range row {
			if !(sigma > 0) || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
				return nil, ErrBadVol
			}
		}
	}
	return &Surface{expiries: expiries, strikes: strikes, vols: vols}, nil
}

// Volatility returns the interpolated implied vol for (years, strike).
// Queries clamp to the grid boundary; non-positive expiry returns NaN.
func (s *Surface) Volatility(years, strike float64) float64 {
	if years <= 0 {
		return math.NaN()
	}

	ti, tw := num.AxisIndex(s.expiries, years)
	ki, kw := num.AxisIndex(s.strikes, strike)

	// Grid nodes answer with the stored vol, bypassing the variance round trip.
	if ri, ok := exactAxisHit(s.expiries, ti, tw, years); ok {
		if ci, ok := exactAxisHit(s.strikes, ki, kw, strike); ok {
			return s.vols[ri][ci]
		}
	}

	tj := ti
	if len(s.expiries) > 1 {
		tj = ti + 1
	}
	kj := ki
	if len(s.strikes) > 1 {
		kj = ki + 1
	}

	v00 := s.totalVariance(ti, ki)
	v10 := s.totalVariance(tj, ki)
	v01 := s.totalVariance(ti, kj)
	v11 := s.totalVariance(tj, kj)

	variance := (1-tw)*(1-kw)*v00 + tw*(1-kw)*v10 + (1-tw)*kw*v01 + tw*kw*v11
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance / years)
}

// ExpiryCount returns the number of expiry rows.
func (s *Surface) ExpiryCount() int {
	return len(s.expiries)
}

// StrikeCount returns the number of strike columns.
func (s *Surface) StrikeCount() int {
	return len(s.strikes)
}

// each grid cell contributes sigma^2 * tau, the tau being the cell's own row
// expiry rather than the query expiry.
func (s *Surface) totalVariance(ti, ki int) float64 {
	sigma := s.vols[ti][ki]
	return sigma * sigma * s.expiries[ti]
}

func exactAxisHit(axis []float64, i int, w, x float64) (int, bool) {
	switch {
	case w == 0 && axis[i] == x:
		return i, true
	case w == 1 && i+1 < len(axis) && axis[i+1] == x:
		return i + 1, true
	default:
		return 0, false
	}
}

func strictlyIncreasing(axis []float64) bool {
	for i := 1; i < len(axis); i++ {
		if axis[i] <= axis[i-1] {
			return false
		}
	}
	return true
}
