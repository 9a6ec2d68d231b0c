package vol

import (
	"math"
	"sort"
)

// DefaultVol fills cells that no observation reaches on an otherwise empty
// grid.
const DefaultVol = 0.20

// Point is a single implied-vol observation.
type Point struct {
	Years  float64
	Strike float64
	Vol    float64
}

// Builder accumulates scattered (expiry, strike, vol) observations and
// assembles a rectangular surface from them.
type Builder struct {
	points []Point
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add records one observation. Non-positive vols and expiries are ignored.
func (b *Builder) Add(years, strike, sigma float64) {
	if years <= 0 || strike <= 0 || !(sigma > 0) || math.IsInf(sigma, 0) {
		return
	}
	b.points = append(b.points, Point{Years: years, Strike: strike, Vol: sigma})
}

// Build sorts the unique axes, places the observations, fills unset cells
// from their nearest set neighbour, and returns the surface. With no
// observations at all the result is a single-cell surface at DefaultVol.
func (b *Builder) Build() (*Surface, error) {
	if len(b.points) == 0 {
		return NewSurface([]float64{1}, []float64{1}, [][]float64{{DefaultVol}})
	}

	expiries := uniqueSorted(b.points, func(p Point) float64 { return p.Years })
	strikes := uniqueSorted(b.points, func(p Point) float64 { return p.Strike })

	vols := make([][]float64, len(expiries))
	set := make([][]bool, len(expiries))
	for i := range vols {
		vols[i] = make([]float64, len(strikes))
		set[i] = make([]bool, len(strikes))
	}

	for _, p := range b.points {
		ti := sort.SearchFloat64s(expiries, p.Years)
		ki := sort.SearchFloat64s(strikes, p.Strike)
		// Later observations for the same cell win.
		vols[ti][ki] = p.Vol
		set[ti][ki] = true
	}

	for ti := range vols {
		for ki := range vols[ti] {
			if set[ti][ki] {
				continue
			}
			if sigma, ok := nearestSet(vols, set, ti, ki); ok {
				vols[ti][ki] = sigma
			} else {
				vols[ti][ki] = DefaultVol
			}
		}
	}

	return NewSurface(expiries, strikes, vols)
}

// nearestSet scans expanding square rings around (ti, ki) for a set cell.
func nearestSet(vols [][]float64, set [][]bool, ti, ki int) (float64, bool) {
	rows := len(set)
	cols := len(set[0])
	maxRadius := rows
	if cols > maxRadius {
		maxRadius = cols
	}

	for radius := 1; radius <= maxRadius; radius++ {
		for dr := -radius; dr <= radius; dr++ {
			for dc := -radius; dc <= radius; dc++ {
				if absInt(dr) != radius && absInt(dc) != radius {
					continue
				}
				r, c := ti+dr, ki+dc
				if r < 0 || r >= rows || c < 0 || c >= cols {
					continue
				}
				if set[r][c] {
					return vols[r][c], true
				}
			}
		}
	}
	return 0, false
}

func uniqueSorted(points []Point, key func(Point) float64) []float64 {
	values := make([]float64, 0, len(points))
	for _, p := range points {
		values = append(values, key(p))
	}
	sort.Float64s(values)

	out := values[:0]
	for i, v := range values {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
