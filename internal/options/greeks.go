package options

// Greeks holds the first-order sensitivities of an option price.
// Theta is reported per calendar day, Vega per 1 vol-point, Rho per 1
// rate-point.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// Add returns the component-wise sum of g and other.
func (g Greeks) Add(other Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + other.Delta,
		Gamma: g.Gamma + other.Gamma,
		Theta: g.Theta + other.Theta,
		Vega:  g.Vega + other.Vega,
		Rho:   g.Rho + other.Rho,
	}
}

// Sub returns the component-wise difference of g and other.
func (g Greeks) Sub(other Greeks) Greeks {
	return Greeks{
		Delta: g.Delta - other.Delta,
		Gamma: g.Gamma - other.Gamma,
		Theta: g.Theta - other.Theta,
		Vega:  g.Vega - other.Vega,
		Rho:   g.Rho - other.Rho,
	}
}

// Scale returns g multiplied by factor.
func (g Greeks) Scale(factor float64) Greeks {
	return Greeks{
		Delta: g.Delta * factor,
		Gamma: g.Gamma * factor,
		Theta: g.Theta * factor,
		Vega:  g.Vega * factor,
		Rho:   g.Rho * factor,
	}
}
