package pathgen

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"main/internal/options"
	"main/internal/schema"
)

// Config controls the synthetic price-path generator. A fixed Seed makes the
// generated event stream fully deterministic.
type Config struct {
	Seed    int64    `json:"seed"           yaml:"seed"`
	Symbols []string `json:"symbols"        yaml:"symbols"`
	// StartPrice seeds every symbol's path.
	StartPrice float64 `json:"start_price"    yaml:"start_price"`
	// DriftAnnual and VolAnnual are the annualised GBM parameters.
	DriftAnnual float64 `json:"drift_annual"   yaml:"drift_annual"`
	VolAnnual   float64 `json:"vol_annual"     yaml:"vol_annual"`
	// JumpsPerYear is the Poisson intensity of log-price jumps; each jump
	// multiplies the price by exp(JumpMean + JumpStdDev·Z).
	JumpsPerYear float64 `json:"jumps_per_year" yaml:"jumps_per_year"`
	JumpMean     float64 `json:"jump_mean"      yaml:"jump_mean"`
	JumpStdDev   float64 `json:"jump_std_dev"   yaml:"jump_std_dev"`
	// SpreadBps sets the full quoted spread in basis points of the price; bid
	// and ask sit half of it either side of the trade price.
	SpreadBps float64 `json:"spread_bps"     yaml:"spread_bps"`
	StepNs    int64   `json:"step_ns"        yaml:"step_ns"`
	Steps     int     `json:"steps"          yaml:"steps"`
	StartTsNs int64   `json:"start_ts_ns"    yaml:"start_ts_ns"`
	Size      int64   `json:"size"           yaml:"size"`
}

func (c Config) withDefaults() Config {
	if c.StartPrice == 0 {
		c.StartPrice = 100
	}
	if c.VolAnnual == 0 {
		c.VolAnnual = 0.2
	}
	if c.SpreadBps == 0 {
		c.SpreadBps = 10
	}
	if c.StepNs == 0 {
		c.StepNs = int64(time.Second)
	}
	if c.Steps == 0 {
		c.Steps = 1000
	}
	if c.Size == 0 {
		c.Size = 100
	}
	return c
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols empty")
	}
	for _, symbol := range c.Symbols {
		if symbol == "" {
			return fmt.Errorf("symbols contains an empty entry")
		}
	}
	if c.StartPrice <= 0 {
		return fmt.Errorf("start_price must be > 0")
	}
	if c.VolAnnual < 0 {
		return fmt.Errorf("vol_annual must be >= 0")
	}
	if c.JumpsPerYear < 0 {
		return fmt.Errorf("jumps_per_year must be >= 0")
	}
	if c.JumpStdDev < 0 {
		return fmt.Errorf("jump_std_dev must be >= 0")
	}
	if c.SpreadBps < 0 {
		return fmt.Errorf("spread_bps must be >= 0")
	}
	if c.StepNs <= 0 {
		return fmt.Errorf("step_ns must be > 0")
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be > 0")
	}
	if c.Size <= 0 {
		return fmt.Errorf("size must be > 0")
	}
	return nil
}

// Generator walks geometric Brownian paths with Poisson jumps, one per
// symbol, and emits a trade tick plus a quote per symbol per step.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	prices []float64
	tsNs   int64
	step   int
}

// New validates the config and builds the generator. A zero seed falls back
// to the wall clock; pass an explicit seed for reproducible paths.
func New(cfg Config) (*Generator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	prices := make([]float64, len(cfg.Symbols))
	for i := range prices {
		prices[i] = cfg.StartPrice
	}
	return &Generator{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		prices: prices,
		tsNs:   cfg.StartTsNs,
	}, nil
}

// Done reports whether every configured step has been produced.
func (g *Generator) Done() bool {
	return g.step >= g.cfg.Steps
}

// Next advances every symbol by one step and returns its events: a trade tick
// followed by a two-sided quote per symbol, all at the step timestamp. It
// returns nil once the configured step count is exhausted.
func (g *Generator) Next() []schema.Event {
	if g.Done() {
		return nil
	}
	g.step++
	g.tsNs += g.cfg.StepNs

	dt := float64(g.cfg.StepNs) / float64(options.YearNanos)
	events := make([]schema.Event, 0, 2*len(g.cfg.Symbols))
	for i, symbol := range g.cfg.Symbols {
		g.prices[i] = g.advance(g.prices[i], dt)
		px := g.prices[i]
		half := px * g.cfg.SpreadBps / 10_000 / 2

		events = append(events, schema.NewTickEvent(schema.Tick{
			TsNs:   g.tsNs,
			Symbol: symbol,
			Price:  schema.PriceFromFloat(px),
			Qty:    schema.Quantity(g.cfg.Size),
			Kind:   schema.TickTrade,
		}))
		events = append(events, schema.NewQuoteEvent(schema.Quote{
			TsNs:   g.tsNs,
			Symbol: symbol,
			BidPx:  schema.PriceFromFloat(px - half),
			BidSz:  schema.Quantity(g.cfg.Size),
			AskPx:  schema.PriceFromFloat(px + half),
			AskSz:  schema.Quantity(g.cfg.Size),
		}))
	}
	return events
}

// Generate drains the generator into a single slice.
func (g *Generator) Generate() []schema.Event {
	events := make([]schema.Event, 0, 2*len(g.cfg.Symbols)*(g.cfg.Steps-g.step))
	for !g.Done() {
		events = append(events, g.Next()...)
	}
	return events
}

func (g *Generator) advance(price, dt float64) float64 {
	mu, sigma := g.cfg.DriftAnnual, g.cfg.VolAnnual
	logStep := (mu-0.5*sigma*sigma)*dt + sigma*math.Sqrt(dt)*g.rng.NormFloat64()
	if g.cfg.JumpsPerYear > 0 && g.rng.Float64() < g.cfg.JumpsPerYear*dt {
		logStep += g.cfg.JumpMean + g.cfg.JumpStdDev*g.rng.NormFloat64()
	}
	return price * math.Exp(logStep)
}
