package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"main/internal/engine"
	"main/internal/errs"
	"main/internal/fill"
	"main/internal/pathgen"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/strategy"
	"main/internal/vol"
)

// File mirrors the config file layout. Monetary limits are plain floats here
// and convert to decimals during resolution.
type File struct {
	Engine     EngineConfig               `json:"engine"      yaml:"engine"`
	Risk       RiskConfig                 `json:"risk"        yaml:"risk"`
	Fill       FillConfig                 `json:"fill"        yaml:"fill"`
	Strategy   strategy.CoveredCallConfig `json:"strategy"    yaml:"strategy"`
	Source     SourceConfig               `json:"source"      yaml:"source"`
	Store      StoreConfig                `json:"store"       yaml:"store"`
	VolSurface []VolPoint                 `json:"vol_surface" yaml:"vol_surface"`
}

// EngineConfig mirrors the kernel settings.
type EngineConfig struct {
	InitialCash         float64  `json:"initial_cash"         yaml:"initial_cash"`
	CheckpointInterval  uint64   `json:"checkpoint_interval"  yaml:"checkpoint_interval"`
	EnableCheckpointing bool     `json:"enable_checkpointing" yaml:"enable_checkpointing"`
	CheckpointPath      string   `json:"checkpoint_path"      yaml:"checkpoint_path"`
	EnableProgress      bool     `json:"enable_progress"      yaml:"enable_progress"`
	Strict              bool     `json:"strict"               yaml:"strict"`
	Symbols             []string `json:"symbols"              yaml:"symbols"`
}

// RiskConfig mirrors the pre-trade limits; zero disables a limit.
type RiskConfig struct {
	MaxOrderNotional    float64 `json:"max_order_notional"    yaml:"max_order_notional"`
	MaxPositionNotional float64 `json:"max_position_notional" yaml:"max_position_notional"`
	MaxPortfolioDelta   float64 `json:"max_portfolio_delta"   yaml:"max_portfolio_delta"`
}

// FillConfig mirrors the execution simulation settings.
type FillConfig struct {
	Commission float64 `json:"commission" yaml:"commission"`
}

// SourceConfig selects where events come from: recorded tick-log files,
// a synthetic generator, or both (files replay first).
type SourceConfig struct {
	Paths   []string        `json:"paths"   yaml:"paths"`
	Pace    float64         `json:"pace"    yaml:"pace"`
	Pathgen *pathgen.Config `json:"pathgen" yaml:"pathgen"`
}

// StoreConfig controls optional result persistence.
type StoreConfig struct {
	Enabled    bool   `json:"enabled"     yaml:"enabled"`
	ConnString string `json:"conn_string" yaml:"conn_string"`
}

// VolPoint is one scattered volatility observation for the surface builder.
type VolPoint struct {
	Years  float64 `json:"years"  yaml:"years"`
	Strike float64 `json:"strike" yaml:"strike"`
	Sigma  float64 `json:"sigma"  yaml:"sigma"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Engine   engine.Config
	Risk     risk.Config
	Fill     fill.Config
	Strategy strategy.CoveredCallConfig
	Surface  *vol.Surface
	Source   SourceConfig
	Store    StoreConfig
}

// Load reads and resolves a config file. The format follows the extension:
// .yaml/.yml decode as YAML, everything else as JSON.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var file File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return Loaded{}, errs.Wrap(err, "parse config "+path)
	}
	return Resolve(file)
}

// Resolve converts the file layout into runtime configs and validates what
// the component constructors will not see.
func Resolve(file File) (Loaded, error) {
	if err := file.validate(); err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{
		Engine: engine.Config{
			InitialCash:         decimal.NewFromFloat(file.Engine.InitialCash),
			CheckpointInterval:  file.Engine.CheckpointInterval,
			EnableCheckpointing: file.Engine.EnableCheckpointing,
			CheckpointPath:      file.Engine.CheckpointPath,
			EnableProgress:      file.Engine.EnableProgress,
			Strict:              file.Engine.Strict,
			Symbols:             file.Engine.Symbols,
		},
		Risk: risk.Config{
			MaxOrderNotional:    decimal.NewFromFloat(file.Risk.MaxOrderNotional),
			MaxPositionNotional: decimal.NewFromFloat(file.Risk.MaxPositionNotional),
			MaxPortfolioDelta:   decimal.NewFromFloat(file.Risk.MaxPortfolioDelta),
		},
		Fill:     fill.Config{Commission: decimal.NewFromFloat(file.Fill.Commission)},
		Strategy: file.Strategy,
		Source:   file.Source,
		Store:    file.Store,
	}
	if len(loaded.Engine.Symbols) == 0 {
		loaded.Engine.Symbols = file.Strategy.Symbols
	}

	registry := schema.NewRegistry()
	for _, group := range [][]string{loaded.Engine.Symbols, file.Strategy.Symbols} {
		for _, symbol := range group {
			if _, err := registry.Add(symbol); err != nil {
				return Loaded{}, err
			}
		}
	}

	if len(file.VolSurface) > 0 {
		builder := vol.NewBuilder()
		for _, point := range file.VolSurface {
			builder.Add(point.Years, point.Strike, point.Sigma)
		}
		surface, err := builder.Build()
		if err != nil {
			return Loaded{}, errs.Wrap(err, "build volatility surface")
		}
		loaded.Surface = surface
	}
	return loaded, nil
}

func (f File) validate() error {
	if f.Engine.InitialCash < 0 {
		return fmt.Errorf("engine.initial_cash %v negative", f.Engine.InitialCash)
	}
	if f.Risk.MaxOrderNotional < 0 || f.Risk.MaxPositionNotional < 0 || f.Risk.MaxPortfolioDelta < 0 {
		return fmt.Errorf("risk limits must be >= 0")
	}
	if f.Fill.Commission < 0 {
		return fmt.Errorf("fill.commission %v negative", f.Fill.Commission)
	}
	if len(f.Source.Paths) == 0 && f.Source.Pathgen == nil {
		return fmt.Errorf("source needs tick-log paths or a pathgen block")
	}
	if f.Source.Pace < 0 {
		return fmt.Errorf("source.pace %v negative", f.Source.Pace)
	}
	if f.Store.Enabled && f.Store.ConnString == "" {
		return fmt.Errorf("store.conn_string required when store is enabled")
	}
	for i, point := range f.VolSurface {
		if point.Years <= 0 || point.Strike <= 0 || point.Sigma <= 0 {
			return fmt.Errorf("vol_surface[%d] needs positive years, strike, and sigma", i)
		}
	}
	return nil
}
