package main

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/pathgen"
	"main/internal/schema"
	"main/internal/ticklog"
)

func main() {
	out := flag.String("out", "", "Output tick-log path")
	description := flag.String("description", "synthetic path", "File description")
	symbols := flag.String("symbols", "SPY", "Comma-separated symbols")
	seed := flag.Int64("seed", 1, "Random seed (0=wall clock)")
	steps := flag.Int("steps", 1000, "Steps per symbol")
	step := flag.Duration("step", time.Second, "Simulated time between steps")
	startTs := flag.Int64("start-ts", 0, "Starting timestamp in ns since epoch")
	startPrice := flag.Float64("start-price", 100, "Starting price")
	drift := flag.Float64("drift", 0, "Annualised drift")
	vol := flag.Float64("vol", 0.2, "Annualised volatility")
	jumps := flag.Float64("jumps", 0, "Jump intensity per year")
	jumpMean := flag.Float64("jump-mean", 0, "Mean log-jump size")
	jumpStd := flag.Float64("jump-std", 0, "Log-jump standard deviation")
	spreadBps := flag.Float64("spread-bps", 10, "Quoted spread in basis points")
	size := flag.Int64("size", 100, "Trade and quote size")
	flag.Parse()

	if *out == "" {
		log.Fatalf("-out is required")
	}
	startNs := *startTs
	if startNs == 0 {
		startNs = time.Now().UTC().UnixNano()
	}

	gen, err := pathgen.New(pathgen.Config{
		Seed:         *seed,
		Symbols:      strings.Split(*symbols, ","),
		StartPrice:   *startPrice,
		DriftAnnual:  *drift,
		VolAnnual:    *vol,
		JumpsPerYear: *jumps,
		JumpMean:     *jumpMean,
		JumpStdDev:   *jumpStd,
		SpreadBps:    *spreadBps,
		StepNs:       int64(*step),
		Steps:        *steps,
		StartTsNs:    startNs,
		Size:         *size,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	writer, err := ticklog.NewWriter(*out, *description)
	if err != nil {
		log.Fatalf("tick-log init failed: %v", err)
	}

	records := 0
	for !gen.Done() {
		for _, ev := range gen.Next() {
			switch ev.Kind {
			case schema.EventMarketData:
				tick, err := ev.Tick()
				if err == nil {
					err = writer.WriteTick(tick)
				}
				if err != nil {
					log.Fatalf("write tick failed: %v", err)
				}
			case schema.EventQuote:
				quote, err := ev.Quote()
				if err == nil {
					err = writer.WriteQuote(quote)
				}
				if err != nil {
					log.Fatalf("write quote failed: %v", err)
				}
			}
			records++
		}
	}
	if err := writer.Close(); err != nil {
		log.Fatalf("tick-log close failed: %v", err)
	}
	logs.Infof("wrote %d records to %s", records, *out)
}
