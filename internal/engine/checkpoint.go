package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"main/internal/portfolio"
)

// Checkpoint is the resume record written every checkpoint interval. Positions
// are sorted by symbol so identical portfolios serialise identically.
type Checkpoint struct {
	TsNs            int64             `json:"tsNs"`
	EventsProcessed uint64            `json:"eventsProcessed"`
	Cash            decimal.Decimal   `json:"cash"`
	RealisedPnl     decimal.Decimal   `json:"realisedPnl"`
	Positions       []CheckpointEntry `json:"positions"`
}

// CheckpointEntry is a single open position in a checkpoint.
type CheckpointEntry struct {
	Symbol string          `json:"symbol"`
	Qty    int64           `json:"qty"`
	AvgPx  decimal.Decimal `json:"avgPx"`
	MarkPx decimal.Decimal `json:"markPx"`
}

// makeCheckpoint renders a portfolio snapshot as a checkpoint record.
func makeCheckpoint(snap portfolio.State, eventsProcessed uint64) Checkpoint {
	entries := make([]CheckpointEntry, 0, len(snap.Positions))
	for _, pos := range snap.Positions {
		entries = append(entries, CheckpointEntry{
			Symbol: pos.Symbol,
			Qty:    int64(pos.Qty),
			AvgPx:  pos.AvgPx,
			MarkPx: pos.MarkPx,
		})
	}
	return Checkpoint{
		TsNs:            snap.TsNs,
		EventsProcessed: eventsProcessed,
		Cash:            snap.Cash,
		RealisedPnl:     snap.RealisedPnl,
		Positions:       entries,
	}
}

// WriteCheckpoint writes a checkpoint to disk as JSON, creating parent
// directories as needed.
func WriteCheckpoint(path string, cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadCheckpoint loads a checkpoint from disk.
func ReadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}

// CompareCheckpoints checks that two checkpoints describe the same portfolio.
func CompareCheckpoints(expected, actual Checkpoint) error {
	if !expected.Cash.Equal(actual.Cash) {
		return fmt.Errorf("checkpoint cash mismatch: expected=%s actual=%s", expected.Cash, actual.Cash)
	}
	if !expected.RealisedPnl.Equal(actual.RealisedPnl) {
		return fmt.Errorf("checkpoint realised mismatch: expected=%s actual=%s", expected.RealisedPnl, actual.RealisedPnl)
	}
	if len(expected.Positions) != len(actual.Positions) {
		return fmt.Errorf("checkpoint length mismatch: expected=%d actual=%d", len(expected.Positions), len(actual.Positions))
	}
	expectedMap := make(map[string]CheckpointEntry, len(expected.Positions))
	for _, entry := range expected.Positions {
		expectedMap[entry.Symbol] = entry
	}
	for _, entry := range actual.Positions {
		want, ok := expectedMap[entry.Symbol]
		if !ok {
			return fmt.Errorf("checkpoint missing symbol: %s", entry.Symbol)
		}
		if want.Qty != entry.Qty || !want.AvgPx.Equal(entry.AvgPx) {
			return fmt.Errorf("checkpoint position mismatch: symbol=%s expected=%d@%s actual=%d@%s",
				entry.Symbol, want.Qty, want.AvgPx, entry.Qty, entry.AvgPx)
		}
	}
	return nil
}
