package engine

import (
	"time"

	"github.com/google/uuid"

	"main/internal/metrics"
	"main/internal/portfolio"
)

// Status is the terminal state of a run.
type Status uint8

const (
	StatusOk Status = iota
	StatusCancelled
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusCancelled:
		return "cancelled"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Result summarises a completed run. A Cancelled or Aborted result is
// partial: it reflects the portfolio at the point the run stopped.
type Result struct {
	RunID           uuid.UUID
	Status          Status
	StartTsNs       int64
	EndTsNs         int64
	EventsProcessed uint64
	FinalPortfolio  portfolio.State
	Performance     metrics.Performance
	StrategyState   map[string]any
	Errors          []string
	Duration        time.Duration
}
