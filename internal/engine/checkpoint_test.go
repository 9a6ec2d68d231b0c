package engine

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/portfolio"
	"main/internal/schema"
)

func TestCheckpointRoundTrip(t *testing.T) {
	p := portfolio.New(decimal.RequireFromString("50000"))
	require.NoError(t, p.ApplyFill(schema.Fill{
		OrderID: "bt_SPY_1",
		Symbol:  "SPY",
		Qty:     100,
		Price:   schema.PriceFromFloat(101.50),
	}))

	cp := makeCheckpoint(p.Snapshot(42), 7)
	path := filepath.Join(t.TempDir(), "nested", "cp.json")
	require.NoError(t, WriteCheckpoint(path, cp))

	got, err := ReadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.TsNs)
	assert.Equal(t, uint64(7), got.EventsProcessed)
	require.Len(t, got.Positions, 1)
	assert.True(t, got.Cash.Equal(cp.Cash))
	assert.NoError(t, CompareCheckpoints(cp, got))
}

func TestCompareCheckpointsDetectsDrift(t *testing.T) {
	base := Checkpoint{
		Cash:      decimal.RequireFromString("100"),
		Positions: []CheckpointEntry{{Symbol: "SPY", Qty: 10, AvgPx: decimal.RequireFromString("5")}},
	}

	moved := base
	moved.Cash = decimal.RequireFromString("99")
	assert.Error(t, CompareCheckpoints(base, moved))

	moved = base
	moved.Positions = []CheckpointEntry{{Symbol: "SPY", Qty: 11, AvgPx: decimal.RequireFromString("5")}}
	assert.Error(t, CompareCheckpoints(base, moved))

	moved = base
	moved.Positions = []CheckpointEntry{{Symbol: "QQQ", Qty: 10, AvgPx: decimal.RequireFromString("5")}}
	assert.Error(t, CompareCheckpoints(base, moved))
}

func TestReadCheckpointMissingFile(t *testing.T) {
	_, err := ReadCheckpoint(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
