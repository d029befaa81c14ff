package inference

import (
	"testing"
	"time"

	"tradeguard/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(id int64, positions map[string]float64) types.Snapshot {
	s := types.Snapshot{ID: id, CreatedAt: time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)}
	for sym, qty := range positions {
		s.Holdings = append(s.Holdings, types.Holding{
			Symbol:   sym,
			Quantity: decimal.NewFromFloat(qty),
		})
	}
	return s
}

func TestDiffDetectsBuysAndSells(t *testing.T) {
	oldSnap := snapshot(1, map[string]float64{"AAPL": 10, "MSFT": 5})
	newSnap := snapshot(2, map[string]float64{"AAPL": 15, "MSFT": 0, "NVDA": 3})

	trades := Diff(oldSnap, newSnap)
	require.Len(t, trades, 3)

	// Lexicographic symbol order.
	assert.Equal(t, "AAPL", trades[0].Symbol)
	assert.Equal(t, types.ActionBuy, trades[0].Action)
	assert.True(t, trades[0].Quantity.Equal(decimal.NewFromInt(5)))

	assert.Equal(t, "MSFT", trades[1].Symbol)
	assert.Equal(t, types.ActionSell, trades[1].Action)
	assert.True(t, trades[1].Quantity.Equal(decimal.NewFromInt(5)))

	assert.Equal(t, "NVDA", trades[2].Symbol)
	assert.Equal(t, types.ActionBuy, trades[2].Action)
	assert.True(t, trades[2].Quantity.Equal(decimal.NewFromInt(3)))

	for _, tr := range trades {
		assert.Equal(t, int64(2), tr.SnapshotID, "trades belong to the newer snapshot")
	}
}

func TestDiffDisappearedSymbolIsFullSell(t *testing.T) {
	oldSnap := snapshot(1, map[string]float64{"XOM": 20})
	newSnap := snapshot(2, nil)

	trades := Diff(oldSnap, newSnap)
	require.Len(t, trades, 1)
	assert.Equal(t, types.ActionSell, trades[0].Action)
	assert.True(t, trades[0].Quantity.Equal(decimal.NewFromInt(20)))
}

func TestDiffUnchangedHoldingsProduceNothing(t *testing.T) {
	oldSnap := snapshot(1, map[string]float64{"AAPL": 10})
	newSnap := snapshot(2, map[string]float64{"AAPL": 10})

	assert.Empty(t, Diff(oldSnap, newSnap))
}

func TestDiffFractionalShares(t *testing.T) {
	oldSnap := snapshot(1, map[string]float64{"AAPL": 10.25})
	newSnap := snapshot(2, map[string]float64{"AAPL": 10.75})

	trades := Diff(oldSnap, newSnap)
	require.Len(t, trades, 1)
	assert.Equal(t, types.ActionBuy, trades[0].Action)
	assert.True(t, trades[0].Quantity.Equal(decimal.NewFromFloat(0.5)), "got %s", trades[0].Quantity)
}

func TestDiffEmptySnapshots(t *testing.T) {
	assert.Empty(t, Diff(snapshot(1, nil), snapshot(2, nil)))
}
