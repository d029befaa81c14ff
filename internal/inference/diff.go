// Package inference explains how portfolio state changed between two
// snapshots without relying on any external trade feed: the holdings of
// adjacent snapshots are diffed and the deltas are emitted as inferred
// buy/sell events.
package inference

import (
	"sort"

	"tradeguard/internal/types"

	"github.com/shopspring/decimal"
)

// Diff compares the holdings of two chronologically adjacent snapshots and
// returns the inferred trades explaining the change. A symbol present only
// in the newer snapshot is a BUY of its full quantity; a symbol that
// disappeared is a SELL of the prior full quantity. Output is ordered
// lexicographically by symbol so runs are reproducible.
func Diff(oldSnap, newSnap types.Snapshot) []types.InferredTrade {
	oldQty := quantitiesBySymbol(oldSnap)
	newQty := quantitiesBySymbol(newSnap)

	symbols := make([]string, 0, len(oldQty)+len(newQty))
	seen := make(map[string]struct{}, len(oldQty)+len(newQty))
	for sym := range oldQty {
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	for sym := range newQty {
		if _, ok := seen[sym]; !ok {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	var trades []types.InferredTrade
	for _, sym := range symbols {
		delta := newQty[sym].Sub(oldQty[sym])
		if delta.IsZero() {
			continue
		}
		action := types.ActionBuy
		if delta.IsNegative() {
			action = types.ActionSell
		}
		trades = append(trades, types.InferredTrade{
			Symbol:     sym,
			Action:     action,
			Quantity:   delta.Abs(),
			SnapshotID: newSnap.ID,
			InferredAt: newSnap.CreatedAt,
		})
	}
	return trades
}

func quantitiesBySymbol(snap types.Snapshot) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(snap.Holdings))
	for _, h := range snap.Holdings {
		out[h.Symbol] = h.Quantity
	}
	return out
}
