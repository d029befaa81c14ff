package inference

import (
	"context"
	"fmt"

	"tradeguard/internal/logger"
	"tradeguard/internal/store/gormstore"
	"tradeguard/internal/types"
)

// Engine reconciles newly ingested snapshots against their predecessor and
// records the inferred trades. It is read-only with respect to snapshots.
type Engine struct {
	store *gormstore.Store
}

func NewEngine(store *gormstore.Store) *Engine {
	return &Engine{store: store}
}

// DiffSnapshots diffs two stored snapshots by id without touching the trade
// log. Useful for replaying history.
func (e *Engine) DiffSnapshots(ctx context.Context, oldID, newID int64) ([]types.InferredTrade, error) {
	oldSnap, found, err := e.store.SnapshotByID(ctx, oldID)
	if err != nil {
		return nil, fmt.Errorf("inference: loading snapshot %d failed: %w", oldID, err)
	}
	if !found {
		return nil, fmt.Errorf("inference: snapshot %d does not exist", oldID)
	}
	newSnap, found, err := e.store.SnapshotByID(ctx, newID)
	if err != nil {
		return nil, fmt.Errorf("inference: loading snapshot %d failed: %w", newID, err)
	}
	if !found {
		return nil, fmt.Errorf("inference: snapshot %d does not exist", newID)
	}
	return Diff(oldSnap, newSnap), nil
}

// ReconcileLatest diffs the two most recent snapshots and appends the
// result to the trade log. With fewer than two snapshots there is nothing
// to compare and the result is empty, not an error.
func (e *Engine) ReconcileLatest(ctx context.Context) ([]types.InferredTrade, error) {
	snaps, err := e.store.RecentSnapshots(ctx, 2)
	if err != nil {
		return nil, fmt.Errorf("inference: loading snapshots failed: %w", err)
	}
	if len(snaps) < 2 {
		logger.Infof("inference: no previous snapshot to compare")
		return nil, nil
	}
	// RecentSnapshots returns newest first.
	trades := Diff(snaps[1], snaps[0])
	if len(trades) == 0 {
		logger.Infof("inference: snapshots %d -> %d show no position changes", snaps[1].ID, snaps[0].ID)
		return nil, nil
	}
	if err := e.store.AppendInferredTrades(ctx, trades); err != nil {
		return nil, fmt.Errorf("inference: persisting trade log failed: %w", err)
	}
	for _, t := range trades {
		logger.Infof("inference: detected %s %s %s shares (snapshot %d)",
			t.Action, t.Symbol, t.Quantity, t.SnapshotID)
	}
	return trades, nil
}
