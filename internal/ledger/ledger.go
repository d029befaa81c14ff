// Package ledger maintains the authoritative, append-only record of
// portfolio state. Each broker export becomes one immutable snapshot; the
// latest snapshot is the single source of truth for positions and sector
// exposure.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradeguard/internal/logger"
	"tradeguard/internal/store/gormstore"
	"tradeguard/internal/types"

	"github.com/shopspring/decimal"
)

// ErrNoSnapshot distinguishes "never imported" from an empty portfolio.
// Callers must branch on it rather than receive a zero-filled snapshot.
var ErrNoSnapshot = errors.New("ledger: no portfolio data imported")

// ErrEquityMismatch marks a stored snapshot whose persisted equity no longer
// matches cash + holdings. It is a data-integrity failure, never silently
// corrected.
var ErrEquityMismatch = errors.New("ledger: snapshot equity does not match cash + holdings")

// equityTolerance absorbs cent-level rounding from broker exports.
var equityTolerance = decimal.NewFromFloat(0.01)

// cashSymbols are money-market instruments brokers report as positions.
// They are folded into the cash balance, never stored as holdings.
var cashSymbols = map[string]struct{}{
	"SPAXX": {},
	"CORE":  {},
	"FDRXX": {},
	"FCASH": {},
}

// IsCashEquivalent reports whether a ticker is a cash-equivalent
// money-market instrument. Fidelity suffixes these with asterisks
// (e.g. FCASH**), so prefixes match too.
func IsCashEquivalent(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if _, ok := cashSymbols[symbol]; ok {
		return true
	}
	return strings.HasPrefix(symbol, "FCASH") || strings.HasPrefix(symbol, "SPAXX")
}

// Ledger ingests parsed broker exports and answers questions about the
// current authoritative portfolio state.
type Ledger struct {
	store *gormstore.Store
	nowFn func() time.Time
}

func New(store *gormstore.Store) *Ledger {
	return &Ledger{store: store, nowFn: time.Now}
}

// Ingest materializes one parsed export as a new snapshot. Cash-equivalent
// rows are folded into the cash balance; total equity is always recomputed
// as cash + sum of market values, never trusted from input. The snapshot
// and its holdings are written atomically; a malformed row fails the whole
// call and no partial snapshot is created.
func (l *Ledger) Ingest(ctx context.Context, rows []types.HoldingRow, cash decimal.Decimal) (int64, error) {
	holdings := make([]types.Holding, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	holdingsValue := decimal.Zero

	for i, row := range rows {
		symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))
		if symbol == "" {
			return 0, fmt.Errorf("ledger: row %d has no symbol", i)
		}
		if row.Quantity.IsNegative() {
			return 0, fmt.Errorf("ledger: row %d (%s) has negative quantity %s", i, symbol, row.Quantity)
		}
		if IsCashEquivalent(symbol) {
			cash = cash.Add(row.MarketValue)
			logger.Debugf("ledger: folded cash equivalent %s into cash balance (+%s)", symbol, row.MarketValue)
			continue
		}
		if _, dup := seen[symbol]; dup {
			return 0, fmt.Errorf("ledger: duplicate symbol %s in export", symbol)
		}
		seen[symbol] = struct{}{}
		holdings = append(holdings, types.Holding{
			Symbol:      symbol,
			Quantity:    row.Quantity,
			CostBasis:   row.CostBasis,
			MarketValue: row.MarketValue,
		})
		holdingsValue = holdingsValue.Add(row.MarketValue)
	}

	// Pending-activity debits arrive as negative starting cash; the folded
	// money-market rows must cover them.
	if cash.IsNegative() {
		return 0, fmt.Errorf("ledger: negative cash balance %s after folding cash equivalents", cash)
	}

	snap := types.Snapshot{
		CreatedAt:   l.nowFn(),
		TotalEquity: cash.Add(holdingsValue),
		CashBalance: cash,
		Holdings:    holdings,
	}
	id, err := l.store.CreateSnapshot(ctx, snap)
	if err != nil {
		return 0, fmt.Errorf("ledger: persisting snapshot failed: %w", err)
	}
	logger.Infof("ledger: snapshot %d imported (equity=%s cash=%s holdings=%d)",
		id, snap.TotalEquity.StringFixed(2), cash.StringFixed(2), len(holdings))
	return id, nil
}

// Latest returns the most recent snapshot, verifying the equity invariant
// before handing it out.
func (l *Ledger) Latest(ctx context.Context) (types.Snapshot, error) {
	snap, ok, err := l.store.LatestSnapshot(ctx)
	if err != nil {
		return types.Snapshot{}, err
	}
	if !ok {
		return types.Snapshot{}, ErrNoSnapshot
	}
	if err := checkEquity(snap); err != nil {
		return types.Snapshot{}, err
	}
	return snap, nil
}

// PositionOf returns the current holding for symbol from the latest
// snapshot only. The second return value is false when the symbol is not
// held.
func (l *Ledger) PositionOf(ctx context.Context, symbol string) (types.Holding, bool, error) {
	snap, err := l.Latest(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			return types.Holding{}, false, nil
		}
		return types.Holding{}, false, err
	}
	h, ok := snap.HoldingBySymbol(strings.ToUpper(strings.TrimSpace(symbol)))
	return h, ok, nil
}

// SectorExposure sums the market values of all current holdings classified
// into sector. Symbols without a cached profile count toward the Unknown
// bucket. Only the latest snapshot is consulted.
func (l *Ledger) SectorExposure(ctx context.Context, sector string) (decimal.Decimal, error) {
	snap, err := l.Latest(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	symbols := make([]string, 0, len(snap.Holdings))
	for _, h := range snap.Holdings {
		symbols = append(symbols, h.Symbol)
	}
	profiles, err := l.store.StockProfiles(ctx, symbols)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, h := range snap.Holdings {
		if sectorOf(profiles, h.Symbol) == sector {
			total = total.Add(h.MarketValue)
		}
	}
	return total, nil
}

// SectorOf resolves the cached sector for a symbol, falling back to the
// Unknown bucket.
func (l *Ledger) SectorOf(ctx context.Context, symbol string) (string, error) {
	p, ok, err := l.store.StockProfile(ctx, symbol)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(p.Sector) == "" {
		return types.SectorUnknown, nil
	}
	return p.Sector, nil
}

func sectorOf(profiles map[string]types.StockProfile, symbol string) string {
	if p, ok := profiles[symbol]; ok && strings.TrimSpace(p.Sector) != "" {
		return p.Sector
	}
	return types.SectorUnknown
}

func checkEquity(snap types.Snapshot) error {
	expected := snap.CashBalance.Add(snap.HoldingsValue())
	if snap.TotalEquity.Sub(expected).Abs().GreaterThan(equityTolerance) {
		return fmt.Errorf("%w: snapshot %d stored=%s computed=%s",
			ErrEquityMismatch, snap.ID, snap.TotalEquity, expected)
	}
	return nil
}
