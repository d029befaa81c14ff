package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is one immutable capture of broker-reported portfolio state.
// Snapshots are created once per export ingestion and never mutated; they
// are ordered by CreatedAt.
type Snapshot struct {
	ID          int64           `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	TotalEquity decimal.Decimal `json:"total_equity"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	Holdings    []Holding       `json:"holdings"`
}

// Holding is a single position inside a snapshot. A snapshot carries at
// most one holding per symbol.
type Holding struct {
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	MarketValue decimal.Decimal `json:"market_value"`
}

// HoldingBySymbol returns the holding for symbol, if present.
func (s *Snapshot) HoldingBySymbol(symbol string) (Holding, bool) {
	for _, h := range s.Holdings {
		if h.Symbol == symbol {
			return h, true
		}
	}
	return Holding{}, false
}

// HoldingsValue sums the market values of all holdings.
func (s *Snapshot) HoldingsValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range s.Holdings {
		total = total.Add(h.MarketValue)
	}
	return total
}

// HoldingRow is one parsed line of a broker export, the input to ledger
// ingestion. Schema-level validation (required columns, numeric types) is
// the importer's job; the ledger validates only semantic constraints.
type HoldingRow struct {
	Symbol      string
	Quantity    decimal.Decimal
	CostBasis   decimal.Decimal
	MarketValue decimal.Decimal
}

// StockProfile is best-effort sector metadata cached per symbol. Absence
// never blocks a risk evaluation; the symbol just lands in the unknown
// sector bucket.
type StockProfile struct {
	Symbol       string
	Name         string
	Sector       string
	Industry     string
	AvgVolume20d int64
	UpdatedAt    time.Time
}

// SectorUnknown is the neutral bucket used when no profile exists for a
// symbol.
const SectorUnknown = "Unknown"
