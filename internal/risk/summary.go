package risk

import (
	"context"

	"tradeguard/internal/config"
)

// Summary reports current portfolio risk posture for dashboards and the
// HTTP API. It is a read-only projection of the latest snapshot.
type Summary struct {
	TotalEquity    float64           `json:"total_equity"`
	CashBalance    float64           `json:"cash_balance"`
	InvestedAmount float64           `json:"invested_amount"`
	CashPct        float64           `json:"cash_pct"`
	NumPositions   int               `json:"num_positions"`
	LargestSymbol  string            `json:"largest_position,omitempty"`
	LargestPct     float64           `json:"largest_position_pct"`
	Limits         config.RiskConfig `json:"limits"`
}

// Summarize computes portfolio risk metrics from the latest snapshot.
// ledger.ErrNoSnapshot passes through so callers can distinguish "never
// imported" from an all-cash portfolio.
func (e *Evaluator) Summarize(ctx context.Context) (Summary, error) {
	snap, err := e.ledger.Latest(ctx)
	if err != nil {
		return Summary{}, err
	}
	equity, _ := snap.TotalEquity.Float64()
	cash, _ := snap.CashBalance.Float64()

	s := Summary{
		TotalEquity:    equity,
		CashBalance:    cash,
		InvestedAmount: equity - cash,
		NumPositions:   len(snap.Holdings),
		Limits:         e.cfg,
	}
	if equity > 0 {
		s.CashPct = cash / equity * 100
	}
	for _, h := range snap.Holdings {
		value, _ := h.MarketValue.Float64()
		if equity > 0 {
			pct := value / equity * 100
			if pct > s.LargestPct {
				s.LargestPct = pct
				s.LargestSymbol = h.Symbol
			}
		}
	}
	return s, nil
}
