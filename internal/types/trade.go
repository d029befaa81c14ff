package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the direction of a proposed or inferred trade.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// InferredTrade is derived by diffing the holdings of two chronologically
// adjacent snapshots. It is persisted to the audit log keyed by the newer
// snapshot's id and never mutated afterwards.
type InferredTrade struct {
	Symbol     string          `json:"symbol"`
	Action     Action          `json:"action"`
	Quantity   decimal.Decimal `json:"quantity"`
	SnapshotID int64           `json:"snapshot_id"`
	InferredAt time.Time       `json:"inferred_at"`
}

// TradeProposal is the unvalidated suggestion produced by the external
// recommendation generator. Confidence is informational only; it is logged
// with the decision but never gates a constraint.
type TradeProposal struct {
	Symbol          string
	Action          Action
	SuggestedStop   float64
	SuggestedTarget float64
	Confidence      float64
}

// MarketContext is the fixed per-symbol market view an evaluation runs
// against: last price, an ATR volatility measure, rolling average daily
// volume and sector classification. AvgDailyVolume == 0 means unknown and
// the liquidity gate fails closed on it.
type MarketContext struct {
	Symbol         string
	Price          float64
	ATR            float64
	AvgDailyVolume int64
	Sector         string
}

// RiskDecision is the immutable result of one proposal evaluation. One
// decision is written per evaluation, approved or not, forming the audit
// trail.
type RiskDecision struct {
	ID         int64   `json:"id"`
	TraceID    string  `json:"trace_id"`
	Symbol     string  `json:"symbol"`
	Action     Action  `json:"action"`
	Approved   bool    `json:"approved"`
	Reason     string  `json:"reason"`
	Shares     int64   `json:"shares"`
	StopLoss   float64 `json:"stop_loss"`
	RiskAmount float64 `json:"risk_amount"`

	// Inputs captured for after-the-fact reconstruction.
	Price       float64   `json:"price"`
	Equity      float64   `json:"equity"`
	Sector      string    `json:"sector"`
	Confidence  float64   `json:"confidence"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// SignedShares returns the authorized share count with direction encoded in
// the sign: positive for buys, negative for sells, zero otherwise.
func (d RiskDecision) SignedShares() int64 {
	if !d.Approved {
		return 0
	}
	switch d.Action {
	case ActionBuy:
		return d.Shares
	case ActionSell:
		return -d.Shares
	default:
		return 0
	}
}

// SellValue reports the notional of an approved sell at the captured price.
func (d RiskDecision) SellValue() decimal.Decimal {
	if !d.Approved || d.Action != ActionSell {
		return decimal.Zero
	}
	return decimal.NewFromInt(d.Shares).Mul(decimal.NewFromFloat(d.Price))
}
