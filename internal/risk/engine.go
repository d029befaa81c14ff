// Package risk is the single gate every proposed trade must pass. Given a
// proposal, the latest portfolio state and market context, it computes an
// approved order (share count plus stop-loss) or a veto with a specific
// reason. The evaluation is a pure function of its inputs: no probabilistic
// signal, including the proposal's own confidence value, ever changes
// whether a constraint is enforced.
package risk

import (
	"math"

	"tradeguard/internal/config"
	"tradeguard/internal/types"
)

// PortfolioView is the slice of ledger state one evaluation runs against.
// It is captured once per batch so concurrent evaluations cannot observe an
// ingestion racing with them.
type PortfolioView struct {
	Equity         float64
	Cash           float64
	PositionShares float64 // held shares of the proposal's symbol
	PositionValue  float64 // market value of that position
	Sector         string  // sector of the proposal's symbol
	SectorExposure float64 // current market value held in that sector
}

// fallbackStopPct sizes the stop when neither a suggested stop nor an ATR
// is available: 5% below entry.
const fallbackStopPct = 0.05

// Evaluate validates one proposal. mkt == nil means the market context
// provider reported the symbol unavailable, which is an automatic
// rejection; defaults are never substituted for missing market data.
//
// Evaluate never touches storage or clocks; identical inputs produce
// identical decisions.
func Evaluate(p types.TradeProposal, view PortfolioView, mkt *types.MarketContext, cfg config.RiskConfig) types.RiskDecision {
	d := types.RiskDecision{
		Symbol:     p.Symbol,
		Action:     p.Action,
		Confidence: p.Confidence,
		Equity:     view.Equity,
		Sector:     view.Sector,
	}

	switch p.Action {
	case types.ActionHold:
		d.Approved = true
		d.Reason = ReasonHold
		return d

	case types.ActionSell:
		return evaluateSell(d, view, mkt)

	case types.ActionBuy:
		if mkt == nil {
			return reject(d, ReasonNoMarketData)
		}
		d.Price = mkt.Price
		if mkt.Price <= 0 {
			return reject(d, ReasonInvalidPrice)
		}
		state, rejection := size(p, view, mkt, cfg)
		if rejection != "" {
			d.StopLoss = state.StopLoss
			return reject(d, rejection)
		}
		return runGates(d, state, view, mkt, cfg)

	default:
		return reject(d, ReasonInvalidAction)
	}
}

func evaluateSell(d types.RiskDecision, view PortfolioView, mkt *types.MarketContext) types.RiskDecision {
	// Orders are whole shares, so a fractional remainder below one share is
	// not a sellable position. An approved decision always carries a
	// non-zero order.
	shares := int64(math.Floor(view.PositionShares))
	if shares < 1 {
		return reject(d, ReasonNoPosition)
	}
	// Sells close the full held position; market data is informational here
	// (it prices the notional for the audit record) and its absence does not
	// block an exit.
	if mkt != nil {
		d.Price = mkt.Price
	}
	d.Approved = true
	d.Reason = ReasonSellApproved
	d.Shares = shares
	return d
}

// size applies the fixed-fractional method: risk a constant fraction of
// equity per trade, with the stop distance converting the dollar budget
// into a share count.
func size(p types.TradeProposal, view PortfolioView, mkt *types.MarketContext, cfg config.RiskConfig) (SizingState, string) {
	state := SizingState{Price: mkt.Price}
	state.RiskBudget = view.Equity * cfg.RiskPerTradePct

	switch {
	case p.SuggestedStop > 0:
		state.StopLoss = p.SuggestedStop
	case mkt.ATR > 0:
		state.StopLoss = mkt.Price - cfg.StopLossMultiplier*mkt.ATR
	default:
		state.StopLoss = mkt.Price * (1 - fallbackStopPct)
	}

	riskPerShare := mkt.Price - state.StopLoss
	if riskPerShare <= 0 {
		return state, ReasonInvalidStop
	}
	state.Shares = int64(math.Floor(state.RiskBudget / riskPerShare))
	if state.Shares < 1 {
		return state, ReasonRiskTooSmall
	}
	return state, ""
}

func runGates(d types.RiskDecision, state SizingState, view PortfolioView, mkt *types.MarketContext, cfg config.RiskConfig) types.RiskDecision {
	for _, gate := range buyGates {
		if rejection := gate(&state, view, mkt, cfg); rejection != "" {
			d.StopLoss = state.StopLoss
			return reject(d, rejection)
		}
	}
	d.Approved = true
	d.Reason = ReasonApproved
	d.Shares = state.Shares
	d.StopLoss = state.StopLoss
	d.RiskAmount = float64(state.Shares) * (state.Price - state.StopLoss)
	return d
}

func reject(d types.RiskDecision, reason string) types.RiskDecision {
	d.Approved = false
	d.Reason = reason
	d.Shares = 0
	d.RiskAmount = 0
	return d
}
