package risk

import (
	"math"

	"tradeguard/internal/config"
	"tradeguard/internal/types"
)

// SizingState carries the running share count through the gate chain. Gates
// may downsize Shares; a non-empty return rejects the trade with that
// reason and stops the chain.
type SizingState struct {
	Price      float64
	StopLoss   float64
	RiskBudget float64
	Shares     int64
}

func (s SizingState) Cost() float64 { return float64(s.Shares) * s.Price }

type gateFunc func(state *SizingState, view PortfolioView, mkt *types.MarketContext, cfg config.RiskConfig) string

// buyGates run in this fixed order; the first failing gate determines the
// rejection reason. Reordering them changes diagnostics, so the order is
// part of the contract.
var buyGates = []gateFunc{
	gateCash,
	gatePositionLimit,
	gateSectorLimit,
	gateNoShorting,
	gateVolatility,
	gateLiquidity,
}

// gateCash downsizes to what the cash balance can actually pay for.
func gateCash(state *SizingState, view PortfolioView, _ *types.MarketContext, _ config.RiskConfig) string {
	if state.Cost() <= view.Cash {
		return ""
	}
	affordable := int64(math.Floor(view.Cash / state.Price))
	if affordable < 1 {
		return ReasonInsufficientCash
	}
	state.Shares = affordable
	return ""
}

// gatePositionLimit caps a single position at a fixed share of equity,
// downsizing to the remaining allowance when possible.
func gatePositionLimit(state *SizingState, view PortfolioView, _ *types.MarketContext, cfg config.RiskConfig) string {
	maxPosition := view.Equity * cfg.MaxPositionPct
	if view.PositionValue+state.Cost() <= maxPosition {
		return ""
	}
	allowance := maxPosition - view.PositionValue
	if allowance < state.Price {
		return ReasonPositionLimit
	}
	state.Shares = int64(math.Floor(allowance / state.Price))
	return ""
}

// gateSectorLimit rejects outright rather than downsizing: the sector cap
// expresses a diversification rule, not a spendable budget.
func gateSectorLimit(state *SizingState, view PortfolioView, _ *types.MarketContext, cfg config.RiskConfig) string {
	if view.SectorExposure+state.Cost() > view.Equity*cfg.MaxSectorPct {
		return ReasonSectorLimit
	}
	return ""
}

func gateNoShorting(state *SizingState, _ PortfolioView, _ *types.MarketContext, _ config.RiskConfig) string {
	if state.Shares < 0 {
		return ReasonShorting
	}
	return ""
}

// gateVolatility filters instruments whose typical daily movement is too
// large a fraction of price to stop out sanely.
func gateVolatility(state *SizingState, _ PortfolioView, mkt *types.MarketContext, cfg config.RiskConfig) string {
	if mkt.ATR > 0 && mkt.ATR/state.Price > cfg.MaxVolatilityPct {
		return ReasonVolatility
	}
	return ""
}

// gateLiquidity fails closed: an unknown average volume counts as failing,
// never as passing.
func gateLiquidity(_ *SizingState, _ PortfolioView, mkt *types.MarketContext, cfg config.RiskConfig) string {
	if mkt.AvgDailyVolume <= 0 {
		return ReasonLiquidity
	}
	if mkt.AvgDailyVolume < cfg.MinLiquidityVolume {
		return ReasonLiquidity
	}
	return ""
}
