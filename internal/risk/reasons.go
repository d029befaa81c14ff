package risk

// Decision reasons form a fixed, machine-readable taxonomy. The audit
// trail and the notifier both key off these strings, so they are part of
// the package contract and must not be reworded casually.
const (
	ReasonHold         = "no action required"
	ReasonApproved     = "all risk checks passed"
	ReasonSellApproved = "sell approved for full position"

	ReasonNoPortfolio  = "no portfolio data"
	ReasonNoMarketData = "no market data"
	ReasonNoPosition   = "no position to sell"

	ReasonInvalidAction    = "invalid action"
	ReasonInvalidPrice     = "invalid price data"
	ReasonInvalidStop      = "invalid stop"
	ReasonRiskTooSmall     = "risk budget too small for this instrument"
	ReasonInsufficientCash = "insufficient cash"
	ReasonPositionLimit    = "position limit"
	ReasonSectorLimit      = "sector limit"
	ReasonShorting         = "shorting not permitted"
	ReasonVolatility       = "excessive volatility"
	ReasonLiquidity        = "insufficient liquidity"
)
