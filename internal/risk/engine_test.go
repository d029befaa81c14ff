package risk

import (
	"testing"

	"tradeguard/internal/config"
	"tradeguard/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		RiskPerTradePct:    0.015,
		MaxPositionPct:     0.20,
		MaxSectorPct:       0.40,
		MaxVolatilityPct:   0.10,
		MinLiquidityVolume: 200_000,
		StopLossMultiplier: 2.5,
	}
}

func testView() PortfolioView {
	return PortfolioView{
		Equity: 10_000,
		Cash:   10_000,
		Sector: "Technology",
	}
}

func testMarket() *types.MarketContext {
	return &types.MarketContext{
		Symbol:         "AAPL",
		Price:          100,
		ATR:            8,
		AvgDailyVolume: 1_000_000,
		Sector:         "Technology",
	}
}

func buyProposal() types.TradeProposal {
	return types.TradeProposal{Symbol: "AAPL", Action: types.ActionBuy, Confidence: 0.8}
}

func TestEvaluateBuySizing(t *testing.T) {
	// $10,000 equity at 1.5% risk gives a $150 budget. A 2.5x multiple of
	// an $8 ATR puts the stop at $80, so $20 risk per share yields 7 shares.
	d := Evaluate(buyProposal(), testView(), testMarket(), testRiskConfig())

	require.True(t, d.Approved)
	assert.Equal(t, ReasonApproved, d.Reason)
	assert.Equal(t, int64(7), d.Shares)
	assert.InDelta(t, 80.0, d.StopLoss, 1e-9)
	assert.InDelta(t, 140.0, d.RiskAmount, 1e-9)
	assert.InDelta(t, 100.0, d.Price, 1e-9)
}

func TestEvaluateBuySuggestedStopWins(t *testing.T) {
	p := buyProposal()
	p.SuggestedStop = 90

	d := Evaluate(p, testView(), testMarket(), testRiskConfig())

	require.True(t, d.Approved)
	assert.InDelta(t, 90.0, d.StopLoss, 1e-9)
	assert.Equal(t, int64(15), d.Shares) // $150 / $10 per share
}

func TestEvaluateBuyFallbackStop(t *testing.T) {
	mkt := testMarket()
	mkt.ATR = 0

	d := Evaluate(buyProposal(), testView(), mkt, testRiskConfig())

	// Without an ATR the stop falls back to 5% below entry, giving 30
	// shares from the budget; the position cap then trims it to 20.
	require.True(t, d.Approved)
	assert.InDelta(t, 95.0, d.StopLoss, 1e-9)
	assert.Equal(t, int64(20), d.Shares)
}

func TestEvaluateBuyStopAbovePrice(t *testing.T) {
	p := buyProposal()
	p.SuggestedStop = 105

	d := Evaluate(p, testView(), testMarket(), testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonInvalidStop, d.Reason)
	assert.Zero(t, d.Shares)
}

func TestEvaluateBuyRiskBudgetTooSmall(t *testing.T) {
	view := testView()
	view.Equity = 100
	view.Cash = 100

	d := Evaluate(buyProposal(), view, testMarket(), testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonRiskTooSmall, d.Reason)
}

func TestEvaluateBuyNoMarketData(t *testing.T) {
	d := Evaluate(buyProposal(), testView(), nil, testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonNoMarketData, d.Reason)
	assert.Zero(t, d.Shares)
	assert.Zero(t, d.RiskAmount)
}

func TestEvaluateBuyInvalidPrice(t *testing.T) {
	mkt := testMarket()
	mkt.Price = 0

	d := Evaluate(buyProposal(), testView(), mkt, testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonInvalidPrice, d.Reason)
}

func TestGateCashDownsizes(t *testing.T) {
	view := testView()
	view.Cash = 550

	d := Evaluate(buyProposal(), view, testMarket(), testRiskConfig())

	require.True(t, d.Approved)
	assert.Equal(t, int64(5), d.Shares)
	assert.InDelta(t, 100.0, d.RiskAmount, 1e-9)
}

func TestGateCashRejectsWhenBroke(t *testing.T) {
	view := testView()
	view.Cash = 50

	d := Evaluate(buyProposal(), view, testMarket(), testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonInsufficientCash, d.Reason)
}

func TestGatePositionLimitDownsizes(t *testing.T) {
	view := testView()
	view.PositionValue = 1_500 // cap is 20% of $10,000 = $2,000

	d := Evaluate(buyProposal(), view, testMarket(), testRiskConfig())

	require.True(t, d.Approved)
	assert.Equal(t, int64(5), d.Shares)
}

func TestGatePositionLimitRejects(t *testing.T) {
	view := testView()
	view.PositionValue = 1_950 // $50 allowance cannot buy one $100 share

	d := Evaluate(buyProposal(), view, testMarket(), testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonPositionLimit, d.Reason)
}

func TestGateSectorLimitRejectsWithoutDownsizing(t *testing.T) {
	view := testView()
	view.SectorExposure = 3_800 // cap is 40% of $10,000 = $4,000

	d := Evaluate(buyProposal(), view, testMarket(), testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonSectorLimit, d.Reason)
	assert.Zero(t, d.Shares)
}

func TestGateVolatilityRejects(t *testing.T) {
	mkt := testMarket()
	mkt.ATR = 15 // 15% of price, cap is 10%

	d := Evaluate(buyProposal(), testView(), mkt, testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonVolatility, d.Reason)
}

func TestGateLiquidityRejectsThinVolume(t *testing.T) {
	mkt := testMarket()
	mkt.AvgDailyVolume = 100_000

	d := Evaluate(buyProposal(), testView(), mkt, testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonLiquidity, d.Reason)
}

func TestGateLiquidityFailsClosedOnUnknownVolume(t *testing.T) {
	mkt := testMarket()
	mkt.AvgDailyVolume = 0

	d := Evaluate(buyProposal(), testView(), mkt, testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonLiquidity, d.Reason)
}

func TestEvaluateHold(t *testing.T) {
	p := types.TradeProposal{Symbol: "AAPL", Action: types.ActionHold}

	d := Evaluate(p, testView(), nil, testRiskConfig())

	require.True(t, d.Approved)
	assert.Equal(t, ReasonHold, d.Reason)
	assert.Zero(t, d.Shares)
}

func TestEvaluateSellFullPosition(t *testing.T) {
	view := testView()
	view.PositionShares = 12.5
	p := types.TradeProposal{Symbol: "AAPL", Action: types.ActionSell}

	d := Evaluate(p, view, testMarket(), testRiskConfig())

	require.True(t, d.Approved)
	assert.Equal(t, ReasonSellApproved, d.Reason)
	assert.Equal(t, int64(12), d.Shares)
}

func TestEvaluateSellWithoutMarketData(t *testing.T) {
	// An exit must not be blocked by a market data outage.
	view := testView()
	view.PositionShares = 10
	p := types.TradeProposal{Symbol: "AAPL", Action: types.ActionSell}

	d := Evaluate(p, view, nil, testRiskConfig())

	require.True(t, d.Approved)
	assert.Equal(t, int64(10), d.Shares)
	assert.Zero(t, d.Price)
}

func TestEvaluateSellSubSharePosition(t *testing.T) {
	// A fractional remainder below one whole share cannot form an order;
	// approving it would emit a zero-share sell.
	view := testView()
	view.PositionShares = 0.6
	p := types.TradeProposal{Symbol: "AAPL", Action: types.ActionSell}

	d := Evaluate(p, view, testMarket(), testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonNoPosition, d.Reason)
	assert.Zero(t, d.Shares)
}

func TestEvaluateSellNoPosition(t *testing.T) {
	p := types.TradeProposal{Symbol: "AAPL", Action: types.ActionSell}

	d := Evaluate(p, testView(), testMarket(), testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonNoPosition, d.Reason)
}

func TestEvaluateInvalidAction(t *testing.T) {
	p := types.TradeProposal{Symbol: "AAPL", Action: types.Action("SHORT")}

	d := Evaluate(p, testView(), testMarket(), testRiskConfig())

	require.False(t, d.Approved)
	assert.Equal(t, ReasonInvalidAction, d.Reason)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	p := buyProposal()
	view := testView()
	mkt := testMarket()
	cfg := testRiskConfig()

	first := Evaluate(p, view, mkt, cfg)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate(p, view, mkt, cfg))
	}
}

func TestSignedShares(t *testing.T) {
	buy := Evaluate(buyProposal(), testView(), testMarket(), testRiskConfig())
	assert.Equal(t, int64(7), buy.SignedShares())

	view := testView()
	view.PositionShares = 10
	sell := Evaluate(types.TradeProposal{Symbol: "AAPL", Action: types.ActionSell}, view, testMarket(), testRiskConfig())
	assert.Equal(t, int64(-10), sell.SignedShares())

	vetoed := Evaluate(buyProposal(), testView(), nil, testRiskConfig())
	assert.Zero(t, vetoed.SignedShares())
}

func TestConfidenceNeverChangesOutcome(t *testing.T) {
	timid := buyProposal()
	timid.Confidence = 0.01
	bold := buyProposal()
	bold.Confidence = 0.99

	dTimid := Evaluate(timid, testView(), testMarket(), testRiskConfig())
	dBold := Evaluate(bold, testView(), testMarket(), testRiskConfig())

	dTimid.Confidence = 0
	dBold.Confidence = 0
	assert.Equal(t, dTimid, dBold)
}
