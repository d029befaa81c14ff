package notifier

import (
	"testing"

	"tradeguard/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestFormatDecision(t *testing.T) {
	approved := FormatDecision(types.RiskDecision{
		Symbol: "AAPL", Action: types.ActionBuy, Approved: true,
		Reason: "all risk checks passed", Shares: 7, StopLoss: 80, RiskAmount: 140,
	})
	assert.Contains(t, approved, "AAPL")
	assert.Contains(t, approved, "approved")
	assert.Contains(t, approved, "7")

	vetoed := FormatDecision(types.RiskDecision{
		Symbol: "XOM", Action: types.ActionBuy, Approved: false,
		Reason: "sector limit",
	})
	assert.Contains(t, vetoed, "vetoed")
	assert.Contains(t, vetoed, "sector limit")
}

func TestFormatBatch(t *testing.T) {
	assert.Empty(t, FormatBatch(nil))

	msg := FormatBatch([]types.RiskDecision{
		{Symbol: "AAPL", Action: types.ActionBuy, Approved: true, Reason: "all risk checks passed", Shares: 7},
		{Symbol: "XOM", Action: types.ActionBuy, Approved: false, Reason: "insufficient liquidity"},
		{Symbol: "MSFT", Action: types.ActionHold, Approved: true, Reason: "no action required"},
	})
	assert.Contains(t, msg, "AAPL")
	assert.Contains(t, msg, "XOM")
	assert.NotContains(t, msg, "MSFT", "approved holds are not worth a notification")
}
