package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	var problems []string

	checkPct := func(name string, v float64) {
		if v <= 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("%s must be in (0,1], got %v", name, v))
		}
	}
	checkPct("risk.risk_per_trade_pct", c.Risk.RiskPerTradePct)
	checkPct("risk.max_position_size_pct", c.Risk.MaxPositionPct)
	checkPct("risk.max_sector_exposure_pct", c.Risk.MaxSectorPct)
	checkPct("risk.max_volatility_pct", c.Risk.MaxVolatilityPct)
	if c.Risk.StopLossMultiplier <= 0 {
		problems = append(problems, fmt.Sprintf("risk.stop_loss_atr_multiplier must be > 0, got %v", c.Risk.StopLossMultiplier))
	}
	if c.Risk.MinLiquidityVolume < 0 {
		problems = append(problems, fmt.Sprintf("risk.min_liquidity_volume must be >= 0, got %d", c.Risk.MinLiquidityVolume))
	}

	if c.Notify.Telegram.Enabled {
		if strings.Contains(c.Notify.Telegram.BotToken, "${") || c.Notify.Telegram.BotToken == "" {
			problems = append(problems, "notify.telegram.bot_token is unset (check environment variables)")
		}
		if c.Notify.Telegram.ChatID == "" {
			problems = append(problems, "notify.telegram.chat_id is unset")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
