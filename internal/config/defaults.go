package config

import "strings"

func stringReader(s string) *strings.Reader { return strings.NewReader(s) }

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Paths.Database == "" {
		c.Paths.Database = "data/tradeguard.db"
	}
	if c.Paths.Inbox == "" {
		c.Paths.Inbox = "data/inbox"
	}
	if c.Paths.Processed == "" {
		c.Paths.Processed = "data/processed"
	}

	// Risk defaults mirror a conservative retail profile: 20% position cap,
	// 40% sector cap, 10% ATR/price ceiling, 1.5% equity at risk per trade,
	// 2.5x ATR stops, 200k shares/day liquidity floor.
	if c.Risk.MaxPositionPct == 0 {
		c.Risk.MaxPositionPct = 0.20
	}
	if c.Risk.MaxSectorPct == 0 {
		c.Risk.MaxSectorPct = 0.40
	}
	if c.Risk.MaxVolatilityPct == 0 {
		c.Risk.MaxVolatilityPct = 0.10
	}
	if c.Risk.RiskPerTradePct == 0 {
		c.Risk.RiskPerTradePct = 0.015
	}
	if c.Risk.StopLossMultiplier == 0 {
		c.Risk.StopLossMultiplier = 2.5
	}
	if c.Risk.MinLiquidityVolume == 0 {
		c.Risk.MinLiquidityVolume = 200_000
	}

	if c.Market.Provider == "" {
		c.Market.Provider = "yahoo"
	}
	if c.Market.ATRPeriod == 0 {
		c.Market.ATRPeriod = 14
	}
	if c.Market.VolumeDays == 0 {
		c.Market.VolumeDays = 20
	}
	if c.Market.TimeoutSeconds == 0 {
		c.Market.TimeoutSeconds = 15
	}

	if c.Schedule.EvalInterval == "" {
		c.Schedule.EvalInterval = "1h"
	}
}
