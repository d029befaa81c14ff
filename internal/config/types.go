package config

// Config is the top-level configuration carrier. It is loaded once at
// startup and passed by value into the components that need it; nothing in
// the core re-reads configuration mid-evaluation.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Market   MarketConfig   `mapstructure:"market"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
	HTTPAddr string `mapstructure:"http_addr"`
}

type PathsConfig struct {
	Database  string `mapstructure:"database"`
	Inbox     string `mapstructure:"inbox"`
	Processed string `mapstructure:"processed"`
}

// RiskConfig holds the fixed capital-preservation limits. Fractions are
// expressed as 0..1 (0.20 = 20% of equity).
type RiskConfig struct {
	RiskPerTradePct    float64 `mapstructure:"risk_per_trade_pct"`
	MaxPositionPct     float64 `mapstructure:"max_position_size_pct"`
	MaxSectorPct       float64 `mapstructure:"max_sector_exposure_pct"`
	MaxVolatilityPct   float64 `mapstructure:"max_volatility_pct"`
	MinLiquidityVolume int64   `mapstructure:"min_liquidity_volume"`
	StopLossMultiplier float64 `mapstructure:"stop_loss_atr_multiplier"`
}

type MarketConfig struct {
	Provider       string `mapstructure:"provider"`
	ATRPeriod      int    `mapstructure:"atr_period"`
	VolumeDays     int    `mapstructure:"volume_days"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type ScheduleConfig struct {
	EvalInterval string `mapstructure:"eval_interval"`
	WatchInbox   bool   `mapstructure:"watch_inbox"`
}
