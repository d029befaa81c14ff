package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SnapshotModel is one immutable broker-export capture. Rows are insert-only;
// nothing in the codebase updates a snapshot after creation.
type SnapshotModel struct {
	ID             int64           `gorm:"column:id;primaryKey"`
	ImportedAtUnix int64           `gorm:"column:imported_at;index"`
	TotalEquity    decimal.Decimal `gorm:"column:total_equity;type:TEXT"`
	CashBalance    decimal.Decimal `gorm:"column:cash_balance;type:TEXT"`

	Holdings []HoldingModel `gorm:"foreignKey:SnapshotID"`
}

func (SnapshotModel) TableName() string { return "portfolio_snapshots" }

// HoldingModel belongs to exactly one snapshot; (snapshot_id, symbol) is
// unique so a snapshot can never carry two holdings of the same symbol.
type HoldingModel struct {
	ID          int64           `gorm:"column:id;primaryKey"`
	SnapshotID  int64           `gorm:"column:snapshot_id;uniqueIndex:idx_snapshot_symbol,priority:1"`
	Symbol      string          `gorm:"column:symbol;uniqueIndex:idx_snapshot_symbol,priority:2"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:TEXT"`
	CostBasis   decimal.Decimal `gorm:"column:cost_basis;type:TEXT"`
	MarketValue decimal.Decimal `gorm:"column:market_value;type:TEXT"`
}

func (HoldingModel) TableName() string { return "holdings" }

// InferredTradeModel is the append-only audit log of buy/sell events derived
// by diffing adjacent snapshots, keyed by the newer snapshot's id.
type InferredTradeModel struct {
	ID             int64           `gorm:"column:id;primaryKey"`
	SnapshotID     int64           `gorm:"column:snapshot_id;index"`
	Symbol         string          `gorm:"column:symbol;index"`
	Action         string          `gorm:"column:action"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:TEXT"`
	InferredAtUnix int64           `gorm:"column:inferred_at"`
}

func (InferredTradeModel) TableName() string { return "trade_log" }

// StockProfileModel caches best-effort sector metadata per symbol. It is
// upserted opportunistically whenever fresh market data is obtained.
type StockProfileModel struct {
	Symbol        string `gorm:"column:symbol;primaryKey"`
	Name          string `gorm:"column:name"`
	Sector        string `gorm:"column:sector;index"`
	Industry      string `gorm:"column:industry"`
	AvgVolume20d  int64  `gorm:"column:avg_volume_20d"`
	UpdatedAtUnix int64  `gorm:"column:last_updated"`
}

func (StockProfileModel) TableName() string { return "stock_profiles" }

// RiskDecisionModel is the append-only audit trail of risk evaluations.
// Inputs holds the full evaluation context as JSON so a decision can be
// reconstructed without replaying market data.
type RiskDecisionModel struct {
	ID              int64          `gorm:"column:id;primaryKey"`
	TraceID         string         `gorm:"column:trace_id;index"`
	Symbol          string         `gorm:"column:symbol;index"`
	Action          string         `gorm:"column:action"`
	Approved        int            `gorm:"column:approved"`
	Reason          string         `gorm:"column:reason"`
	Shares          int64          `gorm:"column:approved_shares"`
	StopLoss        float64        `gorm:"column:stop_loss"`
	RiskAmount      float64        `gorm:"column:risk_amount"`
	Price           float64        `gorm:"column:price"`
	Equity          float64        `gorm:"column:equity"`
	Sector          string         `gorm:"column:sector"`
	Confidence      float64        `gorm:"column:confidence"`
	Inputs          datatypes.JSON `gorm:"column:inputs;type:TEXT"`
	EvaluatedAtUnix int64          `gorm:"column:evaluated_at;index"`
}

func (RiskDecisionModel) TableName() string { return "risk_decisions" }
