package gormstore

import (
	"time"

	storemodel "tradeguard/internal/store/model"
	"tradeguard/internal/types"

	"gorm.io/datatypes"
)

func snapshotModelToRecord(m storemodel.SnapshotModel) types.Snapshot {
	rec := types.Snapshot{
		ID:          m.ID,
		CreatedAt:   time.UnixMilli(m.ImportedAtUnix),
		TotalEquity: m.TotalEquity,
		CashBalance: m.CashBalance,
	}
	rec.Holdings = make([]types.Holding, 0, len(m.Holdings))
	for _, h := range m.Holdings {
		rec.Holdings = append(rec.Holdings, types.Holding{
			Symbol:      h.Symbol,
			Quantity:    h.Quantity,
			CostBasis:   h.CostBasis,
			MarketValue: h.MarketValue,
		})
	}
	return rec
}

func inferredTradeModelToRecord(m storemodel.InferredTradeModel) types.InferredTrade {
	return types.InferredTrade{
		Symbol:     m.Symbol,
		Action:     types.Action(m.Action),
		Quantity:   m.Quantity,
		SnapshotID: m.SnapshotID,
		InferredAt: time.UnixMilli(m.InferredAtUnix),
	}
}

func stockProfileModelToRecord(m storemodel.StockProfileModel) types.StockProfile {
	return types.StockProfile{
		Symbol:       m.Symbol,
		Name:         m.Name,
		Sector:       m.Sector,
		Industry:     m.Industry,
		AvgVolume20d: m.AvgVolume20d,
		UpdatedAt:    time.UnixMilli(m.UpdatedAtUnix),
	}
}

func riskDecisionRecordToModel(d types.RiskDecision, inputs []byte, at time.Time) storemodel.RiskDecisionModel {
	approved := 0
	if d.Approved {
		approved = 1
	}
	if len(inputs) == 0 {
		inputs = []byte("{}")
	}
	return storemodel.RiskDecisionModel{
		TraceID:         d.TraceID,
		Symbol:          d.Symbol,
		Action:          string(d.Action),
		Approved:        approved,
		Reason:          d.Reason,
		Shares:          d.Shares,
		StopLoss:        d.StopLoss,
		RiskAmount:      d.RiskAmount,
		Price:           d.Price,
		Equity:          d.Equity,
		Sector:          d.Sector,
		Confidence:      d.Confidence,
		Inputs:          datatypes.JSON(inputs),
		EvaluatedAtUnix: at.UnixMilli(),
	}
}

func riskDecisionModelToRecord(m storemodel.RiskDecisionModel) types.RiskDecision {
	return types.RiskDecision{
		ID:          m.ID,
		TraceID:     m.TraceID,
		Symbol:      m.Symbol,
		Action:      types.Action(m.Action),
		Approved:    m.Approved != 0,
		Reason:      m.Reason,
		Shares:      m.Shares,
		StopLoss:    m.StopLoss,
		RiskAmount:  m.RiskAmount,
		Price:       m.Price,
		Equity:      m.Equity,
		Sector:      m.Sector,
		Confidence:  m.Confidence,
		EvaluatedAt: time.UnixMilli(m.EvaluatedAtUnix),
	}
}
