package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradeguard/internal/config"
	"tradeguard/internal/ledger"
	"tradeguard/internal/logger"
	"tradeguard/internal/market"
	"tradeguard/internal/store/gormstore"
	"tradeguard/internal/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// evalParallelism bounds concurrent market lookups in a batch.
const evalParallelism = 4

// Evaluator wires the pure engine to the ledger, the market provider and
// the audit trail. Every evaluation is persisted, approved or vetoed.
type Evaluator struct {
	store    *gormstore.Store
	ledger   *ledger.Ledger
	provider market.Provider
	cfg      config.RiskConfig

	nowFn   func() time.Time
	traceFn func() string
}

func NewEvaluator(store *gormstore.Store, led *ledger.Ledger, provider market.Provider, cfg config.RiskConfig) *Evaluator {
	return &Evaluator{
		store:    store,
		ledger:   led,
		provider: provider,
		cfg:      cfg,
		nowFn:    time.Now,
		traceFn:  func() string { return uuid.NewString() },
	}
}

// evalInputs is the context snapshot written next to each decision so it
// can be reconstructed without replaying market data.
type evalInputs struct {
	Price          float64 `json:"price"`
	ATR            float64 `json:"atr"`
	AvgDailyVolume int64   `json:"avg_daily_volume"`
	Sector         string  `json:"sector"`
	Equity         float64 `json:"equity"`
	Cash           float64 `json:"cash"`
	PositionValue  float64 `json:"position_value"`
	SectorExposure float64 `json:"sector_exposure"`
	SuggestedStop  float64 `json:"suggested_stop,omitempty"`
	Confidence     float64 `json:"confidence"`
	SnapshotID     int64   `json:"snapshot_id"`
}

// EvaluateProposal validates a single proposal against the latest ledger
// state.
func (e *Evaluator) EvaluateProposal(ctx context.Context, p types.TradeProposal) (types.RiskDecision, error) {
	decisions, err := e.EvaluateBatch(ctx, []types.TradeProposal{p})
	if err != nil {
		return types.RiskDecision{}, err
	}
	return decisions[0], nil
}

// EvaluateBatch validates a set of independent proposals against one fixed
// ledger snapshot. The snapshot is read once for the whole batch so a
// concurrent ingestion cannot give different proposals inconsistent views.
// Market lookups run in parallel; evaluation itself is pure and cheap.
func (e *Evaluator) EvaluateBatch(ctx context.Context, proposals []types.TradeProposal) ([]types.RiskDecision, error) {
	if len(proposals) == 0 {
		return nil, nil
	}

	snap, err := e.ledger.Latest(ctx)
	noPortfolio := false
	if err != nil {
		if !errors.Is(err, ledger.ErrNoSnapshot) {
			return nil, fmt.Errorf("risk: reading ledger failed: %w", err)
		}
		noPortfolio = true
	}

	var profiles map[string]types.StockProfile
	if !noPortfolio {
		symbols := make([]string, 0, len(snap.Holdings))
		for _, h := range snap.Holdings {
			symbols = append(symbols, h.Symbol)
		}
		profiles, err = e.store.StockProfiles(ctx, symbols)
		if err != nil {
			return nil, fmt.Errorf("risk: loading sector profiles failed: %w", err)
		}
	}

	decisions := make([]types.RiskDecision, len(proposals))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(evalParallelism)
	for i, proposal := range proposals {
		i, proposal := i, proposal
		group.Go(func() error {
			d, err := e.evaluateOne(gctx, proposal, snap, profiles, noPortfolio)
			if err != nil {
				return err
			}
			decisions[i] = d
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return decisions, nil
}

func (e *Evaluator) evaluateOne(ctx context.Context, p types.TradeProposal, snap types.Snapshot, profiles map[string]types.StockProfile, noPortfolio bool) (types.RiskDecision, error) {
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))

	var (
		view PortfolioView
		mkt  *types.MarketContext
	)
	switch {
	case noPortfolio:
		// Without ledger state there is no equity to size against; every
		// non-HOLD proposal resolves conservatively to rejection.
	default:
		mkt = e.fetchContext(ctx, p)
		view = e.buildView(ctx, p, snap, profiles, mkt)
	}

	var d types.RiskDecision
	if noPortfolio && p.Action != types.ActionHold {
		d = types.RiskDecision{
			Symbol: p.Symbol, Action: p.Action, Confidence: p.Confidence,
			Approved: false, Reason: ReasonNoPortfolio,
		}
	} else {
		d = Evaluate(p, view, mkt, e.cfg)
	}

	d.TraceID = e.traceFn()
	d.EvaluatedAt = e.nowFn()
	inputs := evalInputs{
		Sector:         view.Sector,
		Equity:         view.Equity,
		Cash:           view.Cash,
		PositionValue:  view.PositionValue,
		SectorExposure: view.SectorExposure,
		SuggestedStop:  p.SuggestedStop,
		Confidence:     p.Confidence,
		SnapshotID:     snap.ID,
	}
	if mkt != nil {
		inputs.Price = mkt.Price
		inputs.ATR = mkt.ATR
		inputs.AvgDailyVolume = mkt.AvgDailyVolume
	}
	payload, _ := json.Marshal(inputs)
	id, err := e.store.AppendRiskDecision(ctx, d, payload)
	if err != nil {
		return types.RiskDecision{}, fmt.Errorf("risk: persisting decision for %s failed: %w", p.Symbol, err)
	}
	d.ID = id

	status := "VETOED"
	if d.Approved {
		status = "APPROVED"
	}
	logger.Infof("risk: %s %s %s: %s (shares=%d stop=%.2f)", p.Action, p.Symbol, status, d.Reason, d.Shares, d.StopLoss)
	return d, nil
}

// fetchContext resolves market context, returning nil for unavailable.
// Provider failures other than ErrUnavailable are logged and treated the
// same way: without data the evaluation must reject, not guess.
func (e *Evaluator) fetchContext(ctx context.Context, p types.TradeProposal) *types.MarketContext {
	if p.Action == types.ActionHold {
		return nil
	}
	mkt, err := e.provider.Context(ctx, p.Symbol)
	if err != nil {
		if !errors.Is(err, market.ErrUnavailable) {
			logger.Warnf("risk: market context for %s failed: %v", p.Symbol, err)
		}
		return nil
	}
	return mkt
}

// buildView projects the fixed snapshot onto the proposal's symbol: held
// position, sector classification and current sector exposure.
func (e *Evaluator) buildView(ctx context.Context, p types.TradeProposal, snap types.Snapshot, profiles map[string]types.StockProfile, mkt *types.MarketContext) PortfolioView {
	equity, _ := snap.TotalEquity.Float64()
	cash, _ := snap.CashBalance.Float64()
	view := PortfolioView{Equity: equity, Cash: cash, Sector: types.SectorUnknown}

	if h, ok := snap.HoldingBySymbol(p.Symbol); ok {
		view.PositionShares, _ = h.Quantity.Float64()
		view.PositionValue, _ = h.MarketValue.Float64()
	}

	// Sector comes from fresh market data when present, else the cache.
	if mkt != nil && strings.TrimSpace(mkt.Sector) != "" {
		view.Sector = mkt.Sector
	} else if prof, ok, err := e.store.StockProfile(ctx, p.Symbol); err == nil && ok && strings.TrimSpace(prof.Sector) != "" {
		view.Sector = prof.Sector
	}

	for _, h := range snap.Holdings {
		sector := types.SectorUnknown
		if prof, ok := profiles[h.Symbol]; ok && strings.TrimSpace(prof.Sector) != "" {
			sector = prof.Sector
		}
		if h.Symbol != p.Symbol && sector == view.Sector {
			value, _ := h.MarketValue.Float64()
			view.SectorExposure += value
		}
	}
	// The proposal's own existing position counts toward its sector too.
	view.SectorExposure += view.PositionValue
	return view
}
