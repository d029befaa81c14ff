// Package app wires configuration into the running services: the ledger
// store, the inbox watcher, the periodic evaluation cycle and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradeguard/internal/config"
	"tradeguard/internal/importer"
	"tradeguard/internal/inference"
	"tradeguard/internal/ledger"
	"tradeguard/internal/logger"
	"tradeguard/internal/market"
	"tradeguard/internal/notifier"
	"tradeguard/internal/risk"
	"tradeguard/internal/scheduler"
	"tradeguard/internal/store/gormstore"
	apihttp "tradeguard/internal/transport/http"
	"tradeguard/internal/types"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg       *config.Config
	store     *gormstore.Store
	ledger    *ledger.Ledger
	inference *inference.Engine
	evaluator *risk.Evaluator
	importer  *importer.Importer
	watcher   *importer.Watcher
	notify    notifier.TextNotifier
	api       *apihttp.Server
}

// New builds the full service graph from cfg without starting anything.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	st, err := gormstore.Open(cfg.Paths.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	led := ledger.New(st)
	inf := inference.NewEngine(st)

	provider := buildProvider(cfg.Market, st)
	evaluator := risk.NewEvaluator(st, led, provider, cfg.Risk)

	imp := importer.New(led, inf, cfg.Paths.Processed)

	a := &App{
		cfg:       cfg,
		store:     st,
		ledger:    led,
		inference: inf,
		evaluator: evaluator,
		importer:  imp,
		notify:    buildNotifier(cfg.Notify),
	}

	if cfg.Schedule.WatchInbox {
		a.watcher = importer.NewWatcher(imp, cfg.Paths.Inbox)
	}

	if cfg.App.HTTPAddr != "" {
		srv, err := apihttp.NewServer(apihttp.ServerConfig{
			Addr:      cfg.App.HTTPAddr,
			Store:     st,
			Ledger:    led,
			Evaluator: evaluator,
		})
		if err != nil {
			return nil, fmt.Errorf("build api server: %w", err)
		}
		a.api = srv
	}
	return a, nil
}

// Run starts the watcher, the evaluation scheduler and the API server, and
// blocks until ctx is canceled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.store.Close()

	group, ctx := errgroup.WithContext(ctx)

	if a.api != nil {
		group.Go(func() error {
			if err := a.api.Start(ctx); err != nil {
				return fmt.Errorf("api server: %w", err)
			}
			return nil
		})
	}

	if a.watcher != nil {
		group.Go(func() error {
			if err := a.watcher.Run(ctx); err != nil {
				return fmt.Errorf("inbox watcher: %w", err)
			}
			return nil
		})
	}

	if interval, ok := scheduler.ParseIntervalDuration(a.cfg.Schedule.EvalInterval); ok {
		group.Go(func() error {
			sched := scheduler.NewIntervalScheduler(ctx, "risk-audit", interval)
			sched.Start(func() { a.runAuditCycle(ctx) })
			return nil
		})
	} else if a.cfg.Schedule.EvalInterval != "" {
		logger.Warnf("app: unrecognized eval_interval %q, periodic audit disabled", a.cfg.Schedule.EvalInterval)
	}

	logger.Infof("app: started env=%s db=%s", a.cfg.App.Env, a.cfg.Paths.Database)
	return group.Wait()
}

// Close releases the store. Run closes it itself; Close is for callers that
// use the app without running it.
func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Evaluator exposes the risk evaluator for one-shot CLI invocations.
func (a *App) Evaluator() *risk.Evaluator {
	if a == nil {
		return nil
	}
	return a.evaluator
}

// Importer exposes the CSV importer for one-shot CLI invocations.
func (a *App) Importer() *importer.Importer {
	if a == nil {
		return nil
	}
	return a.importer
}

// runAuditCycle re-validates the trades inferred from the latest snapshot
// against current market data and delivers the resulting decisions.
func (a *App) runAuditCycle(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	snap, err := a.ledger.Latest(runCtx)
	if err != nil {
		if errors.Is(err, ledger.ErrNoSnapshot) {
			logger.Debugf("audit: no snapshot yet, skipping cycle")
			return
		}
		logger.Errorf("audit: load snapshot failed: %v", err)
		return
	}

	trades, err := a.store.InferredTradesForSnapshot(runCtx, snap.ID)
	if err != nil {
		logger.Errorf("audit: load inferred trades failed: %v", err)
		return
	}
	if len(trades) == 0 {
		logger.Debugf("audit: no inferred trades for snapshot %d", snap.ID)
		return
	}

	proposals := make([]types.TradeProposal, 0, len(trades))
	for _, t := range trades {
		proposals = append(proposals, types.TradeProposal{
			Symbol: t.Symbol,
			Action: t.Action,
		})
	}

	decisions, err := a.evaluator.EvaluateBatch(runCtx, proposals)
	if err != nil {
		logger.Errorf("audit: batch evaluation failed: %v", err)
		return
	}
	logger.Infof("audit: evaluated %d proposals for snapshot %d", len(decisions), snap.ID)

	if msg := notifier.FormatBatch(decisions); msg != "" {
		if err := a.notify.SendText(msg); err != nil {
			logger.Warnf("audit: notify failed: %v", err)
		}
	}
}

func buildProvider(cfg config.MarketConfig, st *gormstore.Store) market.Provider {
	if p := strings.ToLower(cfg.Provider); p != "" && p != "yahoo" {
		logger.Warnf("app: unknown market provider %q, using yahoo", cfg.Provider)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return market.NewCachedProvider(market.NewYahooProvider(cfg.ATRPeriod, cfg.VolumeDays, timeout), st)
}

func buildNotifier(cfg config.NotifyConfig) notifier.TextNotifier {
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		logger.Infof("app: telegram notifications enabled")
		return notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
	return notifier.Noop{}
}
