package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	storemodel "tradeguard/internal/store/model"
	"tradeguard/internal/types"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store persists ledger snapshots, the inferred-trade log, the stock profile
// cache and the risk decision audit trail in a single SQLite database.
type Store struct {
	db *gorm.DB
}

// Open initializes the store at path, creating directories and migrating the
// schema as needed. The in-memory DSN ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Each sqlite connection gets its own in-memory database, so the
		// pool must stay at one.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		// Single writer, a couple of concurrent HTTP readers.
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	if err := db.AutoMigrate(
		&storemodel.SnapshotModel{},
		&storemodel.HoldingModel{},
		&storemodel.InferredTradeModel{},
		&storemodel.StockProfileModel{},
		&storemodel.RiskDecisionModel{},
	); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --------------------------- Snapshots ------------------------------------

// CreateSnapshot writes a snapshot and its holdings in one transaction so a
// crash mid-write can never leave a snapshot without its holdings.
func (s *Store) CreateSnapshot(ctx context.Context, snap types.Snapshot) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("gorm store not initialized")
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	m := storemodel.SnapshotModel{
		ImportedAtUnix: snap.CreatedAt.UnixMilli(),
		TotalEquity:    snap.TotalEquity,
		CashBalance:    snap.CashBalance,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		for _, h := range snap.Holdings {
			hm := storemodel.HoldingModel{
				SnapshotID:  m.ID,
				Symbol:      strings.ToUpper(strings.TrimSpace(h.Symbol)),
				Quantity:    h.Quantity,
				CostBasis:   h.CostBasis,
				MarketValue: h.MarketValue,
			}
			if err := tx.Create(&hm).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// LatestSnapshot returns the most recently imported snapshot with its
// holdings. The second return value is false when nothing has ever been
// imported.
func (s *Store) LatestSnapshot(ctx context.Context) (types.Snapshot, bool, error) {
	snaps, err := s.RecentSnapshots(ctx, 1)
	if err != nil {
		return types.Snapshot{}, false, err
	}
	if len(snaps) == 0 {
		return types.Snapshot{}, false, nil
	}
	return snaps[0], true, nil
}

// RecentSnapshots returns up to limit snapshots, newest first, holdings
// included.
func (s *Store) RecentSnapshots(ctx context.Context, limit int) ([]types.Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var models []storemodel.SnapshotModel
	if err := s.db.WithContext(ctx).
		Preload("Holdings").
		Order("imported_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.Snapshot, 0, len(models))
	for _, m := range models {
		out = append(out, snapshotModelToRecord(m))
	}
	return out, nil
}

// SnapshotByID loads one snapshot with its holdings.
func (s *Store) SnapshotByID(ctx context.Context, id int64) (types.Snapshot, bool, error) {
	if s == nil || s.db == nil {
		return types.Snapshot{}, false, fmt.Errorf("gorm store not initialized")
	}
	var m storemodel.SnapshotModel
	err := s.db.WithContext(ctx).Preload("Holdings").First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Snapshot{}, false, nil
		}
		return types.Snapshot{}, false, err
	}
	return snapshotModelToRecord(m), true, nil
}

// ------------------------- Inferred trades ---------------------------------

// AppendInferredTrades appends diff results to the trade log in one
// transaction. The log is append-only; rows are never updated.
func (s *Store) AppendInferredTrades(ctx context.Context, trades []types.InferredTrade) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if len(trades) == 0 {
		return nil
	}
	models := make([]storemodel.InferredTradeModel, 0, len(trades))
	for _, t := range trades {
		at := t.InferredAt
		if at.IsZero() {
			at = time.Now()
		}
		models = append(models, storemodel.InferredTradeModel{
			SnapshotID:     t.SnapshotID,
			Symbol:         strings.ToUpper(strings.TrimSpace(t.Symbol)),
			Action:         string(t.Action),
			Quantity:       t.Quantity,
			InferredAtUnix: at.UnixMilli(),
		})
	}
	return s.db.WithContext(ctx).Create(&models).Error
}

// InferredTradesForSnapshot lists the trade log entries keyed by snapshotID,
// ordered by symbol for reproducibility.
func (s *Store) InferredTradesForSnapshot(ctx context.Context, snapshotID int64) ([]types.InferredTrade, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	var models []storemodel.InferredTradeModel
	if err := s.db.WithContext(ctx).
		Where("snapshot_id = ?", snapshotID).
		Order("symbol ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.InferredTrade, 0, len(models))
	for _, m := range models {
		out = append(out, inferredTradeModelToRecord(m))
	}
	return out, nil
}

// RecentInferredTrades lists the newest trade log entries across snapshots.
func (s *Store) RecentInferredTrades(ctx context.Context, limit int) ([]types.InferredTrade, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var models []storemodel.InferredTradeModel
	if err := s.db.WithContext(ctx).
		Order("inferred_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.InferredTrade, 0, len(models))
	for _, m := range models {
		out = append(out, inferredTradeModelToRecord(m))
	}
	return out, nil
}

// -------------------------- Stock profiles ---------------------------------

// UpsertStockProfile refreshes the cached sector metadata for a symbol.
func (s *Store) UpsertStockProfile(ctx context.Context, p types.StockProfile) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		return fmt.Errorf("stock profile requires a symbol")
	}
	at := p.UpdatedAt
	if at.IsZero() {
		at = time.Now()
	}
	m := storemodel.StockProfileModel{
		Symbol:        symbol,
		Name:          strings.TrimSpace(p.Name),
		Sector:        strings.TrimSpace(p.Sector),
		Industry:      strings.TrimSpace(p.Industry),
		AvgVolume20d:  p.AvgVolume20d,
		UpdatedAtUnix: at.UnixMilli(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "sector", "industry", "avg_volume_20d", "last_updated"}),
		}).
		Create(&m).Error
}

// StockProfile returns the cached profile for symbol, if any.
func (s *Store) StockProfile(ctx context.Context, symbol string) (types.StockProfile, bool, error) {
	if s == nil || s.db == nil {
		return types.StockProfile{}, false, fmt.Errorf("gorm store not initialized")
	}
	var m storemodel.StockProfileModel
	err := s.db.WithContext(ctx).
		Where("symbol = ?", strings.ToUpper(strings.TrimSpace(symbol))).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.StockProfile{}, false, nil
		}
		return types.StockProfile{}, false, err
	}
	return stockProfileModelToRecord(m), true, nil
}

// StockProfiles batches profile lookup for a set of symbols, keyed by symbol.
func (s *Store) StockProfiles(ctx context.Context, symbols []string) (map[string]types.StockProfile, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	upper := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		upper = append(upper, sym)
	}
	out := make(map[string]types.StockProfile, len(upper))
	if len(upper) == 0 {
		return out, nil
	}
	var models []storemodel.StockProfileModel
	if err := s.db.WithContext(ctx).Where("symbol IN ?", upper).Find(&models).Error; err != nil {
		return nil, err
	}
	for _, m := range models {
		out[m.Symbol] = stockProfileModelToRecord(m)
	}
	return out, nil
}

// -------------------------- Risk decisions ---------------------------------

// AppendRiskDecision writes one evaluation result to the audit trail. The
// write happens in its own transaction; decisions are never updated.
func (s *Store) AppendRiskDecision(ctx context.Context, d types.RiskDecision, inputs []byte) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("gorm store not initialized")
	}
	at := d.EvaluatedAt
	if at.IsZero() {
		at = time.Now()
	}
	m := riskDecisionRecordToModel(d, inputs, at)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return 0, err
	}
	return m.ID, nil
}

// RecentRiskDecisions lists the newest decisions, optionally filtered by
// symbol.
func (s *Store) RecentRiskDecisions(ctx context.Context, symbol string, limit int) ([]types.RiskDecision, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := s.db.WithContext(ctx).Model(&storemodel.RiskDecisionModel{})
	if sym := strings.ToUpper(strings.TrimSpace(symbol)); sym != "" {
		query = query.Where("symbol = ?", sym)
	}
	var models []storemodel.RiskDecisionModel
	if err := query.
		Order("evaluated_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.RiskDecision, 0, len(models))
	for _, m := range models {
		out = append(out, riskDecisionModelToRecord(m))
	}
	return out, nil
}
