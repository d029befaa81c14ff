package market

import (
	"context"
	"strings"
	"time"

	"tradeguard/internal/logger"
	"tradeguard/internal/store/gormstore"
	"tradeguard/internal/types"
)

// CachedProvider wraps a Provider with the stock profile cache: fresh
// answers opportunistically refresh the cache, and cached sector/volume
// figures backfill partial answers. The cache is best-effort; it never
// turns an unavailable symbol into an available one, and a cache failure
// never fails a lookup.
type CachedProvider struct {
	inner Provider
	store *gormstore.Store
	nowFn func() time.Time
}

func NewCachedProvider(inner Provider, store *gormstore.Store) *CachedProvider {
	return &CachedProvider{inner: inner, store: store, nowFn: time.Now}
}

func (c *CachedProvider) Context(ctx context.Context, symbol string) (*types.MarketContext, error) {
	mkt, err := c.inner.Context(ctx, symbol)
	if err != nil {
		return nil, err
	}

	cached, ok, cacheErr := c.store.StockProfile(ctx, symbol)
	if cacheErr != nil {
		logger.Warnf("market: profile cache read for %s failed: %v", symbol, cacheErr)
	}

	// Backfill gaps from the cache before refreshing it.
	if strings.TrimSpace(mkt.Sector) == "" && ok {
		mkt.Sector = cached.Sector
	}
	if mkt.AvgDailyVolume <= 0 && ok {
		mkt.AvgDailyVolume = cached.AvgVolume20d
	}

	profile := types.StockProfile{
		Symbol:       strings.ToUpper(strings.TrimSpace(symbol)),
		Sector:       mkt.Sector,
		AvgVolume20d: mkt.AvgDailyVolume,
		UpdatedAt:    c.nowFn(),
	}
	if ok {
		if profile.Sector == "" {
			profile.Sector = cached.Sector
		}
		profile.Name = cached.Name
		profile.Industry = cached.Industry
	}
	if err := c.store.UpsertStockProfile(ctx, profile); err != nil {
		logger.Warnf("market: profile cache refresh for %s failed: %v", symbol, err)
	}
	return mkt, nil
}
