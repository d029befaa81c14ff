package market

import (
	"context"
	"testing"

	"tradeguard/internal/store/gormstore"
	"tradeguard/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mkt *types.MarketContext
	err error
}

func (f *fakeProvider) Context(context.Context, string) (*types.MarketContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.mkt
	return &out, nil
}

func newCacheFixture(t *testing.T, inner Provider) (*CachedProvider, *gormstore.Store) {
	t.Helper()
	st, err := gormstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewCachedProvider(inner, st), st
}

func TestCachedProviderRefreshesProfile(t *testing.T) {
	inner := &fakeProvider{mkt: &types.MarketContext{
		Symbol: "AAPL", Price: 100, ATR: 8, AvgDailyVolume: 1_000_000, Sector: "Technology",
	}}
	cp, st := newCacheFixture(t, inner)

	mkt, err := cp.Context(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Technology", mkt.Sector)

	p, found, err := st.StockProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Technology", p.Sector)
	assert.Equal(t, int64(1_000_000), p.AvgVolume20d)
}

func TestCachedProviderBackfillsFromCache(t *testing.T) {
	inner := &fakeProvider{mkt: &types.MarketContext{
		Symbol: "AAPL", Price: 100, ATR: 8, // sector and volume missing
	}}
	cp, st := newCacheFixture(t, inner)
	require.NoError(t, st.UpsertStockProfile(context.Background(), types.StockProfile{
		Symbol: "AAPL", Sector: "Technology", AvgVolume20d: 900_000,
	}))

	mkt, err := cp.Context(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Technology", mkt.Sector)
	assert.Equal(t, int64(900_000), mkt.AvgDailyVolume)
}

func TestCachedProviderNeverMasksUnavailable(t *testing.T) {
	cp, st := newCacheFixture(t, &fakeProvider{err: ErrUnavailable})
	require.NoError(t, st.UpsertStockProfile(context.Background(), types.StockProfile{
		Symbol: "AAPL", Sector: "Technology", AvgVolume20d: 900_000,
	}))

	_, err := cp.Context(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrUnavailable, "a cached profile is not a quote")
}
