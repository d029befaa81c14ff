package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tradeguard/internal/config"
	"tradeguard/internal/ledger"
	"tradeguard/internal/market"
	"tradeguard/internal/risk"
	"tradeguard/internal/store/gormstore"
	"tradeguard/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct{}

func (staticProvider) Context(_ context.Context, symbol string) (*types.MarketContext, error) {
	if symbol != "AAPL" {
		return nil, market.ErrUnavailable
	}
	return &types.MarketContext{
		Symbol: "AAPL", Price: 100, ATR: 8, AvgDailyVolume: 1_000_000, Sector: "Technology",
	}, nil
}

func newTestServer(t *testing.T) (*Server, *ledger.Ledger) {
	t.Helper()
	st, err := gormstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	led := ledger.New(st)
	evaluator := risk.NewEvaluator(st, led, staticProvider{}, config.RiskConfig{
		RiskPerTradePct:    0.015,
		MaxPositionPct:     0.20,
		MaxSectorPct:       0.40,
		MaxVolatilityPct:   0.10,
		MinLiquidityVolume: 200_000,
		StopLossMultiplier: 2.5,
	})
	srv, err := NewServer(ServerConfig{Store: st, Ledger: led, Evaluator: evaluator})
	require.NoError(t, err)
	return srv, led
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLatestSnapshotEndpoint(t *testing.T) {
	srv, led := newTestServer(t)

	w := do(srv, http.MethodGet, "/api/portfolio/latest", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "nothing imported yet")

	_, err := led.Ingest(context.Background(), []types.HoldingRow{
		{Symbol: "AAPL", Quantity: decimal.NewFromInt(10), MarketValue: decimal.NewFromInt(1_000)},
	}, decimal.NewFromInt(9_000))
	require.NoError(t, err)

	w = do(srv, http.MethodGet, "/api/portfolio/latest", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AAPL")
}

func TestRiskSummaryEndpoint(t *testing.T) {
	srv, led := newTestServer(t)
	_, err := led.Ingest(context.Background(), nil, decimal.NewFromInt(5_000))
	require.NoError(t, err)

	w := do(srv, http.MethodGet, "/api/risk/summary", "")
	require.Equal(t, http.StatusOK, w.Code)

	var summary risk.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.InDelta(t, 5_000, summary.TotalEquity, 1e-9)
	assert.InDelta(t, 100, summary.CashPct, 1e-9)
}

func TestEvaluateEndpoint(t *testing.T) {
	srv, led := newTestServer(t)
	_, err := led.Ingest(context.Background(), nil, decimal.NewFromInt(10_000))
	require.NoError(t, err)

	w := do(srv, http.MethodPost, "/api/risk/evaluate", `{"symbol":"aapl","action":"buy"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var d types.RiskDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.True(t, d.Approved)
	assert.Equal(t, int64(7), d.Shares)

	w = do(srv, http.MethodPost, "/api/risk/evaluate", `{"symbol":"AAPL"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "action is required")
}

func TestDecisionsEndpoint(t *testing.T) {
	srv, led := newTestServer(t)
	_, err := led.Ingest(context.Background(), nil, decimal.NewFromInt(10_000))
	require.NoError(t, err)

	do(srv, http.MethodPost, "/api/risk/evaluate", `{"symbol":"AAPL","action":"BUY"}`)

	w := do(srv, http.MethodGet, "/api/risk/decisions?symbol=AAPL", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "all risk checks passed")
}
