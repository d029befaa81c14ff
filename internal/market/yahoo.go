package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradeguard/internal/logger"
	"tradeguard/internal/types"

	"github.com/go-resty/resty/v2"
	"github.com/markcheno/go-talib"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/tidwall/gjson"
)

const quoteSummaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s"

// YahooProvider builds market context from Yahoo Finance: the latest quote,
// ATR computed from daily bars, a rolling average volume, and the sector
// from the quoteSummary asset profile.
type YahooProvider struct {
	http       *resty.Client
	atrPeriod  int
	volumeDays int
}

func NewYahooProvider(atrPeriod, volumeDays int, timeout time.Duration) *YahooProvider {
	if atrPeriod <= 0 {
		atrPeriod = 14
	}
	if volumeDays <= 0 {
		volumeDays = 20
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; tradeguard/1.0)")
	return &YahooProvider{http: client, atrPeriod: atrPeriod, volumeDays: volumeDays}
}

// Context fetches quote, bars and profile for symbol. Price is mandatory;
// ATR, volume and sector are filled best-effort so a partial answer is
// still usable (downstream checks fail closed on what is missing).
func (p *YahooProvider) Context(ctx context.Context, symbol string) (*types.MarketContext, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrUnavailable)
	}

	q, err := quote.Get(symbol)
	if err != nil || q == nil || q.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("%w: quote for %s failed: %v", ErrUnavailable, symbol, err)
	}

	out := &types.MarketContext{
		Symbol: symbol,
		Price:  q.RegularMarketPrice,
	}

	atr, avgVolume, err := p.bars(symbol)
	if err != nil {
		logger.Warnf("market: daily bars for %s unavailable: %v", symbol, err)
	} else {
		out.ATR = atr
		out.AvgDailyVolume = avgVolume
	}

	if sector, _, err := p.Profile(ctx, symbol); err != nil {
		logger.Debugf("market: asset profile for %s unavailable: %v", symbol, err)
	} else {
		out.Sector = sector
	}
	return out, nil
}

// bars fetches enough daily bars to cover both the ATR period and the
// volume window, returning ATR and the average daily volume.
func (p *YahooProvider) bars(symbol string) (float64, int64, error) {
	lookback := p.atrPeriod * 3
	if p.volumeDays > lookback {
		lookback = p.volumeDays * 2
	}
	end := time.Now()
	start := end.AddDate(0, 0, -lookback)

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var highs, lows, closes []float64
	var volumes []int64
	for iter.Next() {
		bar := iter.Bar()
		high, _ := bar.High.Float64()
		low, _ := bar.Low.Float64()
		cls, _ := bar.Close.Float64()
		if cls <= 0 {
			continue
		}
		highs = append(highs, high)
		lows = append(lows, low)
		closes = append(closes, cls)
		volumes = append(volumes, int64(bar.Volume))
	}
	if err := iter.Err(); err != nil {
		return 0, 0, err
	}
	if len(closes) <= p.atrPeriod {
		return 0, 0, fmt.Errorf("only %d daily bars for %s", len(closes), symbol)
	}

	atrSeries := talib.Atr(highs, lows, closes, p.atrPeriod)
	atr := atrSeries[len(atrSeries)-1]

	window := p.volumeDays
	if window > len(volumes) {
		window = len(volumes)
	}
	var sum int64
	for _, v := range volumes[len(volumes)-window:] {
		sum += v
	}
	return atr, sum / int64(window), nil
}

// Profile fetches sector and industry classification from the quoteSummary
// assetProfile module.
func (p *YahooProvider) Profile(ctx context.Context, symbol string) (sector, industry string, err error) {
	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParam("modules", "assetProfile").
		Get(fmt.Sprintf(quoteSummaryURL, symbol))
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode() != 200 {
		return "", "", fmt.Errorf("quoteSummary status %d for %s", resp.StatusCode(), symbol)
	}
	body := resp.String()
	profile := gjson.Get(body, "quoteSummary.result.0.assetProfile")
	if !profile.Exists() {
		return "", "", fmt.Errorf("no asset profile for %s", symbol)
	}
	return profile.Get("sector").String(), profile.Get("industry").String(), nil
}
