// Package market supplies the per-symbol context (price, ATR volatility,
// average volume, sector) that risk evaluation runs against. Network I/O is
// confined here; the core components only see the Provider interface.
package market

import (
	"context"
	"errors"

	"tradeguard/internal/types"
)

// ErrUnavailable signals that no usable market context could be obtained
// for a symbol. Risk evaluation treats it as an automatic rejection, never
// substituting defaults.
var ErrUnavailable = errors.New("market: data unavailable")

// Provider returns the market context for a symbol or ErrUnavailable.
type Provider interface {
	Context(ctx context.Context, symbol string) (*types.MarketContext, error)
}
