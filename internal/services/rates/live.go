package rates

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

// TickerProvider returns a normalized ticker for a pair.
type TickerProvider interface {
	GetTicker(ctx context.Context, base, quote domain.Currency) (domain.TickerSnapshot, error)
}

// RateSource returns conversion rates.
type RateSource interface {
	Rate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error)
}

// Live prices conversions from the last traded price of the pair and falls back
// to another source when the feed has no usable price.
type Live struct {
	tickers  TickerProvider
	fallback RateSource
	logger   *zap.Logger
}

// NewLive creates a live rate source.
func NewLive(tickers TickerProvider, fallback RateSource, logger *zap.Logger) *Live {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Live{tickers: tickers, fallback: fallback, logger: logger}
}

// Rate returns the live rate for from/to.
func (l *Live) Rate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	snapshot, err := l.tickers.GetTicker(ctx, from, to)
	if err == nil && !snapshot.IsNeutral() && snapshot.Price.Decimal.IsPositive() {
		return snapshot.Price.Decimal, nil
	}

	pair := domain.NewPair(from, to)
	if err != nil {
		l.logger.Warn("live rate unavailable, using fallback", zap.String("pair", pair.String()), zap.Error(err))
	} else {
		l.logger.Debug("no live market for pair, using fallback", zap.String("pair", pair.String()))
	}

	return l.fallback.Rate(ctx, from, to)
}
