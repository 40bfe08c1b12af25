// Package ticker builds normalized 24h market snapshots from external price feeds.
package ticker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

// StatsFeed returns raw 24h statistics for a market as the feed publishes it.
// A market the feed does not list yields domain.ErrMarketNotFound.
type StatsFeed interface {
	Source() domain.TickerSource
	DailyStats(ctx context.Context, pair domain.Pair) (domain.DailyStats, error)
}

func parseStats(open, last, high, low string) (domain.DailyStats, error) {
	var (
		stats domain.DailyStats
		err   error
	)
	if stats.Open, err = decimal.NewFromString(open); err != nil {
		return stats, errors.Wrap(err, "failed to parse open price")
	}
	if stats.Last, err = decimal.NewFromString(last); err != nil {
		return stats, errors.Wrap(err, "failed to parse last price")
	}
	if stats.High, err = decimal.NewFromString(high); err != nil {
		return stats, errors.Wrap(err, "failed to parse high price")
	}
	if stats.Low, err = decimal.NewFromString(low); err != nil {
		return stats, errors.Wrap(err, "failed to parse low price")
	}

	return stats, nil
}
