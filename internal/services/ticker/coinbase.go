package ticker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

type productStatsFetcher interface {
	ProductStats(ctx context.Context, product string) ([]byte, error)
}

// CoinbaseFeed reads 24h product stats from Coinbase Exchange. It only lists
// crypto-as-base products such as BTC-USD.
type CoinbaseFeed struct {
	client productStatsFetcher
}

// NewCoinbaseFeed creates a Coinbase feed.
func NewCoinbaseFeed(client productStatsFetcher) *CoinbaseFeed {
	return &CoinbaseFeed{client: client}
}

func (f *CoinbaseFeed) Source() domain.TickerSource {
	return domain.TickerSourceCoinbase
}

// DailyStats fetches stats of the pair.Product() product.
func (f *CoinbaseFeed) DailyStats(ctx context.Context, pair domain.Pair) (domain.DailyStats, error) {
	body, err := f.client.ProductStats(ctx, pair.Product())
	if err != nil {
		return domain.DailyStats{}, err
	}

	if !gjson.ValidBytes(body) {
		return domain.DailyStats{}, errors.Errorf("coinbase returned invalid JSON for %s", pair.Product())
	}

	fields := gjson.GetManyBytes(body, "open", "last", "high", "low")
	if !fields[1].Exists() {
		return domain.DailyStats{}, errors.Wrapf(domain.ErrMarketNotFound, "coinbase has no last price for %s", pair.Product())
	}

	return parseStats(fields[0].String(), fields[1].String(), fields[2].String(), fields[3].String())
}
