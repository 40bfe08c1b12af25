package ticker

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

// binance rejects unknown symbols with this code
const binanceInvalidSymbol = -1121

// BinanceFeed reads 24h ticker statistics from Binance spot markets.
type BinanceFeed struct {
	client *binance.Client
}

// NewBinanceFeed creates a Binance feed.
func NewBinanceFeed(client *binance.Client) *BinanceFeed {
	return &BinanceFeed{client: client}
}

func (f *BinanceFeed) Source() domain.TickerSource {
	return domain.TickerSourceBinance
}

// DailyStats fetches the 24h ticker of pair.Symbol(), e.g. ETHBTC.
func (f *BinanceFeed) DailyStats(ctx context.Context, pair domain.Pair) (domain.DailyStats, error) {
	stats, err := f.client.NewListPriceChangeStatsService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == binanceInvalidSymbol {
			return domain.DailyStats{}, errors.Wrapf(domain.ErrMarketNotFound, "binance symbol %s", pair.Symbol())
		}
		return domain.DailyStats{}, errors.Wrapf(err, "failed to fetch 24h ticker from Binance for %s", pair.String())
	}
	if len(stats) == 0 || stats[0] == nil || stats[0].LastPrice == "" {
		return domain.DailyStats{}, errors.Wrapf(domain.ErrMarketNotFound, "binance returned no ticker for %s", pair.Symbol())
	}

	s := stats[0]

	return parseStats(s.OpenPrice, s.LastPrice, s.HighPrice, s.LowPrice)
}
