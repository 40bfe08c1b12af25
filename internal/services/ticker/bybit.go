package ticker

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

// bybitInvalidParam is returned by the V5 API for unknown symbols.
const bybitInvalidParam = 10001

// BybitFeed reads 24h spot ticker statistics from Bybit.
type BybitFeed struct {
	client *bybit.Client
}

// NewBybitFeed creates a Bybit feed.
func NewBybitFeed(client *bybit.Client) *BybitFeed {
	return &BybitFeed{client: client}
}

func (f *BybitFeed) Source() domain.TickerSource {
	return domain.TickerSourceBybit
}

// DailyStats fetches the spot ticker of pair.Symbol(). Bybit publishes the price
// 24h ago instead of an open price, which plays the same role here.
func (f *BybitFeed) DailyStats(ctx context.Context, pair domain.Pair) (domain.DailyStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.DailyStats{}, err
	}

	symbol := bybit.SymbolV5(pair.Symbol())
	result, err := f.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		var apiErr *bybit.ErrorResponse
		if errors.As(err, &apiErr) && apiErr.RetCode == bybitInvalidParam {
			return domain.DailyStats{}, errors.Wrapf(domain.ErrMarketNotFound, "bybit symbol %s", pair.Symbol())
		}
		return domain.DailyStats{}, errors.Wrapf(err, "failed to fetch ticker from Bybit for %s", pair.String())
	}

	if result.Result.Spot == nil || len(result.Result.Spot.List) == 0 {
		return domain.DailyStats{}, errors.Wrapf(domain.ErrMarketNotFound, "bybit returned no ticker for %s", pair.Symbol())
	}

	item := result.Result.Spot.List[0]

	return parseStats(item.PrevPrice24H, item.LastPrice, item.HighPrice24H, item.LowPrice24H)
}
