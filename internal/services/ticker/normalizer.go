package ticker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

const defaultFeedTimeout = 10 * time.Second

// Observer receives the outcome of every ticker lookup.
type Observer interface {
	TickerServed(source, result string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) TickerServed(string, string, time.Duration) {}

// Normalizer picks a feed by the asset class of the pair and orients the result
// so the snapshot always prices base in units of quote.
type Normalizer struct {
	crypto   StatsFeed
	fiat     StatsFeed
	timeout  time.Duration
	logger   *zap.Logger
	observer Observer
}

// Option configures the Normalizer.
type Option func(*Normalizer)

// WithTimeout bounds every feed lookup.
func WithTimeout(d time.Duration) Option {
	return func(n *Normalizer) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithObserver reports lookup outcomes, e.g. to metrics.
func WithObserver(o Observer) Option {
	return func(n *Normalizer) {
		if o != nil {
			n.observer = o
		}
	}
}

// NewNormalizer creates a normalizer. crypto serves crypto/crypto markets, fiat serves crypto/fiat markets.
func NewNormalizer(crypto, fiat StatsFeed, logger *zap.Logger, opts ...Option) (*Normalizer, error) {
	if crypto == nil || fiat == nil {
		return nil, errors.New("both crypto and fiat feeds are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	n := &Normalizer{
		crypto:   crypto,
		fiat:     fiat,
		timeout:  defaultFeedTimeout,
		logger:   logger,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(n)
	}

	return n, nil
}

// GetTicker returns the 24h snapshot of base priced in quote.
// Self pairs and fiat/fiat pairs yield a neutral snapshot without any lookup.
// On failure the snapshot is neutral and the error wraps domain.ErrFeedUnavailable.
func (n *Normalizer) GetTicker(ctx context.Context, base, quote domain.Currency) (domain.TickerSnapshot, error) {
	if !base.IsValid() || !quote.IsValid() {
		return domain.NeutralSnapshot(), errors.Wrapf(domain.ErrValidation, "unsupported pair %s_%s", base, quote)
	}

	pair := domain.NewPair(base, quote)

	var (
		feed           StatsFeed
		preferReversed bool
	)
	switch {
	case pair.IsSelf():
		return domain.NeutralSnapshot(), nil
	case base.IsCrypto() && quote.IsCrypto():
		feed = n.crypto
	case base.IsCrypto() && quote.IsFiat():
		feed = n.fiat
	case base.IsFiat() && quote.IsCrypto():
		// the feed only publishes crypto-as-base markets
		feed, preferReversed = n.fiat, true
	default:
		return domain.NeutralSnapshot(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	start := time.Now()
	stats, err := n.lookup(ctx, feed, pair, preferReversed)
	if err != nil {
		n.observer.TickerServed(feed.Source().String(), "error", time.Since(start))
		n.logger.Warn("ticker lookup failed",
			zap.String("pair", pair.String()),
			zap.String("source", feed.Source().String()),
			zap.Error(err))
		return domain.NeutralSnapshot(), errors.Wrapf(domain.ErrFeedUnavailable, "%s: %v", pair.String(), err)
	}
	n.observer.TickerServed(feed.Source().String(), "ok", time.Since(start))

	return domain.NewTickerSnapshot(stats, feed.Source()), nil
}

// lookup tries both orientations of pair and returns stats oriented as pair.
func (n *Normalizer) lookup(ctx context.Context, feed StatsFeed, pair domain.Pair, preferReversed bool) (domain.DailyStats, error) {
	attempts := []struct {
		pair   domain.Pair
		invert bool
	}{
		{pair: pair},
		{pair: pair.Reversed(), invert: true},
	}
	if preferReversed {
		attempts[0], attempts[1] = attempts[1], attempts[0]
	}

	for _, a := range attempts {
		stats, err := feed.DailyStats(ctx, a.pair)
		if errors.Is(err, domain.ErrMarketNotFound) {
			n.logger.Debug("market not listed, trying other direction",
				zap.String("market", a.pair.String()),
				zap.String("source", feed.Source().String()))
			continue
		}
		if err != nil {
			return domain.DailyStats{}, err
		}
		if err := stats.Validate(); err != nil {
			return domain.DailyStats{}, errors.Wrapf(err, "bad stats for %s", a.pair.String())
		}
		if a.invert {
			stats = stats.Invert()
		}

		return stats, nil
	}

	return domain.DailyStats{}, errors.Errorf("no %s market for %s in either direction", feed.Source(), pair.String())
}
