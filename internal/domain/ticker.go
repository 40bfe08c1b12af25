package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// TickerSource feed a snapshot was built from.
type TickerSource string

const (
	TickerSourceNone     TickerSource = "none"
	TickerSourceBinance  TickerSource = "binance"
	TickerSourceBybit    TickerSource = "bybit"
	TickerSourceCoinbase TickerSource = "coinbase"
)

// String returns the string representation.
func (s TickerSource) String() string {
	return string(s)
}

// DailyStats raw 24h statistics as published by a feed.
type DailyStats struct {
	Open decimal.Decimal
	Last decimal.Decimal
	High decimal.Decimal
	Low  decimal.Decimal
}

// Validate checks that every price is positive so the stats can be inverted.
func (s DailyStats) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{{"open", s.Open}, {"last", s.Last}, {"high", s.High}, {"low", s.Low}}
	for _, f := range fields {
		if !f.value.IsPositive() {
			return errors.Errorf("%s price must be positive, got %s", f.name, f.value.String())
		}
	}

	return nil
}

// Invert converts stats of pair X/Y into stats of Y/X.
// Inversion swaps the bounds: the lowest X/Y price is the highest Y/X price.
func (s DailyStats) Invert() DailyStats {
	one := decimal.NewFromInt(1)

	return DailyStats{
		Open: one.Div(s.Open),
		Last: one.Div(s.Last),
		High: one.Div(s.Low),
		Low:  one.Div(s.High),
	}
}

// ChangePercent returns the 24h change of the last price relative to the open price.
func (s DailyStats) ChangePercent() decimal.Decimal {
	if s.Open.IsZero() {
		return decimal.Zero
	}

	return s.Last.Sub(s.Open).Div(s.Open).Mul(hundred)
}

// TickerSnapshot normalized market view of a pair. Numeric fields are null for neutral snapshots.
type TickerSnapshot struct {
	Price        decimal.NullDecimal `json:"price"`
	High24h      decimal.NullDecimal `json:"high24h"`
	Low24h       decimal.NullDecimal `json:"low24h"`
	Change24hPct decimal.NullDecimal `json:"change24hPct"`
	Source       TickerSource        `json:"source"`
}

// NeutralSnapshot returns a snapshot without market data.
func NeutralSnapshot() TickerSnapshot {
	return TickerSnapshot{Source: TickerSourceNone}
}

// NewTickerSnapshot builds a snapshot from already oriented stats.
func NewTickerSnapshot(stats DailyStats, source TickerSource) TickerSnapshot {
	return TickerSnapshot{
		Price:        decimal.NewNullDecimal(stats.Last),
		High24h:      decimal.NewNullDecimal(stats.High),
		Low24h:       decimal.NewNullDecimal(stats.Low),
		Change24hPct: decimal.NewNullDecimal(stats.ChangePercent()),
		Source:       source,
	}
}

// IsNeutral reports whether the snapshot carries no price.
func (t TickerSnapshot) IsNeutral() bool {
	return !t.Price.Valid
}
