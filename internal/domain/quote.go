package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeQuote time-boxed, price-locked offer to convert Amount of From into To.
type ExchangeQuote struct {
	ID     string          `json:"id"`
	From   Currency        `json:"from"`
	To     Currency        `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
	// Fee in From units.
	Fee decimal.Decimal `json:"fee"`
	// Expected amount credited in To units.
	Expected  decimal.Decimal `json:"expected"`
	ExpiresAt time.Time       `json:"expiresAtISO"`
}

// Pair returns the pair being converted.
func (q ExchangeQuote) Pair() Pair {
	return NewPair(q.From, q.To)
}

// Cost returns the amount debited from the source wallet on execution.
func (q ExchangeQuote) Cost() decimal.Decimal {
	return q.Amount.Add(q.Fee)
}

// ExpiredAt reports whether the quote is no longer executable at now.
func (q ExchangeQuote) ExpiredAt(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
