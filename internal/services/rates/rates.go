// Package rates provides conversion rates and USD reference prices for the exchange engine.
package rates

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

// StaticTable deterministic conversion rates used by the demo account.
type StaticTable struct {
	rates map[domain.Currency]map[domain.Currency]decimal.Decimal
}

func frac(num, den int64) decimal.Decimal {
	return decimal.NewFromInt(num).Div(decimal.NewFromInt(den))
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// NewStaticTable returns the default demo rate table.
func NewStaticTable() *StaticTable {
	one := decimal.NewFromInt(1)

	return &StaticTable{rates: map[domain.Currency]map[domain.Currency]decimal.Decimal{
		domain.USD: {
			domain.USD: one, domain.EUR: mustDecimal("0.92"), domain.GBP: mustDecimal("0.79"),
			domain.BTC: frac(1, 62000), domain.USDT: one, domain.ETH: frac(1, 3200),
		},
		domain.EUR: {
			domain.USD: mustDecimal("1.08"), domain.EUR: one, domain.GBP: mustDecimal("0.86"),
			domain.BTC: frac(1, 57000), domain.USDT: mustDecimal("1.08"), domain.ETH: mustDecimal("1.08").Div(decimal.NewFromInt(3200)),
		},
		domain.GBP: {
			domain.USD: mustDecimal("1.27"), domain.EUR: mustDecimal("1.16"), domain.GBP: one,
			domain.BTC: frac(1, 50000), domain.USDT: mustDecimal("1.27"), domain.ETH: mustDecimal("1.27").Div(decimal.NewFromInt(3200)),
		},
		domain.BTC: {
			domain.USD: decimal.NewFromInt(62000), domain.EUR: decimal.NewFromInt(57000), domain.GBP: decimal.NewFromInt(50000),
			domain.BTC: one, domain.USDT: decimal.NewFromInt(62000), domain.ETH: decimal.NewFromInt(18),
		},
		domain.USDT: {
			domain.USD: one, domain.EUR: mustDecimal("0.92"), domain.GBP: mustDecimal("0.79"),
			domain.BTC: frac(1, 62000), domain.USDT: one, domain.ETH: frac(1, 3200),
		},
		domain.ETH: {
			domain.USD: decimal.NewFromInt(3200), domain.EUR: decimal.NewFromInt(2950), domain.GBP: decimal.NewFromInt(2500),
			domain.BTC: frac(1, 18), domain.USDT: decimal.NewFromInt(3200), domain.ETH: one,
		},
	}}
}

// NewStaticTableFrom builds a table from explicit rates, mostly for tests and overrides.
func NewStaticTableFrom(rates map[domain.Currency]map[domain.Currency]decimal.Decimal) *StaticTable {
	return &StaticTable{rates: rates}
}

// Set overrides a single rate.
func (t *StaticTable) Set(from, to domain.Currency, rate decimal.Decimal) {
	if t.rates[from] == nil {
		t.rates[from] = make(map[domain.Currency]decimal.Decimal)
	}
	t.rates[from][to] = rate
}

// Rate returns how many units of to one unit of from buys.
func (t *StaticTable) Rate(_ context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	rate, ok := t.rates[from][to]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, errors.Wrapf(domain.ErrValidation, "no rate for %s", domain.NewPair(from, to).String())
	}

	return rate, nil
}

// ReferencePrices static USD prices used to refresh cached wallet valuations.
type ReferencePrices struct {
	prices map[domain.Currency]decimal.Decimal
}

// NewReferencePrices returns the default USD reference prices.
func NewReferencePrices() *ReferencePrices {
	return &ReferencePrices{prices: map[domain.Currency]decimal.Decimal{
		domain.USD:  decimal.NewFromInt(1),
		domain.USDT: decimal.NewFromInt(1),
		domain.EUR:  mustDecimal("1.08"),
		domain.GBP:  mustDecimal("1.27"),
		domain.BTC:  decimal.NewFromInt(62000),
		domain.ETH:  decimal.NewFromInt(3200),
	}}
}

// USDPrice returns the USD price of one unit of currency, zero when unknown.
func (p *ReferencePrices) USDPrice(currency domain.Currency) decimal.Decimal {
	return p.prices[currency]
}

// USDValue returns the USD value of amount units of currency.
func (p *ReferencePrices) USDValue(currency domain.Currency, amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.USDPrice(currency))
}
