package domain

import "fmt"

// Pair currency pair, base measured in units of quote.
type Pair struct {
	// Base currency being priced.
	Base Currency
	// Quote currency the price is expressed in.
	Quote Currency
}

// NewPair creates a pair.
func NewPair(base, quote Currency) Pair {
	return Pair{Base: base, Quote: quote}
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.Base, p.Quote)
}

// Symbol returns the concatenated symbol representation, e.g. BTCUSDT.
func (p Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.Base, p.Quote)
}

// Product returns the dash separated representation, e.g. BTC-USD.
func (p Pair) Product() string {
	return fmt.Sprintf("%s-%s", p.Base, p.Quote)
}

// Reversed returns the pair with base and quote swapped.
func (p Pair) Reversed() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// IsSelf reports whether base and quote are the same currency.
func (p Pair) IsSelf() bool {
	return p.Base == p.Quote
}
