// Package domain defines core data structures used throughout the wallet desk.
package domain

import (
	"strings"

	"github.com/pkg/errors"
)

// AssetClass groups currencies by the rules that apply to them.
type AssetClass string

const (
	// AssetClassCrypto crypto assets.
	AssetClassCrypto AssetClass = "crypto"
	// AssetClassFiat government-issued currencies.
	AssetClassFiat AssetClass = "fiat"
)

// String returns the string representation.
func (a AssetClass) String() string {
	return string(a)
}

// Currency symbol supported by the desk.
type Currency string

const (
	BTC  Currency = "BTC"
	ETH  Currency = "ETH"
	USDT Currency = "USDT"
	USD  Currency = "USD"
	EUR  Currency = "EUR"
	GBP  Currency = "GBP"
)

var currencyClasses = map[Currency]AssetClass{
	BTC:  AssetClassCrypto,
	ETH:  AssetClassCrypto,
	USDT: AssetClassCrypto,
	USD:  AssetClassFiat,
	EUR:  AssetClassFiat,
	GBP:  AssetClassFiat,
}

// Currencies returns every supported currency, fiat first, in display order.
func Currencies() []Currency {
	return []Currency{USD, EUR, GBP, BTC, USDT, ETH}
}

// ParseCurrency converts a raw symbol into a Currency.
// Symbols are matched case-insensitively, unknown ones fail with ErrValidation.
func ParseCurrency(raw string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", errors.Wrapf(ErrValidation, "unknown currency %q", raw)
	}

	return c, nil
}

// String returns the string representation.
func (c Currency) String() string {
	return string(c)
}

// IsValid checks if the Currency value is one of the supported symbols.
func (c Currency) IsValid() bool {
	_, ok := currencyClasses[c]
	return ok
}

// Class returns the asset class of the currency.
func (c Currency) Class() AssetClass {
	return currencyClasses[c]
}

// IsCrypto reports whether the currency is a crypto asset.
func (c Currency) IsCrypto() bool {
	return c.Class() == AssetClassCrypto
}

// IsFiat reports whether the currency is a fiat currency.
func (c Currency) IsFiat() bool {
	return c.Class() == AssetClassFiat
}

// UnmarshalText validates the symbol while decoding JSON or YAML.
func (c *Currency) UnmarshalText(text []byte) error {
	parsed, err := ParseCurrency(string(text))
	if err != nil {
		return err
	}
	*c = parsed

	return nil
}
