package domain

import "github.com/pkg/errors"

var (
	// ErrValidation bad amount, unknown currency or unsupported pair.
	ErrValidation = errors.New("validation error")
	// ErrNotFound unknown, consumed or in-flight quote.
	ErrNotFound = errors.New("quote not found")
	// ErrExpired quote is past its validity window.
	ErrExpired = errors.New("quote expired")
	// ErrInsufficientBalance cost exceeds the source wallet balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrFeedUnavailable no usable market data from the external feed.
	ErrFeedUnavailable = errors.New("feed unavailable")
	// ErrMarketNotFound the feed does not list the requested market.
	ErrMarketNotFound = errors.New("market not found")
)
