package domain

import "errors"

// Failure categories shared across components.
var (
	// ErrDataUnavailable: an upstream read source failed or returned nothing usable.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrQuoteUnavailable: the quote provider failed or returned a degenerate quote.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrStaleReference: a confirmation refers to a payload that no longer exists or expired.
	ErrStaleReference = errors.New("expired")
)
