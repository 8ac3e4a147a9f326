package oracle

import "errors"

var (
	// ErrInvalidCommodity means the commodity id is outside the fixed set.
	ErrInvalidCommodity = errors.New("oracle: invalid commodity")

	// ErrTrendOutOfRange means a trend multiplier is outside the sane band.
	ErrTrendOutOfRange = errors.New("oracle: trend multiplier out of range")

	// ErrArityMismatch means an event's commodity and modifier lists differ in length.
	ErrArityMismatch = errors.New("oracle: commodity and modifier counts differ")

	// ErrAmplifierOutOfRange means the volatility amplifier is not positive.
	ErrAmplifierOutOfRange = errors.New("oracle: volatility amplifier out of range")

	// ErrFeedUnavailable means a fresh external reading was required but could
	// not be obtained. Only reference snapshots surface this; price queries
	// degrade silently instead.
	ErrFeedUnavailable = errors.New("oracle: external feed unavailable")
)
