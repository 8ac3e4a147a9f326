package travel

import "errors"

var (
	// ErrInvalidCity means the city id is outside the fixed set.
	ErrInvalidCity = errors.New("travel: invalid city")

	// ErrUnknownMerchant means no travel record exists for the merchant.
	ErrUnknownMerchant = errors.New("travel: unknown merchant")

	// ErrNoOpTravel means the destination equals the current city.
	ErrNoOpTravel = errors.New("travel: already in destination city")

	// ErrStillTraveling means the merchant is in transit. Retryable; the
	// wrapped message carries the remaining time.
	ErrStillTraveling = errors.New("travel: still traveling")

	// ErrNotTraveling means the merchant is at rest. Benign when returned
	// by a duplicate completion attempt.
	ErrNotTraveling = errors.New("travel: not traveling")
)
