package merchant

import "errors"

var (
	// ErrUnknownMerchant means no merchant exists with the given id.
	ErrUnknownMerchant = errors.New("merchant: unknown merchant")

	// ErrUnauthorized means the caller does not own the target merchant.
	ErrUnauthorized = errors.New("merchant: caller does not own merchant")

	// ErrInsufficientFunds means the gold balance cannot cover the debit.
	ErrInsufficientFunds = errors.New("merchant: insufficient gold")

	// ErrInsufficientStock means the inventory cannot cover the sale.
	ErrInsufficientStock = errors.New("merchant: insufficient inventory")

	// ErrInvalidQuantity means a trade or transfer amount is not positive.
	ErrInvalidQuantity = errors.New("merchant: quantity must be positive")

	// ErrInvalidName means the merchant name is empty or too long.
	ErrInvalidName = errors.New("merchant: invalid name")
)
