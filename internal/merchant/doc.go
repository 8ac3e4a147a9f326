// Package merchant implements the merchant identity and gold ledger.
//
// The ledger owns merchant records, their gold balances, and their
// inventories. Every mutation is atomic: a trade either debits gold and
// adjusts inventory together or does nothing. Ownership checks gate all
// mutations initiated on behalf of a caller.
package merchant
