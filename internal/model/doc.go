// Package model defines shared data types used across the MerchantQuest core.
//
// Conventions:
//   - Multipliers: integer basis points (10,000 = 100% = neutral)
//   - Prices: whole gold pieces (never zero or negative)
//   - Timestamps: time.Time in memory, int64 microseconds since Unix epoch at rest
//   - IDs: small integer indices for commodities and cities, uuid.UUID for
//     merchants and trades
package model
