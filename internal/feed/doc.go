// Package feed reads reference asset prices from a Pyth Hermes endpoint.
//
// Two access paths:
//   - Client: REST, one shot, used for explicit reference snapshots
//   - Stream: WebSocket subscription feeding a local quote cache, used by
//     the oracle's query path (single cache lookup, never blocks on I/O)
//
// Game commodities map to real-world reference assets: Gold tracks XAU/USD,
// Wheat and Silk track ETH/USD, Spices tracks XAG/USD, Iron tracks WTI crude.
package feed
