// Package world wires the oracle, travel machine, and merchant ledger into
// the player-facing game operations: creating merchants, traveling between
// cities, and buying or selling commodities at city-adjusted oracle prices.
//
// Executed trades are pushed onto the trade queue for asynchronous
// persistence; gameplay never waits on the database.
package world
