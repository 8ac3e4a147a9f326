// Package oracle implements the commodity price oracle.
//
// Each commodity's price derives from a static base price, an operator-set
// trend multiplier, and (when feed blending is enabled) the amplified
// relative drift of a real-world reference asset since the last reference
// snapshot. Query paths never fail on feed trouble: they silently degrade
// to base * trend. Only an explicit reference snapshot fails loudly when
// the feed cannot be read.
//
// All multipliers are integer basis points (10,000 = 100%). Derived prices
// are floored at 1 gold.
package oracle
