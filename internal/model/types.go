package model

import (
	"time"

	"github.com/google/uuid"
)

// BasisPoints is the fixed-point scale for multipliers: 10,000 = 100%.
const BasisPoints = 10_000

// -----------------------------------------------------------------------------
// Commodities
// -----------------------------------------------------------------------------

// Commodity identifies one of the five tradable goods.
type Commodity int

const (
	Gold Commodity = iota
	Wheat
	Silk
	Spices
	Iron

	// CommodityCount is the size of the fixed commodity set.
	CommodityCount = 5
)

var commodityNames = [CommodityCount]string{"Gold", "Wheat", "Silk", "Spices", "Iron"}

// String returns the display name, or "Unknown" for out-of-range ids.
func (c Commodity) String() string {
	if !c.Valid() {
		return "Unknown"
	}
	return commodityNames[c]
}

// Valid reports whether c is within the fixed commodity set.
func (c Commodity) Valid() bool {
	return c >= 0 && c < CommodityCount
}

// PriceBreakdown is the diagnostic view of a single commodity's derived price.
// FeedDelta is the amplified basis-point delta taken from the external feed;
// it is zero whenever UsingFallback is true.
type PriceBreakdown struct {
	Commodity       Commodity
	FinalPrice      int64
	BasePrice       int64
	TrendMultiplier int64 // Basis points
	FeedDelta       int64 // Basis points, 0 in fallback mode
	UsingFallback   bool
}

// -----------------------------------------------------------------------------
// Cities
// -----------------------------------------------------------------------------

// CityID identifies one of the four cities.
type CityID int

// CityCount is the size of the fixed city set.
const CityCount = 4

const (
	Silverport CityID = iota
	Goldmere
	Silkwind
	Ironhold
)

var cityNames = [CityCount]string{"Silverport", "Goldmere", "Silkwind", "Ironhold"}

// String returns the display name, or "Unknown" for out-of-range ids.
func (c CityID) String() string {
	if !c.Valid() {
		return "Unknown"
	}
	return cityNames[c]
}

// Valid reports whether c is within the fixed city set.
func (c CityID) Valid() bool {
	return c >= 0 && c < CityCount
}

// City describes a city's static attributes.
type City struct {
	ID          CityID
	Name        string
	Description string
	Specialty   string
	TravelCost  int64 // Gold debited when traveling to this city
}

// -----------------------------------------------------------------------------
// Merchants
// -----------------------------------------------------------------------------

// Merchant is a player's game identity: gold, inventory position, location.
type Merchant struct {
	ID         uuid.UUID
	Owner      string // Opaque owner identity (e.g., wallet address)
	Name       string
	Level      int
	Experience int64
	Gold       int64
	City       CityID
	Trades     int64
	Profit     int64
	CreatedAt  time.Time
}

// InventoryLine is a merchant's position in one commodity.
type InventoryLine struct {
	Commodity Commodity
	Quantity  int64
	AvgPrice  int64 // Average acquisition price in gold
}

// -----------------------------------------------------------------------------
// Travel
// -----------------------------------------------------------------------------

// TravelStatus is the authoritative answer to "where is this merchant".
// When IsTraveling is false, only City is meaningful; the transit fields
// are stale and must be ignored.
type TravelStatus struct {
	MerchantID    uuid.UUID
	IsTraveling   bool
	City          CityID // Authoritative location while at rest
	FromCity      CityID
	ToCity        CityID
	TimeRemaining time.Duration // max(0, arrivalTime - now)
}

// -----------------------------------------------------------------------------
// Trades
// -----------------------------------------------------------------------------

// TradeSide distinguishes buys from sells.
type TradeSide bool

const (
	Buy  TradeSide = true
	Sell TradeSide = false
)

func (s TradeSide) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// TradeRecord is an executed trade, written append-only to the trade log.
type TradeRecord struct {
	TradeID    uuid.UUID
	MerchantID uuid.UUID
	City       CityID
	Commodity  Commodity
	Side       TradeSide
	Quantity   int64
	UnitPrice  int64 // Gold per unit at execution
	Profit     int64 // Realized profit (sells only)
	ExecutedAt time.Time
}
