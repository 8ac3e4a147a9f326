package world

import "github.com/rickgao/merchant-quest/internal/model"

// Cities is the static city roster. TravelCost is debited when a merchant
// travels to that city; the starting city is free to reach.
var Cities = [model.CityCount]model.City{
	model.Silverport: {
		ID:          model.Silverport,
		Name:        "Silverport",
		Description: "A bustling harbor town where exotic cargo changes hands daily.",
		Specialty:   "Spices",
		TravelCost:  0,
	},
	model.Goldmere: {
		ID:          model.Goldmere,
		Name:        "Goldmere",
		Description: "A wealthy mining city built around deep gold veins.",
		Specialty:   "Gold",
		TravelCost:  60,
	},
	model.Silkwind: {
		ID:          model.Silkwind,
		Name:        "Silkwind",
		Description: "A caravan crossroads famous for its silk markets.",
		Specialty:   "Silk",
		TravelCost:  80,
	},
	model.Ironhold: {
		ID:          model.Ironhold,
		Name:        "Ironhold",
		Description: "A fortress city whose forges never cool.",
		Specialty:   "Iron",
		TravelCost:  70,
	},
}

// cityModifiers adjusts the oracle price per city, in basis points. A
// city's specialty is abundant there (cheaper); goods it lacks command a
// premium. Unlisted pairs trade at the oracle price; Silverport, the
// neutral starting port, has no modifiers at all.
var cityModifiers = map[model.CityID]map[model.Commodity]int64{
	model.Goldmere: {
		model.Gold:  9_000,
		model.Wheat: 11_000,
	},
	model.Silkwind: {
		model.Silk:   9_000,
		model.Spices: 9_000,
		model.Iron:   11_000,
	},
	model.Ironhold: {
		model.Iron:   9_000,
		model.Wheat:  9_000,
		model.Silk:   11_000,
		model.Spices: 11_000,
	},
}

// Merchants buy above and sell below the city price.
const (
	buySpreadBP  = 10_500
	sellSpreadBP = 9_500
)

// CityPrice adjusts a base oracle price for local supply and demand. The
// result keeps the oracle's floor of 1.
func CityPrice(city model.CityID, c model.Commodity, oraclePrice int64) int64 {
	modifier := int64(model.BasisPoints)
	if m, ok := cityModifiers[city][c]; ok {
		modifier = m
	}
	price := oraclePrice * modifier / model.BasisPoints
	if price < 1 {
		price = 1
	}
	return price
}

// BuyPrice is the city price plus the merchant spread.
func BuyPrice(city model.CityID, c model.Commodity, oraclePrice int64) int64 {
	return CityPrice(city, c, oraclePrice) * buySpreadBP / model.BasisPoints
}

// SellPrice is the city price minus the merchant spread, floored at 1.
func SellPrice(city model.CityID, c model.Commodity, oraclePrice int64) int64 {
	price := CityPrice(city, c, oraclePrice) * sellSpreadBP / model.BasisPoints
	if price < 1 {
		price = 1
	}
	return price
}
