package oracle

import (
	"math/rand/v2"
	"sort"

	"github.com/rickgao/merchant-quest/internal/model"
)

// Scenario produces a full trend vector for UpdateTrends. Randomized
// scenarios draw fresh values on every call.
type Scenario func() [model.CommodityCount]int64

// Scenarios are the preset market conditions operators can apply.
var Scenarios = map[string]Scenario{
	// Normal fluctuation, every commodity within ±10%.
	"normal": func() [model.CommodityCount]int64 {
		var t [model.CommodityCount]int64
		for i := range t {
			t[i] = model.BasisPoints + rand.Int64N(2001) - 1000
		}
		return t
	},

	// Bull market, everything up 5-15%.
	"bull": func() [model.CommodityCount]int64 {
		var t [model.CommodityCount]int64
		for i := range t {
			t[i] = model.BasisPoints + 500 + rand.Int64N(1001)
		}
		return t
	},

	// Bear market, everything down 5-15%.
	"bear": func() [model.CommodityCount]int64 {
		var t [model.CommodityCount]int64
		for i := range t {
			t[i] = model.BasisPoints - 500 - rand.Int64N(1001)
		}
		return t
	},

	// Gold rush: gold up, others flat.
	"gold-rush": fixed([model.CommodityCount]int64{15_000, 10_000, 10_000, 10_000, 10_000}),

	// Harvest season: wheat cheap.
	"harvest": fixed([model.CommodityCount]int64{10_000, 7_500, 10_000, 10_000, 10_000}),

	// War time: iron expensive, silk cheap.
	"war": fixed([model.CommodityCount]int64{11_000, 12_000, 8_000, 10_000, 15_000}),

	// Trade route disruption: silk and spices expensive.
	"trade-disruption": fixed([model.CommodityCount]int64{10_000, 10_000, 14_000, 14_000, 10_000}),
}

func fixed(t [model.CommodityCount]int64) Scenario {
	return func() [model.CommodityCount]int64 { return t }
}

// GameEvent is a narrative price shock applied to a subset of commodities.
type GameEvent struct {
	Name        string
	Description string
	Commodities []model.Commodity
	Modifiers   []int64 // Basis points, replace the current trend
}

// Events are the preset game events operators can trigger.
var Events = map[string]GameEvent{
	"dragon": {
		Name:        "Dragon Attack!",
		Description: "A dragon has attacked the trade routes! Luxury goods are scarce.",
		Commodities: []model.Commodity{model.Silk, model.Spices},
		Modifiers:   []int64{15_000, 15_000},
	},
	"bountiful-harvest": {
		Name:        "Bountiful Harvest",
		Description: "Excellent weather has led to a record harvest. Wheat is abundant!",
		Commodities: []model.Commodity{model.Wheat},
		Modifiers:   []int64{7_000},
	},
	"gold-discovery": {
		Name:        "Gold Vein Discovered",
		Description: "Miners have discovered a massive gold vein in the mountains!",
		Commodities: []model.Commodity{model.Gold},
		Modifiers:   []int64{7_500},
	},
	"pirate-raid": {
		Name:        "Pirate Raid",
		Description: "Pirates have raided coastal warehouses. Iron weapons are in high demand!",
		Commodities: []model.Commodity{model.Iron},
		Modifiers:   []int64{14_000},
	},
	"festival": {
		Name:        "Royal Festival",
		Description: "The kingdom celebrates! Demand for luxuries has skyrocketed.",
		Commodities: []model.Commodity{model.Gold, model.Silk, model.Spices},
		Modifiers:   []int64{12_000, 13_000, 12_000},
	},
	"reset": {
		Name:        "Market Stabilization",
		Description: "Markets have returned to normal conditions.",
		Commodities: []model.Commodity{model.Gold, model.Wheat, model.Silk, model.Spices, model.Iron},
		Modifiers:   []int64{10_000, 10_000, 10_000, 10_000, 10_000},
	},
}

// ScenarioNames returns the available scenario names, sorted.
func ScenarioNames() []string {
	names := make([]string, 0, len(Scenarios))
	for name := range Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EventNames returns the available event names, sorted.
func EventNames() []string {
	names := make([]string, 0, len(Events))
	for name := range Events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
