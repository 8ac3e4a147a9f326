package travel

import (
	"time"

	"github.com/rickgao/merchant-quest/internal/model"
)

// travelTimes is the directed duration table. It is not guaranteed to be
// symmetric and deliberately left exactly as tabulated; pairs missing from
// it fall back to the configured default so travel always completes.
var travelTimes = map[model.CityID]map[model.CityID]time.Duration{
	model.Silverport: {
		model.Goldmere: 5 * time.Second,
		model.Silkwind: 8 * time.Second,
		model.Ironhold: 6 * time.Second,
	},
	model.Goldmere: {
		model.Silverport: 5 * time.Second,
		model.Silkwind:   10 * time.Second,
		model.Ironhold:   7 * time.Second,
	},
	model.Silkwind: {
		model.Silverport: 8 * time.Second,
		model.Goldmere:   10 * time.Second,
		model.Ironhold:   7 * time.Second,
	},
	model.Ironhold: {
		model.Silverport: 6 * time.Second,
		model.Goldmere:   7 * time.Second,
		model.Silkwind:   7 * time.Second,
	},
}

// Duration returns the trip time from one city to another. Unknown pairs
// get the default rather than an error.
func Duration(from, to model.CityID, def time.Duration) time.Duration {
	if d, ok := travelTimes[from][to]; ok {
		return d
	}
	return def
}
