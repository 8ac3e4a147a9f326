package feed

import (
	"errors"
	"time"

	"github.com/rickgao/merchant-quest/internal/model"
)

// Symbol identifies a reference asset tracked on the external feed.
type Symbol string

// Reference assets backing game commodity prices.
const (
	XAUUSD Symbol = "XAU/USD"
	ETHUSD Symbol = "ETH/USD"
	XAGUSD Symbol = "XAG/USD"
	WTIUSD Symbol = "WTI/USD"
)

// feedIDs maps symbols to Hermes price feed identifiers (hex, no 0x prefix).
var feedIDs = map[Symbol]string{
	XAUUSD: "765d2ba906dbc32ca17cc11f5310a89e9ee1f6420508c63861f2f8ba4ee34bb2",
	ETHUSD: "ff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace",
	XAGUSD: "f2fb02c32b055c805e7238d628e5e9dadef274376114eb1f012337cabe93871e",
	WTIUSD: "f3b50961ff387a3d68217e2715637d0add6013e7ecb83c36ae8062f97c46929e",
}

// CommoditySymbols maps each game commodity to its reference asset.
var CommoditySymbols = [model.CommodityCount]Symbol{
	model.Gold:   XAUUSD,
	model.Wheat:  ETHUSD,
	model.Silk:   ETHUSD,
	model.Spices: XAGUSD,
	model.Iron:   WTIUSD,
}

// Symbols returns the distinct reference assets, in stable order.
func Symbols() []Symbol {
	return []Symbol{XAUUSD, ETHUSD, XAGUSD, WTIUSD}
}

// Quote is a single feed reading. Price is the raw fixed-point integer as
// published (scaled by 10^Expo); two quotes for the same symbol share an
// exponent, so relative change can be computed on Price directly.
type Quote struct {
	Symbol      Symbol
	Price       int64
	Expo        int32
	PublishedAt time.Time
}

// Quotes is a full reading across all reference assets.
type Quotes map[Symbol]Quote

// ForCommodity returns the quote backing the given commodity.
func (q Quotes) ForCommodity(c model.Commodity) (Quote, bool) {
	if !c.Valid() {
		return Quote{}, false
	}
	quote, ok := q[CommoditySymbols[c]]
	return quote, ok
}

// ErrNoQuotes is returned when the feed has no usable reading.
var ErrNoQuotes = errors.New("feed: no quotes available")
