package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rickgao/merchant-quest/internal/feed"
	"github.com/rickgao/merchant-quest/internal/model"
)

// QuoteSource is the cached, non-blocking feed read used by price queries.
type QuoteSource interface {
	Snapshot() (feed.Quotes, error)
}

// QuoteFetcher performs a fresh external read, used by reference snapshots.
type QuoteFetcher interface {
	LatestQuotes(ctx context.Context) (feed.Quotes, error)
}

// Config holds oracle settings.
type Config struct {
	// BlendFeed enables external-feed blending at startup. Off by default:
	// the oracle serves base * trend until an operator confirms the feed.
	BlendFeed bool

	// VolatilityAmplifier scales feed percentage moves, in basis points.
	VolatilityAmplifier int64

	// TrendMin and TrendMax bound accepted trend multipliers, in basis points.
	TrendMin int64
	TrendMax int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BlendFeed:           false,
		VolatilityAmplifier: 30_000, // 3x
		TrendMin:            1_000,
		TrendMax:            50_000,
	}
}

// basePrices is the static reference price per commodity, in gold.
var basePrices = [model.CommodityCount]int64{
	model.Gold:   100,
	model.Wheat:  20,
	model.Silk:   60,
	model.Spices: 45,
	model.Iron:   30,
}

// priceState is the per-commodity mutable state.
type priceState struct {
	basePrice int64
	trend     int64 // Basis points
	refPrice  int64 // External reference reading, 0 until first snapshot
	refExpo   int32
}

// Engine derives commodity prices. All mutation goes through its methods;
// mutating operations are atomic with respect to each other and to readers.
type Engine struct {
	cfg     Config
	source  QuoteSource
	fetcher QuoteFetcher
	logger  *slog.Logger

	mu            sync.RWMutex
	state         [model.CommodityCount]priceState
	usingFallback bool
	amplifier     int64
}

// New creates an Engine with neutral trends. Source and fetcher may be nil,
// in which case the engine behaves as if the feed were permanently down.
func New(cfg Config, source QuoteSource, fetcher QuoteFetcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:           cfg,
		source:        source,
		fetcher:       fetcher,
		logger:        logger,
		usingFallback: !cfg.BlendFeed,
		amplifier:     cfg.VolatilityAmplifier,
	}
	for i := range e.state {
		e.state[i] = priceState{
			basePrice: basePrices[i],
			trend:     model.BasisPoints,
		}
	}
	return e
}

// GetPrice returns the derived price for one commodity.
func (e *Engine) GetPrice(c model.Commodity) (int64, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCommodity, c)
	}

	quotes := e.readQuotes()

	e.mu.RLock()
	defer e.mu.RUnlock()
	price, _ := e.derive(c, quotes)
	return price, nil
}

// GetAllPrices returns derived prices for all commodities. A single feed
// reading backs the whole answer; it never partially fails.
func (e *Engine) GetAllPrices() [model.CommodityCount]int64 {
	quotes := e.readQuotes()

	e.mu.RLock()
	defer e.mu.RUnlock()

	var out [model.CommodityCount]int64
	for i := range out {
		out[i], _ = e.derive(model.Commodity(i), quotes)
	}
	return out
}

// GetPriceBreakdown returns the diagnostic view for one commodity.
func (e *Engine) GetPriceBreakdown(c model.Commodity) (model.PriceBreakdown, error) {
	if !c.Valid() {
		return model.PriceBreakdown{}, fmt.Errorf("%w: %d", ErrInvalidCommodity, c)
	}

	quotes := e.readQuotes()

	e.mu.RLock()
	defer e.mu.RUnlock()

	price, delta := e.derive(c, quotes)
	return model.PriceBreakdown{
		Commodity:       c,
		FinalPrice:      price,
		BasePrice:       e.state[c].basePrice,
		TrendMultiplier: e.state[c].trend,
		FeedDelta:       delta,
		UsingFallback:   e.usingFallback,
	}, nil
}

// UsingFallback reports whether feed blending is currently disabled.
func (e *Engine) UsingFallback() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.usingFallback
}

// UpdateTrends replaces the trend multiplier for all commodities at once.
// If any value is outside the configured band, nothing changes.
func (e *Engine) UpdateTrends(trends [model.CommodityCount]int64) error {
	for i, trend := range trends {
		if trend < e.cfg.TrendMin || trend > e.cfg.TrendMax {
			return fmt.Errorf("%w: %s = %d (allowed %d-%d)",
				ErrTrendOutOfRange, model.Commodity(i), trend, e.cfg.TrendMin, e.cfg.TrendMax)
		}
	}

	e.mu.Lock()
	for i, trend := range trends {
		e.state[i].trend = trend
	}
	e.mu.Unlock()

	e.logger.Info("oracle trends updated", "trends", trends)
	return nil
}

// TriggerEvent applies multiplier overrides to a subset of commodities.
// Modifiers replace the current trend, matching UpdateTrends semantics.
// If any input is invalid, nothing changes.
func (e *Engine) TriggerEvent(name, description string, commodities []model.Commodity, modifiers []int64) error {
	if len(commodities) != len(modifiers) {
		return fmt.Errorf("%w: %d commodities, %d modifiers",
			ErrArityMismatch, len(commodities), len(modifiers))
	}
	for i, c := range commodities {
		if !c.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidCommodity, c)
		}
		if modifiers[i] < e.cfg.TrendMin || modifiers[i] > e.cfg.TrendMax {
			return fmt.Errorf("%w: %s = %d (allowed %d-%d)",
				ErrTrendOutOfRange, c, modifiers[i], e.cfg.TrendMin, e.cfg.TrendMax)
		}
	}

	e.mu.Lock()
	for i, c := range commodities {
		e.state[c].trend = modifiers[i]
	}
	e.mu.Unlock()

	e.logger.Info("game event triggered",
		"event", name,
		"description", description,
		"commodities", len(commodities),
	)
	return nil
}

// SetFallbackMode toggles external-feed blending.
func (e *Engine) SetFallbackMode(enabled bool) {
	e.mu.Lock()
	e.usingFallback = enabled
	e.mu.Unlock()

	e.logger.Info("oracle fallback mode set", "enabled", enabled)
}

// SetVolatilityAmplifier replaces the amplifier, in basis points.
func (e *Engine) SetVolatilityAmplifier(bp int64) error {
	if bp < 1 {
		return fmt.Errorf("%w: %d", ErrAmplifierOutOfRange, bp)
	}

	e.mu.Lock()
	e.amplifier = bp
	e.mu.Unlock()

	e.logger.Info("volatility amplifier set", "basis_points", bp)
	return nil
}

// UpdateReferencePrices snapshots a fresh feed reading as the new baseline
// for delta computation. Unlike queries, this fails loudly when the feed
// cannot be read; no partial snapshot is taken.
func (e *Engine) UpdateReferencePrices(ctx context.Context) error {
	if e.fetcher == nil {
		return ErrFeedUnavailable
	}

	quotes, err := e.fetcher.LatestQuotes(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}

	// Validate the whole reading before touching any state.
	var snapshot [model.CommodityCount]feed.Quote
	for i := range snapshot {
		q, ok := quotes.ForCommodity(model.Commodity(i))
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrFeedUnavailable, model.Commodity(i))
		}
		snapshot[i] = q
	}

	e.mu.Lock()
	for i, q := range snapshot {
		e.state[i].refPrice = q.Price
		e.state[i].refExpo = q.Expo
	}
	e.mu.Unlock()

	e.logger.Info("reference prices updated")
	return nil
}

// readQuotes attempts one cached feed read. Returns nil when blending is
// off or the read fails; callers treat nil as "fallback for this query".
func (e *Engine) readQuotes() feed.Quotes {
	e.mu.RLock()
	fallback := e.usingFallback
	e.mu.RUnlock()

	if fallback || e.source == nil {
		return nil
	}

	quotes, err := e.source.Snapshot()
	if err != nil {
		e.logger.Debug("feed read failed, degrading to fallback", "error", err)
		return nil
	}
	return quotes
}

// derive computes one commodity's price. Caller must hold at least a read
// lock. Returns the price and the amplified feed delta in basis points
// (zero on the fallback path).
func (e *Engine) derive(c model.Commodity, quotes feed.Quotes) (price int64, delta int64) {
	st := e.state[c]
	price = st.basePrice * st.trend / model.BasisPoints

	if quotes != nil && !e.usingFallback && st.refPrice > 0 {
		if q, ok := quotes.ForCommodity(c); ok && q.Expo == st.refExpo {
			pctBP := (q.Price - st.refPrice) * model.BasisPoints / st.refPrice
			delta = pctBP * e.amplifier / model.BasisPoints
			price = price * (model.BasisPoints + delta) / model.BasisPoints
		}
	}

	if price < 1 {
		price = 1
	}
	return price, delta
}
