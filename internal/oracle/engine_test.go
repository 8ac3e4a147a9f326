package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/rickgao/merchant-quest/internal/feed"
	"github.com/rickgao/merchant-quest/internal/model"
)

// fakeSource is a canned cached-read feed.
type fakeSource struct {
	quotes feed.Quotes
	err    error
}

func (f *fakeSource) Snapshot() (feed.Quotes, error) {
	return f.quotes, f.err
}

// fakeFetcher is a canned fresh-read feed.
type fakeFetcher struct {
	quotes feed.Quotes
	err    error
	calls  int
}

func (f *fakeFetcher) LatestQuotes(ctx context.Context) (feed.Quotes, error) {
	f.calls++
	return f.quotes, f.err
}

// quotesAt builds a complete reading with every symbol at the given price.
func quotesAt(price int64) feed.Quotes {
	quotes := make(feed.Quotes)
	for _, sym := range feed.Symbols() {
		quotes[sym] = feed.Quote{Symbol: sym, Price: price, Expo: -8}
	}
	return quotes
}

func blendingConfig() Config {
	cfg := DefaultConfig()
	cfg.BlendFeed = true
	return cfg
}

func TestEngine_DefaultPricesEqualBase(t *testing.T) {
	e := New(DefaultConfig(), nil, nil, nil)

	want := [model.CommodityCount]int64{
		model.Gold:   100,
		model.Wheat:  20,
		model.Silk:   60,
		model.Spices: 45,
		model.Iron:   30,
	}
	if got := e.GetAllPrices(); got != want {
		t.Errorf("GetAllPrices() = %v, want %v", got, want)
	}
	if !e.UsingFallback() {
		t.Error("expected a fresh engine to start in fallback mode")
	}
}

func TestEngine_GetPrice_InvalidCommodity(t *testing.T) {
	e := New(DefaultConfig(), nil, nil, nil)

	if _, err := e.GetPrice(model.Commodity(7)); !errors.Is(err, ErrInvalidCommodity) {
		t.Errorf("GetPrice(7) error = %v, want ErrInvalidCommodity", err)
	}
	if _, err := e.GetPriceBreakdown(model.Commodity(-1)); !errors.Is(err, ErrInvalidCommodity) {
		t.Errorf("GetPriceBreakdown(-1) error = %v, want ErrInvalidCommodity", err)
	}
}

func TestEngine_UpdateTrends(t *testing.T) {
	e := New(DefaultConfig(), nil, nil, nil)

	trends := [model.CommodityCount]int64{15_000, 7_500, 10_000, 12_000, 8_000}
	if err := e.UpdateTrends(trends); err != nil {
		t.Fatalf("UpdateTrends failed: %v", err)
	}

	price, err := e.GetPrice(model.Gold)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if price != 150 {
		t.Errorf("gold price = %d, want 150", price)
	}

	price, _ = e.GetPrice(model.Wheat)
	if price != 15 {
		t.Errorf("wheat price = %d, want 15", price)
	}
}

func TestEngine_UpdateTrends_AllOrNothing(t *testing.T) {
	e := New(DefaultConfig(), nil, nil, nil)

	before := e.GetAllPrices()

	trends := [model.CommodityCount]int64{10_000, 10_000, 10_000, 10_000, 99_999}
	if err := e.UpdateTrends(trends); !errors.Is(err, ErrTrendOutOfRange) {
		t.Fatalf("UpdateTrends error = %v, want ErrTrendOutOfRange", err)
	}

	if after := e.GetAllPrices(); after != before {
		t.Errorf("prices changed after rejected update: %v -> %v", before, after)
	}
}

func TestEngine_TriggerEvent_Replaces(t *testing.T) {
	e := New(DefaultConfig(), nil, nil, nil)

	if err := e.UpdateTrends([model.CommodityCount]int64{12_000, 12_000, 12_000, 12_000, 12_000}); err != nil {
		t.Fatalf("UpdateTrends failed: %v", err)
	}
	if err := e.TriggerEvent("Pirate Raid", "", []model.Commodity{model.Iron}, []int64{14_000}); err != nil {
		t.Fatalf("TriggerEvent failed: %v", err)
	}

	// The modifier replaces the prior trend rather than stacking on it.
	bd, err := e.GetPriceBreakdown(model.Iron)
	if err != nil {
		t.Fatalf("GetPriceBreakdown failed: %v", err)
	}
	if bd.TrendMultiplier != 14_000 {
		t.Errorf("iron trend = %d, want 14000", bd.TrendMultiplier)
	}
	if bd.FinalPrice != 42 {
		t.Errorf("iron price = %d, want 42", bd.FinalPrice)
	}

	// Untouched commodities keep their previous trend.
	if price, _ := e.GetPrice(model.Gold); price != 120 {
		t.Errorf("gold price = %d, want 120", price)
	}
}

func TestEngine_TriggerEvent_ArityMismatch(t *testing.T) {
	e := New(DefaultConfig(), nil, nil, nil)
	before := e.GetAllPrices()

	err := e.TriggerEvent("broken", "",
		[]model.Commodity{model.Gold, model.Silk}, []int64{12_000})
	if !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("TriggerEvent error = %v, want ErrArityMismatch", err)
	}

	if after := e.GetAllPrices(); after != before {
		t.Errorf("prices changed after rejected event: %v -> %v", before, after)
	}
}

func TestEngine_TriggerEvent_InvalidInputs(t *testing.T) {
	e := New(DefaultConfig(), nil, nil, nil)

	err := e.TriggerEvent("bad commodity", "",
		[]model.Commodity{model.Commodity(9)}, []int64{12_000})
	if !errors.Is(err, ErrInvalidCommodity) {
		t.Errorf("TriggerEvent error = %v, want ErrInvalidCommodity", err)
	}

	err = e.TriggerEvent("bad modifier", "",
		[]model.Commodity{model.Gold}, []int64{500})
	if !errors.Is(err, ErrTrendOutOfRange) {
		t.Errorf("TriggerEvent error = %v, want ErrTrendOutOfRange", err)
	}
}

func TestEngine_FeedBlending(t *testing.T) {
	source := &fakeSource{quotes: quotesAt(1_100)}
	fetcher := &fakeFetcher{quotes: quotesAt(1_000)}

	e := New(blendingConfig(), source, fetcher, nil)
	if err := e.UpdateReferencePrices(context.Background()); err != nil {
		t.Fatalf("UpdateReferencePrices failed: %v", err)
	}

	// A 10% reference move amplified 3x is a 30% price move.
	bd, err := e.GetPriceBreakdown(model.Gold)
	if err != nil {
		t.Fatalf("GetPriceBreakdown failed: %v", err)
	}
	if bd.FeedDelta != 3_000 {
		t.Errorf("feed delta = %d, want 3000", bd.FeedDelta)
	}
	if bd.FinalPrice != 130 {
		t.Errorf("gold price = %d, want 130", bd.FinalPrice)
	}
	if bd.UsingFallback {
		t.Error("breakdown reports fallback while blending is on")
	}
}

func TestEngine_FeedBlending_Amplifier(t *testing.T) {
	source := &fakeSource{quotes: quotesAt(1_100)}
	fetcher := &fakeFetcher{quotes: quotesAt(1_000)}

	e := New(blendingConfig(), source, fetcher, nil)
	if err := e.UpdateReferencePrices(context.Background()); err != nil {
		t.Fatalf("UpdateReferencePrices failed: %v", err)
	}
	if err := e.SetVolatilityAmplifier(10_000); err != nil {
		t.Fatalf("SetVolatilityAmplifier failed: %v", err)
	}

	// At 1x the price moves exactly as much as the reference did.
	if price, _ := e.GetPrice(model.Gold); price != 110 {
		t.Errorf("gold price = %d, want 110", price)
	}
}

func TestEngine_SetVolatilityAmplifier_Invalid(t *testing.T) {
	e := New(DefaultConfig(), nil, nil, nil)

	if err := e.SetVolatilityAmplifier(0); !errors.Is(err, ErrAmplifierOutOfRange) {
		t.Errorf("SetVolatilityAmplifier(0) error = %v, want ErrAmplifierOutOfRange", err)
	}
	if err := e.SetVolatilityAmplifier(-5); !errors.Is(err, ErrAmplifierOutOfRange) {
		t.Errorf("SetVolatilityAmplifier(-5) error = %v, want ErrAmplifierOutOfRange", err)
	}
}

func TestEngine_PriceFloor(t *testing.T) {
	// Reference collapsed 90%; amplified 3x the raw multiplier goes negative.
	source := &fakeSource{quotes: quotesAt(100)}
	fetcher := &fakeFetcher{quotes: quotesAt(1_000)}

	e := New(blendingConfig(), source, fetcher, nil)
	if err := e.UpdateReferencePrices(context.Background()); err != nil {
		t.Fatalf("UpdateReferencePrices failed: %v", err)
	}

	for i := 0; i < model.CommodityCount; i++ {
		price, err := e.GetPrice(model.Commodity(i))
		if err != nil {
			t.Fatalf("GetPrice(%d) failed: %v", i, err)
		}
		if price < 1 {
			t.Errorf("%s price = %d, want >= 1", model.Commodity(i), price)
		}
	}
	if price, _ := e.GetPrice(model.Gold); price != 1 {
		t.Errorf("gold price = %d, want floored to 1", price)
	}
}

func TestEngine_QueryDegradesSilently(t *testing.T) {
	source := &fakeSource{err: errors.New("connection reset")}
	fetcher := &fakeFetcher{quotes: quotesAt(1_000)}

	e := New(blendingConfig(), source, fetcher, nil)
	if err := e.UpdateReferencePrices(context.Background()); err != nil {
		t.Fatalf("UpdateReferencePrices failed: %v", err)
	}

	// Cached reads fail, so queries serve the plain base * trend price.
	price, err := e.GetPrice(model.Gold)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if price != 100 {
		t.Errorf("gold price = %d, want 100", price)
	}
}

func TestEngine_FallbackModeIgnoresFeed(t *testing.T) {
	source := &fakeSource{quotes: quotesAt(2_000)}
	fetcher := &fakeFetcher{quotes: quotesAt(1_000)}

	e := New(blendingConfig(), source, fetcher, nil)
	if err := e.UpdateReferencePrices(context.Background()); err != nil {
		t.Fatalf("UpdateReferencePrices failed: %v", err)
	}

	e.SetFallbackMode(true)
	if !e.UsingFallback() {
		t.Fatal("expected fallback mode after SetFallbackMode(true)")
	}
	if price, _ := e.GetPrice(model.Gold); price != 100 {
		t.Errorf("gold price = %d, want 100 in fallback mode", price)
	}

	e.SetFallbackMode(false)
	if price, _ := e.GetPrice(model.Gold); price != 400 {
		t.Errorf("gold price = %d, want 400 with blending restored", price)
	}
}

func TestEngine_UpdateReferencePrices_FeedDown(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("dial tcp: timeout")}
	e := New(blendingConfig(), nil, fetcher, nil)

	if err := e.UpdateReferencePrices(context.Background()); !errors.Is(err, ErrFeedUnavailable) {
		t.Errorf("UpdateReferencePrices error = %v, want ErrFeedUnavailable", err)
	}
}

func TestEngine_UpdateReferencePrices_IncompleteReadingChangesNothing(t *testing.T) {
	source := &fakeSource{quotes: quotesAt(2_000)}
	fetcher := &fakeFetcher{quotes: quotesAt(1_000)}

	e := New(blendingConfig(), source, fetcher, nil)
	if err := e.UpdateReferencePrices(context.Background()); err != nil {
		t.Fatalf("UpdateReferencePrices failed: %v", err)
	}
	before := e.GetAllPrices()

	// The new reading is missing one commodity's backing symbol; the
	// snapshot must be rejected without re-basing the others.
	partial := quotesAt(2_000)
	delete(partial, feed.CommoditySymbols[model.Iron])
	fetcher.quotes = partial

	if err := e.UpdateReferencePrices(context.Background()); !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("UpdateReferencePrices error = %v, want ErrFeedUnavailable", err)
	}
	if after := e.GetAllPrices(); after != before {
		t.Errorf("prices changed after rejected snapshot: %v -> %v", before, after)
	}
}

func TestEngine_UpdateReferencePrices_NoFetcher(t *testing.T) {
	e := New(blendingConfig(), nil, nil, nil)

	if err := e.UpdateReferencePrices(context.Background()); !errors.Is(err, ErrFeedUnavailable) {
		t.Errorf("UpdateReferencePrices error = %v, want ErrFeedUnavailable", err)
	}
}

func TestEngine_ExpoMismatchSkipsBlending(t *testing.T) {
	current := quotesAt(2_000)
	for sym, q := range current {
		q.Expo = -5
		current[sym] = q
	}
	source := &fakeSource{quotes: current}
	fetcher := &fakeFetcher{quotes: quotesAt(1_000)}

	e := New(blendingConfig(), source, fetcher, nil)
	if err := e.UpdateReferencePrices(context.Background()); err != nil {
		t.Fatalf("UpdateReferencePrices failed: %v", err)
	}

	// Readings on a different scale are not comparable to the reference.
	if price, _ := e.GetPrice(model.Gold); price != 100 {
		t.Errorf("gold price = %d, want 100", price)
	}
}

func TestScenarios_WithinTrendBand(t *testing.T) {
	cfg := DefaultConfig()

	for name, scenario := range Scenarios {
		for run := 0; run < 50; run++ {
			trends := scenario()
			for i, trend := range trends {
				if trend < cfg.TrendMin || trend > cfg.TrendMax {
					t.Fatalf("scenario %q run %d: %s trend %d outside %d-%d",
						name, run, model.Commodity(i), trend, cfg.TrendMin, cfg.TrendMax)
				}
			}
		}
	}
}

func TestEvents_ApplyCleanly(t *testing.T) {
	for name, event := range Events {
		e := New(DefaultConfig(), nil, nil, nil)
		if err := e.TriggerEvent(event.Name, event.Description, event.Commodities, event.Modifiers); err != nil {
			t.Errorf("event %q failed to apply: %v", name, err)
		}
	}
}
