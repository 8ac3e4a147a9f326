package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/merchant-quest/internal/model"
	"github.com/rickgao/merchant-quest/internal/travel"
)

// PriceSource provides the current derived prices.
type PriceSource interface {
	GetAllPrices() [model.CommodityCount]int64
}

// TravelSource provides travel state and the completion transition.
type TravelSource interface {
	Merchants() []uuid.UUID
	Status(id uuid.UUID) (model.TravelStatus, error)
	CompleteTravel(id uuid.UUID) (model.CityID, error)
}

// PriceHandler is invoked for each commodity whose price changed since the
// previous cycle.
type PriceHandler func(c model.Commodity, old, new int64)

// ArrivalHandler is invoked after the watcher heals a stuck trip.
type ArrivalHandler func(id uuid.UUID, city model.CityID)

// Config holds watcher configuration.
type Config struct {
	Interval time.Duration // Poll interval (default: 2s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 2 * time.Second,
	}
}

// Metrics counts watcher activity.
type Metrics struct {
	Cycles       int64
	PriceChanges int64
	Heals        int64
}

// Watcher runs the reconciliation loop.
type Watcher struct {
	cfg       Config
	prices    PriceSource
	travel    TravelSource
	onPrice   PriceHandler
	onArrival ArrivalHandler
	logger    *slog.Logger

	lastPrices [model.CommodityCount]int64
	hasPrices  bool

	cycles       atomic.Int64
	priceChanges atomic.Int64
	heals        atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Watcher. The handlers may be nil.
func New(
	cfg Config,
	prices PriceSource,
	travelSrc TravelSource,
	onPrice PriceHandler,
	onArrival ArrivalHandler,
	logger *slog.Logger,
) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Watcher{
		cfg:       cfg,
		prices:    prices,
		travel:    travelSrc,
		onPrice:   onPrice,
		onArrival: onArrival,
		logger:    logger,
	}
}

// Start begins the reconciliation loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run()

	w.logger.Info("reconciliation watcher started", "interval", w.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the watcher.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("reconciliation watcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the watcher's counters.
func (w *Watcher) Stats() Metrics {
	return Metrics{
		Cycles:       w.cycles.Load(),
		PriceChanges: w.priceChanges.Load(),
		Heals:        w.heals.Load(),
	}
}

// run is the main reconciliation loop.
func (w *Watcher) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	// Reconcile immediately on start.
	w.tick()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

// tick runs one reconciliation cycle.
func (w *Watcher) tick() {
	w.cycles.Add(1)
	w.diffPrices()
	w.healTravel()
}

// diffPrices compares current prices to the previous cycle and notifies on
// changes. The first cycle only seeds the baseline.
func (w *Watcher) diffPrices() {
	if w.prices == nil {
		return
	}

	current := w.prices.GetAllPrices()
	if w.hasPrices {
		for i, price := range current {
			old := w.lastPrices[i]
			if price == old {
				continue
			}
			w.priceChanges.Add(1)
			w.logger.Debug("price changed",
				"commodity", model.Commodity(i),
				"old", old,
				"new", price,
			)
			if w.onPrice != nil {
				w.onPrice(model.Commodity(i), old, price)
			}
		}
	}
	w.lastPrices = current
	w.hasPrices = true
}

// healTravel completes any trip whose timer has elapsed. Losing the
// completion race to another caller is fine; the trip is healed either way.
func (w *Watcher) healTravel() {
	if w.travel == nil {
		return
	}

	for _, id := range w.travel.Merchants() {
		st, err := w.travel.Status(id)
		if err != nil {
			w.logger.Warn("travel status failed", "merchant_id", id, "err", err)
			continue
		}
		if !st.IsTraveling || st.TimeRemaining > 0 {
			continue
		}

		city, err := w.travel.CompleteTravel(id)
		if err != nil {
			if errors.Is(err, travel.ErrNotTraveling) {
				continue
			}
			w.logger.Warn("travel heal failed", "merchant_id", id, "err", err)
			continue
		}

		w.heals.Add(1)
		w.logger.Info("healed stuck travel", "merchant_id", id, "city", city)
		if w.onArrival != nil {
			w.onArrival(id, city)
		}
	}
}
