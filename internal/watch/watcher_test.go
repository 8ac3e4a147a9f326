package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/merchant-quest/internal/model"
	"github.com/rickgao/merchant-quest/internal/travel"
)

// fakePrices is a mutable price source.
type fakePrices struct {
	mu     sync.Mutex
	prices [model.CommodityCount]int64
}

func (f *fakePrices) GetAllPrices() [model.CommodityCount]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prices
}

func (f *fakePrices) set(c model.Commodity, price int64) {
	f.mu.Lock()
	f.prices[c] = price
	f.mu.Unlock()
}

// fakeClock drives the travel machine's notion of now.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestWatcher_PriceDiff(t *testing.T) {
	prices := &fakePrices{prices: [model.CommodityCount]int64{100, 20, 60, 45, 30}}

	var mu sync.Mutex
	type change struct {
		c        model.Commodity
		old, new int64
	}
	var changes []change

	w := New(Config{Interval: 10 * time.Millisecond}, prices, nil,
		func(c model.Commodity, old, new int64) {
			mu.Lock()
			changes = append(changes, change{c, old, new})
			mu.Unlock()
		}, nil, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stopWatcher(t, w)

	// Let the baseline seed, then move one price.
	waitFor(t, time.Second, func() bool { return w.Stats().Cycles >= 2 })

	mu.Lock()
	if len(changes) != 0 {
		t.Errorf("changes before any movement: %v", changes)
	}
	mu.Unlock()

	prices.set(model.Gold, 130)
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) > 0
	})

	mu.Lock()
	defer mu.Unlock()
	got := changes[0]
	if got.c != model.Gold || got.old != 100 || got.new != 130 {
		t.Errorf("change = %+v, want gold 100 -> 130", got)
	}
}

func TestWatcher_HealsStuckTravel(t *testing.T) {
	clock := newFakeClock()
	machine := travel.NewWithClock(travel.DefaultConfig(), nil, clock.Now)

	id := uuid.New()
	if err := machine.Register(id, model.Silverport); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := machine.StartTravel(id, model.Goldmere); err != nil {
		t.Fatalf("StartTravel failed: %v", err)
	}

	var mu sync.Mutex
	arrivals := make(map[uuid.UUID]model.CityID)

	w := New(Config{Interval: 10 * time.Millisecond}, nil, machine, nil,
		func(healedID uuid.UUID, city model.CityID) {
			mu.Lock()
			arrivals[healedID] = city
			mu.Unlock()
		}, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stopWatcher(t, w)

	// In-progress trips are left alone.
	waitFor(t, time.Second, func() bool { return w.Stats().Cycles >= 2 })
	if st, _ := machine.Status(id); !st.IsTraveling {
		t.Fatal("watcher completed an unexpired trip")
	}

	// Once the timer elapses the watcher heals the trip.
	clock.Advance(time.Minute)
	waitFor(t, time.Second, func() bool { return w.Stats().Heals == 1 })

	st, err := machine.Status(id)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.IsTraveling || st.City != model.Goldmere {
		t.Errorf("state after heal = %+v, want at rest in Goldmere", st)
	}

	mu.Lock()
	defer mu.Unlock()
	if arrivals[id] != model.Goldmere {
		t.Errorf("arrival callback city = %s, want Goldmere", arrivals[id])
	}

	// Healing is one-shot; later cycles see the merchant at rest.
	if w.Stats().Heals != 1 {
		t.Errorf("heals = %d, want 1", w.Stats().Heals)
	}
}

func TestWatcher_StopIsClean(t *testing.T) {
	w := New(DefaultConfig(), nil, nil, nil, nil, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func stopWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
