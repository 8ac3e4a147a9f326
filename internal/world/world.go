package world

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/merchant-quest/internal/merchant"
	"github.com/rickgao/merchant-quest/internal/model"
	"github.com/rickgao/merchant-quest/internal/oracle"
	"github.com/rickgao/merchant-quest/internal/queue"
	"github.com/rickgao/merchant-quest/internal/travel"
)

// StartingCity is where every new merchant begins.
const StartingCity = model.Silverport

// World orchestrates game operations across the oracle, travel machine,
// and merchant ledger. Each operation enforces ownership first, then the
// relevant state preconditions, and commits nothing on failure. Composite
// mutations for the same merchant are serialized, so a trade cannot
// interleave with a departure.
type World struct {
	oracle *oracle.Engine
	travel *travel.Machine
	ledger *merchant.Ledger
	trades *queue.Ring[model.TradeRecord]
	logger *slog.Logger
	now    func() time.Time

	opMu    sync.Mutex
	opLocks map[uuid.UUID]*sync.Mutex
}

// New creates a World. The trade queue may be nil, in which case executed
// trades are not persisted.
func New(
	eng *oracle.Engine,
	machine *travel.Machine,
	ledger *merchant.Ledger,
	trades *queue.Ring[model.TradeRecord],
	logger *slog.Logger,
) *World {
	if logger == nil {
		logger = slog.Default()
	}
	return &World{
		oracle:  eng,
		travel:  machine,
		ledger:  ledger,
		trades:  trades,
		logger:  logger,
		now:     time.Now,
		opLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// merchantLock returns the mutex serializing composite mutations for one
// merchant. The travel machine and ledger each guard their own state, but
// a trade's at-rest check and its ledger commit span both; without this
// lock a concurrent departure could land in between.
func (w *World) merchantLock(id uuid.UUID) *sync.Mutex {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	mu, ok := w.opLocks[id]
	if !ok {
		mu = &sync.Mutex{}
		w.opLocks[id] = mu
	}
	return mu
}

// CreateMerchant mints a merchant for owner, at rest in the starting city.
func (w *World) CreateMerchant(owner, name string) (model.Merchant, error) {
	m, err := w.ledger.Create(owner, name, StartingCity)
	if err != nil {
		return model.Merchant{}, err
	}
	if err := w.travel.Register(m.ID, StartingCity); err != nil {
		return model.Merchant{}, err
	}
	return m, nil
}

// Quote returns the city-adjusted buy and sell unit prices for a
// commodity. Merchants buy above and sell below the city price.
func (w *World) Quote(city model.CityID, c model.Commodity) (buy, sell int64, err error) {
	if !city.Valid() {
		return 0, 0, fmt.Errorf("%w: %d", travel.ErrInvalidCity, city)
	}
	price, err := w.oracle.GetPrice(c)
	if err != nil {
		return 0, 0, err
	}
	return BuyPrice(city, c, price), SellPrice(city, c, price), nil
}

// Buy purchases quantity units at the merchant's current city price.
func (w *World) Buy(owner string, id uuid.UUID, c model.Commodity, quantity int64) (model.Merchant, error) {
	mu := w.merchantLock(id)
	mu.Lock()
	defer mu.Unlock()

	price, err := w.prepareTrade(owner, id, c, model.Buy)
	if err != nil {
		return model.Merchant{}, err
	}

	updated, err := w.ledger.ApplyBuy(id, c, quantity, price)
	if err != nil {
		return model.Merchant{}, err
	}

	w.emitTrade(updated, c, model.Buy, quantity, price, 0)
	return updated, nil
}

// Sell sells quantity units at the merchant's current city price,
// returning the updated merchant and the realized profit.
func (w *World) Sell(owner string, id uuid.UUID, c model.Commodity, quantity int64) (model.Merchant, int64, error) {
	mu := w.merchantLock(id)
	mu.Lock()
	defer mu.Unlock()

	price, err := w.prepareTrade(owner, id, c, model.Sell)
	if err != nil {
		return model.Merchant{}, 0, err
	}

	updated, profit, err := w.ledger.ApplySell(id, c, quantity, price)
	if err != nil {
		return model.Merchant{}, 0, err
	}

	w.emitTrade(updated, c, model.Sell, quantity, price, profit)
	return updated, profit, nil
}

// Travel starts a trip to another city, debiting its travel cost. The
// debit is refunded if the transition is rejected.
func (w *World) Travel(owner string, id uuid.UUID, to model.CityID) (model.TravelStatus, error) {
	mu := w.merchantLock(id)
	mu.Lock()
	defer mu.Unlock()

	if err := w.ledger.Authorize(id, owner); err != nil {
		return model.TravelStatus{}, err
	}
	if !to.Valid() {
		return model.TravelStatus{}, fmt.Errorf("%w: %d", travel.ErrInvalidCity, to)
	}

	cost := Cities[to].TravelCost
	if cost > 0 {
		if err := w.ledger.DebitGold(id, cost); err != nil {
			return model.TravelStatus{}, err
		}
	}

	st, err := w.travel.StartTravel(id, to)
	if err != nil {
		if cost > 0 {
			if refundErr := w.ledger.CreditGold(id, cost); refundErr != nil {
				w.logger.Error("travel cost refund failed",
					"merchant_id", id,
					"error", refundErr,
				)
			}
		}
		return model.TravelStatus{}, err
	}
	return st, nil
}

// CompleteTravel finishes an elapsed trip and settles the merchant's
// location. Duplicate completions surface travel.ErrNotTraveling.
func (w *World) CompleteTravel(owner string, id uuid.UUID) (model.CityID, error) {
	mu := w.merchantLock(id)
	mu.Lock()
	defer mu.Unlock()

	if err := w.ledger.Authorize(id, owner); err != nil {
		return 0, err
	}

	city, err := w.travel.CompleteTravel(id)
	if err != nil {
		return city, err
	}
	if err := w.ledger.SetCity(id, city); err != nil {
		return city, err
	}
	if err := w.ledger.RecordArrival(id); err != nil {
		return city, err
	}
	return city, nil
}

// TravelStatus reports the merchant's authoritative travel state. Reads
// are not ownership-gated.
func (w *World) TravelStatus(id uuid.UUID) (model.TravelStatus, error) {
	return w.travel.Status(id)
}

// Merchant returns a snapshot of one merchant.
func (w *World) Merchant(id uuid.UUID) (model.Merchant, error) {
	return w.ledger.Get(id)
}

// Inventory returns the merchant's positions.
func (w *World) Inventory(id uuid.UUID) ([model.CommodityCount]model.InventoryLine, error) {
	return w.ledger.Inventory(id)
}

// Achievements returns the merchant's earned achievements.
func (w *World) Achievements(id uuid.UUID) ([]string, error) {
	return w.ledger.Achievements(id)
}

// prepareTrade runs the shared trade preconditions: ownership, at-rest
// state, and a spread-adjusted price for the merchant's location.
func (w *World) prepareTrade(owner string, id uuid.UUID, c model.Commodity, side model.TradeSide) (int64, error) {
	if err := w.ledger.Authorize(id, owner); err != nil {
		return 0, err
	}

	ok, err := w.travel.CanTrade(id)
	if err != nil {
		return 0, err
	}
	if !ok {
		st, stErr := w.travel.Status(id)
		if stErr != nil {
			return 0, stErr
		}
		return 0, fmt.Errorf("%w: %s remaining", travel.ErrStillTraveling, st.TimeRemaining)
	}

	m, err := w.ledger.Get(id)
	if err != nil {
		return 0, err
	}

	price, err := w.oracle.GetPrice(c)
	if err != nil {
		return 0, err
	}
	if side == model.Buy {
		return BuyPrice(m.City, c, price), nil
	}
	return SellPrice(m.City, c, price), nil
}

// emitTrade pushes an executed trade onto the persistence queue.
func (w *World) emitTrade(m model.Merchant, c model.Commodity, side model.TradeSide, quantity, price, profit int64) {
	if w.trades == nil {
		return
	}

	rec := model.TradeRecord{
		TradeID:    uuid.New(),
		MerchantID: m.ID,
		City:       m.City,
		Commodity:  c,
		Side:       side,
		Quantity:   quantity,
		UnitPrice:  price,
		Profit:     profit,
		ExecutedAt: w.now().UTC(),
	}
	if !w.trades.Push(rec) {
		w.logger.Warn("trade queue closed, dropping record", "trade_id", rec.TradeID)
	}

	w.logger.Info("trade executed",
		"merchant_id", m.ID,
		"city", m.City,
		"commodity", c,
		"side", side,
		"quantity", quantity,
		"unit_price", price,
		"profit", profit,
	)
}
