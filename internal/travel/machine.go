package travel

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/merchant-quest/internal/model"
)

// Config holds travel settings.
type Config struct {
	// DefaultDuration is used for city pairs absent from the duration table.
	DefaultDuration time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultDuration: 5 * time.Second,
	}
}

// record is the per-merchant travel state. Exactly one exists per
// registered merchant; it is created at registration and mutated in place.
type record struct {
	currentCity model.CityID
	traveling   bool
	fromCity    model.CityID
	toCity      model.CityID
	arrivalTime time.Time
}

// Machine tracks travel state for all merchants. Mutating transitions are
// atomic and totally ordered; queries observe the last committed state and
// never mutate anything.
type Machine struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	records map[uuid.UUID]*record
}

// New creates an empty Machine.
func New(cfg Config, logger *slog.Logger) *Machine {
	return NewWithClock(cfg, logger, time.Now)
}

// NewWithClock creates a Machine with a custom time source, for tests and
// simulations.
func NewWithClock(cfg Config, logger *slog.Logger, now func() time.Time) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = DefaultConfig().DefaultDuration
	}
	if now == nil {
		now = time.Now
	}

	return &Machine{
		cfg:     cfg,
		logger:  logger,
		now:     now,
		records: make(map[uuid.UUID]*record),
	}
}

// Register creates the travel record for a new merchant, at rest in the
// given city. Registering an already-known merchant is a no-op.
func (m *Machine) Register(merchantID uuid.UUID, city model.CityID) error {
	if !city.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCity, city)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[merchantID]; ok {
		return nil
	}
	m.records[merchantID] = &record{currentCity: city}
	return nil
}

// StartTravel begins a trip. Valid only at rest; the destination must be a
// different, valid city. Returns the committed status including the full
// trip duration as TimeRemaining.
func (m *Machine) StartTravel(merchantID uuid.UUID, to model.CityID) (model.TravelStatus, error) {
	if !to.Valid() {
		return model.TravelStatus{}, fmt.Errorf("%w: %d", ErrInvalidCity, to)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[merchantID]
	if !ok {
		return model.TravelStatus{}, fmt.Errorf("%w: %s", ErrUnknownMerchant, merchantID)
	}
	if rec.traveling {
		remaining := m.remaining(rec)
		return model.TravelStatus{}, fmt.Errorf("%w: %s remaining", ErrStillTraveling, remaining)
	}
	if to == rec.currentCity {
		return model.TravelStatus{}, fmt.Errorf("%w: %s", ErrNoOpTravel, to)
	}

	duration := Duration(rec.currentCity, to, m.cfg.DefaultDuration)
	rec.traveling = true
	rec.fromCity = rec.currentCity
	rec.toCity = to
	rec.arrivalTime = m.now().Add(duration)

	m.logger.Info("travel started",
		"merchant_id", merchantID,
		"from", rec.fromCity,
		"to", to,
		"duration", duration,
	)

	return m.status(merchantID, rec), nil
}

// CompleteTravel finishes a trip whose arrival time has passed, moving the
// merchant to the destination city. Before arrival it fails with
// ErrStillTraveling carrying the remaining time. After a successful
// completion, repeated calls fail with ErrNotTraveling and change nothing,
// so concurrent healers cannot double-apply the arrival.
func (m *Machine) CompleteTravel(merchantID uuid.UUID) (model.CityID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[merchantID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMerchant, merchantID)
	}
	if !rec.traveling {
		return rec.currentCity, ErrNotTraveling
	}
	if remaining := m.remaining(rec); remaining > 0 {
		return 0, fmt.Errorf("%w: %s remaining", ErrStillTraveling, remaining)
	}

	rec.currentCity = rec.toCity
	rec.traveling = false

	m.logger.Info("travel completed",
		"merchant_id", merchantID,
		"city", rec.currentCity,
	)

	return rec.currentCity, nil
}

// Status reports the merchant's current travel state. Pure: it never
// mutates the record, even when the arrival time has passed.
func (m *Machine) Status(merchantID uuid.UUID) (model.TravelStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[merchantID]
	if !ok {
		return model.TravelStatus{}, fmt.Errorf("%w: %s", ErrUnknownMerchant, merchantID)
	}
	return m.status(merchantID, rec), nil
}

// CanTrade reports whether the merchant is at rest. An elapsed but
// uncompleted trip still counts as traveling.
func (m *Machine) CanTrade(merchantID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[merchantID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownMerchant, merchantID)
	}
	return !rec.traveling, nil
}

// Merchants returns the ids of all registered merchants.
func (m *Machine) Merchants() []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	return ids
}

// status builds the external view of one record. Caller holds the lock.
func (m *Machine) status(merchantID uuid.UUID, rec *record) model.TravelStatus {
	st := model.TravelStatus{
		MerchantID:  merchantID,
		IsTraveling: rec.traveling,
		City:        rec.currentCity,
	}
	if rec.traveling {
		st.FromCity = rec.fromCity
		st.ToCity = rec.toCity
		st.TimeRemaining = m.remaining(rec)
	}
	return st
}

// remaining computes time left in transit, floored at zero. Caller holds
// the lock.
func (m *Machine) remaining(rec *record) time.Duration {
	remaining := rec.arrivalTime.Sub(m.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
