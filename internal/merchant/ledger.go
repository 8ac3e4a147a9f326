package merchant

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/merchant-quest/internal/model"
)

// Experience awarded per executed trade, and the flat amount of experience
// needed per level.
const (
	tradeExperience    = 10
	experiencePerLevel = 100
	maxNameLength      = 32
)

// Config holds ledger settings.
type Config struct {
	// StartingGold is the balance granted at merchant creation.
	StartingGold int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		StartingGold: 1_000,
	}
}

// mulOverflows reports whether a*b exceeds int64 for positive operands.
func mulOverflows(a, b int64) bool {
	return b > 0 && a > math.MaxInt64/b
}

// account is the internal per-merchant state.
type account struct {
	merchant     model.Merchant
	inventory    [model.CommodityCount]model.InventoryLine
	achievements []string
	travels      int64
}

// Ledger owns merchant identities, gold balances, and inventories.
type Ledger struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	accounts map[uuid.UUID]*account
}

// New creates an empty Ledger.
func New(cfg Config, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StartingGold <= 0 {
		cfg.StartingGold = DefaultConfig().StartingGold
	}

	return &Ledger{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		accounts: make(map[uuid.UUID]*account),
	}
}

// Create mints a new merchant for the given owner, starting at level 1 with
// the configured gold balance.
func (l *Ledger) Create(owner, name string, city model.CityID) (model.Merchant, error) {
	if name == "" || len(name) > maxNameLength {
		return model.Merchant{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	m := model.Merchant{
		ID:        uuid.New(),
		Owner:     owner,
		Name:      name,
		Level:     1,
		Gold:      l.cfg.StartingGold,
		City:      city,
		CreatedAt: l.now().UTC(),
	}

	acct := &account{merchant: m}
	for i := range acct.inventory {
		acct.inventory[i].Commodity = model.Commodity(i)
	}

	l.mu.Lock()
	l.accounts[m.ID] = acct
	l.mu.Unlock()

	l.logger.Info("merchant created",
		"merchant_id", m.ID,
		"owner", owner,
		"name", name,
		"city", city,
	)
	return m, nil
}

// Get returns a snapshot of one merchant.
func (l *Ledger) Get(id uuid.UUID) (model.Merchant, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[id]
	if !ok {
		return model.Merchant{}, fmt.Errorf("%w: %s", ErrUnknownMerchant, id)
	}
	return acct.merchant, nil
}

// List returns snapshots of all merchants, in unspecified order.
func (l *Ledger) List() []model.Merchant {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Merchant, 0, len(l.accounts))
	for _, acct := range l.accounts {
		out = append(out, acct.merchant)
	}
	return out
}

// Authorize verifies that owner controls the merchant. It distinguishes an
// unknown merchant from a known one under different ownership.
func (l *Ledger) Authorize(id uuid.UUID, owner string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMerchant, id)
	}
	if acct.merchant.Owner != owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, id)
	}
	return nil
}

// DebitGold removes gold from the merchant's balance, failing without
// effect when the balance cannot cover it.
func (l *Ledger) DebitGold(id uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMerchant, id)
	}
	if acct.merchant.Gold < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, acct.merchant.Gold, amount)
	}
	acct.merchant.Gold -= amount
	return nil
}

// CreditGold adds gold to the merchant's balance.
func (l *Ledger) CreditGold(id uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMerchant, id)
	}
	acct.merchant.Gold += amount
	return nil
}

// Inventory returns a snapshot of the merchant's positions.
func (l *Ledger) Inventory(id uuid.UUID) ([model.CommodityCount]model.InventoryLine, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[id]
	if !ok {
		return [model.CommodityCount]model.InventoryLine{}, fmt.Errorf("%w: %s", ErrUnknownMerchant, id)
	}
	return acct.inventory, nil
}

// ApplyBuy debits gold and adds stock in one atomic step. The inventory
// line's average price is recomputed over the combined position.
func (l *Ledger) ApplyBuy(id uuid.UUID, c model.Commodity, quantity, unitPrice int64) (model.Merchant, error) {
	if quantity <= 0 {
		return model.Merchant{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if mulOverflows(quantity, unitPrice) {
		return model.Merchant{}, fmt.Errorf("%w: %d x %d exceeds int64", ErrInvalidQuantity, quantity, unitPrice)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return model.Merchant{}, fmt.Errorf("%w: %s", ErrUnknownMerchant, id)
	}

	total := quantity * unitPrice
	if acct.merchant.Gold < total {
		return model.Merchant{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, acct.merchant.Gold, total)
	}

	line := &acct.inventory[c]
	newQty := line.Quantity + quantity
	line.AvgPrice = (line.AvgPrice*line.Quantity + total) / newQty
	line.Quantity = newQty

	acct.merchant.Gold -= total
	l.recordTrade(acct, 0)

	return acct.merchant, nil
}

// ApplySell credits gold and removes stock in one atomic step, returning
// the realized profit against the position's average acquisition price.
func (l *Ledger) ApplySell(id uuid.UUID, c model.Commodity, quantity, unitPrice int64) (model.Merchant, int64, error) {
	if quantity <= 0 {
		return model.Merchant{}, 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if mulOverflows(quantity, unitPrice) {
		return model.Merchant{}, 0, fmt.Errorf("%w: %d x %d exceeds int64", ErrInvalidQuantity, quantity, unitPrice)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return model.Merchant{}, 0, fmt.Errorf("%w: %s", ErrUnknownMerchant, id)
	}

	line := &acct.inventory[c]
	if line.Quantity < quantity {
		return model.Merchant{}, 0, fmt.Errorf("%w: have %d %s, selling %d",
			ErrInsufficientStock, line.Quantity, c, quantity)
	}

	proceeds := quantity * unitPrice
	if acct.merchant.Gold > math.MaxInt64-proceeds {
		return model.Merchant{}, 0, fmt.Errorf("%w: proceeds overflow balance", ErrInvalidQuantity)
	}

	profit := (unitPrice - line.AvgPrice) * quantity
	line.Quantity -= quantity
	if line.Quantity == 0 {
		line.AvgPrice = 0
	}

	acct.merchant.Gold += proceeds
	l.recordTrade(acct, profit)

	return acct.merchant, profit, nil
}

// SetCity updates the merchant's resting location, typically after a
// completed trip.
func (l *Ledger) SetCity(id uuid.UUID, city model.CityID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMerchant, id)
	}
	acct.merchant.City = city
	return nil
}

// RecordArrival notes a completed trip for achievement tracking.
func (l *Ledger) RecordArrival(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMerchant, id)
	}
	acct.travels++
	l.award(acct, acct.travels >= 1, "First Voyage")
	l.award(acct, acct.travels >= 20, "Seasoned Explorer")
	return nil
}

// Achievements returns the merchant's earned achievements, oldest first.
func (l *Ledger) Achievements(id uuid.UUID) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMerchant, id)
	}
	out := make([]string, len(acct.achievements))
	copy(out, acct.achievements)
	return out, nil
}

// recordTrade bumps trade statistics, experience, and achievements after a
// committed trade. Caller holds the write lock.
func (l *Ledger) recordTrade(acct *account, profit int64) {
	m := &acct.merchant
	m.Trades++
	m.Profit += profit
	m.Experience += tradeExperience

	newLevel := 1 + int(m.Experience/experiencePerLevel)
	if newLevel > m.Level {
		m.Level = newLevel
		l.logger.Info("merchant leveled up",
			"merchant_id", m.ID,
			"level", m.Level,
		)
	}

	l.award(acct, m.Trades >= 1, "First Trade")
	l.award(acct, m.Trades >= 10, "Seasoned Trader")
	l.award(acct, m.Trades >= 100, "Master Merchant")
	l.award(acct, m.Profit >= 1_000, "Gold Hoarder")
	l.award(acct, m.Profit >= 10_000, "Trade Baron")
}

// award grants an achievement once.
func (l *Ledger) award(acct *account, earned bool, name string) {
	if !earned {
		return
	}
	for _, a := range acct.achievements {
		if a == name {
			return
		}
	}
	acct.achievements = append(acct.achievements, name)
	l.logger.Info("achievement earned",
		"merchant_id", acct.merchant.ID,
		"achievement", name,
	)
}
