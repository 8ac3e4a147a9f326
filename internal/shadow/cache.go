package shadow

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/merchant-quest/internal/model"
)

// Phase labels the cached view of a trip.
type Phase string

const (
	PhaseTraveling Phase = "traveling"
	PhaseArrived   Phase = "arrived"
)

// Entry is one cached trip.
type Entry struct {
	MerchantID     uuid.UUID     `json:"merchantId"`
	SelectedCity   model.CityID  `json:"selectedCity"`
	StartTime      time.Time     `json:"startTime"`
	TravelDuration time.Duration `json:"travelDuration"`
	Phase          Phase         `json:"phase"`
}

// Cache is a JSON-file-backed set of entries, one per merchant.
type Cache struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[uuid.UUID]Entry
}

// Open loads the cache at path, starting empty if the file does not exist.
// A corrupt file is discarded rather than failing: the cache is advisory.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[uuid.UUID]Entry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read shadow cache: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("discarding corrupt shadow cache", "path", path, "error", err)
		return c, nil
	}
	for _, e := range entries {
		c.entries[e.MerchantID] = e
	}
	return c, nil
}

// Get returns the cached entry for a merchant, if any.
func (c *Cache) Get(id uuid.UUID) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// Put stores an entry and persists the cache.
func (c *Cache) Put(e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.MerchantID] = e
	return c.save()
}

// Discard removes a merchant's entry and persists the cache.
func (c *Cache) Discard(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return nil
	}
	delete(c.entries, id)
	return c.save()
}

// save writes the cache atomically via a temp file. Caller holds the lock.
func (c *Cache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal shadow cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create shadow cache dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write shadow cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace shadow cache: %w", err)
	}
	return nil
}
