package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/merchant-quest/internal/config"
	"github.com/rickgao/merchant-quest/internal/model"
)

// MerchantSource supplies the current merchant roster for snapshotting.
type MerchantSource interface {
	List() []model.Merchant
}

// merchantRow is the database shape of one merchant snapshot.
type merchantRow struct {
	MerchantID string
	Owner      string
	Name       string
	Level      int
	Experience int64
	Gold       int64
	City       int16
	Trades     int64
	Profit     int64
	CreatedAt  int64 // Microseconds since epoch
	UpdatedAt  int64 // Microseconds since epoch
}

// SnapshotMetrics counts snapshot writer activity.
type SnapshotMetrics struct {
	Cycles  int64
	Upserts int64
	Errors  int64
}

// SnapshotWriter periodically upserts the merchant roster into the
// merchants table. Trades are the append-only record; snapshots are the
// queryable current state.
type SnapshotWriter struct {
	cfg    config.SnapshotConfig
	source MerchantSource
	db     *pgxpool.Pool
	logger *slog.Logger

	mu      sync.Mutex
	metrics SnapshotMetrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSnapshotWriter creates a new SnapshotWriter.
func NewSnapshotWriter(
	cfg config.SnapshotConfig,
	source MerchantSource,
	db *pgxpool.Pool,
	logger *slog.Logger,
) *SnapshotWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotWriter{
		cfg:    cfg,
		source: source,
		db:     db,
		logger: logger,
	}
}

// Start begins the periodic snapshot loop.
func (w *SnapshotWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run()

	w.logger.Info("snapshot writer started", "interval", w.cfg.Interval)
	return nil
}

// Stop shuts down the writer, taking a final snapshot first.
func (w *SnapshotWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping snapshot writer")

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
		w.logger.Info("snapshot writer stopped")
	case <-ctx.Done():
		w.logger.Warn("snapshot writer stop timed out")
	}

	w.snapshot(ctx)
	return nil
}

// Stats returns current metrics.
func (w *SnapshotWriter) Stats() SnapshotMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

func (w *SnapshotWriter) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	// First snapshot immediately
	w.snapshot(w.ctx)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.snapshot(w.ctx)
		}
	}
}

// snapshot upserts the full roster in one batch.
func (w *SnapshotWriter) snapshot(ctx context.Context) {
	merchants := w.source.List()
	if len(merchants) == 0 {
		w.mu.Lock()
		w.metrics.Cycles++
		w.mu.Unlock()
		return
	}

	now := time.Now().UTC()
	rows := make([]merchantRow, 0, len(merchants))
	for _, m := range merchants {
		rows = append(rows, w.transform(m, now))
	}

	start := time.Now()
	err := w.batchUpsert(ctx, rows)

	w.mu.Lock()
	w.metrics.Cycles++
	if err != nil {
		w.metrics.Errors++
	} else {
		w.metrics.Upserts += int64(len(rows))
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("snapshot upsert failed", "error", err, "count", len(rows))
		return
	}
	w.logger.Debug("snapshotted merchants",
		"count", len(rows),
		"duration", time.Since(start),
	)
}

// transform converts a Merchant to a merchantRow.
func (w *SnapshotWriter) transform(m model.Merchant, now time.Time) merchantRow {
	return merchantRow{
		MerchantID: m.ID.String(),
		Owner:      m.Owner,
		Name:       m.Name,
		Level:      m.Level,
		Experience: m.Experience,
		Gold:       m.Gold,
		City:       int16(m.City),
		Trades:     m.Trades,
		Profit:     m.Profit,
		CreatedAt:  m.CreatedAt.UnixMicro(),
		UpdatedAt:  now.UnixMicro(),
	}
}

func (w *SnapshotWriter) batchUpsert(ctx context.Context, rows []merchantRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO merchants (merchant_id, owner, name, level, experience, gold, city, trades, profit, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (merchant_id) DO UPDATE SET
				level = EXCLUDED.level,
				experience = EXCLUDED.experience,
				gold = EXCLUDED.gold,
				city = EXCLUDED.city,
				trades = EXCLUDED.trades,
				profit = EXCLUDED.profit,
				updated_at = EXCLUDED.updated_at
		`, r.MerchantID, r.Owner, r.Name, r.Level, r.Experience, r.Gold, r.City, r.Trades, r.Profit, r.CreatedAt, r.UpdatedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
