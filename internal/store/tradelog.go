package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/merchant-quest/internal/config"
	"github.com/rickgao/merchant-quest/internal/model"
	"github.com/rickgao/merchant-quest/internal/queue"
)

// batchSender is the slice of pgxpool.Pool the writer needs.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// tradeRow is the database shape of one executed trade.
type tradeRow struct {
	TradeID    string
	MerchantID string
	City       int16
	Commodity  int16
	Side       bool // true = buy
	Quantity   int64
	UnitPrice  int64
	Profit     int64
	ExecutedAt int64 // Microseconds since epoch
}

// WriterMetrics counts writer activity.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// TradeLogWriter consumes executed trades from the queue and batch-inserts
// them into the trades table.
type TradeLogWriter struct {
	cfg    config.WriterConfig
	logger *slog.Logger

	// Input from trade execution
	input *queue.Ring[model.TradeRecord]

	// Database
	db batchSender

	// Batching
	batch       []tradeRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewTradeLogWriter creates a new TradeLogWriter.
func NewTradeLogWriter(
	cfg config.WriterConfig,
	input *queue.Ring[model.TradeRecord],
	db batchSender,
	logger *slog.Logger,
) *TradeLogWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TradeLogWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]tradeRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming trades and writing to the database.
func (w *TradeLogWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("trade log writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer, flushing the remaining batch.
func (w *TradeLogWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping trade log writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("trade log writer stopped")
	case <-ctx.Done():
		w.logger.Warn("trade log writer stop timed out")
	}

	// Final flush. The internal context is already cancelled, so the
	// caller's deadline governs this last write.
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *TradeLogWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the input queue and accumulates batches.
func (w *TradeLogWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			rec, ok := w.input.TryPop()
			if !ok {
				// Queue empty, wait a bit before trying again
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleRecord(rec)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *TradeLogWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// handleRecord transforms and adds a trade to the batch.
func (w *TradeLogWriter) handleRecord(rec model.TradeRecord) {
	row := w.transform(rec)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// transform converts a TradeRecord to a tradeRow.
func (w *TradeLogWriter) transform(rec model.TradeRecord) tradeRow {
	return tradeRow{
		TradeID:    rec.TradeID.String(),
		MerchantID: rec.MerchantID.String(),
		City:       int16(rec.City),
		Commodity:  int16(rec.Commodity),
		Side:       bool(rec.Side),
		Quantity:   rec.Quantity,
		UnitPrice:  rec.UnitPrice,
		Profit:     rec.Profit,
		ExecutedAt: rec.ExecutedAt.UnixMicro(),
	}
}

// flush writes the current batch to the database.
func (w *TradeLogWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]tradeRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed trades",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *TradeLogWriter) batchInsert(ctx context.Context, rows []tradeRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO trades (trade_id, merchant_id, city, commodity, side, quantity, unit_price, profit, executed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (trade_id) DO NOTHING
		`, r.TradeID, r.MerchantID, r.City, r.Commodity, r.Side, r.Quantity, r.UnitPrice, r.Profit, r.ExecutedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
