package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/merchant-quest/internal/config"
	"github.com/rickgao/merchant-quest/internal/feed"
	"github.com/rickgao/merchant-quest/internal/merchant"
	"github.com/rickgao/merchant-quest/internal/model"
	"github.com/rickgao/merchant-quest/internal/oracle"
	"github.com/rickgao/merchant-quest/internal/queue"
	"github.com/rickgao/merchant-quest/internal/store"
	"github.com/rickgao/merchant-quest/internal/travel"
	"github.com/rickgao/merchant-quest/internal/version"
	"github.com/rickgao/merchant-quest/internal/watch"
	"github.com/rickgao/merchant-quest/internal/world"
)

func main() {
	configPath := flag.String("config", "configs/gamed.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting gamed",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"feed_url", cfg.Feed.RestURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database. A daemon without a configured database runs
	// with the trade log disabled.
	var pool *pgxpool.Pool
	if cfg.Database.Postgres.Host != "" {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)
		pool, err = store.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("database connected")
	} else {
		logger.Warn("no database configured, trade log disabled")
	}

	// External feed: REST client for reference snapshots, WebSocket
	// stream for the cached quotes behind price queries.
	feedClient := feed.NewClient(
		cfg.Feed.RestURL,
		cfg.Feed.APIKey,
		feed.WithLogger(logger),
		feed.WithTimeout(cfg.Feed.Timeout),
		feed.WithRetries(cfg.Feed.MaxRetries, time.Second),
	)

	streamCfg := feed.DefaultStreamConfig(cfg.Feed.WSURL)
	streamCfg.StaleAfter = cfg.Feed.StaleAfter
	stream := feed.NewStream(streamCfg, logger)
	if err := stream.Start(ctx); err != nil {
		logger.Error("failed to start quote stream", "error", err)
		os.Exit(1)
	}
	defer stopComponent(stream.Stop, logger, "quote stream")

	// Core game state
	engine := oracle.New(oracle.Config{
		BlendFeed:           cfg.Oracle.BlendFeed,
		VolatilityAmplifier: cfg.Oracle.VolatilityAmplifier,
		TrendMin:            cfg.Oracle.TrendMin,
		TrendMax:            cfg.Oracle.TrendMax,
	}, stream, feedClient, logger)

	machine := travel.New(travel.Config{
		DefaultDuration: cfg.Travel.DefaultDuration,
	}, logger)

	ledger := merchant.New(merchant.DefaultConfig(), logger)

	trades := queue.NewRing[model.TradeRecord](cfg.Writer.BufferSize)
	gameWorld := world.New(engine, machine, ledger, trades, logger)

	// Seed the feed reference baseline when blending is enabled. Failure
	// is not fatal: queries degrade to the fallback path until an
	// operator snapshots successfully.
	if cfg.Oracle.BlendFeed {
		snapCtx, snapCancel := context.WithTimeout(ctx, 15*time.Second)
		if err := engine.UpdateReferencePrices(snapCtx); err != nil {
			logger.Warn("initial reference snapshot failed", "error", err)
		}
		snapCancel()
	}

	// Trade log writer
	var writer *store.TradeLogWriter
	if pool != nil {
		writer = store.NewTradeLogWriter(cfg.Writer, trades, pool, logger)
		if err := writer.Start(ctx); err != nil {
			logger.Error("failed to start trade log writer", "error", err)
			os.Exit(1)
		}
		defer stopComponent(writer.Stop, logger, "trade log writer")
	}

	// Merchant snapshots keep a queryable current-state table next to the
	// append-only trade log.
	if pool != nil {
		snapshots := store.NewSnapshotWriter(cfg.Snapshot, ledger, pool, logger)
		if err := snapshots.Start(ctx); err != nil {
			logger.Error("failed to start snapshot writer", "error", err)
			os.Exit(1)
		}
		defer stopComponent(snapshots.Stop, logger, "snapshot writer")
	}

	// Reconciliation watcher: price diffs plus stuck-travel healing. The
	// ledger's resting city follows every healed arrival.
	watcher := watch.New(
		watch.Config{Interval: cfg.Watcher.Interval},
		engine,
		machine,
		nil,
		func(id uuid.UUID, city model.CityID) {
			if err := ledger.SetCity(id, city); err != nil {
				logger.Error("failed to settle healed arrival", "merchant_id", id, "error", err)
				return
			}
			if err := ledger.RecordArrival(id); err != nil {
				logger.Error("failed to record healed arrival", "merchant_id", id, "error", err)
			}
		},
		logger,
	)
	if err := watcher.Start(ctx); err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	defer stopComponent(watcher.Stop, logger, "watcher")

	// HTTP surface
	srv := &server{
		world:   gameWorld,
		engine:  engine,
		stream:  stream,
		watcher: watcher,
		db:      pool,
		logger:  logger,
	}
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.routes(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	logger.Info("gamed running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port),
	)

	if err := g.Wait(); err != nil {
		logger.Error("http server error", "error", err)
		cancel()
	}

	logger.Info("gamed stopped")
}

// stopComponent stops a Start/Stop component with a bounded wait.
func stopComponent(stop func(context.Context) error, logger *slog.Logger, name string) {
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := stop(stopCtx); err != nil {
		logger.Warn("component stop failed", "component", name, "error", err)
	}
}
