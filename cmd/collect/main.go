// Package main runs the collection batch: screen recent ledgers for
// suspicious volume, then collect detailed trades for flagged ledgers.
// With -follow it keeps collecting as new ledgers close.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/realgrapedrop/xrp-watchdog/internal/config"
	"github.com/realgrapedrop/xrp-watchdog/internal/extract"
	"github.com/realgrapedrop/xrp-watchdog/internal/fills"
	"github.com/realgrapedrop/xrp-watchdog/internal/logging"
	"github.com/realgrapedrop/xrp-watchdog/internal/observability"
	"github.com/realgrapedrop/xrp-watchdog/internal/orchestrator"
	"github.com/realgrapedrop/xrp-watchdog/internal/screening"
	chstore "github.com/realgrapedrop/xrp-watchdog/internal/storage/clickhouse"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage/migrations"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage/postgres"
	"github.com/realgrapedrop/xrp-watchdog/internal/xrpl"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	ledgers := flag.Int("ledgers", 0, "Number of ledgers to screen (overrides config)")
	start := flag.Int64("start", 0, "Starting ledger index, 0 = latest closed")
	follow := flag.Bool("follow", false, "Keep collecting as new ledgers close")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	metrics := observability.NewMetrics("")
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Listen, log)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("clickhouse setup failed")
	}
	defer chConn.Close()

	pgPool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pgPool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pgPool); err != nil {
		log.Fatal().Err(err).Msg("postgres migrations failed")
	}

	nodeOpts := []xrpl.ClientOption{
		xrpl.WithTimeout(cfg.NodeTimeout()),
		xrpl.WithMaxRetries(cfg.Node.MaxRetries),
	}
	if cfg.Node.RateLimitRPS > 0 {
		nodeOpts = append(nodeOpts, xrpl.WithRateLimit(cfg.Node.RateLimitRPS, 1))
	}
	node := xrpl.NewClient(cfg.Node.RPCURL, nodeOpts...)

	collector := orchestrator.NewCollector(orchestrator.CollectorOptions{
		Node:       node,
		FillSource: fills.NewCommandSource(cfg.Fills.ScriptPath, cfg.Fills.Container),
		Builder: extract.NewBuilder(extract.BuilderOptions{
			Source:  node,
			Workers: cfg.Collector.FetchWorkers,
			Logger:  log,
		}),
		Screener:        screening.NewScreener(cfg.Screening.VolumeThresholdXRP, cfg.Screening.PriceVarianceThreshold),
		TradeStore:      chstore.NewTradeStore(chConn),
		BookChangeStore: chstore.NewBookChangeStore(chConn),
		StateStore:      postgres.NewCollectionStateStore(pgPool),
		Logger:          log,
	})

	ledgerCount := cfg.Collector.LedgerCount
	if *ledgers > 0 {
		ledgerCount = *ledgers
	}
	startLedger := cfg.Collector.StartLedger
	if *start > 0 {
		startLedger = *start
	}

	if err := runBatch(ctx, collector, metrics, ledgerCount, startLedger); err != nil {
		log.Fatal().Err(err).Msg("collection batch failed")
	}

	if *follow {
		if err := followLedgers(ctx, cfg.Node.WSURL, collector, metrics, log); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("ledger stream failed")
		}
	}
}

// runBatch executes one collection batch and records its metrics.
func runBatch(ctx context.Context, c *orchestrator.Collector, metrics *observability.Metrics, count int, start int64) error {
	began := time.Now()
	result, err := c.Run(ctx, count, start)
	if err != nil {
		metrics.RecordBatchRun("collect", "error", time.Since(began).Seconds())
		return err
	}

	metrics.RecordBatchRun("collect", "ok", time.Since(began).Seconds())
	metrics.LedgersScreened.Add(float64(result.LedgersScreened))
	metrics.BookChangesStored.Add(float64(result.BookChangesStored))
	metrics.SuspiciousLedgers.Add(float64(result.SuspiciousLedgers))
	metrics.TradesCollected.Add(float64(result.TradesCollected))
	metrics.LastSuccessfulBatch.SetToCurrentTime()
	return nil
}

// followLedgers subscribes to the ledger stream and runs a one-ledger
// batch for each close event. Stream failures after the initial
// subscription reconnect internally.
func followLedgers(ctx context.Context, wsURL string, c *orchestrator.Collector, metrics *observability.Metrics, log zerolog.Logger) error {
	stream := xrpl.NewLedgerStream(wsURL, nil)
	defer stream.Close()

	headers, err := stream.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to ledger stream: %w", err)
	}
	log.Info().Str("endpoint", wsURL).Msg("following ledger stream")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case header, ok := <-headers:
			if !ok {
				return nil
			}
			if err := runBatch(ctx, c, metrics, 1, header.LedgerIndex); err != nil {
				log.Error().Int64("ledger_index", header.LedgerIndex).Err(err).Msg("batch for closed ledger failed")
			}
		}
	}
}

func serveMetrics(listen string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
