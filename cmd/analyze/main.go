// Package main runs the scoring pass over collected trades and prints
// the top-risk token table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/realgrapedrop/xrp-watchdog/internal/config"
	"github.com/realgrapedrop/xrp-watchdog/internal/logging"
	"github.com/realgrapedrop/xrp-watchdog/internal/observability"
	"github.com/realgrapedrop/xrp-watchdog/internal/orchestrator"
	"github.com/realgrapedrop/xrp-watchdog/internal/reporting"
	chstore "github.com/realgrapedrop/xrp-watchdog/internal/storage/clickhouse"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage/migrations"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	top := flag.Int("top", 10, "Number of top-risk tokens to print")
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
		<-sigCh
		cancel()
	}()

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

	statsStore := chstore.NewTokenStatsStore(chConn)
	scorer := orchestrator.NewScorer(orchestrator.ScorerOptions{
		StatsStore:     statsStore,
		WhitelistStore: postgres.NewWhitelistStore(pgPool),
		Logger:         log,
	})

	metrics := observability.NewMetrics("")
	began := time.Now()
	result, err := scorer.Run(ctx)
	if err != nil {
		metrics.RecordBatchRun("score", "error", time.Since(began).Seconds())
		log.Fatal().Err(err).Msg("scoring pass failed")
	}
	metrics.RecordBatchRun("score", "ok", time.Since(began).Seconds())
	metrics.TokensScored.Add(float64(result.TokensScored))
	metrics.BridgesClassified.Add(float64(result.Bridges))
	metrics.ManipulationFlagged.Add(float64(result.Manipulation))
	metrics.LastSuccessfulScoring.SetToCurrentTime()

	if result.TokensScored == 0 {
		return
	}

	records, err := statsStore.TopByRisk(ctx, *top)
	if err != nil {
		log.Fatal().Err(err).Msg("load top records failed")
	}

	fmt.Printf("\nTop %d tokens by risk score:\n", *top)
	reporting.RiskTable(os.Stdout, records)
}
