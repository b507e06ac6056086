// Package main prints the current scored token table, collector status
// and analytics storage usage without running any collection or scoring.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/realgrapedrop/xrp-watchdog/internal/config"
	"github.com/realgrapedrop/xrp-watchdog/internal/logging"
	"github.com/realgrapedrop/xrp-watchdog/internal/reporting"
	chstore "github.com/realgrapedrop/xrp-watchdog/internal/storage/clickhouse"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage/migrations"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	top := flag.Int("top", 10, "Number of top-risk tokens to print")
	storageOnly := flag.Bool("storage", false, "Print storage usage only")
	token := flag.String("token", "", "Print collected trades for one token as CODE/ISSUER")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("clickhouse setup failed")
	}
	defer conn.Close()

	if *token != "" {
		code, issuer, ok := strings.Cut(*token, "/")
		if !ok || code == "" || issuer == "" {
			fmt.Fprintf(os.Stderr, "-token wants CODE/ISSUER, got %q\n", *token)
			os.Exit(2)
		}
		trades, err := chstore.NewTradeStore(conn).GetByToken(ctx, code, issuer)
		if err != nil {
			log.Fatal().Err(err).Msg("load token trades failed")
		}
		fmt.Printf("Collected trades for %s/%s:\n", code, issuer)
		reporting.TradeTable(os.Stdout, trades)
		return
	}

	if !*storageOnly {
		records, err := chstore.NewTokenStatsStore(conn).TopByRisk(ctx, *top)
		if err != nil {
			log.Fatal().Err(err).Msg("load top records failed")
		}
		fmt.Printf("Top %d tokens by risk score:\n", *top)
		reporting.RiskTable(os.Stdout, records)
		fmt.Println()

		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connect failed")
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("postgres migrations failed")
		}

		fmt.Println("Collector status:")
		if err := reporting.CollectorStatus(ctx, os.Stdout, postgres.NewCollectionStateStore(pool)); err != nil {
			log.Fatal().Err(err).Msg("collector status failed")
		}
		fmt.Println()
	}

	fmt.Println("Storage usage:")
	if err := reporting.StorageReport(ctx, os.Stdout, conn); err != nil {
		log.Fatal().Err(err).Msg("storage report failed")
	}
}
