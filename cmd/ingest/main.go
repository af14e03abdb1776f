package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"polymarket-pnl/internal/config"
	"polymarket-pnl/internal/ingestion"
	"polymarket-pnl/internal/observability"
	"polymarket-pnl/internal/storage"
	chstore "polymarket-pnl/internal/storage/clickhouse"
	"polymarket-pnl/internal/storage/memory"
	"polymarket-pnl/internal/storage/migrations"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	wallets := flag.String("wallets", "", "Comma-separated wallet addresses to backfill")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := observability.NewLoggerWithLevel("ingest", level)

	walletList := splitWallets(*wallets)
	if len(walletList) == 0 {
		logger.Fatal().Msg("no wallets specified, use --wallets")
	}
	if cfg.Goldsky.URL == "" {
		logger.Fatal().Msg("goldsky.url is required, set it in the config file or PNL_GOLDSKY_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, walletList, *useMemory); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("backfill failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, wallets []string, useMemory bool) error {
	var ledgerStore storage.LedgerStore
	var resolutionStore storage.ResolutionStore

	if useMemory {
		ledgerStore = memory.NewLedgerStore()
		resolutionStore = memory.NewResolutionStore()
	} else {
		var conn *chstore.Conn
		var err error
		if cfg.Clickhouse.RunMigrations {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.Clickhouse.DSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.Clickhouse.DSN)
		}
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		ledgerStore = chstore.NewLedgerStore(conn)
		resolutionStore = chstore.NewResolutionStore(conn)
	}

	source := ingestion.NewSubgraphClient(cfg.Goldsky.URL, cfg.Goldsky.APIKey)
	backfiller := ingestion.NewBackfiller(ingestion.BackfillOptions{
		Source:          source,
		LedgerStore:     ledgerStore,
		ResolutionStore: resolutionStore,
		PageSize:        cfg.Goldsky.PageSize,
		Logger:          logger,
	})

	start := time.Now()
	var totalEvents, totalResolutions int
	for _, wallet := range wallets {
		result, err := backfiller.BackfillWallet(ctx, wallet)
		if err != nil {
			return fmt.Errorf("backfill %s: %w", wallet, err)
		}
		totalEvents += result.EventsIngested
		totalResolutions += result.ResolutionsIngested
	}

	logger.Info().
		Int("wallets", len(wallets)).
		Int("events", totalEvents).
		Int("resolutions", totalResolutions).
		Dur("elapsed", time.Since(start)).
		Msg("backfill complete")
	return nil
}

func splitWallets(s string) []string {
	var out []string
	for _, w := range strings.Split(s, ",") {
		w = strings.TrimSpace(strings.ToLower(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
