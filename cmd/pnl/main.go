// Command pnl computes wallet profit and loss and prints the reports as
// JSON. With --fetch it pulls each wallet's activity from the Goldsky
// subgraph first, which makes a fully in-memory one-shot run possible:
//
//	pnl --wallets 0xabc... --fetch --use-memory
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"polymarket-pnl/internal/config"
	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/ingestion"
	"polymarket-pnl/internal/markprice"
	"polymarket-pnl/internal/observability"
	"polymarket-pnl/internal/runner"
	"polymarket-pnl/internal/storage"
	chstore "polymarket-pnl/internal/storage/clickhouse"
	"polymarket-pnl/internal/storage/memory"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	wallets := flag.String("wallets", "", "Comma-separated wallet addresses to compute")
	fetch := flag.Bool("fetch", false, "Backfill the wallets from the Goldsky subgraph before computing")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse")
	pretty := flag.Bool("pretty", false, "Indent the JSON output")
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
	logger := observability.NewLoggerWithLevel("pnl", level)

	walletList := splitWallets(*wallets)
	if len(walletList) == 0 {
		logger.Fatal().Msg("no wallets specified, use --wallets")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, walletList, *fetch, *useMemory, *pretty); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("compute failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, wallets []string, fetch, useMemory, pretty bool) error {
	var ledgerStore storage.LedgerStore
	var resolutionStore storage.ResolutionStore

	if useMemory {
		ledgerStore = memory.NewLedgerStore()
		resolutionStore = memory.NewResolutionStore()
	} else {
		conn, err := chstore.NewConn(ctx, cfg.Clickhouse.DSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		ledgerStore = chstore.NewLedgerStore(conn)
		resolutionStore = chstore.NewResolutionStore(conn)
	}

	if fetch {
		if cfg.Goldsky.URL == "" {
			return fmt.Errorf("--fetch requires goldsky.url in the config file or PNL_GOLDSKY_URL")
		}
		backfiller := ingestion.NewBackfiller(ingestion.BackfillOptions{
			Source:          ingestion.NewSubgraphClient(cfg.Goldsky.URL, cfg.Goldsky.APIKey),
			LedgerStore:     ledgerStore,
			ResolutionStore: resolutionStore,
			PageSize:        cfg.Goldsky.PageSize,
			Logger:          logger,
		})
		for _, wallet := range wallets {
			if _, err := backfiller.BackfillWallet(ctx, wallet); err != nil {
				return fmt.Errorf("backfill %s: %w", wallet, err)
			}
		}
	}

	r := runner.New(runner.Options{
		LedgerStore:     ledgerStore,
		ResolutionStore: resolutionStore,
		MarkSource:      markprice.NewGammaClient(cfg.Gamma.Host),
		DefaultMark:     cfg.DefaultMarkMicro(),
		Workers:         cfg.Engine.Workers,
		Logger:          logger,
	})

	results, err := r.ComputeWallets(ctx, wallets)
	if err != nil {
		return err
	}

	reports := make([]*domain.WalletReport, 0, len(results))
	for _, res := range results {
		reports = append(reports, res.Report())
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Wallet < reports[j].Wallet })

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	return enc.Encode(reports)
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
