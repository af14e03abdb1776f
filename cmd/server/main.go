package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"polymarket-pnl/internal/config"
	"polymarket-pnl/internal/markprice"
	"polymarket-pnl/internal/observability"
	"polymarket-pnl/internal/runner"
	"polymarket-pnl/internal/server"
	"polymarket-pnl/internal/storage"
	chstore "polymarket-pnl/internal/storage/clickhouse"
	"polymarket-pnl/internal/storage/memory"
	"polymarket-pnl/internal/storage/migrations"
	pgstore "polymarket-pnl/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse/PostgreSQL")
	maxResultAge := flag.Duration("max-result-age", 15*time.Minute, "Serve cached results up to this age (0 = never expire)")
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
	logger := observability.NewLoggerWithLevel("server", level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, *useMemory, *maxResultAge); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, useMemory bool, maxResultAge time.Duration) error {
	var ledgerStore storage.LedgerStore
	var resolutionStore storage.ResolutionStore
	var resultStore storage.ResultStore

	if useMemory {
		ledgerStore = memory.NewLedgerStore()
		resolutionStore = memory.NewResolutionStore()
		resultStore = memory.NewResultStore()
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

		if cfg.Postgres.DSN != "" {
			pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()

			if cfg.Postgres.RunMigrations {
				if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
					return fmt.Errorf("run postgres migrations: %w", err)
				}
			}
			resultStore = pgstore.NewResultStore(pool)
		}
	}

	var marks markprice.Source = markprice.NewGammaClient(cfg.Gamma.Host)
	if cfg.Redis.Addr != "" {
		cached, err := markprice.NewRedisCache(ctx, markprice.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL.Duration,
		}, marks)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer cached.Close()
		marks = cached
	}

	metrics := observability.NewMetrics("")

	persistStore := resultStore
	if !cfg.Engine.PersistResults {
		persistStore = nil
	}

	r := runner.New(runner.Options{
		LedgerStore:     ledgerStore,
		ResolutionStore: resolutionStore,
		ResultStore:     persistStore,
		MarkSource:      marks,
		DefaultMark:     cfg.DefaultMarkMicro(),
		Workers:         cfg.Engine.Workers,
		Logger:          observability.NewLoggerWithLevel("runner", logger.GetLevel()),
		Metrics:         metrics,
	})

	srv := server.New(server.Options{
		Runner:      r,
		ResultStore: resultStore,
		MaxAge:      maxResultAge,
		Logger:      logger,
	})

	return srv.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port))
}
