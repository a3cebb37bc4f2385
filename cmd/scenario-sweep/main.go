package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saaga0h/jeeves-timeofday/internal/environment"
	"github.com/saaga0h/jeeves-timeofday/internal/scenario"
	"github.com/saaga0h/jeeves-timeofday/pkg/config"
	"github.com/saaga0h/jeeves-timeofday/pkg/logging"
	"github.com/saaga0h/jeeves-timeofday/pkg/postgres"
	"github.com/saaga0h/jeeves-timeofday/pkg/redis"
)

func main() {
	cfg := config.NewConfig()
	cfg.ServiceName = "scenario-sweep"
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg)
	logger := log.Logger
	slog.SetDefault(logger)

	// Cancel between steps on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, cfg, logger)
	stop()
	log.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sweep failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	opts, err := environment.OptionsFromConfig(cfg, time.Now())
	if err != nil {
		return err
	}

	var redisClient redis.Client
	var pgClient postgres.Client
	switch cfg.CatalogSource {
	case "redis":
		redisClient = redis.NewClient(cfg, logger)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("redis unavailable: %w", err)
		}
	case "postgres":
		pgClient = postgres.NewClient(cfg, logger)
		if err := pgClient.Connect(ctx); err != nil {
			return err
		}
		defer pgClient.Disconnect()
	}

	catalog, err := environment.CatalogFromConfig(ctx, cfg, redisClient, pgClient)
	if err != nil {
		return err
	}

	sweeper := scenario.NewSweeper(
		environment.ScenarioEvaluator(opts),
		scenario.NewCatalogBaker(catalog),
		logger,
	)

	result, err := sweeper.Run(ctx, scenario.SweepPlan{
		Scene:        cfg.SceneName,
		Date:         opts.Clock,
		Location:     opts.Location,
		StepHours:    cfg.SweepStepHours,
		SkipOddHours: cfg.SweepSkipOddHours,
	})
	if err != nil {
		return fmt.Errorf("run %s stopped after %d scenarios: %w", result.RunID, len(result.Baked), err)
	}

	for _, name := range result.Baked {
		fmt.Println(name)
	}
	return nil
}
