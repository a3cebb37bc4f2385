package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/saaga0h/jeeves-timeofday/internal/environment"
	"github.com/saaga0h/jeeves-timeofday/pkg/config"
	"github.com/saaga0h/jeeves-timeofday/pkg/health"
	"github.com/saaga0h/jeeves-timeofday/pkg/logging"
	"github.com/saaga0h/jeeves-timeofday/pkg/mqtt"
	"github.com/saaga0h/jeeves-timeofday/pkg/postgres"
	"github.com/saaga0h/jeeves-timeofday/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg)
	defer log.Close()
	logger := log.Logger
	slog.SetDefault(logger)

	logger.Info("Starting J.E.E.V.E.S. Time-of-Day Agent",
		"version", "1.0",
		"service_name", cfg.ServiceName,
		"mqtt_broker", cfg.MQTTAddress(),
		"redis_host", cfg.RedisAddress(),
		"scene", cfg.SceneName,
		"location", cfg.LocationPreset,
		"catalog", cfg.CatalogSource,
		"log_level", cfg.LogLevel)

	// Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	mqttClient := mqtt.NewClient(cfg, logger)
	redisClient := redis.NewClient(cfg, logger)
	defer redisClient.Close()

	healthChecker := health.NewChecker(mqttClient, redisClient, logger)

	// Postgres is only needed when it backs the scenario catalog
	var pgClient postgres.Client
	if cfg.CatalogSource == "postgres" {
		pgClient = postgres.NewClient(cfg, logger)
		if err := pgClient.Connect(ctx); err != nil {
			logger.Error("Failed to connect to Postgres", "error", err)
			os.Exit(1)
		}
		defer pgClient.Disconnect()
		healthChecker.WithPostgres(pgClient)
	}

	opts, err := environment.OptionsFromConfig(cfg, time.Now())
	if err != nil {
		logger.Error("Failed to resolve scene options", "error", err)
		os.Exit(1)
	}

	catalog, err := environment.CatalogFromConfig(ctx, cfg, redisClient, pgClient)
	if err != nil {
		logger.Error("Failed to open scenario catalog", "error", err)
		os.Exit(1)
	}

	controller := environment.NewController(opts)
	agent := environment.NewAgent(mqttClient, redisClient, catalog, controller, cfg, logger)

	httpServer := startHealthServer(cfg, healthChecker, redisClient, logger)

	// Start agent in a goroutine
	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	// Wait for shutdown signal or agent error
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	// Graceful shutdown
	logger.Info("Initiating graceful shutdown")
	cancel()

	if err := agent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("Time-of-day agent shutdown complete")
}

func startHealthServer(cfg *config.Config, checker *health.Checker, redisClient redis.Client, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())
	mux.HandleFunc("/snapshot", snapshotHandler(cfg.SceneName, redisClient, logger))
	mux.HandleFunc("/transitions", transitionsHandler(cfg, redisClient, logger))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HealthPort),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", cfg.HealthPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}

// snapshotHandler serves the last snapshot the agent cached in Redis
func snapshotHandler(scene string, redisClient redis.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := environment.LatestSnapshot(r.Context(), redisClient, scene)
		if errors.Is(err, redis.ErrNotFound) {
			http.Error(w, "no snapshot yet", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Warn("Failed to read snapshot", "error", err)
			http.Error(w, "snapshot unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, snap, logger)
	}
}

// transitionsHandler serves recent day/night transitions, newest first.
// ?limit= caps the count at the configured history size.
func transitionsHandler(cfg *config.Config, redisClient redis.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := cfg.MaxTransitionHistory
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			if n < limit {
				limit = n
			}
		}
		if limit <= 0 {
			limit = 1
		}

		events, err := environment.RecentTransitions(r.Context(), redisClient, cfg.SceneName, limit)
		if err != nil {
			logger.Warn("Failed to read transitions", "error", err)
			http.Error(w, "transitions unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, events, logger)
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
