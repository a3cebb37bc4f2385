package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/jeeves-timeofday/pkg/mqtt"
	"github.com/saaga0h/jeeves-timeofday/pkg/postgres"
	"github.com/saaga0h/jeeves-timeofday/pkg/redis"
)

// pingTimeout bounds the dependency checks of the detailed handler
const pingTimeout = 2 * time.Second

// Checker provides health check functionality for agents
type Checker struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	logger   *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		mqtt:   mqttClient,
		redis:  redisClient,
		logger: logger,
	}
}

// WithPostgres adds the Postgres scenario catalog to the detailed check
func (h *Checker) WithPostgres(client postgres.Client) *Checker {
	h.postgres = client
	return h
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis    string `json:"redis"`
	MQTT     string `json:"mqtt"`
	Postgres string `json:"postgres,omitempty"`
}

// HandlerFunc returns an HTTP handler function for health checks
// Returns 200 if process is alive without checking dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Simple health check - just return OK if process is alive
		// This keeps the health check fast for Nomad/Consul
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}

		h.writeJSON(w, http.StatusOK, response)
	}
}

// DetailedHandlerFunc returns a handler that checks all dependencies
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		services := h.Check(ctx)

		// Determine overall status
		status := "healthy"
		statusCode := http.StatusOK

		if services.Redis != "connected" || services.MQTT != "connected" ||
			(services.Postgres != "" && services.Postgres != "connected") {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}

		h.writeJSON(w, statusCode, response)
	}
}

// Check reports the state of every configured dependency
func (h *Checker) Check(ctx context.Context) *Services {
	services := &Services{
		Redis: "disconnected",
		MQTT:  "disconnected",
	}

	// Check MQTT connection
	if h.mqtt != nil && h.mqtt.IsConnected() {
		services.MQTT = "connected"
	}

	// Check Redis connection
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.Warn("Redis health check failed", "error", err)
		} else {
			services.Redis = "connected"
		}
	}

	// Postgres is only reported when the catalog uses it
	if h.postgres != nil {
		services.Postgres = "disconnected"
		status, err := h.postgres.HealthCheck(ctx)
		if err != nil {
			h.logger.Warn("Postgres health check failed", "error", err)
		} else if status.Connected {
			services.Postgres = "connected"
		}
	}

	return services
}

func (h *Checker) writeJSON(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
