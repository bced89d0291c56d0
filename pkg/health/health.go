package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/wellness-engine/pkg/llm"
	"github.com/saaga0h/wellness-engine/pkg/mqtt"
	"github.com/saaga0h/wellness-engine/pkg/postgres"
	"github.com/saaga0h/wellness-engine/pkg/redis"
)

// Dependency states reported by the detailed handler
const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
	StateAvailable    = "available"
	StateUnavailable  = "unavailable"
	StateDisabled     = "disabled"
)

const defaultProbeTimeout = 2 * time.Second

// Checker provides health check functionality for the wellness services
type Checker struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	llm      llm.Client
	timeout  time.Duration
	logger   *slog.Logger
}

// NewChecker creates a new health checker. Any dependency may be nil when the
// service runs without it.
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:    mqttClient,
		redis:   redisClient,
		timeout: defaultProbeTimeout,
		logger:  logger,
	}
}

// WithPostgres adds the result store to the detailed check
func (h *Checker) WithPostgres(db postgres.Client) *Checker {
	h.postgres = db
	return h
}

// WithLLM adds the model endpoint to the detailed check. Model outages never
// mark the service degraded since results fall back to local generation.
func (h *Checker) WithLLM(client llm.Client) *Checker {
	h.llm = client
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
	Postgres string `json:"postgres"`
	LLM      string `json:"llm"`
}

// HandlerFunc returns 200 while the process is alive without checking dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// DetailedHandlerFunc returns a handler that probes every configured dependency
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		services := h.Check(ctx)

		status := "healthy"
		statusCode := http.StatusOK
		if services.degraded() {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		h.write(w, statusCode, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		})
	}
}

// Check probes the dependencies and reports their state
func (h *Checker) Check(ctx context.Context) *Services {
	services := &Services{
		Redis:    StateDisabled,
		MQTT:     StateDisabled,
		Postgres: StateDisabled,
		LLM:      StateDisabled,
	}

	if h.mqtt != nil {
		services.MQTT = connectedState(h.mqtt.IsConnected())
	}

	if h.redis != nil {
		err := h.redis.Ping(ctx)
		if err != nil {
			h.logger.Warn("Redis health probe failed", "error", err)
		}
		services.Redis = connectedState(err == nil)
	}

	if h.postgres != nil {
		status, err := h.postgres.HealthCheck(ctx)
		connected := err == nil && status != nil && status.Connected
		if !connected {
			h.logger.Warn("Postgres health probe failed", "error", err)
		}
		services.Postgres = connectedState(connected)
	}

	if h.llm != nil {
		services.LLM = StateAvailable
		if err := h.llm.Health(ctx); err != nil {
			h.logger.Debug("LLM health probe failed", "error", err)
			services.LLM = StateUnavailable
		}
	}

	return services
}

func (s *Services) degraded() bool {
	return s.Redis == StateDisconnected || s.MQTT == StateDisconnected || s.Postgres == StateDisconnected
}

func connectedState(ok bool) string {
	if ok {
		return StateConnected
	}
	return StateDisconnected
}

func (h *Checker) write(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
