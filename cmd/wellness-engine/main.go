package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saaga0h/wellness-engine/internal/api"
	"github.com/saaga0h/wellness-engine/internal/engine"
	"github.com/saaga0h/wellness-engine/internal/recommend"
	"github.com/saaga0h/wellness-engine/internal/signals"
	"github.com/saaga0h/wellness-engine/internal/storage"
	"github.com/saaga0h/wellness-engine/pkg/config"
	"github.com/saaga0h/wellness-engine/pkg/health"
	"github.com/saaga0h/wellness-engine/pkg/llm"
	"github.com/saaga0h/wellness-engine/pkg/mqtt"
	"github.com/saaga0h/wellness-engine/pkg/postgres"
	"github.com/saaga0h/wellness-engine/pkg/redis"
)

const maintenanceInterval = 5 * time.Minute

func main() {
	// Load configuration with hierarchy: defaults → file → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "wellness-engine"
	if path := os.Getenv("WELLNESS_CONFIG_FILE"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting Wellness Engine",
		"service_name", cfg.ServiceName,
		"redis_host", cfg.RedisAddress(),
		"postgres", fmt.Sprintf("%s:%d/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB),
		"llm_endpoint", cfg.LLMEndpoint,
		"llm_model", cfg.LLMModel,
		"locale", cfg.Locale,
		"timezone", cfg.Timezone,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	redisClient := redis.NewClient(cfg, logger)
	defer redisClient.Close()

	// Results are still served from memory while the store is unreachable
	pgClient := postgres.NewClient(cfg, logger)
	gateway := storage.NewPostgresGateway(pgClient, logger)
	if err := pgClient.Connect(ctx); err != nil {
		logger.Warn("Postgres unavailable, results will not persist", "error", err)
	} else if err := gateway.EnsureSchema(ctx); err != nil {
		logger.Error("Failed to prepare result schema", "error", err)
	}
	defer pgClient.Disconnect()

	var (
		llmClient  llm.Client
		llmMetrics *llm.MetricsCollector
		requester  engine.RecommendationSource
	)
	if cfg.LLMEndpoint != "" {
		llmMetrics = llm.NewMetricsCollector(logger)
		llmClient = llm.NewOllamaClient(cfg.LLMEndpoint, cfg.LLMTimeout, llmMetrics, logger)
		requester = recommend.NewRequester(llmClient, recommend.RequesterConfig{
			Model:       cfg.LLMModel,
			Timeout:     cfg.LLMTimeout,
			MaxRetries:  cfg.LLMMaxRetries,
			BaseBackoff: cfg.LLMBaseBackoff,
			MaxBackoff:  10 * cfg.LLMBaseBackoff,
		}, logger)
	} else {
		logger.Info("No LLM endpoint configured, using fallback recommendations only")
	}

	var (
		mqttClient mqtt.Client
		notifier   engine.Notifier
	)
	if cfg.PublishResults {
		mqttClient = mqtt.NewClient(cfg, logger)
		if err := mqttClient.Connect(ctx); err != nil {
			logger.Warn("MQTT unavailable, results will not be published", "error", err)
		} else {
			notifier = engine.NewMQTTNotifier(mqttClient)
			defer mqttClient.Disconnect()
		}
	}

	aggregator := signals.NewAggregator(signals.NewRedisSources(redisClient, logger), signals.AggregatorConfig{
		WindowDays:    cfg.HistoryWindowDays,
		SourceTimeout: cfg.SourceTimeout,
		MemoTTL:       cfg.ContextCacheTTL,
	}, logger)

	eng := engine.New(aggregator, requester, gateway, notifier, signals.NewProfileStore(redisClient), engine.Options{
		Locale:            cfg.Locale,
		Location:          cfg.Location(),
		Latitude:          cfg.Latitude,
		Longitude:         cfg.Longitude,
		ResultTTL:         cfg.ResultCacheTTL,
		MaxInsights:       cfg.MaxInsights,
		AllowHealthAlerts: cfg.AllowHealthAlerts,
	}, logger)

	healthChecker := health.NewChecker(mqttClient, redisClient, logger).WithPostgres(pgClient)
	if llmClient != nil {
		healthChecker.WithLLM(llmClient)
	}
	healthServer := startHealthServer(cfg.HealthPort, healthChecker, logger)

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           api.NewServer(eng, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	apiErr := make(chan error, 1)
	go func() {
		logger.Info("Starting API server", "port", cfg.APIPort)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			apiErr <- err
		}
	}()

	go runMaintenance(ctx, eng, llmMetrics, logger)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-apiErr:
		logger.Error("API server failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down API server", "error", err)
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}
	if llmMetrics != nil {
		llmMetrics.LogMetrics()
	}

	logger.Info("Wellness engine shutdown complete")
}

// runMaintenance evicts expired results and reports model usage until ctx ends
func runMaintenance(ctx context.Context, eng *engine.Engine, metrics *llm.MetricsCollector, logger *slog.Logger) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := eng.CleanupExpired(); removed > 0 {
				logger.Debug("Evicted expired results", "count", removed)
			}
			if metrics != nil {
				metrics.LogMetrics()
			}
		}
	}
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
