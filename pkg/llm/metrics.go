package llm

import (
	"log/slog"
	"sync"
)

// Metrics tracks LLM usage statistics
type Metrics struct {
	TotalRequests    int64   `json:"total_requests"`
	TotalTokens      int64   `json:"total_tokens"`
	TotalDurationMs  int64   `json:"total_duration_ms"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	ErrorCount       int64   `json:"error_count"`
}

// MetricsCollector collects LLM usage metrics
type MetricsCollector struct {
	mu      sync.Mutex
	metrics Metrics
	logger  *slog.Logger
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	return &MetricsCollector{
		logger: logger,
	}
}

// Record records metrics from a response
func (mc *MetricsCollector) Record(resp *GenerateResponse) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics.TotalRequests++
	mc.metrics.TotalTokens += int64(resp.EvalCount + resp.PromptEvalCount)
	mc.metrics.TotalDurationMs += resp.TotalDuration / 1_000_000
	mc.metrics.AverageLatencyMs = float64(mc.metrics.TotalDurationMs) / float64(mc.metrics.TotalRequests)
}

// RecordError records an error
func (mc *MetricsCollector) RecordError() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics.ErrorCount++
}

// GetMetrics returns current metrics
func (mc *MetricsCollector) GetMetrics() Metrics {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.metrics
}

// LogMetrics logs current metrics
func (mc *MetricsCollector) LogMetrics() {
	m := mc.GetMetrics()
	mc.logger.Info("LLM metrics",
		"total_requests", m.TotalRequests,
		"total_tokens", m.TotalTokens,
		"avg_latency_ms", m.AverageLatencyMs,
		"error_count", m.ErrorCount)
}
