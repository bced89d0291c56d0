package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client is the interface for generative text interactions
type Client interface {
	// Generate sends a prompt and returns the raw model response. The response
	// text is not guaranteed to be well-formed JSON even when Format is "json".
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Health checks if the LLM service is available
	Health(ctx context.Context) error
}

// GenerateRequest represents a request to the LLM
type GenerateRequest struct {
	Model     string                 `json:"model"`
	Prompt    string                 `json:"prompt"`
	System    string                 `json:"system,omitempty"`
	Format    string                 `json:"format,omitempty"` // "json" for structured output
	Stream    bool                   `json:"stream"`
	Options   map[string]interface{} `json:"options,omitempty"`
	KeepAlive string                 `json:"keep_alive,omitempty"`
}

// GenerateResponse represents the LLM's response
type GenerateResponse struct {
	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	Response           string    `json:"response"`
	Done               bool      `json:"done"`
	TotalDuration      int64     `json:"total_duration"` // nanoseconds
	LoadDuration       int64     `json:"load_duration"`  // nanoseconds
	PromptEvalCount    int       `json:"prompt_eval_count"`
	PromptEvalDuration int64     `json:"prompt_eval_duration"` // nanoseconds
	EvalCount          int       `json:"eval_count"`
	EvalDuration       int64     `json:"eval_duration"` // nanoseconds
}

// ollamaClient implements Client for the Ollama API
type ollamaClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *MetricsCollector
	logger     *slog.Logger
}

// NewOllamaClient creates a new Ollama client. Per-request deadlines come from
// the caller's context; the HTTP timeout is only an upper bound. metrics may be nil.
func NewOllamaClient(baseURL string, timeout time.Duration, metrics *MetricsCollector, logger *slog.Logger) Client {
	return &ollamaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Generate sends a prompt to Ollama and returns the response
func (c *ollamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	startTime := time.Now()

	if req.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	// Force non-streaming
	req.Stream = false

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Debug("LLM request",
		"model", req.Model,
		"prompt_length", len(req.Prompt),
		"format", req.Format)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/generate",
		bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordError()
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.recordError()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		c.recordError()
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if c.metrics != nil {
		c.metrics.Record(&genResp)
	}

	c.logger.Info("LLM response received",
		"model", req.Model,
		"duration_ms", time.Since(startTime).Milliseconds(),
		"eval_count", genResp.EvalCount,
		"response_length", len(genResp.Response))

	return &genResp, nil
}

// Health checks if Ollama is available
func (c *ollamaClient) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	return nil
}

func (c *ollamaClient) recordError() {
	if c.metrics != nil {
		c.metrics.RecordError()
	}
}

// DefaultGenerateRequest creates a request with sensible defaults
func DefaultGenerateRequest(model, prompt string) GenerateRequest {
	return GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Format: "json",
		Stream: false,
		Options: map[string]interface{}{
			"temperature": 0.3,
			"top_p":       0.9,
			"top_k":       40,
		},
		KeepAlive: "5m",
	}
}
