package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "json", req.Format)

		_ = json.NewEncoder(w).Encode(GenerateResponse{
			Model:           req.Model,
			Response:        `{"recommendations":[]}`,
			Done:            true,
			EvalCount:       10,
			PromptEvalCount: 5,
			TotalDuration:   int64(200 * time.Millisecond),
		})
	}))
	defer srv.Close()

	metrics := NewMetricsCollector(testLogger())
	client := NewOllamaClient(srv.URL, 5*time.Second, metrics, testLogger())

	resp, err := client.Generate(context.Background(), DefaultGenerateRequest("test-model", "hello"))
	require.NoError(t, err)
	assert.Equal(t, `{"recommendations":[]}`, resp.Response)

	m := metrics.GetMetrics()
	assert.Equal(t, int64(1), m.TotalRequests)
	assert.Equal(t, int64(15), m.TotalTokens)
	assert.Equal(t, int64(200), m.TotalDurationMs)
}

func TestGenerate_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	metrics := NewMetricsCollector(testLogger())
	client := NewOllamaClient(srv.URL, 5*time.Second, metrics, testLogger())

	_, err := client.Generate(context.Background(), DefaultGenerateRequest("missing", "hello"))
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, int64(1), metrics.GetMetrics().ErrorCount)
}

func TestGenerate_RequiresModelAndPrompt(t *testing.T) {
	client := NewOllamaClient("http://127.0.0.1:0", time.Second, nil, testLogger())

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	assert.Error(t, err)
	assert.False(t, IsRetryable(err))

	_, err = client.Generate(context.Background(), GenerateRequest{Model: "m"})
	assert.Error(t, err)
}

func TestGenerate_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, 5*time.Second, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, DefaultGenerateRequest("m", "p"))
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"canceled", context.Canceled, false},
		{"server error", &StatusError{StatusCode: 503}, true},
		{"rate limited", &StatusError{StatusCode: 429}, true},
		{"bad request", &StatusError{StatusCode: 400}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, time.Second, nil, testLogger())
	assert.NoError(t, client.Health(context.Background()))
}

func TestMockClient_CountsCalls(t *testing.T) {
	mock := RespondWith(`{"ok":true}`)

	resp, err := mock.Generate(context.Background(), DefaultGenerateRequest("m", "p"))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Response)

	_, _ = mock.Generate(context.Background(), DefaultGenerateRequest("m", "p"))
	assert.Equal(t, 2, mock.Calls())
}
