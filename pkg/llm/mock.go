package llm

import (
	"context"
	"sync/atomic"
	"time"
)

// MockClient is a mock LLM client for testing
type MockClient struct {
	GenerateFunc func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	HealthFunc   func(ctx context.Context) error

	calls atomic.Int32
}

func (m *MockClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	m.calls.Add(1)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &GenerateResponse{
		Model:     req.Model,
		Response:  `{"recommendations": []}`,
		Done:      true,
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockClient) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Calls returns how many times Generate was invoked
func (m *MockClient) Calls() int {
	return int(m.calls.Load())
}

// NewMockClient creates a mock client with default behavior
func NewMockClient() *MockClient {
	return &MockClient{}
}

// RespondWith returns a mock that always answers with the given raw text
func RespondWith(text string) *MockClient {
	return &MockClient{
		GenerateFunc: func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
			return &GenerateResponse{Model: req.Model, Response: text, Done: true, CreatedAt: time.Now()}, nil
		},
	}
}
