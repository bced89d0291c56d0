package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// MemoryGateway keeps results in process. Stored values are deep-copied so
// callers cannot mutate what was persisted.
type MemoryGateway struct {
	mu      sync.Mutex
	results map[string]map[string][]byte // user -> date -> JSON

	// UpsertErr, when set, makes every Upsert fail
	UpsertErr error
	// GetErr, when set, makes every Get fail
	GetErr error

	upserts int
}

// NewMemoryGateway creates an empty in-memory gateway
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		results: make(map[string]map[string][]byte),
	}
}

// Get implements Gateway
func (m *MemoryGateway) Get(ctx context.Context, userID, date string) (*wellness.DailyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}

	data, ok := m.results[userID][date]
	if !ok {
		return nil, wellness.ErrNotFound
	}

	var result wellness.DailyResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Upsert implements Gateway
func (m *MemoryGateway) Upsert(ctx context.Context, result wellness.DailyResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpsertErr != nil {
		return m.UpsertErr
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if m.results[result.UserID] == nil {
		m.results[result.UserID] = make(map[string][]byte)
	}
	m.results[result.UserID][result.Date] = data
	m.upserts++
	return nil
}

// List implements Gateway
func (m *MemoryGateway) List(ctx context.Context, userID string, limit int) ([]wellness.DailyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dates := make([]string, 0, len(m.results[userID]))
	for d := range m.results[userID] {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
	}

	results := make([]wellness.DailyResult, 0, len(dates))
	for _, d := range dates {
		var r wellness.DailyResult
		if err := json.Unmarshal(m.results[userID][d], &r); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Upserts returns how many successful writes happened
func (m *MemoryGateway) Upserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}
