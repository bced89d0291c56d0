package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemoryClient is an in-process Client used by tests and local runs without Redis.
// TTLs are accepted but not enforced.
type MemoryClient struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	sorted  map[string]map[string]float64
	PingErr error
}

// NewMemoryClient creates an empty in-memory client
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		hashes: make(map[string]map[string]string),
		sorted: make(map[string]map[string]float64),
	}
}

func (m *MemoryClient) HSet(ctx context.Context, key string, field string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash, ok := m.hashes[key]
	if !ok {
		hash = make(map[string]string)
		m.hashes[key] = hash
	}
	hash[field] = stringify(value)
	return nil
}

func (m *MemoryClient) HGet(ctx context.Context, key string, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.hashes[key][field]
	if !ok {
		return "", fmt.Errorf("hash field %s:%s: %w", key, field, ErrKeyNotFound)
	}
	return val, nil
}

func (m *MemoryClient) ZAdd(ctx context.Context, key string, score float64, member interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sorted[key]
	if !ok {
		set = make(map[string]float64)
		m.sorted[key] = set
	}
	set[stringify(member)] = score
	return nil
}

func (m *MemoryClient) ZRemRangeByScore(ctx context.Context, key string, min, max string) error {
	lo, err := parseBound(min)
	if err != nil {
		return err
	}
	hi, err := parseBound(max)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for member, score := range m.sorted[key] {
		if score >= lo && score <= hi {
			delete(m.sorted[key], member)
		}
	}
	return nil
}

func (m *MemoryClient) ZCard(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sorted[key])), nil
}

func (m *MemoryClient) ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]ZMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rangeLocked(key, min, max, false), nil
}

func (m *MemoryClient) ZRevRangeByScoreWithScores(ctx context.Context, key string, max, min float64, offset, count int64) ([]ZMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := m.rangeLocked(key, min, max, true)
	if offset >= int64(len(members)) {
		return nil, nil
	}
	members = members[offset:]
	if count > 0 && count < int64(len(members)) {
		members = members[:count]
	}
	return members, nil
}

func (m *MemoryClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func (m *MemoryClient) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MemoryClient) Close() error {
	return nil
}

func (m *MemoryClient) rangeLocked(key string, min, max float64, reverse bool) []ZMember {
	var members []ZMember
	for member, score := range m.sorted[key] {
		if score >= min && score <= max {
			members = append(members, ZMember{Score: score, Member: member})
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score == members[j].Score {
			return members[i].Member < members[j].Member
		}
		if reverse {
			return members[i].Score > members[j].Score
		}
		return members[i].Score < members[j].Score
	})
	return members
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func parseBound(s string) (float64, error) {
	switch s {
	case "-inf":
		return -1e308, nil
	case "+inf", "inf":
		return 1e308, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid score bound %q: %w", s, err)
	}
	return f, nil
}
