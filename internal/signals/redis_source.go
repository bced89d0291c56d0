package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/saaga0h/wellness-engine/internal/wellness"
	"github.com/saaga0h/wellness-engine/pkg/redis"
)

// latestMaxAge bounds how old a sample may be to count as today's reading
const latestMaxAge = 36 * time.Hour

// RedisSource reads samples written by the collector from a Redis sorted set
// keyed by domain and user, scored by unix milliseconds.
type RedisSource struct {
	domain wellness.Domain
	redis  redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewRedisSource creates a source for one domain
func NewRedisSource(domain wellness.Domain, redisClient redis.Client, logger *slog.Logger) *RedisSource {
	return &RedisSource{
		domain: domain,
		redis:  redisClient,
		logger: logger,
		now:    time.Now,
	}
}

// NewRedisSources creates one source per known domain
func NewRedisSources(redisClient redis.Client, logger *slog.Logger) []Source {
	sources := make([]Source, 0, len(wellness.AllDomains))
	for _, d := range wellness.AllDomains {
		sources = append(sources, NewRedisSource(d, redisClient, logger))
	}
	return sources
}

// Domain implements Source
func (s *RedisSource) Domain() wellness.Domain {
	return s.domain
}

// Latest implements Source
func (s *RedisSource) Latest(ctx context.Context, userID string) (*wellness.DomainSample, error) {
	key := redis.SignalKey(string(s.domain), userID)
	now := s.now()
	minScore := float64(now.Add(-latestMaxAge).UnixMilli())

	members, err := s.redis.ZRevRangeByScoreWithScores(ctx, key, math.Inf(1), minScore, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest %s sample: %w", s.domain, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	sample, err := s.decode(members[0])
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

// History implements Source
func (s *RedisSource) History(ctx context.Context, userID string, windowDays int) ([]wellness.DomainSample, error) {
	key := redis.SignalKey(string(s.domain), userID)
	now := s.now()
	minScore := float64(now.AddDate(0, 0, -windowDays).UnixMilli())

	members, err := s.redis.ZRangeByScoreWithScores(ctx, key, minScore, float64(now.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s history: %w", s.domain, err)
	}

	samples := make([]wellness.DomainSample, 0, len(members))
	for _, m := range members {
		sample, err := s.decode(m)
		if err != nil {
			// Skip corrupt entries rather than failing the whole slice
			s.logger.Warn("Skipping undecodable sample",
				"domain", s.domain,
				"user_id", userID,
				"error", err)
			continue
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

func (s *RedisSource) decode(m redis.ZMember) (wellness.DomainSample, error) {
	var sample wellness.DomainSample
	if err := json.Unmarshal([]byte(m.Member), &sample); err != nil {
		return sample, fmt.Errorf("failed to decode %s sample: %w", s.domain, err)
	}
	sample.Domain = s.domain
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.UnixMilli(int64(m.Score)).UTC()
	}
	return sample, nil
}
