package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saaga0h/wellness-engine/pkg/redis"
)

// Storage writes samples into per-user sorted sets and trims old entries
type Storage struct {
	redis     redis.Client
	retention time.Duration
	logger    *slog.Logger
}

// NewStorage creates a new storage handler
func NewStorage(redisClient redis.Client, retentionDays int, logger *slog.Logger) *Storage {
	return &Storage{
		redis:     redisClient,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger,
	}
}

// StoreSample adds a sample to signal:{domain}:{user_id} scored by its timestamp
func (s *Storage) StoreSample(ctx context.Context, msg *SignalMessage) error {
	domain := string(msg.Sample.Domain)
	key := redis.SignalKey(domain, msg.UserID)

	data, err := json.Marshal(msg.Sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	ts := msg.Sample.Timestamp.UnixMilli()
	if err := s.redis.ZAdd(ctx, key, float64(ts), data); err != nil {
		return fmt.Errorf("failed to add sample to sorted set: %w", err)
	}

	// Clean entries older than the retention window
	cutoff := time.Now().Add(-s.retention).UnixMilli()
	if err := s.redis.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)); err != nil {
		s.logger.Warn("Failed to trim old samples", "domain", domain, "user_id", msg.UserID, "error", err)
	}

	if err := s.redis.Expire(ctx, key, s.retention); err != nil {
		return fmt.Errorf("failed to set TTL on samples: %w", err)
	}

	count, err := s.redis.ZCard(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to get sample count", "domain", domain, "user_id", msg.UserID, "error", err)
	} else {
		s.logger.Debug("Stored sample",
			"domain", domain,
			"user_id", msg.UserID,
			"buffer_size", count)
	}

	return nil
}
