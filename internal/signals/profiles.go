package signals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/saaga0h/wellness-engine/internal/recommend"
	"github.com/saaga0h/wellness-engine/pkg/redis"
)

// Profile hash fields
const (
	profileFirstName = "first_name"
	profileUserName  = "user_name"
)

// ProfileMessage is the payload published on wellness/profile/{user_id}
type ProfileMessage struct {
	FirstName string `json:"first_name"`
	UserName  string `json:"user_name"`
}

// ProfileStore keeps display details in the profile:{user_id} hash
type ProfileStore struct {
	redis redis.Client
}

// NewProfileStore creates a profile store over a Redis client
func NewProfileStore(redisClient redis.Client) *ProfileStore {
	return &ProfileStore{redis: redisClient}
}

// ParseProfile decodes a profile payload. At least one name must be present.
func ParseProfile(payload []byte) (ProfileMessage, error) {
	var msg ProfileMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ProfileMessage{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	msg.FirstName = strings.TrimSpace(msg.FirstName)
	msg.UserName = strings.TrimSpace(msg.UserName)
	if msg.FirstName == "" && msg.UserName == "" {
		return ProfileMessage{}, errors.New("profile has neither first_name nor user_name")
	}
	return msg, nil
}

// Save writes the non-empty fields of msg
func (p *ProfileStore) Save(ctx context.Context, userID string, msg ProfileMessage) error {
	key := redis.ProfileKey(userID)
	if msg.FirstName != "" {
		if err := p.redis.HSet(ctx, key, profileFirstName, msg.FirstName); err != nil {
			return err
		}
	}
	if msg.UserName != "" {
		if err := p.redis.HSet(ctx, key, profileUserName, msg.UserName); err != nil {
			return err
		}
	}
	return nil
}

// Profile returns the user's display name, preferring first_name over
// user_name. A user without a profile gets an empty Profile and no error.
func (p *ProfileStore) Profile(ctx context.Context, userID string) (recommend.Profile, error) {
	key := redis.ProfileKey(userID)
	for _, field := range []string{profileFirstName, profileUserName} {
		name, err := p.redis.HGet(ctx, key, field)
		if errors.Is(err, redis.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return recommend.Profile{}, err
		}
		if name = strings.TrimSpace(name); name != "" {
			return recommend.Profile{DisplayName: name}, nil
		}
	}
	return recommend.Profile{}, nil
}
