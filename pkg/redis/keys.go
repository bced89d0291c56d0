package redis

import "fmt"

// Key construction helpers for the wellness signal store

// SignalKey returns the key for a user's samples in one domain (sorted set, score = unix ms)
// Pattern: signal:{domain}:{user_id}
func SignalKey(domain, userID string) string {
	return fmt.Sprintf("signal:%s:%s", domain, userID)
}

// ProfileKey returns the hash holding a user's display details
// Pattern: profile:{user_id}
func ProfileKey(userID string) string {
	return fmt.Sprintf("profile:%s", userID)
}
