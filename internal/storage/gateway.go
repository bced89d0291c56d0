// Package storage persists daily wellness results keyed by user and date.
package storage

import (
	"context"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// Gateway is the persistence boundary of the engine
type Gateway interface {
	// Get returns the stored result, or wellness.ErrNotFound
	Get(ctx context.Context, userID, date string) (*wellness.DailyResult, error)

	// Upsert stores a result, replacing any result for the same user and date
	Upsert(ctx context.Context, result wellness.DailyResult) error

	// List returns up to limit results for a user, newest first
	List(ctx context.Context, userID string, limit int) ([]wellness.DailyResult, error)
}
