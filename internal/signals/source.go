// Package signals collects per-domain wellness samples and aggregates them
// into a Context for the engine.
package signals

import (
	"context"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// Source serves samples for one domain
type Source interface {
	// Domain returns the domain this source serves
	Domain() wellness.Domain

	// Latest returns the most recent sample, or nil when there is none
	Latest(ctx context.Context, userID string) (*wellness.DomainSample, error)

	// History returns samples within the window in ascending time order
	History(ctx context.Context, userID string, windowDays int) ([]wellness.DomainSample, error)
}
