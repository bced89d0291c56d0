package insight

import (
	"sort"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// ConfidenceFloor is the minimum confidence an insight needs to be kept
const ConfidenceFloor = 0.6

// FilterOptions controls Filter
type FilterOptions struct {
	// MaxCount truncates the result; zero or less keeps everything
	MaxCount int

	// AllowHealthAlerts keeps high and critical insights in the health category
	AllowHealthAlerts bool
}

// Filter drops low-confidence insights and, unless allowed, urgent health
// insights, then orders by priority (stable) and truncates. The input is not modified.
func Filter(insights []wellness.Insight, opts FilterOptions) []wellness.Insight {
	kept := make([]wellness.Insight, 0, len(insights))
	for _, in := range insights {
		if in.Confidence < ConfidenceFloor {
			continue
		}
		if !opts.AllowHealthAlerts && in.Category == wellness.CategoryHealth && in.Priority.Rank() >= wellness.PriorityHigh.Rank() {
			continue
		}
		kept = append(kept, in)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Priority.Rank() > kept[j].Priority.Rank()
	})

	if opts.MaxCount > 0 && len(kept) > opts.MaxCount {
		kept = kept[:opts.MaxCount]
	}
	return kept
}
