package core

import (
	"time"

	"github.com/jmylchreest/traynote/internal/model"
)

// FilterOptions specifies criteria for filtering statuses.
type FilterOptions struct {
	Since   time.Duration // Only statuses shown within the last Since (0=all)
	Backend string        // Exact match on backend (empty=any)
	Limit   int           // Maximum results (0=unlimited)
}

// Filter returns the statuses matching opts, in their original order.
func Filter(statuses []model.Status, opts FilterOptions, now time.Time) []model.Status {
	result := make([]model.Status, 0, len(statuses))

	for _, s := range statuses {
		if opts.Since > 0 && s.ShownAt.Before(now.Add(-opts.Since)) {
			continue
		}

		if opts.Backend != "" && s.Backend != opts.Backend {
			continue
		}

		result = append(result, s)
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}

	return result
}
