// Package core provides filtering and sorting of notification status.
package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/traynote/internal/model"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByShownAt SortField = "shown_at"
	SortByID      SortField = "id"
	SortByBackend SortField = "backend"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField // Field to sort by
	Order SortOrder // Sort order (asc/desc)
}

// DefaultSortOptions returns default sort options (newest first).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByShownAt,
		Order: SortDesc,
	}
}

// Sort sorts statuses in place based on the provided options.
// Ties are broken by id so output is stable across calls.
func Sort(statuses []model.Status, opts SortOptions) {
	if len(statuses) == 0 {
		return
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		a, b := statuses[i], statuses[j]

		var cmp int
		switch opts.Field {
		case SortByID:
			cmp = compare(a.ID, b.ID)
		case SortByBackend:
			cmp = strings.Compare(a.Backend, b.Backend)
		default:
			cmp = a.ShownAt.Compare(b.ShownAt)
		}
		if cmp == 0 {
			cmp = compare(a.ID, b.ID)
		}

		if opts.Order == SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compare(a, b model.ID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ParseSortField parses a sort field string.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shown_at", "time", "t":
		return SortByShownAt, nil
	case "id", "i":
		return SortByID, nil
	case "backend", "owner", "b":
		return SortByBackend, nil
	default:
		return "", fmt.Errorf("invalid sort field %q", s)
	}
}

// ParseSortOrder parses a sort order string.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "a":
		return SortAsc, nil
	case "", "desc", "descending", "d":
		return SortDesc, nil
	default:
		return "", fmt.Errorf("invalid sort order %q", s)
	}
}
