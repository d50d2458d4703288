package profile

import (
	"sort"
	"strings"

	"datalens/models"
)

// DefaultTopCategories bounds the frequency chart. Configurable via
// TOP_CATEGORIES; inherited behavior rather than a hard invariant.
const DefaultTopCategories = 15

// EmptyCategory is the sentinel bucket for blank or whitespace-only
// cells during aggregation.
const EmptyCategory = "(empty)"

// TopCategories counts occurrences of each distinct trimmed value in the
// named column and returns the limit largest, sorted by count descending.
// Ties keep first-encounter row order. An unknown column name yields an
// empty slice, not an error.
func TopCategories(headers []string, rows [][]string, column string, limit int) []models.CategoryTally {
	if limit <= 0 {
		limit = DefaultTopCategories
	}

	idx := -1
	for i, name := range headers {
		if name == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return []models.CategoryTally{}
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, row := range rows {
		value := ""
		if idx < len(row) {
			value = strings.TrimSpace(row[idx])
		}
		if value == "" {
			value = EmptyCategory
		}
		if _, seen := counts[value]; !seen {
			order = append(order, value)
		}
		counts[value]++
	}

	tallies := make([]models.CategoryTally, 0, len(order))
	for _, category := range order {
		tallies = append(tallies, models.CategoryTally{Category: category, Count: counts[category]})
	}

	sort.SliceStable(tallies, func(a, b int) bool {
		return tallies[a].Count > tallies[b].Count
	})

	if len(tallies) > limit {
		tallies = tallies[:limit]
	}
	return tallies
}
