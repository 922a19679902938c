package search

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultSortColumn = "created_at"
	sortAsc           = "asc"
	sortDesc          = "desc"
)

// sortableColumns is the allow-list of user-selectable sort keys
var sortableColumns = map[string]struct{}{
	"price":       {},
	"created_at":  {},
	"updated_at":  {},
	"views":       {},
	"saves":       {},
	"square_feet": {},
}

// normalizeSort maps unknown keys to created_at desc and unknown directions to desc
func normalizeSort(sortBy, sortOrder string) (string, string) {
	column := strings.ToLower(strings.TrimSpace(sortBy))
	if _, ok := sortableColumns[column]; !ok {
		return defaultSortColumn, sortDesc
	}

	order := strings.ToLower(strings.TrimSpace(sortOrder))
	if order != sortAsc {
		order = sortDesc
	}
	return column, order
}

// orderBy orders by an allow-listed column with id as tie-breaker.
// Filters must already be normalized.
func orderBy(f Filters) func(*gorm.DB) *gorm.DB {
	column, order := normalizeSort(f.SortBy, f.SortOrder)
	desc := order == sortDesc

	return func(db *gorm.DB) *gorm.DB {
		return db.
			Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	}
}
