package persistence

import (
	"strings"

	"github.com/joinville/accounts/internal/domain/shared"
)

// applicationSortFields are the application columns a listing may be
// ordered by
var applicationSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"enabled":    true,
	"user_type":  true,
}

// orderClause builds the ORDER BY clause of a listing. Fields outside
// allowed fall back to defaultField and any direction but asc is DESC, so
// nothing from the request reaches the SQL verbatim.
func orderClause(filter shared.Filter, allowed map[string]bool, defaultField string) string {
	field := strings.TrimSpace(filter.OrderBy)
	if !allowed[field] {
		field = defaultField
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc") {
		dir = "ASC"
	}
	return field + " " + dir
}
