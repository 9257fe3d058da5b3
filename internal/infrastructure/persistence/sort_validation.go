package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC.
// Anything else yields defaultDir.
func ValidateSortOrder(orderDir, defaultDir string) string {
	switch strings.ToUpper(strings.TrimSpace(orderDir)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	return defaultDir
}

// ValidateSortField checks sortField against a whitelist of column names.
// It returns defaultField if the input is empty or not whitelisted, so the
// result is always safe to interpolate into an ORDER BY clause.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// MovementSortFields are the movement columns a listing may be ordered by
var MovementSortFields = map[string]bool{
	"occurred_at": true,
	"sequence":    true,
	"amount":      true,
}
