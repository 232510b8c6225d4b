// internal/catalog/sanitizer.go
package catalog

import (
	"regexp"
	"strings"

	"inkvault/internal/domain"
)

const (
	MaxQueryLength = 255
	MaxResults     = 100
	DefaultLimit   = 20
)

// Structural SQL markers rejected outright. Matching is case-insensitive.
// Defense in depth: the query is only ever bound as a parameter, never
// concatenated into SQL.
var denylist = []string{"--", "/*", "*/", ";", "xp_", "sp_", "\x00"}

// Allow only alphanumerics, whitespace, and a small punctuation set.
var allowedQuery = regexp.MustCompile(`^[a-zA-Z0-9\s\-&.,'":?!]+$`)

// SanitizeQuery validates a raw search query and returns the trimmed
// original. The string is not escaped or rewritten; rejection is the only
// transformation besides trimming.
func SanitizeQuery(raw string) (string, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return "", domain.Errorf(domain.EINVALID, "Search query cannot be empty")
	}

	if len(query) > MaxQueryLength {
		return "", domain.Errorf(domain.EINVALID, "Search query exceeds %d characters", MaxQueryLength)
	}

	lowered := strings.ToLower(query)
	for _, pattern := range denylist {
		if strings.Contains(lowered, pattern) {
			return "", domain.Errorf(domain.EINVALID, "Invalid characters in search query")
		}
	}

	if !allowedQuery.MatchString(query) {
		return "", domain.Errorf(domain.EINVALID, "Search contains invalid characters")
	}

	return query, nil
}

// clampLimit silently replaces out-of-range limits with the default rather
// than rejecting the request.
func clampLimit(limit int) int {
	if limit < 1 || limit > MaxResults {
		return DefaultLimit
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// normalizeSort restricts the sort key to the fixed whitelist. Unrecognized
// values fall back to relevance and are never interpolated into ORDER BY.
func normalizeSort(sortBy string) string {
	switch sortBy {
	case SortPriceAsc, SortPriceDesc, SortRating, SortRelevance:
		return sortBy
	default:
		return SortRelevance
	}
}
