package search

import (
	"strings"
)

// SearchFilters holds the extracted filters and the remaining clean query
type SearchFilters struct {
	Title       string
	SearchQuery string // The remaining text to search in Content/Title
}

// ParseQuery extracts slash commands from the raw query string
// Supported:
// /doc:<term> OR /title:<term> -> Filter by Document Title
// <text> -> Remaining text is the SearchQuery
func ParseQuery(raw string) SearchFilters {
	filters := SearchFilters{}
	parts := strings.Fields(raw)
	var cleanParts []string

	for _, part := range parts {
		lowerPart := strings.ToLower(part)

		if strings.HasPrefix(lowerPart, "/doc:") {
			filters.Title = strings.TrimPrefix(lowerPart, "/doc:")
		} else if strings.HasPrefix(lowerPart, "/title:") {
			// Alias for /doc:
			filters.Title = strings.TrimPrefix(lowerPart, "/title:")
		} else {
			cleanParts = append(cleanParts, part)
		}
	}

	filters.SearchQuery = strings.Join(cleanParts, " ")
	return filters
}
