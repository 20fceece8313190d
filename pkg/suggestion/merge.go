package suggestion

import (
	"sort"
	"strings"

	"ai-docpilot-be/pkg/anchor"
)

// Merge collapses a batch of suggestions into display records: entries
// whose OriginalText is identical after normalization (the same
// canonicalization the anchor resolver matches with) become one
// MergedSuggestion carrying every subsumed id.
//
// Within a group the kept fields come from the entry with the highest
// confidence, ties broken by the latest CreatedAt. Two entries sharing
// an id are an update, not a group: the later occurrence replaces the
// earlier one wholesale while keeping its position in the batch.
// Entries without an id are dropped; the rest of the batch still
// merges.
//
// plainText, when non-empty, only flags groups whose text no longer
// occurs in the document projection as stale; it never changes the
// grouping. Results are ordered severity high-to-low, then paragraph
// ascending, stable over arrival order.
//
// Merge is pure: inputs are never mutated and every call builds the
// result from scratch. A new analysis batch therefore supersedes the
// previous merged set entirely.
func Merge(batch []Suggestion, plainText string) []MergedSuggestion {
	// Pass 1: drop id-less entries, collapse same-id updates in place.
	deduped := make([]Suggestion, 0, len(batch))
	byId := make(map[string]int, len(batch))
	for _, s := range batch {
		if s.Id == "" {
			continue
		}
		if at, seen := byId[s.Id]; seen {
			deduped[at] = s
			continue
		}
		byId[s.Id] = len(deduped)
		deduped = append(deduped, s)
	}

	// Pass 2: group by normalized text, single map pass.
	type group struct {
		kept Suggestion
		ids  []string
	}
	groups := make([]*group, 0, len(deduped))
	byText := make(map[string]*group, len(deduped))
	for _, s := range deduped {
		key := anchor.NormalizeText(s.OriginalText)
		g, ok := byText[key]
		if !ok {
			g = &group{kept: s, ids: []string{s.Id}}
			byText[key] = g
			groups = append(groups, g)
			continue
		}
		g.ids = append(g.ids, s.Id)
		if s.Confidence > g.kept.Confidence ||
			(s.Confidence == g.kept.Confidence && s.CreatedAt.After(g.kept.CreatedAt)) {
			g.kept = s
		}
	}

	var normalizedDoc string
	if plainText != "" {
		normalizedDoc = anchor.NormalizeText(plainText)
	}

	merged := make([]MergedSuggestion, len(groups))
	for i, g := range groups {
		merged[i] = MergedSuggestion{
			Suggestion: g.kept,
			MergedIds:  append([]string(nil), g.ids...),
		}
		if normalizedDoc != "" && g.kept.OriginalText != "" {
			key := anchor.NormalizeText(g.kept.OriginalText)
			merged[i].Stale = !strings.Contains(normalizedDoc, key)
		}
	}

	// Display priority; SliceStable keeps arrival order inside equal
	// priority buckets.
	sort.SliceStable(merged, func(a, b int) bool {
		ra, rb := merged[a].Severity.rank(), merged[b].Severity.rank()
		if ra != rb {
			return ra < rb
		}
		return merged[a].Paragraph < merged[b].Paragraph
	})
	return merged
}
