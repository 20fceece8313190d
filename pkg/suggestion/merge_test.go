package suggestion

import (
	"reflect"
	"testing"
	"time"
)

func TestMergeGroupsByNormalizedText(t *testing.T) {
	batch := []Suggestion{
		{Id: "1", OriginalText: "the device", ReplaceTo: "the apparatus", Severity: SeverityHigh, Confidence: 0.9, Paragraph: 1},
		{Id: "2", OriginalText: "the Device", ReplaceTo: "the apparatus", Severity: SeverityMedium, Confidence: 0.6, Paragraph: 1},
	}

	got := Merge(batch, "so the device is reset")
	if len(got) != 1 {
		t.Fatalf("got %d merged suggestions, want 1", len(got))
	}
	m := got[0]
	if !reflect.DeepEqual(m.MergedIds, []string{"1", "2"}) {
		t.Errorf("MergedIds = %v, want [1 2]", m.MergedIds)
	}
	if m.Severity != SeverityHigh {
		t.Errorf("Severity = %q, want high", m.Severity)
	}
	if m.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", m.Confidence)
	}
	if m.Stale {
		t.Error("text occurs in the document, must not be stale")
	}
}

func TestMergeKeepsHighestConfidenceFields(t *testing.T) {
	early := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	late := early.Add(time.Minute)

	tests := []struct {
		name     string
		batch    []Suggestion
		wantId   string
		wantDesc string
	}{
		{
			name: "higher confidence wins regardless of order",
			batch: []Suggestion{
				{Id: "a", OriginalText: "foo bar", Description: "weak", Confidence: 0.3},
				{Id: "b", OriginalText: "Foo  Bar", Description: "strong", Confidence: 0.8},
			},
			wantId:   "b",
			wantDesc: "strong",
		},
		{
			name: "confidence tie broken by latest createdAt",
			batch: []Suggestion{
				{Id: "a", OriginalText: "foo bar", Description: "old", Confidence: 0.5, CreatedAt: early},
				{Id: "b", OriginalText: "foo bar", Description: "new", Confidence: 0.5, CreatedAt: late},
			},
			wantId:   "b",
			wantDesc: "new",
		},
		{
			name: "full tie keeps first arrival",
			batch: []Suggestion{
				{Id: "a", OriginalText: "foo bar", Description: "first", Confidence: 0.5, CreatedAt: early},
				{Id: "b", OriginalText: "foo bar", Description: "second", Confidence: 0.5, CreatedAt: early},
			},
			wantId:   "a",
			wantDesc: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.batch, "")
			if len(got) != 1 {
				t.Fatalf("got %d groups, want 1", len(got))
			}
			if !reflect.DeepEqual(got[0].MergedIds, []string{"a", "b"}) {
				t.Errorf("MergedIds = %v, want [a b]", got[0].MergedIds)
			}
			if got[0].Id != tt.wantId {
				t.Errorf("kept Id = %q, want %q", got[0].Id, tt.wantId)
			}
			if got[0].Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got[0].Description, tt.wantDesc)
			}
		})
	}
}

func TestMergeEqualIdIsAnUpdate(t *testing.T) {
	batch := []Suggestion{
		{Id: "1", OriginalText: "alpha", Description: "v1", Severity: SeverityLow, Confidence: 0.2},
		{Id: "2", OriginalText: "beta", Severity: SeverityLow},
		{Id: "1", OriginalText: "alpha revised", Description: "v2", Severity: SeverityLow, Confidence: 0.7},
	}

	got := Merge(batch, "")
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	// The update keeps the first occurrence's position, so id "1"
	// still precedes id "2".
	if got[0].Id != "1" || got[0].Description != "v2" || got[0].OriginalText != "alpha revised" {
		t.Errorf("update not applied in place: %+v", got[0].Suggestion)
	}
	if !reflect.DeepEqual(got[0].MergedIds, []string{"1"}) {
		t.Errorf("MergedIds = %v, want [1]", got[0].MergedIds)
	}
	if got[1].Id != "2" {
		t.Errorf("second group id = %q, want 2", got[1].Id)
	}
}

func TestMergeDropsIdlessEntries(t *testing.T) {
	batch := []Suggestion{
		{Id: "", OriginalText: "ghost"},
		{Id: "1", OriginalText: "real", Severity: SeverityMedium},
	}

	got := Merge(batch, "")
	if len(got) != 1 {
		t.Fatalf("got %d groups, want 1", len(got))
	}
	if got[0].Id != "1" {
		t.Errorf("kept id = %q, want 1", got[0].Id)
	}
}

func TestMergeOrdering(t *testing.T) {
	batch := []Suggestion{
		{Id: "1", OriginalText: "a", Severity: SeverityLow, Paragraph: 1},
		{Id: "2", OriginalText: "b", Severity: SeverityHigh, Paragraph: 4},
		{Id: "3", OriginalText: "c", Severity: SeverityMedium, Paragraph: 2},
		{Id: "4", OriginalText: "d", Severity: SeverityHigh, Paragraph: 2},
		{Id: "5", OriginalText: "e", Severity: SeverityMedium, Paragraph: 2},
	}

	got := Merge(batch, "")
	var order []string
	for _, m := range got {
		order = append(order, m.Id)
	}
	// Severity high-to-low, paragraph ascending, stable for id 3 vs 5.
	want := []string{"4", "2", "3", "5", "1"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestMergeIdempotent(t *testing.T) {
	batch := []Suggestion{
		{Id: "1", OriginalText: "the device", Severity: SeverityHigh, Confidence: 0.9, Paragraph: 2},
		{Id: "2", OriginalText: "the  DEVICE", Severity: SeverityMedium, Confidence: 0.6, Paragraph: 2},
		{Id: "3", OriginalText: "another span", Severity: SeverityLow, Paragraph: 5},
	}

	once := Merge(batch, "")

	// Flatten the merged output back to plain suggestions and merge
	// again; the grouping must not change.
	flat := make([]Suggestion, len(once))
	for i, m := range once {
		flat[i] = m.Suggestion
	}
	twice := Merge(flat, "")

	if len(twice) != len(once) {
		t.Fatalf("re-merge changed group count: %d vs %d", len(twice), len(once))
	}
	for i := range once {
		if twice[i].Id != once[i].Id || twice[i].OriginalText != once[i].OriginalText {
			t.Errorf("group %d drifted: %q vs %q", i, twice[i].Id, once[i].Id)
		}
	}
}

func TestMergeGroupingPermutationInvariant(t *testing.T) {
	forward := []Suggestion{
		{Id: "1", OriginalText: "one two", Severity: SeverityMedium, Confidence: 0.4},
		{Id: "2", OriginalText: "ONE&nbsp;two", Severity: SeverityMedium, Confidence: 0.9},
		{Id: "3", OriginalText: "three", Severity: SeverityMedium, Confidence: 0.5},
	}
	reversed := []Suggestion{forward[2], forward[1], forward[0]}

	groupSet := func(ms []MergedSuggestion) map[string][]string {
		set := make(map[string][]string, len(ms))
		for _, m := range ms {
			ids := append([]string(nil), m.MergedIds...)
			// Arrival order differs between permutations; compare as sets.
			for i := 0; i < len(ids); i++ {
				for j := i + 1; j < len(ids); j++ {
					if ids[j] < ids[i] {
						ids[i], ids[j] = ids[j], ids[i]
					}
				}
			}
			set[m.OriginalText+"|"+m.Description] = ids
		}
		return set
	}

	a := Merge(forward, "")
	b := Merge(reversed, "")
	if len(a) != len(b) {
		t.Fatalf("group counts differ: %d vs %d", len(a), len(b))
	}
	// Kept fields come from the highest-confidence entry, which is
	// order-independent, so keying on them is stable across permutations.
	ga, gb := groupSet(a), groupSet(b)
	if !reflect.DeepEqual(ga, gb) {
		t.Errorf("groups differ across permutations:\n%v\n%v", ga, gb)
	}
}

func TestMergeStaleFlag(t *testing.T) {
	batch := []Suggestion{
		{Id: "1", OriginalText: "still here", Severity: SeverityMedium},
		{Id: "2", OriginalText: "long gone", Severity: SeverityMedium},
	}

	got := Merge(batch, "the phrase still  here survives editing")
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	for _, m := range got {
		switch m.Id {
		case "1":
			if m.Stale {
				t.Error("text present in document flagged stale")
			}
		case "2":
			if !m.Stale {
				t.Error("vanished text not flagged stale")
			}
		}
	}

	// Without a projection nothing is flagged.
	got = Merge(batch, "")
	for _, m := range got {
		if m.Stale {
			t.Errorf("id %s stale without a document projection", m.Id)
		}
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	batch := []Suggestion{
		{Id: "2", OriginalText: "b", Severity: SeverityLow, Paragraph: 9},
		{Id: "1", OriginalText: "a", Severity: SeverityHigh, Paragraph: 1},
	}
	Merge(batch, "")
	if batch[0].Id != "2" || batch[1].Id != "1" {
		t.Errorf("input batch reordered: %v then %v", batch[0].Id, batch[1].Id)
	}
}

func TestMergeEmptyBatch(t *testing.T) {
	if got := Merge(nil, "text"); len(got) != 0 {
		t.Errorf("nil batch produced %d groups", len(got))
	}
}
