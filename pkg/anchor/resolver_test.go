package anchor

import (
	"testing"
)

// stubTree feeds hand-built leaves and containers to the resolver.
type stubTree struct {
	leaves     []Leaf
	containers []Container
}

func (s stubTree) WalkLeaves(fn func(Leaf) bool) {
	for _, l := range s.leaves {
		if !fn(l) {
			return
		}
	}
}

func (s stubTree) WalkContainers(fn func(Container) bool) {
	for _, c := range s.containers {
		if !fn(c) {
			return
		}
	}
}

// leavesFrom lays out texts as consecutive leaves starting at offset 0 and
// wraps them in a single container, mimicking one paragraph.
func leavesFrom(texts ...string) stubTree {
	var leaves []Leaf
	offset := 0
	for _, t := range texts {
		leaves = append(leaves, Leaf{Text: t, Start: offset})
		offset += len([]rune(t))
	}
	return stubTree{
		leaves:     leaves,
		containers: []Container{{Leaves: leaves}},
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "The Device", "the device"},
		{"collapses spaces", "a  b   c", "a b c"},
		{"collapses mixed whitespace", "a \t\n b", "a b"},
		{"decodes nbsp entity", "a&nbsp;b", "a b"},
		{"nbsp entity joins space run", "a &nbsp; b", "a b"},
		{"decodes amp", "tom &amp; jerry", "tom & jerry"},
		{"decodes quotes", "&quot;hi&quot; &#39;there&apos;", `"hi" 'there'`},
		{"unicode nbsp", "a b", "a b"},
		{"bare ampersand untouched", "a & b &x", "a & b &x"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveExactLeaf(t *testing.T) {
	doc := leavesFrom("The quick brown fox jumps over the lazy dog.")

	tests := []struct {
		name     string
		search   string
		wantFrom int
		wantTo   int
	}{
		{"verbatim", "quick brown", 4, 15},
		{"case insensitive", "QUICK BROWN", 4, 15},
		{"double space in search", "quick  brown", 4, 15},
		{"whole leaf", "The quick brown fox jumps over the lazy dog.", 0, 44},
		{"single char", "T", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Resolve(tt.search, doc)
			if a == nil {
				t.Fatalf("Resolve(%q) = nil, want anchor", tt.search)
			}
			if a.From != tt.wantFrom || a.To != tt.wantTo {
				t.Errorf("Resolve(%q) = {%d %d}, want {%d %d}", tt.search, a.From, a.To, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestResolveNormalizationInvariance(t *testing.T) {
	// Same logical text, three document spellings.
	docs := map[string]stubTree{
		"single space": leavesFrom("before A B after"),
		"double space": leavesFrom("before A  B after"),
		"nbsp entity":  leavesFrom("before A&nbsp;B after"),
	}
	searches := []string{"A B", "A  B", "a b"}

	for docName, doc := range docs {
		for _, search := range searches {
			a := Resolve(search, doc)
			if a == nil {
				t.Errorf("doc %q: Resolve(%q) = nil, want anchor", docName, search)
				continue
			}
			// The span must start at the A and end just past the B,
			// whatever the document spelled in between.
			runes := []rune(doc.leaves[0].Text)
			if runes[a.From] != 'A' {
				t.Errorf("doc %q: Resolve(%q) starts at %q, want A", docName, search, string(runes[a.From]))
			}
			if runes[a.To-1] != 'B' {
				t.Errorf("doc %q: Resolve(%q) span %q does not end at B", docName, search, string(runes[a.From:a.To]))
			}
		}
	}
}

func TestResolveIdempotent(t *testing.T) {
	doc := leavesFrom("alpha beta gamma delta")
	first := Resolve("beta gamma", doc)
	second := Resolve("beta gamma", doc)
	if first == nil || second == nil {
		t.Fatal("Resolve returned nil for present text")
	}
	if *first != *second {
		t.Errorf("resolving twice differs: %+v vs %+v", first, second)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	doc := leavesFrom("echo one echo two echo three")
	a := Resolve("echo", doc)
	if a == nil {
		t.Fatal("Resolve = nil")
	}
	if a.From != 0 || a.To != 4 {
		t.Errorf("Resolve = {%d %d}, want first occurrence {0 4}", a.From, a.To)
	}
}

func TestResolveCrossNode(t *testing.T) {
	// "the bold word" with "bold" split out into its own leaf, as an
	// inline formatting node would do.
	doc := leavesFrom("the ", "bold", " word here")

	a := Resolve("the bold word", doc)
	if a == nil {
		t.Fatal("Resolve = nil, want cross-node match")
	}
	if a.From != 0 || a.To != 13 {
		t.Errorf("Resolve = {%d %d}, want {0 13}", a.From, a.To)
	}

	// A span living entirely inside the middle leaf must still resolve
	// via the plain leaf scan.
	a = Resolve("bold", doc)
	if a == nil {
		t.Fatal("Resolve(bold) = nil")
	}
	if a.From != 4 || a.To != 8 {
		t.Errorf("Resolve(bold) = {%d %d}, want {4 8}", a.From, a.To)
	}
}

func TestResolveCrossNodeBoundaryWhitespace(t *testing.T) {
	// Both leaves contribute whitespace at the join; the run must not
	// grow a double space that breaks matching.
	doc := leavesFrom("left ", " right")
	a := Resolve("left right", doc)
	if a == nil {
		t.Fatal("Resolve = nil, want match across collapsed boundary")
	}
	if a.From != 0 || a.To != 11 {
		t.Errorf("Resolve = {%d %d}, want {0 11}", a.From, a.To)
	}
}

func TestResolveFuzzyPrefix(t *testing.T) {
	// Document diverges from the search text after the opening words, as
	// happens when the user edits the tail of a long sentence.
	doc := leavesFrom("The committee reviewed the quarterly financial projections carefully.")

	search := "The committee reviewed the quarterly financial forecasts"
	a := Resolve(search, doc)
	if a == nil {
		t.Fatal("Resolve = nil, want fuzzy prefix anchor")
	}
	if a.From != 0 {
		t.Errorf("fuzzy anchor From = %d, want 0", a.From)
	}
	// Span covers the 30-rune normalized prefix, not the full target.
	if a.To != 30 {
		t.Errorf("fuzzy anchor To = %d, want 30", a.To)
	}
}

func TestResolveFuzzySkippedForShortTargets(t *testing.T) {
	doc := leavesFrom("zxqwvu content")
	// 10 normalized runes or fewer: no prefix retry, so a diverging
	// short target simply misses.
	if a := Resolve("zxqwvu bad", doc); a != nil {
		t.Errorf("Resolve = %+v, want nil for short diverging target", a)
	}
}

func TestResolveNotFound(t *testing.T) {
	doc := leavesFrom("some document text")
	if a := Resolve("absent", doc); a != nil {
		t.Errorf("Resolve = %+v, want nil", a)
	}
	if a := Resolve("", doc); a != nil {
		t.Errorf("Resolve(empty) = %+v, want nil", a)
	}
}

func TestResolveLeafOffsetsRespectStart(t *testing.T) {
	// Leaves from two different paragraphs: starts are not contiguous
	// because the projection inserts a block separator.
	doc := stubTree{
		leaves: []Leaf{
			{Text: "first paragraph", Start: 0},
			{Text: "second paragraph", Start: 16},
		},
		containers: []Container{
			{Leaves: []Leaf{{Text: "first paragraph", Start: 0}}},
			{Leaves: []Leaf{{Text: "second paragraph", Start: 16}}},
		},
	}
	a := Resolve("second", doc)
	if a == nil {
		t.Fatal("Resolve = nil")
	}
	if a.From != 16 || a.To != 22 {
		t.Errorf("Resolve = {%d %d}, want {16 22}", a.From, a.To)
	}
}
