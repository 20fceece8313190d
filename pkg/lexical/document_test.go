package lexical

import (
	"errors"
	"strings"
	"testing"

	"ai-docpilot-be/pkg/anchor"
)

const twoParagraphs = `{"root":{"type":"root","version":1,"children":[
	{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"Hello world"}]},
	{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"Second paragraph"}]}
]}}`

const boldSplit = `{"root":{"type":"root","version":1,"children":[
	{"type":"paragraph","version":1,"children":[
		{"type":"text","version":1,"text":"The "},
		{"type":"text","version":1,"format":1,"text":"quick"},
		{"type":"text","version":1,"text":" fox."}
	]}
]}}`

func mustDoc(t *testing.T, content string) *Document {
	t.Helper()
	d, err := NewDocument(content)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return d
}

func TestPlainTextProjection(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "paragraphs get one line each",
			content: twoParagraphs,
			want:    "Hello world\nSecond paragraph\n",
		},
		{
			name:    "formatting splits do not break the run",
			content: boldSplit,
			want:    "The quick fox.\n",
		},
		{
			name: "list items get one line each",
			content: `{"root":{"type":"root","version":1,"children":[
				{"type":"list","listType":"bullet","version":1,"children":[
					{"type":"listitem","version":1,"children":[{"type":"text","version":1,"text":"alpha"}]},
					{"type":"listitem","version":1,"children":[{"type":"text","version":1,"text":"beta"}]}
				]}
			]}}`,
			want: "alpha\nbeta\n",
		},
		{
			name: "nested list items follow their parent item",
			content: `{"root":{"type":"root","version":1,"children":[
				{"type":"list","listType":"bullet","version":1,"children":[
					{"type":"listitem","version":1,"children":[
						{"type":"text","version":1,"text":"parent"},
						{"type":"list","listType":"bullet","version":1,"children":[
							{"type":"listitem","version":1,"children":[{"type":"text","version":1,"text":"child"}]}
						]}
					]}
				]}
			]}}`,
			want: "parent\nchild\n",
		},
		{
			name: "table rows get one line, cells joined by a space",
			content: `{"root":{"type":"root","version":1,"children":[
				{"type":"table","version":1,"children":[
					{"type":"tablerow","version":1,"children":[
						{"type":"tablecell","version":1,"children":[{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"name"}]}]},
						{"type":"tablecell","version":1,"children":[{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"role"}]}]}
					]}
				]}
			]}}`,
			want: "name role\n",
		},
		{
			name: "linebreak becomes a space",
			content: `{"root":{"type":"root","version":1,"children":[
				{"type":"paragraph","version":1,"children":[
					{"type":"text","version":1,"text":"one"},
					{"type":"linebreak","version":1},
					{"type":"text","version":1,"text":"two"}
				]}
			]}}`,
			want: "one two\n",
		},
		{
			name:    "empty document",
			content: `{"root":{"type":"root","version":1,"children":[]}}`,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDoc(t, tt.content)
			if got := d.PlainText(); got != tt.want {
				t.Errorf("PlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewDocumentRejectsBadJSON(t *testing.T) {
	if _, err := NewDocument(`{"root":`); err == nil {
		t.Fatal("expected error for truncated json")
	}
}

func TestBlockOf(t *testing.T) {
	d := mustDoc(t, `{"root":{"type":"root","version":1,"children":[
		{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"intro"}]},
		{"type":"list","listType":"bullet","version":1,"children":[
			{"type":"listitem","version":1,"children":[{"type":"text","version":1,"text":"alpha"}]},
			{"type":"listitem","version":1,"children":[{"type":"text","version":1,"text":"beta"}]}
		]}
	]}}`)
	// "intro\nalpha\nbeta\n"

	tests := []struct {
		off  int
		want int
	}{
		{-1, 0},
		{0, 1},
		{5, 1},
		{6, 2},
		{11, 2},
		{12, 3},
		{16, 3},
		{17, 3},
	}
	for _, tt := range tests {
		if got := d.BlockOf(tt.off); got != tt.want {
			t.Errorf("BlockOf(%d) = %d, want %d", tt.off, got, tt.want)
		}
	}
}

func TestWalkLeavesShortCircuits(t *testing.T) {
	d := mustDoc(t, boldSplit)

	var visited []string
	d.WalkLeaves(func(l anchor.Leaf) bool {
		visited = append(visited, l.Text)
		return len(visited) < 2
	})
	if len(visited) != 2 || visited[0] != "The " || visited[1] != "quick" {
		t.Errorf("visited = %v, want first two leaves", visited)
	}
}

func TestDocumentResolvesAnchors(t *testing.T) {
	d := mustDoc(t, boldSplit)

	a := anchor.Resolve("quick fox", d)
	if a == nil {
		t.Fatal("span split by bold formatting did not resolve")
	}
	if a.From != 4 || a.To != 13 {
		t.Errorf("anchor = {%d %d}, want {4 13}", a.From, a.To)
	}

	// Entity drift in the search text resolves to the same span.
	b := anchor.Resolve("quick&nbsp;fox", d)
	if b == nil || *b != *a {
		t.Errorf("entity variant resolved to %v, want %v", b, a)
	}
}

func TestReplaceRange(t *testing.T) {
	t.Run("single leaf", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		ed, err := d.ReplaceRange(6, 11, "there")
		if err != nil {
			t.Fatalf("ReplaceRange: %v", err)
		}
		if ed != (Edit{From: 6, To: 11, NewLen: 5}) {
			t.Errorf("edit = %+v", ed)
		}
		if got := d.PlainText(); got != "Hello there\nSecond paragraph\n" {
			t.Errorf("PlainText() = %q", got)
		}
	})

	t.Run("across leaves in one block", func(t *testing.T) {
		d := mustDoc(t, boldSplit)
		if _, err := d.ReplaceRange(4, 13, "slow dog"); err != nil {
			t.Fatalf("ReplaceRange: %v", err)
		}
		if got := d.PlainText(); got != "The slow dog.\n" {
			t.Errorf("PlainText() = %q", got)
		}
	})

	t.Run("emptied leaf is pruned", func(t *testing.T) {
		d := mustDoc(t, boldSplit)
		if _, err := d.ReplaceRange(4, 9, ""); err != nil {
			t.Fatalf("ReplaceRange: %v", err)
		}
		if got := d.PlainText(); got != "The  fox.\n" {
			t.Errorf("PlainText() = %q", got)
		}
		count := 0
		d.WalkLeaves(func(anchor.Leaf) bool { count++; return true })
		if count != 2 {
			t.Errorf("leaf count = %d, want 2", count)
		}
	})

	t.Run("insertion point", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		if _, err := d.ReplaceRange(5, 5, ","); err != nil {
			t.Fatalf("ReplaceRange: %v", err)
		}
		if got := d.PlainText(); got != "Hello, world\nSecond paragraph\n" {
			t.Errorf("PlainText() = %q", got)
		}
	})

	t.Run("selection shifts through the edit", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		d.SetSelection(12) // start of second paragraph
		if _, err := d.ReplaceRange(6, 11, "all"); err != nil {
			t.Fatalf("ReplaceRange: %v", err)
		}
		if got := d.Selection(); got != 10 {
			t.Errorf("Selection() = %d, want 10", got)
		}
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name     string
			content  string
			from, to int
			wantErr  error
		}{
			{"negative from", twoParagraphs, -1, 2, ErrOutOfBounds},
			{"to past end", twoParagraphs, 0, 100, ErrOutOfBounds},
			{"crosses paragraphs", twoParagraphs, 6, 15, ErrCrossesBlocks},
			{"eats trailing newline", twoParagraphs, 6, 12, ErrNotText},
			{"insertion outside text", `{"root":{"type":"root","version":1,"children":[]}}`, 0, 0, ErrNotText},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				d := mustDoc(t, tt.content)
				if _, err := d.ReplaceRange(tt.from, tt.to, "x"); !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("cell joint is not replaceable text", func(t *testing.T) {
		d := mustDoc(t, `{"root":{"type":"root","version":1,"children":[
			{"type":"table","version":1,"children":[
				{"type":"tablerow","version":1,"children":[
					{"type":"tablecell","version":1,"children":[{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"name"}]}]},
					{"type":"tablecell","version":1,"children":[{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"role"}]}]}
				]}
			]}
		]}}`)
		if _, err := d.ReplaceRange(2, 7, "x"); !errors.Is(err, ErrNotText) {
			t.Errorf("err = %v, want ErrNotText", err)
		}
	})
}

func TestInsertDiagramNode(t *testing.T) {
	t.Run("after the containing block", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		at, err := d.InsertDiagramNode(11, "graph TD; A --- B", "flowchart", "Flow")
		if err != nil {
			t.Fatalf("InsertDiagramNode: %v", err)
		}
		if at != 13 {
			t.Errorf("diagram offset = %d, want 13", at)
		}
		if got := d.PlainText(); got != "Hello world\n\n\n\nSecond paragraph\n" {
			t.Errorf("PlainText() = %q", got)
		}
		out, err := d.Serialize()
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		for _, frag := range []string{`"type":"diagram"`, `"syntax":"graph TD; A --- B"`, `"diagramType":"flowchart"`, `"title":"Flow"`} {
			if !strings.Contains(out, frag) {
				t.Errorf("serialized tree missing %s", frag)
			}
		}
	})

	t.Run("offset on a block start lands before it", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		at, err := d.InsertDiagramNode(12, "graph", "flowchart", "")
		if err != nil {
			t.Fatalf("InsertDiagramNode: %v", err)
		}
		if at != 13 {
			t.Errorf("diagram offset = %d, want 13", at)
		}
	})

	t.Run("append at document end", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		at, err := d.InsertDiagramNode(d.Len(), "graph", "sequence", "")
		if err != nil {
			t.Fatalf("InsertDiagramNode: %v", err)
		}
		if at != 30 {
			t.Errorf("diagram offset = %d, want 30", at)
		}
		if got := d.PlainText(); got != "Hello world\nSecond paragraph\n\n\n\n" {
			t.Errorf("PlainText() = %q", got)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		d := mustDoc(t, `{"root":{"type":"root","version":1,"children":[]}}`)
		at, err := d.InsertDiagramNode(0, "graph", "flowchart", "")
		if err != nil {
			t.Fatalf("InsertDiagramNode: %v", err)
		}
		if at != 1 {
			t.Errorf("diagram offset = %d, want 1", at)
		}
	})

	t.Run("selection shifts past the insertion", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		d.SetSelection(12)
		if _, err := d.InsertDiagramNode(5, "graph", "flowchart", ""); err != nil {
			t.Fatalf("InsertDiagramNode: %v", err)
		}
		if got := d.Selection(); got != 15 {
			t.Errorf("Selection() = %d, want 15", got)
		}
		if got := d.PlainText(); got != "Hello world\n\n\n\nSecond paragraph\n" {
			t.Errorf("PlainText() = %q", got)
		}
	})
}

func TestMarks(t *testing.T) {
	t.Run("set splits the leaf and keeps text intact", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		if err := d.SetMark(6, 11); err != nil {
			t.Fatalf("SetMark: %v", err)
		}
		if got := d.PlainText(); got != "Hello world\nSecond paragraph\n" {
			t.Errorf("marks must not change text, got %q", got)
		}
		if !d.Highlighted(6, 11) {
			t.Error("marked range not highlighted")
		}
		if d.Highlighted(0, 11) {
			t.Error("unmarked prefix reported highlighted")
		}
		out, _ := d.Serialize()
		if !strings.Contains(out, `"format":128`) {
			t.Error("serialized tree missing highlight format bit")
		}
	})

	t.Run("unset restores", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		if err := d.SetMark(6, 11); err != nil {
			t.Fatalf("SetMark: %v", err)
		}
		if err := d.UnsetMark(6, 11); err != nil {
			t.Fatalf("UnsetMark: %v", err)
		}
		if d.Highlighted(6, 11) {
			t.Error("range still highlighted after unset")
		}
	})

	t.Run("toggle flips", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		if err := d.ToggleMark(0, 5); err != nil {
			t.Fatalf("ToggleMark: %v", err)
		}
		if !d.Highlighted(0, 5) {
			t.Error("first toggle did not mark")
		}
		if err := d.ToggleMark(0, 5); err != nil {
			t.Fatalf("ToggleMark: %v", err)
		}
		if d.Highlighted(0, 5) {
			t.Error("second toggle did not unmark")
		}
	})

	t.Run("mark spans blocks over the newline gap", func(t *testing.T) {
		d := mustDoc(t, twoParagraphs)
		if err := d.SetMark(6, 18); err != nil {
			t.Fatalf("SetMark: %v", err)
		}
		if !d.Highlighted(6, 18) {
			t.Error("cross-block mark not highlighted")
		}
	})

	t.Run("mark on existing format keeps other bits", func(t *testing.T) {
		d := mustDoc(t, boldSplit)
		if err := d.SetMark(4, 9); err != nil { // the bold leaf
			t.Fatalf("SetMark: %v", err)
		}
		out, _ := d.Serialize()
		if !strings.Contains(out, `"format":129`) {
			t.Error("bold bit lost when adding highlight")
		}
		if err := d.UnsetMark(4, 9); err != nil {
			t.Fatalf("UnsetMark: %v", err)
		}
		out, _ = d.Serialize()
		if strings.Contains(out, `"format":129`) || !strings.Contains(out, `"format":1`) {
			t.Error("bold bit lost when removing highlight")
		}
	})
}

func TestSerializeRoundTrip(t *testing.T) {
	d := mustDoc(t, boldSplit)
	out, err := d.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	d2 := mustDoc(t, out)
	if d2.PlainText() != d.PlainText() {
		t.Errorf("round trip changed projection: %q vs %q", d2.PlainText(), d.PlainText())
	}
	if got := d2.Markdown(); !strings.Contains(got, "**quick**") {
		t.Errorf("Markdown() = %q, want bold marker preserved", got)
	}
}
