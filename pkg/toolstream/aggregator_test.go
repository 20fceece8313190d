package toolstream

import (
	"encoding/json"
	"testing"
)

func TestAggregatorReassemblesSplitArguments(t *testing.T) {
	fragments := []Fragment{
		{Index: 0, Name: "create_suggestion", ArgumentsChunk: `{"orig`},
		{Index: 0, ArgumentsChunk: `inalText":"x"}`},
	}

	agg := NewAggregator()
	for _, f := range fragments {
		if err := agg.Feed(f); err != nil {
			t.Fatalf("Feed: %v", err)
		}
	}

	calls, corrupt, err := agg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(corrupt) != 0 {
		t.Fatalf("corrupt = %d, want 0", len(corrupt))
	}
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].Name != "create_suggestion" {
		t.Errorf("Name = %q, want create_suggestion", calls[0].Name)
	}
	if calls[0].ArgumentsRaw != `{"originalText":"x"}` {
		t.Errorf("ArgumentsRaw = %q", calls[0].ArgumentsRaw)
	}
}

func TestAggregatorChunkingInvariance(t *testing.T) {
	// Any split of the same argument string must reconstruct the exact
	// same bytes.
	full := `{"originalText":"the device","replaceTo":"the apparatus","severity":"high"}`
	splits := [][]int{
		{len(full)},
		{1, len(full) - 1},
		{10, 20, len(full) - 30},
		{3, 3, 3, 3, len(full) - 12},
	}

	for _, sizes := range splits {
		agg := NewAggregator()
		pos := 0
		first := true
		for _, n := range sizes {
			f := Fragment{Index: 0, ArgumentsChunk: full[pos : pos+n]}
			if first {
				f.Name = "create_suggestion"
				first = false
			}
			if err := agg.Feed(f); err != nil {
				t.Fatalf("Feed: %v", err)
			}
			pos += n
		}
		calls, _, err := agg.Finalize()
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if len(calls) != 1 || calls[0].ArgumentsRaw != full {
			t.Errorf("split %v reconstructed %q", sizes, calls[0].ArgumentsRaw)
		}
	}
}

func TestAggregatorIndexIsolation(t *testing.T) {
	// Fragments of two calls interleave; each index's chunks stay in
	// order relative to each other.
	fragments := []Fragment{
		{Index: 0, Name: "create_suggestion", ArgumentsChunk: `{"a":`},
		{Index: 1, Name: "insert_diagram", ArgumentsChunk: `{"b"`},
		{Index: 0, ArgumentsChunk: `1}`},
		{Index: 1, ArgumentsChunk: `:2}`},
	}

	agg := NewAggregator()
	for _, f := range fragments {
		if err := agg.Feed(f); err != nil {
			t.Fatalf("Feed: %v", err)
		}
	}
	calls, corrupt, err := agg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(corrupt) != 0 {
		t.Fatalf("corrupt = %d, want 0", len(corrupt))
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].Index != 0 || calls[0].ArgumentsRaw != `{"a":1}` {
		t.Errorf("call 0 = %+v", calls[0])
	}
	if calls[1].Index != 1 || calls[1].ArgumentsRaw != `{"b":2}` {
		t.Errorf("call 1 = %+v", calls[1])
	}
}

func TestAggregatorAscendingIndexOrder(t *testing.T) {
	agg := NewAggregator()
	for _, idx := range []int{2, 0, 1} {
		if err := agg.Feed(Fragment{Index: idx, Name: "tool", ArgumentsChunk: "{}"}); err != nil {
			t.Fatalf("Feed: %v", err)
		}
	}
	calls, _, err := agg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	for i, c := range calls {
		if c.Index != i {
			t.Errorf("calls[%d].Index = %d, want %d", i, c.Index, i)
		}
	}
}

func TestAggregatorNameBackfill(t *testing.T) {
	// Name arrives on a later fragment than the first chunk for the
	// index (the opening fragment was consumed before this buffer
	// attached).
	agg := NewAggregator()
	agg.Feed(Fragment{Index: 0, ArgumentsChunk: `{"x":`})
	agg.Feed(Fragment{Index: 0, Name: "create_suggestion", ArgumentsChunk: `1}`})

	calls, _, err := agg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].Name != "create_suggestion" {
		t.Errorf("Name = %q, want back-filled create_suggestion", calls[0].Name)
	}
	if calls[0].ArgumentsRaw != `{"x":1}` {
		t.Errorf("ArgumentsRaw = %q", calls[0].ArgumentsRaw)
	}
}

func TestAggregatorMissingChunkIsEmpty(t *testing.T) {
	agg := NewAggregator()
	agg.Feed(Fragment{Index: 0, Name: "create_suggestion"})
	agg.Feed(Fragment{Index: 0, ArgumentsChunk: `{}`})
	agg.Feed(Fragment{Index: 0})

	calls, corrupt, err := agg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(corrupt) != 0 || len(calls) != 1 {
		t.Fatalf("calls=%d corrupt=%d, want 1/0", len(calls), len(corrupt))
	}
	if calls[0].ArgumentsRaw != `{}` {
		t.Errorf("ArgumentsRaw = %q, want {}", calls[0].ArgumentsRaw)
	}
}

func TestAggregatorCorruptCallCarriesRawPayload(t *testing.T) {
	agg := NewAggregator()
	agg.Feed(Fragment{Index: 0, Name: "create_suggestion", ArgumentsChunk: `{"unterminated":"`})
	agg.Feed(Fragment{Index: 1, Name: "insert_diagram", ArgumentsChunk: `{"ok":true}`})

	calls, corrupt, err := agg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(calls) != 1 || calls[0].Name != "insert_diagram" {
		t.Fatalf("valid calls = %+v, want only insert_diagram", calls)
	}
	if len(corrupt) != 1 {
		t.Fatalf("corrupt = %d, want 1", len(corrupt))
	}
	if corrupt[0].Call.ArgumentsRaw != `{"unterminated":"` {
		t.Errorf("corrupt raw = %q", corrupt[0].Call.ArgumentsRaw)
	}
	if corrupt[0].Err == nil {
		t.Error("corrupt entry has nil error")
	}
}

func TestAggregatorEmptyArgumentsAreCorrupt(t *testing.T) {
	// A call that never received a chunk has no valid JSON to parse; the
	// repair step upstream decides whether "" means "{}".
	agg := NewAggregator()
	agg.Feed(Fragment{Index: 0, Name: "refresh"})

	calls, corrupt, err := agg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(calls) != 0 || len(corrupt) != 1 {
		t.Fatalf("calls=%d corrupt=%d, want 0/1", len(calls), len(corrupt))
	}
}

func TestAggregatorDeadAfterFinalize(t *testing.T) {
	agg := NewAggregator()
	agg.Feed(Fragment{Index: 0, Name: "tool", ArgumentsChunk: "{}"})
	if _, _, err := agg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if err := agg.Feed(Fragment{Index: 1, Name: "late"}); err != ErrAggregatorDone {
		t.Errorf("Feed after Finalize = %v, want ErrAggregatorDone", err)
	}
	if _, _, err := agg.Finalize(); err != ErrAggregatorDone {
		t.Errorf("second Finalize = %v, want ErrAggregatorDone", err)
	}
}

func TestAggregatorAbortDiscardsPartialCalls(t *testing.T) {
	agg := NewAggregator()
	agg.Feed(Fragment{Index: 0, Name: "create_suggestion", ArgumentsChunk: `{"half`})
	agg.Abort()

	if err := agg.Feed(Fragment{Index: 0, ArgumentsChunk: `":1}`}); err != ErrAggregatorDone {
		t.Errorf("Feed after Abort = %v, want ErrAggregatorDone", err)
	}
	if _, _, err := agg.Finalize(); err != ErrAggregatorDone {
		t.Errorf("Finalize after Abort = %v, want ErrAggregatorDone", err)
	}
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty becomes object", "", "{}"},
		{"whitespace becomes object", "  \n", "{}"},
		{"already valid untouched", `{"a":1}`, `{"a":1}`},
		{"open string closed", `{"text":"abc`, `{"text":"abc"}`},
		{"open brace closed", `{"a":{"b":1}`, `{"a":{"b":1}}`},
		{"open bracket closed", `{"items":[1,2`, `{"items":[1,2]}`},
		{"trailing comma dropped", `{"a":1,`, `{"a":1}`},
		{"dangling colon gets null", `{"a":`, `{"a":null}`},
		{"escaped quote inside string", `{"t":"say \"hi`, `{"t":"say \"hi"}`},
		{"cut on escape", `{"t":"line\`, `{"t":"line\\"}`},
		{"nested mix", `{"a":[{"b":"c`, `{"a":[{"b":"c"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Repair(tt.in)
			if got != tt.want {
				t.Errorf("Repair(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !json.Valid([]byte(got)) {
				t.Errorf("Repair(%q) = %q is still invalid JSON", tt.in, got)
			}
		})
	}
}
