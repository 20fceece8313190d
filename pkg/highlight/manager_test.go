package highlight

import (
	"errors"
	"testing"
	"time"
)

func TestAddTemporaryReplacesPriorHighlight(t *testing.T) {
	m := NewManager(nil, 200*time.Millisecond)
	defer m.Close()

	if _, err := m.AddTemporary(0, 5, "high"); err != nil {
		t.Fatalf("AddTemporary: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, err := m.AddTemporary(10, 20, "low"); err != nil {
		t.Fatalf("AddTemporary: %v", err)
	}

	// 250ms after the first call the first timer would have fired;
	// only the second decoration may exist and must still be alive.
	time.Sleep(150 * time.Millisecond)
	d := m.Active()
	if d == nil {
		t.Fatal("second highlight cleared by the first call's timer")
	}
	if d.From != 10 || d.To != 20 || d.Severity != "low" {
		t.Errorf("active = %+v, want the second highlight", d)
	}

	// A full duration after the second call it expires.
	time.Sleep(150 * time.Millisecond)
	if m.Active() != nil {
		t.Error("highlight still active after its timer elapsed")
	}
}

func TestClearTemporary(t *testing.T) {
	m := NewManager(nil, time.Minute)
	defer m.Close()

	if _, err := m.AddTemporary(3, 9, "medium"); err != nil {
		t.Fatalf("AddTemporary: %v", err)
	}
	m.ClearTemporary()
	if m.Active() != nil {
		t.Error("decoration survives an explicit clear")
	}
	// Clearing an idle manager is a no-op.
	m.ClearTemporary()
}

func TestCloseCancelsPendingTimer(t *testing.T) {
	m := NewManager(nil, 50*time.Millisecond)
	if _, err := m.AddTemporary(0, 4, "high"); err != nil {
		t.Fatalf("AddTemporary: %v", err)
	}
	m.Close()

	if m.Active() != nil {
		t.Error("decoration survives teardown")
	}
	if _, err := m.AddTemporary(0, 4, "high"); !errors.Is(err, ErrClosed) {
		t.Errorf("AddTemporary after Close = %v, want ErrClosed", err)
	}
	// The cancelled timer must not fire into the closed manager.
	time.Sleep(80 * time.Millisecond)
	if m.Active() != nil {
		t.Error("timer fired after teardown")
	}
	m.Close() // idempotent
}

func TestAddTemporaryRejectsInvalidRange(t *testing.T) {
	m := NewManager(nil, time.Minute)
	defer m.Close()

	for _, r := range [][2]int{{-1, 3}, {5, 5}, {7, 2}} {
		if _, err := m.AddTemporary(r[0], r[1], "high"); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("AddTemporary(%d, %d) err = %v, want ErrInvalidRange", r[0], r[1], err)
		}
	}
}

func TestRemapThrough(t *testing.T) {
	tests := []struct {
		name             string
		editFrom, editTo int
		newLen           int
		want             *Decoration
	}{
		{
			name:     "edit before shifts the decoration",
			editFrom: 0, editTo: 4, newLen: 10,
			want: &Decoration{From: 16, To: 21},
		},
		{
			name:     "edit ending at the start shifts too",
			editFrom: 5, editTo: 10, newLen: 2,
			want: &Decoration{From: 7, To: 12},
		},
		{
			name:     "edit after leaves it alone",
			editFrom: 15, editTo: 18, newLen: 0,
			want: &Decoration{From: 10, To: 15},
		},
		{
			name:     "overlapping edit drops it",
			editFrom: 12, editTo: 13, newLen: 4,
			want: nil,
		},
		{
			name:     "edit covering the whole range drops it",
			editFrom: 8, editTo: 20, newLen: 1,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil, time.Minute)
			defer m.Close()
			if _, err := m.AddTemporary(10, 15, "high"); err != nil {
				t.Fatalf("AddTemporary: %v", err)
			}

			m.RemapThrough(tt.editFrom, tt.editTo, tt.newLen)
			got := m.Active()
			if tt.want == nil {
				if got != nil {
					t.Errorf("active = %+v, want dropped", got)
				}
				return
			}
			if got == nil {
				t.Fatal("decoration dropped, want remapped")
			}
			if got.From != tt.want.From || got.To != tt.want.To {
				t.Errorf("remapped = {%d %d}, want {%d %d}", got.From, got.To, tt.want.From, tt.want.To)
			}
		})
	}
}

type recordingMarker struct {
	calls []string
}

func (r *recordingMarker) SetMark(from, to int) error {
	r.calls = append(r.calls, "set")
	return nil
}

func (r *recordingMarker) UnsetMark(from, to int) error {
	r.calls = append(r.calls, "unset")
	return nil
}

func (r *recordingMarker) ToggleMark(from, to int) error {
	r.calls = append(r.calls, "toggle")
	return nil
}

func TestPermanentMarksDelegate(t *testing.T) {
	rec := &recordingMarker{}
	m := NewManager(rec, time.Minute)
	defer m.Close()

	if err := m.SetMark(0, 5); err != nil {
		t.Fatalf("SetMark: %v", err)
	}
	if err := m.UnsetMark(0, 5); err != nil {
		t.Fatalf("UnsetMark: %v", err)
	}
	if err := m.ToggleMark(0, 5); err != nil {
		t.Fatalf("ToggleMark: %v", err)
	}
	want := []string{"set", "unset", "toggle"}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, rec.calls[i], want[i])
		}
	}

	bare := NewManager(nil, time.Minute)
	defer bare.Close()
	if err := bare.SetMark(0, 5); !errors.Is(err, ErrNoMarker) {
		t.Errorf("SetMark without marker = %v, want ErrNoMarker", err)
	}
}
