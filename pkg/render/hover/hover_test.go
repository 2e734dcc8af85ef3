package hover

import "testing"

func TestZeroValueIsIdle(t *testing.T) {
	var s State[string]
	if s.Active() {
		t.Error("zero State should be idle")
	}
	if k, ok := s.Current(); ok || k != "" {
		t.Errorf("Current() = (%q, %v), want (\"\", false)", k, ok)
	}
}

func TestEnterOverwrites(t *testing.T) {
	var s State[string]
	s.Enter("A-X")
	s.Enter("A-Y")

	if !s.Is("A-Y") {
		t.Error("last Enter should win")
	}
	if s.Is("A-X") {
		t.Error("previous key should no longer be highlighted")
	}
}

func TestRoundTripToIdle(t *testing.T) {
	var idle, s State[string]
	s.Enter("A-X")
	s.Leave()

	if s != idle {
		t.Errorf("Enter then Leave = %+v, want %+v", s, idle)
	}

	s.Enter("A-X")
	s.Clear()
	if s != idle {
		t.Errorf("Enter then Clear = %+v, want %+v", s, idle)
	}
}

func TestHighlightedConstructor(t *testing.T) {
	type cell struct{ row, col int }
	s := Highlighted(cell{1, 2})
	if !s.Is(cell{1, 2}) {
		t.Error("Highlighted should activate the given key")
	}
	if s.Is(cell{2, 1}) {
		t.Error("other keys should not match")
	}
}
