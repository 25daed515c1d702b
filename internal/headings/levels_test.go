package headings

import "testing"

func assignAll(t *testing.T, patterns []string) []int {
	t.Helper()
	table := NewLevelTable()
	out := make([]int, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, table.Assign(p))
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLevelTable_ResetLaw(t *testing.T) {
	got := assignAll(t, []string{"A", "B", "A", "C"})
	want := []int{1, 2, 1, 2}
	if !equalInts(got, want) {
		t.Errorf("expected levels %v, got %v", want, got)
	}
}

func TestLevelTable_RecurrenceDropsDeeper(t *testing.T) {
	table := NewLevelTable()
	table.Assign("A")
	table.Assign("B")
	table.Assign("C")

	if got := table.Assign("A"); got != 1 {
		t.Fatalf("expected A to return to level 1, got %d", got)
	}
	if table.Len() != 1 {
		t.Errorf("expected only A to remain, table has %d entries", table.Len())
	}
	if _, ok := table.Level("B"); ok {
		t.Error("expected B to be forgotten")
	}
	if _, ok := table.Level("C"); ok {
		t.Error("expected C to be forgotten")
	}
	if table.Current() != 1 {
		t.Errorf("expected current level 1, got %d", table.Current())
	}
}

func TestLevelTable_SiblingKeepsShallowerEntries(t *testing.T) {
	got := assignAll(t, []string{"A", "B", "C", "B", "D", "A", "C"})
	want := []int{1, 2, 3, 2, 3, 1, 2}
	if !equalInts(got, want) {
		t.Errorf("expected levels %v, got %v", want, got)
	}
}

func TestLevelTable_RepeatedSameShape(t *testing.T) {
	got := assignAll(t, []string{"A", "A", "A"})
	want := []int{1, 1, 1}
	if !equalInts(got, want) {
		t.Errorf("expected levels %v, got %v", want, got)
	}
}

func TestLevelTable_NeverBelowOne(t *testing.T) {
	table := NewLevelTable()
	for _, p := range []string{"x", "y", "x", "z", "y", "x", "w"} {
		if l := table.Assign(p); l < 1 {
			t.Fatalf("Assign(%q) returned %d", p, l)
		}
	}
}
