package idgen

import (
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOccurrenceCounter_Next(t *testing.T) {
	counter := NewOccurrenceCounter()
	d := date("2020-01-06")

	first := counter.Next("TFR-TO C/C", d)
	second := counter.Next("TFR-TO C/C", d)
	other := counter.Next("MONTHLY FEE", d)

	if first != "TFR-TO C/C:2020-01-06:0" {
		t.Errorf("Expected first occurrence index 0, got %q", first)
	}
	if second != "TFR-TO C/C:2020-01-06:1" {
		t.Errorf("Expected second occurrence index 1, got %q", second)
	}
	if other != "MONTHLY FEE:2020-01-06:0" {
		t.Errorf("Expected independent counter per raw id, got %q", other)
	}
}

func TestOccurrenceCounter_RunsAreIndependent(t *testing.T) {
	d := date("2020-01-06")

	run1 := NewOccurrenceCounter()
	run2 := NewOccurrenceCounter()

	id1 := run1.Next("TFR-TO C/C", d)
	id2 := run2.Next("TFR-TO C/C", d)

	if id1 != id2 {
		t.Errorf("Two fresh runs over the same input must synthesize identical ids: %q vs %q", id1, id2)
	}
}

func TestOccurrenceCounter_Count(t *testing.T) {
	counter := NewOccurrenceCounter()
	d := date("2020-01-06")

	if counter.Count("X") != 0 {
		t.Error("Expected zero count before first occurrence")
	}
	counter.Next("X", d)
	counter.Next("X", d)
	if counter.Count("X") != 2 {
		t.Errorf("Expected count 2, got %d", counter.Count("X"))
	}
}

func TestContentHashID_Deterministic(t *testing.T) {
	a := ContentHashID("SEND E-TFR", "01/05/2020", 3)
	b := ContentHashID("SEND E-TFR", "01/05/2020", 3)

	if a != b {
		t.Errorf("Identical inputs must synthesize identical ids: %q vs %q", a, b)
	}
}

func TestContentHashID_RowDisambiguates(t *testing.T) {
	a := ContentHashID("SEND E-TFR", "01/05/2020", 3)
	b := ContentHashID("SEND E-TFR", "01/05/2020", 4)

	if a == b {
		t.Error("Same raw id and date on different rows must synthesize different ids")
	}
}

func TestContentHashID_Shape(t *testing.T) {
	id := ContentHashID("SEND E-TFR", "01/05/2020", 0)

	// Cleaned raw id prefix, dash, ten hex characters.
	const wantPrefix = "SENDE-TFR-"
	if len(id) != len(wantPrefix)+10 {
		t.Errorf("Unexpected id length for %q", id)
	}
	if id[:len(wantPrefix)] != wantPrefix {
		t.Errorf("Expected id to start with %q, got %q", wantPrefix, id)
	}
}

func TestCleanRawID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SEND E-TFR", "SENDE-TFR"},
		{"  padded  ", "padded"},
		{"no-spaces", "no-spaces"},
		{"a b c", "abc"},
	}

	for _, tt := range tests {
		if got := CleanRawID(tt.in); got != tt.want {
			t.Errorf("CleanRawID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
