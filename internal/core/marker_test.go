package core

import (
	"testing"
	"time"
)

func TestMarkerAfter_ComparesNumerically(t *testing.T) {
	cases := []struct {
		m, other Marker
		want     bool
	}{
		{"1700000000.000200", "1700000000.000100", true},
		{"1700000000.000100", "1700000000.000200", false},
		{"1700000000.000100", "1700000000.000100", false},
		// Lexicographic comparison would get this one wrong.
		{"10.1", "9.5", true},
		{"1700000000.000100", MarkerNone, true},
		{MarkerNone, MarkerNone, false},
		{"", "1700000000.000100", false},
		{"", "", false},
	}

	for _, tc := range cases {
		if got := tc.m.After(tc.other); got != tc.want {
			t.Errorf("Marker(%q).After(%q) = %v, want %v", tc.m, tc.other, got, tc.want)
		}
	}
}

func TestMarkerIsZero(t *testing.T) {
	if !Marker("").IsZero() {
		t.Error("empty marker should be zero")
	}
	if MarkerNone.IsZero() {
		t.Error("sentinel marker is a value, not absence")
	}
}

func TestMarkerTime(t *testing.T) {
	m := Marker("1700000000.500000")
	got := m.Time()
	want := time.Unix(1700000000, 500000000)
	if got.Sub(want).Abs() > time.Millisecond {
		t.Errorf("Time() = %v, want %v", got, want)
	}
}

func TestHistoryOldest(t *testing.T) {
	if got := historyOldest(""); got != "" {
		t.Errorf("absent marker should have no bound, got %q", got)
	}
	if got := historyOldest(MarkerNone); got != "" {
		t.Errorf("sentinel marker should have no bound, got %q", got)
	}
	if got := historyOldest("1700000000.000100"); got != "1700000000.000100" {
		t.Errorf("real marker should bound the fetch, got %q", got)
	}
}
