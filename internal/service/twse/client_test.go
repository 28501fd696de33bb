package twse

import "testing"

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"990.0000", 990},
		{"1,215.0000", 1215},
		{"-", 0},
		{"", 0},
		{" 35.55 ", 35.55},
		{"n/a", 0},
	}
	for _, tc := range cases {
		if got := parsePrice(tc.in); got != tc.want {
			t.Fatalf("parsePrice(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFirstLevelTakesBestOfBook(t *testing.T) {
	if got := firstLevel("989.5000_989.0000_988.5000_988.0000_987.5000"); got != 989.5 {
		t.Fatalf("firstLevel = %v, want 989.5", got)
	}
	if got := firstLevel("-"); got != 0 {
		t.Fatalf("firstLevel(-) = %v, want 0", got)
	}
}

func TestDashDate(t *testing.T) {
	if got := dashDate("20260828"); got != "2026-08-28" {
		t.Fatalf("dashDate = %q", got)
	}
	if got := dashDate("bad"); got != "bad" {
		t.Fatalf("dashDate should pass through malformed input, got %q", got)
	}
}
